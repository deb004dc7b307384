package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"foodgram-api/domain"
	"foodgram-api/internal/api/presenters"
	"foodgram-api/pkg/recipe"
	"foodgram-api/pkg/relation"
)

type (
	RecipeHandler interface {
		GetRecipes(c *fiber.Ctx) error
		GetRecipeDetail(c *fiber.Ctx) error
		CreateRecipe(c *fiber.Ctx) error
		UpdateRecipe(c *fiber.Ctx) error
		DeleteRecipe(c *fiber.Ctx) error
		AddFavorite(c *fiber.Ctx) error
		RemoveFavorite(c *fiber.Ctx) error
		AddToCart(c *fiber.Ctx) error
		RemoveFromCart(c *fiber.Ctx) error
		DownloadShoppingCart(c *fiber.Ctx) error
	}

	recipeHandler struct {
		recipeService   recipe.RecipeService
		relationService relation.RelationService
		validator       *validator.Validate
	}
)

func NewRecipeHandler(recipeService recipe.RecipeService, relationService relation.RelationService, validator *validator.Validate) RecipeHandler {
	return &recipeHandler{
		recipeService:   recipeService,
		relationService: relationService,
		validator:       validator,
	}
}

func (h *recipeHandler) GetRecipes(c *fiber.Ctx) error {
	viewerID, _ := c.Locals("user_id").(string)

	req := domain.ListRecipesRequest{
		Author:           c.Query("author", ""),
		IsFavorited:      c.QueryBool("is_favorited", false),
		IsInShoppingCart: c.QueryBool("is_in_shopping_cart", false),
		Page:             c.QueryInt("page", 1),
		Limit:            c.QueryInt("limit", domain.DefaultPageSize),
	}
	if tags := c.Query("tags", ""); tags != "" {
		req.TagSlugs = strings.Split(tags, ",")
	}

	res, err := h.recipeService.ListRecipes(c.Context(), req, viewerID)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRecipes, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func (h *recipeHandler) GetRecipeDetail(c *fiber.Ctx) error {
	viewerID, _ := c.Locals("user_id").(string)
	recipeID := c.Params("id")

	res, err := h.recipeService.GetRecipeDetail(c.Context(), recipeID, viewerID)
	if err != nil {
		if errors.Is(err, domain.ErrRecipeNotFound) {
			return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedGetRecipeDetail, err)
		}
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRecipeDetail, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipeDetail)
}

func (h *recipeHandler) CreateRecipe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	req := new(domain.SaveRecipeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.recipeService.CreateRecipe(c.Context(), *req, userID)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateRecipe)
}

func (h *recipeHandler) UpdateRecipe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	recipeID := c.Params("id")

	req := new(domain.SaveRecipeRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.recipeService.UpdateRecipe(c.Context(), recipeID, *req, userID)
	if err != nil {
		return presenters.ErrorResponse(c, recipeErrStatus(err), domain.MessageFailedUpdateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateRecipe)
}

func (h *recipeHandler) DeleteRecipe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	recipeID := c.Params("id")

	if err := h.recipeService.DeleteRecipe(c.Context(), recipeID, userID); err != nil {
		return presenters.ErrorResponse(c, recipeErrStatus(err), domain.MessageFailedDeleteRecipe, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusNoContent, domain.MessageSuccessDeleteRecipe)
}

func (h *recipeHandler) AddFavorite(c *fiber.Ctx) error {
	return h.addRelation(c, domain.RelationFavorite)
}

func (h *recipeHandler) RemoveFavorite(c *fiber.Ctx) error {
	return h.removeRelation(c, domain.RelationFavorite)
}

func (h *recipeHandler) AddToCart(c *fiber.Ctx) error {
	return h.addRelation(c, domain.RelationCart)
}

func (h *recipeHandler) RemoveFromCart(c *fiber.Ctx) error {
	return h.removeRelation(c, domain.RelationCart)
}

func (h *recipeHandler) addRelation(c *fiber.Ctx, kind domain.RelationKind) error {
	userID := c.Locals("user_id").(string)
	recipeID := c.Params("id")

	res, err := h.relationService.AddRelation(c.Context(), kind, userID, recipeID)
	if err != nil {
		return presenters.ErrorResponse(c, recipeErrStatus(err), domain.MessageFailedAddRelation, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddRelation)
}

func (h *recipeHandler) removeRelation(c *fiber.Ctx, kind domain.RelationKind) error {
	userID := c.Locals("user_id").(string)
	recipeID := c.Params("id")

	if err := h.relationService.RemoveRelation(c.Context(), kind, userID, recipeID); err != nil {
		return presenters.ErrorResponse(c, recipeErrStatus(err), domain.MessageFailedRemoveRelation, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusNoContent, domain.MessageSuccessRemoveRelation)
}

func (h *recipeHandler) DownloadShoppingCart(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	list, err := h.relationService.BuildShoppingList(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDownloadCart, err)
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", domain.ShoppingListFilename))
	return c.SendString(list)
}

func recipeErrStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrRecipeNotFound), errors.Is(err, domain.ErrRelationNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNotRecipeAuthor):
		return fiber.StatusForbidden
	default:
		return fiber.StatusBadRequest
	}
}
