package recipe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"foodgram-api/domain"
	"foodgram-api/entities"
	"foodgram-api/internal/utils/storage"
	"foodgram-api/pkg/ingredient"
	"foodgram-api/pkg/tag"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.SaveRecipeRequest, authorID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.SaveRecipeRequest, userID string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID, userID string) error
		GetRecipeDetail(ctx context.Context, recipeID, viewerID string) (domain.RecipeResponse, error)
		ListRecipes(ctx context.Context, req domain.ListRecipesRequest, viewerID string) (domain.ListRecipesResponse, error)
		CheckIngredients(ctx context.Context, raw []domain.RawIngredient) ([]domain.ValidIngredient, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		ingredientRepository ingredient.IngredientRepository
		tagRepository        tag.TagRepository
		s3                   storage.AwsS3
		rules                domain.RecipeRules
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	ingredientRepository ingredient.IngredientRepository,
	tagRepository tag.TagRepository,
	s3 storage.AwsS3,
	rules domain.RecipeRules,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		ingredientRepository: ingredientRepository,
		tagRepository:        tagRepository,
		s3:                   s3,
		rules:                rules,
	}
}

// CheckIngredients validates one inbound ingredients list against current
// reference data. Checks run per entry, in order: amount present, id present,
// amount a positive integer, ingredient known, ingredient not repeated.
func (s *recipeService) CheckIngredients(ctx context.Context, raw []domain.RawIngredient) ([]domain.ValidIngredient, error) {
	seen := make(map[string]struct{}, len(raw))
	valid := make([]domain.ValidIngredient, 0, len(raw))

	for i, entry := range raw {
		if entry.Amount == nil {
			return nil, fmt.Errorf("ingredient %d: %w", i, domain.ErrMissingAmount)
		}
		if entry.ID == nil {
			return nil, fmt.Errorf("ingredient %d: %w", i, domain.ErrMissingID)
		}

		amount, err := entry.Amount.Int()
		if err != nil || amount <= 0 {
			return nil, fmt.Errorf("ingredient %d: %w", i, domain.ErrNotPositiveInteger)
		}

		if _, err := uuid.Parse(*entry.ID); err != nil {
			return nil, fmt.Errorf("ingredient %d (%s): %w", i, *entry.ID, domain.ErrUnknownIngredient)
		}
		exists, err := s.ingredientRepository.IngredientExists(ctx, *entry.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("ingredient %d (%s): %w", i, *entry.ID, domain.ErrUnknownIngredient)
		}

		if _, dup := seen[*entry.ID]; dup {
			return nil, fmt.Errorf("ingredient %d (%s): %w", i, *entry.ID, domain.ErrDuplicateIngredient)
		}
		seen[*entry.ID] = struct{}{}

		valid = append(valid, domain.ValidIngredient{IngredientID: *entry.ID, Amount: amount})
	}
	return valid, nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.SaveRecipeRequest, authorID string) (domain.RecipeResponse, error) {
	validIngredients, tags, err := s.validatePayload(ctx, req)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	imageURL, err := s.storeImage(req.Image, "")
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	newRecipe := entities.Recipe{
		AuthorID:    authorUUID,
		Name:        req.Name,
		ImageURL:    imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	err = s.recipeRepository.WithTransaction(ctx, func(repo RecipeRepository) error {
		if err := repo.CreateRecipe(ctx, &newRecipe); err != nil {
			return err
		}
		if err := repo.ReplaceTags(ctx, &newRecipe, tags); err != nil {
			return err
		}
		return repo.CreateRecipeIngredients(ctx, buildLineItems(newRecipe.ID, validIngredients))
	})
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, newRecipe.ID.String(), authorID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.SaveRecipeRequest, userID string) (domain.RecipeResponse, error) {
	existing, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}
	if existing.AuthorID.String() != userID {
		return domain.RecipeResponse{}, domain.ErrNotRecipeAuthor
	}

	validIngredients, tags, err := s.validatePayload(ctx, req)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	imageURL, err := s.storeImage(req.Image, existing.ImageURL)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	existing.Name = req.Name
	existing.ImageURL = imageURL
	existing.Text = req.Text
	existing.CookingTime = req.CookingTime

	// Tag set and line items are replaced wholesale; concurrent edits to the
	// same recipe are last-writer-wins.
	err = s.recipeRepository.WithTransaction(ctx, func(repo RecipeRepository) error {
		if err := repo.UpdateRecipe(ctx, existing); err != nil {
			return err
		}
		if err := repo.ReplaceTags(ctx, existing, tags); err != nil {
			return err
		}
		if err := repo.DeleteRecipeIngredients(ctx, recipeID); err != nil {
			return err
		}
		return repo.CreateRecipeIngredients(ctx, buildLineItems(existing.ID, validIngredients))
	})
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipeID, userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID, userID string) error {
	existing, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}
	if existing.AuthorID.String() != userID {
		return domain.ErrNotRecipeAuthor
	}
	if err := s.recipeRepository.DeleteRecipe(ctx, existing); err != nil {
		return err
	}

	// The stored image is orphaned once the row is gone; a failed object
	// delete does not undo the recipe deletion.
	if key := s.s3.GetObjectKeyFromLink(existing.ImageURL); key != "" {
		_ = s.s3.DeleteFile(key)
	}
	return nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID, viewerID string) (domain.RecipeResponse, error) {
	found, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}
	return s.buildRecipeResponse(ctx, found, viewerID)
}

func (s *recipeService) ListRecipes(ctx context.Context, req domain.ListRecipesRequest, viewerID string) (domain.ListRecipesResponse, error) {
	recipes, count, err := s.recipeRepository.ListRecipes(ctx, req, viewerID)
	if err != nil {
		return domain.ListRecipesResponse{}, err
	}

	result := make([]domain.RecipeResponse, 0, len(recipes))
	for _, item := range recipes {
		res, err := s.buildRecipeResponse(ctx, item, viewerID)
		if err != nil {
			return domain.ListRecipesResponse{}, err
		}
		result = append(result, res)
	}
	return domain.ListRecipesResponse{Recipes: result, Total: count}, nil
}

// validatePayload runs every payload check before any write: ingredients list
// present and valid, cooking time within bounds, tag ids resolvable and
// unique.
func (s *recipeService) validatePayload(ctx context.Context, req domain.SaveRecipeRequest) ([]domain.ValidIngredient, []*entities.Tag, error) {
	if req.Ingredients == nil {
		return nil, nil, domain.ErrMissingIngredientsField
	}

	validIngredients, err := s.CheckIngredients(ctx, req.Ingredients)
	if err != nil {
		return nil, nil, err
	}

	if req.CookingTime < s.rules.MinCookingTime || req.CookingTime > s.rules.MaxCookingTime {
		return nil, nil, domain.ErrCookingTimeOutOfRange
	}

	seen := make(map[string]struct{}, len(req.Tags))
	for _, id := range req.Tags {
		if _, dup := seen[id]; dup {
			return nil, nil, domain.ErrDuplicateTagInSet
		}
		seen[id] = struct{}{}
	}

	tags, err := s.tagRepository.GetTagsByIDs(ctx, req.Tags)
	if err != nil {
		return nil, nil, err
	}
	if len(tags) != len(req.Tags) {
		return nil, nil, domain.ErrTagNotFound
	}
	return validIngredients, tags, nil
}

// storeImage decodes the base64-embedded image and stores it, returning the
// public URL. An existing object is overwritten in place on update.
func (s *recipeService) storeImage(image, existingURL string) (string, error) {
	payload := image
	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", domain.ErrInvalidImage
	}

	var objectKey string
	if existingURL != "" {
		if existingKey := s.s3.GetObjectKeyFromLink(existingURL); existingKey != "" {
			objectKey, err = s.s3.UpdateFile(existingKey, data, storage.AllowImage...)
			if err != nil {
				return "", err
			}
			return s.s3.GetPublicLinkKey(objectKey), nil
		}
	}

	fileName := fmt.Sprintf("recipe-%s", uuid.New().String())
	objectKey, err = s.s3.UploadFile(fileName, data, "recipes", storage.AllowImage...)
	if err != nil {
		return "", err
	}
	return s.s3.GetPublicLinkKey(objectKey), nil
}

func buildLineItems(recipeID uuid.UUID, ingredients []domain.ValidIngredient) []*entities.RecipeIngredient {
	items := make([]*entities.RecipeIngredient, 0, len(ingredients))
	for _, ing := range ingredients {
		items = append(items, &entities.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: uuid.MustParse(ing.IngredientID),
			Amount:       ing.Amount,
		})
	}
	return items
}

// buildRecipeResponse derives the read view from persisted state. Membership
// flags are computed relative to the viewer and stay false for anonymous
// requests.
func (s *recipeService) buildRecipeResponse(ctx context.Context, rec *entities.Recipe, viewerID string) (domain.RecipeResponse, error) {
	tags := make([]domain.TagResponse, 0, len(rec.Tags))
	for _, t := range rec.Tags {
		tags = append(tags, domain.TagResponse{
			ID:    t.ID.String(),
			Name:  t.Name,
			Color: t.Color,
			Slug:  t.Slug,
		})
	}

	ingredients := make([]domain.RecipeIngredientResponse, 0, len(rec.Ingredients))
	for _, item := range rec.Ingredients {
		res := domain.RecipeIngredientResponse{
			ID:     item.IngredientID.String(),
			Amount: item.Amount,
		}
		if item.Ingredient != nil {
			res.Name = item.Ingredient.Name
			res.MeasurementUnit = item.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, res)
	}

	author := domain.UserResponse{ID: rec.AuthorID.String()}
	if rec.Author != nil {
		author.Email = rec.Author.Email
		author.Username = rec.Author.Username
		author.FirstName = rec.Author.FirstName
		author.LastName = rec.Author.LastName
	}

	isFavorited := false
	isInCart := false
	if viewerID != "" {
		var err error
		if isFavorited, err = s.recipeRepository.IsFavorited(ctx, viewerID, rec.ID.String()); err != nil {
			return domain.RecipeResponse{}, err
		}
		if isInCart, err = s.recipeRepository.IsInCart(ctx, viewerID, rec.ID.String()); err != nil {
			return domain.RecipeResponse{}, err
		}
		if author.IsSubscribed, err = s.recipeRepository.IsSubscribed(ctx, viewerID, rec.AuthorID.String()); err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	return domain.RecipeResponse{
		ID:               rec.ID.String(),
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      isFavorited,
		IsInShoppingCart: isInCart,
		Name:             rec.Name,
		Image:            rec.ImageURL,
		Text:             rec.Text,
		CookingTime:      rec.CookingTime,
	}, nil
}
