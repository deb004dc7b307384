package domain

import (
	"errors"
	"strconv"
	"strings"
)

var (
	MessageSuccessGetRecipes      = "success get recipes"
	MessageSuccessGetRecipeDetail = "success get recipe detail"
	MessageSuccessCreateRecipe    = "recipe created successfully"
	MessageSuccessUpdateRecipe    = "recipe updated successfully"
	MessageSuccessDeleteRecipe    = "recipe deleted successfully"

	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"

	ErrRecipeNotFound          = errors.New("recipe not found")
	ErrMissingIngredientsField = errors.New("ingredients is a required field")
	ErrMissingAmount           = errors.New("amount is a required field for ingredient")
	ErrMissingID               = errors.New("id is a required field for ingredient")
	ErrNotPositiveInteger      = errors.New("amount must be an integer greater than zero")
	ErrUnknownIngredient       = errors.New("no such ingredient exists")
	ErrDuplicateIngredient     = errors.New("duplicated ingredient in request")
	ErrCookingTimeOutOfRange   = errors.New("cooking time is out of range")
	ErrNotRecipeAuthor         = errors.New("only the author can modify the recipe")
	ErrInvalidImage            = errors.New("invalid image payload")
)

// RecipeRules carries the cooking time bounds the composer validates
// against.
type RecipeRules struct {
	MinCookingTime int
	MaxCookingTime int
}

var DefaultRecipeRules = RecipeRules{
	MinCookingTime: 1,
	MaxCookingTime: 3000,
}

// RawAmount keeps an ingredient amount as the client sent it. Clients send
// amounts both as JSON numbers and as quoted strings.
type RawAmount string

func (a *RawAmount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	*a = RawAmount(s)
	return nil
}

func (a RawAmount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(a))), nil
}

// Int parses the raw amount as a whole number.
func (a RawAmount) Int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(string(a)))
}

type (
	// RawIngredient is one entry of the inbound ingredients list before
	// validation.
	RawIngredient struct {
		ID     *string    `json:"id"`
		Amount *RawAmount `json:"amount"`
	}

	SaveRecipeRequest struct {
		Ingredients []RawIngredient `json:"ingredients"`
		Tags        []string        `json:"tags" validate:"required,min=1,dive,required"`
		Name        string          `json:"name" validate:"required,max=200"`
		Image       string          `json:"image" validate:"required"`
		Text        string          `json:"text" validate:"required"`
		CookingTime int             `json:"cooking_time" validate:"required"`
	}

	// ValidIngredient is a submission entry that passed every check.
	ValidIngredient struct {
		IngredientID string
		Amount       int
	}

	ListRecipesRequest struct {
		Author           string
		TagSlugs         []string
		IsFavorited      bool
		IsInShoppingCart bool
		Page             int
		Limit            int
	}

	RecipeIngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeResponse struct {
		ID               string                     `json:"id"`
		Tags             []TagResponse              `json:"tags"`
		Author           UserResponse               `json:"author"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
		Name             string                     `json:"name"`
		Image            string                     `json:"image"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
	}

	ShortRecipeResponse struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	ListRecipesResponse struct {
		Recipes []RecipeResponse `json:"recipes"`
		Total   int64            `json:"total"`
	}
)
