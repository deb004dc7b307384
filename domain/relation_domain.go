package domain

import (
	"errors"
)

// RelationKind selects which (user, recipe) relation table an operation
// targets. Favorite and cart rows share shape and lifecycle.
type RelationKind string

const (
	RelationFavorite RelationKind = "favorite"
	RelationCart     RelationKind = "shopping_cart"
)

const ShoppingListFilename = "foodgram_products.txt"

var (
	MessageSuccessAddRelation       = "recipe added"
	MessageSuccessRemoveRelation    = "recipe removed"
	MessageSuccessSubscribe         = "subscribed successfully"
	MessageSuccessUnsubscribe       = "unsubscribed successfully"
	MessageSuccessGetSubscriptions  = "success get subscriptions"
	MessageSuccessDownloadCart      = "shopping list generated"
	MessageFailedAddRelation        = "failed to add recipe"
	MessageFailedRemoveRelation     = "failed to remove recipe"
	MessageFailedSubscribe          = "failed to subscribe"
	MessageFailedUnsubscribe        = "failed to unsubscribe"
	MessageFailedGetSubscriptions   = "failed to get subscriptions"
	MessageFailedDownloadCart       = "failed to generate shopping list"

	ErrDuplicateRelation = errors.New("relation already exists")
	ErrRelationNotFound  = errors.New("relation not found")
	ErrSelfSubscription  = errors.New("self subscription is not allowed")
)

type (
	SubscriptionResponse struct {
		UserResponse
		Recipes      []ShortRecipeResponse `json:"recipes"`
		RecipesCount int64                 `json:"recipes_count"`
	}

	ListSubscriptionsResponse struct {
		Subscriptions []SubscriptionResponse `json:"subscriptions"`
		Total         int64                  `json:"total"`
	}

	// CartLineItem is one recipe line item joined across a user's cart,
	// before aggregation.
	CartLineItem struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	// ShoppingListItem is one aggregated (ingredient, unit) group summed
	// across every recipe in a user's cart.
	ShoppingListItem struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Total           int    `json:"total"`
	}
)
