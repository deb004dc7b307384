package relation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"foodgram-api/domain"
	"foodgram-api/entities"
)

type (
	RelationRepository interface {
		RelationExists(ctx context.Context, kind domain.RelationKind, userID, recipeID string) (bool, error)
		CreateRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID uuid.UUID) error
		DeleteRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) (int64, error)

		SubscriptionExists(ctx context.Context, subscriberID, authorID string) (bool, error)
		CreateSubscription(ctx context.Context, subscriberID, authorID uuid.UUID) error
		DeleteSubscription(ctx context.Context, subscriberID, authorID string) (int64, error)
		GetSubscribedAuthors(ctx context.Context, subscriberID string, page, limit int) ([]*entities.User, int64, error)

		CartLineItems(ctx context.Context, userID string) ([]domain.CartLineItem, error)
	}

	relationRepository struct {
		db *gorm.DB
	}
)

func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

// relationModel maps a relation kind onto its gorm model. Favorite and cart
// rows are structurally identical, only the table differs.
func relationModel(kind domain.RelationKind) interface{} {
	if kind == domain.RelationCart {
		return &entities.Cart{}
	}
	return &entities.Favorite{}
}

func (r *relationRepository) RelationExists(ctx context.Context, kind domain.RelationKind, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(relationModel(kind)).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *relationRepository) CreateRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID uuid.UUID) error {
	if kind == domain.RelationCart {
		return r.db.WithContext(ctx).Create(&entities.Cart{UserID: userID, RecipeID: recipeID}).Error
	}
	return r.db.WithContext(ctx).Create(&entities.Favorite{UserID: userID, RecipeID: recipeID}).Error
}

func (r *relationRepository) DeleteRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(relationModel(kind))
	return result.RowsAffected, result.Error
}

func (r *relationRepository) SubscriptionExists(ctx context.Context, subscriberID, authorID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Subscription{}).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *relationRepository) CreateSubscription(ctx context.Context, subscriberID, authorID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Create(&entities.Subscription{SubscriberID: subscriberID, AuthorID: authorID}).Error
}

func (r *relationRepository) DeleteSubscription(ctx context.Context, subscriberID, authorID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Delete(&entities.Subscription{})
	return result.RowsAffected, result.Error
}

func (r *relationRepository) GetSubscribedAuthors(ctx context.Context, subscriberID string, page, limit int) ([]*entities.User, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.subscriber_id = ?", subscriberID).
		Order("subscriptions.created_at desc")

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = domain.DefaultPageSize
	}

	var authors []*entities.User
	if err := query.Session(&gorm.Session{}).
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&authors).Error; err != nil {
		return nil, 0, err
	}
	return authors, count, nil
}

func (r *relationRepository) CartLineItems(ctx context.Context, userID string) ([]domain.CartLineItem, error) {
	var items []domain.CartLineItem
	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN carts ON carts.recipe_id = recipe_ingredients.recipe_id").
		Where("carts.user_id = ?", userID).
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
