package relation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"foodgram-api/domain"
	"foodgram-api/entities"
	"foodgram-api/pkg/recipe"
	"foodgram-api/pkg/user"
)

type (
	RelationService interface {
		AddRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) (domain.ShortRecipeResponse, error)
		RemoveRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) error

		Subscribe(ctx context.Context, subscriberID, authorID string, recipesLimit int) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, subscriberID, authorID string) error
		ListSubscriptions(ctx context.Context, subscriberID string, recipesLimit, page, limit int) (domain.ListSubscriptionsResponse, error)

		BuildShoppingList(ctx context.Context, userID string) (string, error)
	}

	relationService struct {
		relationRepository RelationRepository
		recipeRepository   recipe.RecipeRepository
		userRepository     user.UserRepository
	}
)

func NewRelationService(
	relationRepository RelationRepository,
	recipeRepository recipe.RecipeRepository,
	userRepository user.UserRepository,
) RelationService {
	return &relationService{
		relationRepository: relationRepository,
		recipeRepository:   recipeRepository,
		userRepository:     userRepository,
	}
}

func (s *relationService) AddRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) (domain.ShortRecipeResponse, error) {
	target, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ShortRecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.ShortRecipeResponse{}, err
	}

	exists, err := s.relationRepository.RelationExists(ctx, kind, userID, target.ID.String())
	if err != nil {
		return domain.ShortRecipeResponse{}, err
	}
	if exists {
		return domain.ShortRecipeResponse{}, domain.ErrDuplicateRelation
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ShortRecipeResponse{}, domain.ErrParseUUID
	}
	if err := s.relationRepository.CreateRelation(ctx, kind, userUUID, target.ID); err != nil {
		return domain.ShortRecipeResponse{}, err
	}

	return toShortRecipeResponse(target), nil
}

func (s *relationService) RemoveRelation(ctx context.Context, kind domain.RelationKind, userID, recipeID string) error {
	target, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	affected, err := s.relationRepository.DeleteRelation(ctx, kind, userID, target.ID.String())
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrRelationNotFound
	}
	return nil
}

func (s *relationService) Subscribe(ctx context.Context, subscriberID, authorID string, recipesLimit int) (domain.SubscriptionResponse, error) {
	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SubscriptionResponse{}, domain.ErrUserNotFound
		}
		return domain.SubscriptionResponse{}, err
	}

	// Compare resolved identities, not the raw path parameter; the uuid
	// column matches any textual casing of the same id.
	if author.ID.String() == subscriberID {
		return domain.SubscriptionResponse{}, domain.ErrSelfSubscription
	}

	exists, err := s.relationRepository.SubscriptionExists(ctx, subscriberID, author.ID.String())
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if exists {
		return domain.SubscriptionResponse{}, domain.ErrDuplicateRelation
	}

	subscriberUUID, err := uuid.Parse(subscriberID)
	if err != nil {
		return domain.SubscriptionResponse{}, domain.ErrParseUUID
	}
	if err := s.relationRepository.CreateSubscription(ctx, subscriberUUID, author.ID); err != nil {
		return domain.SubscriptionResponse{}, err
	}

	return s.buildSubscriptionResponse(ctx, author, recipesLimit)
}

func (s *relationService) Unsubscribe(ctx context.Context, subscriberID, authorID string) error {
	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	affected, err := s.relationRepository.DeleteSubscription(ctx, subscriberID, author.ID.String())
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrRelationNotFound
	}
	return nil
}

func (s *relationService) ListSubscriptions(ctx context.Context, subscriberID string, recipesLimit, page, limit int) (domain.ListSubscriptionsResponse, error) {
	authors, count, err := s.relationRepository.GetSubscribedAuthors(ctx, subscriberID, page, limit)
	if err != nil {
		return domain.ListSubscriptionsResponse{}, err
	}

	subscriptions := make([]domain.SubscriptionResponse, 0, len(authors))
	for _, author := range authors {
		res, err := s.buildSubscriptionResponse(ctx, author, recipesLimit)
		if err != nil {
			return domain.ListSubscriptionsResponse{}, err
		}
		subscriptions = append(subscriptions, res)
	}
	return domain.ListSubscriptionsResponse{Subscriptions: subscriptions, Total: count}, nil
}

// BuildShoppingList sums the cart's line items per (ingredient name, unit)
// group and renders one plain-text line per group, ordered by name. An empty
// cart renders as an empty document.
func (s *relationService) BuildShoppingList(ctx context.Context, userID string) (string, error) {
	lines, err := s.relationRepository.CartLineItems(ctx, userID)
	if err != nil {
		return "", err
	}

	totals := make(map[string]*domain.ShoppingListItem, len(lines))
	for _, line := range lines {
		key := line.Name + "\x00" + line.MeasurementUnit
		if item, ok := totals[key]; ok {
			item.Total += line.Amount
			continue
		}
		totals[key] = &domain.ShoppingListItem{
			Name:            line.Name,
			MeasurementUnit: line.MeasurementUnit,
			Total:           line.Amount,
		}
	}

	items := make([]*domain.ShoppingListItem, 0, len(totals))
	for _, item := range totals {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})

	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s, (%s) %d\n", item.Name, item.MeasurementUnit, item.Total)
	}
	return b.String(), nil
}

// buildSubscriptionResponse attaches the author's newest recipes in short
// form. A non-positive recipesLimit means no cap.
func (s *relationService) buildSubscriptionResponse(ctx context.Context, author *entities.User, recipesLimit int) (domain.SubscriptionResponse, error) {
	recipes, err := s.recipeRepository.GetRecipesByAuthor(ctx, author.ID.String(), recipesLimit)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	count, err := s.recipeRepository.CountRecipesByAuthor(ctx, author.ID.String())
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	short := make([]domain.ShortRecipeResponse, 0, len(recipes))
	for _, rec := range recipes {
		short = append(short, toShortRecipeResponse(rec))
	}

	return domain.SubscriptionResponse{
		UserResponse: domain.UserResponse{
			Email:        author.Email,
			ID:           author.ID.String(),
			Username:     author.Username,
			FirstName:    author.FirstName,
			LastName:     author.LastName,
			IsSubscribed: true,
		},
		Recipes:      short,
		RecipesCount: count,
	}, nil
}

func toShortRecipeResponse(rec *entities.Recipe) domain.ShortRecipeResponse {
	return domain.ShortRecipeResponse{
		ID:          rec.ID.String(),
		Name:        rec.Name,
		Image:       rec.ImageURL,
		CookingTime: rec.CookingTime,
	}
}
