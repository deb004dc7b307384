package recipe

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"foodgram-api/domain"
	"foodgram-api/entities"
)

type fakeRecipeRepository struct {
	recipes     map[string]*entities.Recipe
	ingredients map[string]*entities.Ingredient
	favorites   map[string]bool
	carts       map[string]bool
	subs        map[string]bool
}

func newFakeRecipeRepository(ingredients map[string]*entities.Ingredient) *fakeRecipeRepository {
	return &fakeRecipeRepository{
		recipes:     make(map[string]*entities.Recipe),
		ingredients: ingredients,
		favorites:   make(map[string]bool),
		carts:       make(map[string]bool),
		subs:        make(map[string]bool),
	}
}

func pairKey(a, b string) string { return a + "|" + b }

func (f *fakeRecipeRepository) WithTransaction(ctx context.Context, fn func(repo RecipeRepository) error) error {
	return fn(f)
}

func (f *fakeRecipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe) error {
	recipe.ID = uuid.New()
	f.recipes[recipe.ID.String()] = recipe
	return nil
}

func (f *fakeRecipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe) error {
	f.recipes[recipe.ID.String()] = recipe
	return nil
}

func (f *fakeRecipeRepository) DeleteRecipe(ctx context.Context, recipe *entities.Recipe) error {
	delete(f.recipes, recipe.ID.String())
	return nil
}

func (f *fakeRecipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	recipe, ok := f.recipes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return recipe, nil
}

func (f *fakeRecipeRepository) ListRecipes(ctx context.Context, req domain.ListRecipesRequest, viewerID string) ([]*entities.Recipe, int64, error) {
	var result []*entities.Recipe
	for _, recipe := range f.recipes {
		result = append(result, recipe)
	}
	return result, int64(len(result)), nil
}

func (f *fakeRecipeRepository) GetRecipesByAuthor(ctx context.Context, authorID string, limit int) ([]*entities.Recipe, error) {
	var result []*entities.Recipe
	for _, recipe := range f.recipes {
		if recipe.AuthorID.String() == authorID {
			result = append(result, recipe)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *fakeRecipeRepository) CountRecipesByAuthor(ctx context.Context, authorID string) (int64, error) {
	var count int64
	for _, recipe := range f.recipes {
		if recipe.AuthorID.String() == authorID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRecipeRepository) ReplaceTags(ctx context.Context, recipe *entities.Recipe, tags []*entities.Tag) error {
	recipe.Tags = tags
	return nil
}

func (f *fakeRecipeRepository) DeleteRecipeIngredients(ctx context.Context, recipeID string) error {
	if recipe, ok := f.recipes[recipeID]; ok {
		recipe.Ingredients = nil
	}
	return nil
}

func (f *fakeRecipeRepository) CreateRecipeIngredients(ctx context.Context, items []*entities.RecipeIngredient) error {
	for _, item := range items {
		item.Ingredient = f.ingredients[item.IngredientID.String()]
		recipe := f.recipes[item.RecipeID.String()]
		recipe.Ingredients = append(recipe.Ingredients, item)
	}
	return nil
}

func (f *fakeRecipeRepository) IsFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	return f.favorites[pairKey(userID, recipeID)], nil
}

func (f *fakeRecipeRepository) IsInCart(ctx context.Context, userID, recipeID string) (bool, error) {
	return f.carts[pairKey(userID, recipeID)], nil
}

func (f *fakeRecipeRepository) IsSubscribed(ctx context.Context, subscriberID, authorID string) (bool, error) {
	return f.subs[pairKey(subscriberID, authorID)], nil
}

type fakeIngredientRepository struct {
	ingredients map[string]*entities.Ingredient
}

func (f *fakeIngredientRepository) GetIngredients(ctx context.Context, name string) ([]*entities.Ingredient, error) {
	var result []*entities.Ingredient
	for _, ing := range f.ingredients {
		result = append(result, ing)
	}
	return result, nil
}

func (f *fakeIngredientRepository) GetIngredientByID(ctx context.Context, id string) (*entities.Ingredient, error) {
	ing, ok := f.ingredients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ing, nil
}

func (f *fakeIngredientRepository) IngredientExists(ctx context.Context, id string) (bool, error) {
	_, ok := f.ingredients[id]
	return ok, nil
}

func (f *fakeIngredientRepository) GetOrCreateIngredient(ctx context.Context, name, measurementUnit string) (*entities.Ingredient, error) {
	for _, ing := range f.ingredients {
		if ing.Name == name && ing.MeasurementUnit == measurementUnit {
			return ing, nil
		}
	}
	ing := &entities.Ingredient{ID: uuid.New(), Name: name, MeasurementUnit: measurementUnit}
	f.ingredients[ing.ID.String()] = ing
	return ing, nil
}

type fakeTagRepository struct {
	tags map[string]*entities.Tag
}

func (f *fakeTagRepository) GetTags(ctx context.Context) ([]*entities.Tag, error) {
	var result []*entities.Tag
	for _, tag := range f.tags {
		result = append(result, tag)
	}
	return result, nil
}

func (f *fakeTagRepository) GetTagByID(ctx context.Context, id string) (*entities.Tag, error) {
	tag, ok := f.tags[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return tag, nil
}

func (f *fakeTagRepository) GetTagsByIDs(ctx context.Context, ids []string) ([]*entities.Tag, error) {
	var result []*entities.Tag
	for _, id := range ids {
		if tag, ok := f.tags[id]; ok {
			result = append(result, tag)
		}
	}
	return result, nil
}

func (f *fakeTagRepository) ColorExists(ctx context.Context, color string) (bool, error) {
	for _, tag := range f.tags {
		if tag.Color == color {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTagRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	for _, tag := range f.tags {
		if tag.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTagRepository) CreateTag(ctx context.Context, tag *entities.Tag) error {
	tag.ID = uuid.New()
	f.tags[tag.ID.String()] = tag
	return nil
}

type fakeStorage struct {
	deleted []string
}

func (f *fakeStorage) UploadFile(fileName string, data []byte, dir string, allowedTypes ...string) (string, error) {
	return fmt.Sprintf("%s/%s", dir, fileName), nil
}

func (f *fakeStorage) UpdateFile(objectKey string, data []byte, allowedTypes ...string) (string, error) {
	return objectKey, nil
}

func (f *fakeStorage) DeleteFile(objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeStorage) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

func (f *fakeStorage) GetObjectKeyFromLink(link string) string {
	const prefix = "https://cdn.test/"
	if len(link) > len(prefix) && link[:len(prefix)] == prefix {
		return link[len(prefix):]
	}
	return ""
}

type recipeFixture struct {
	service   RecipeService
	repo      *fakeRecipeRepository
	storage   *fakeStorage
	saltID    string
	pepperID  string
	breakfast *entities.Tag
	dinner    *entities.Tag
	authorID  string
}

func newRecipeFixture() *recipeFixture {
	salt := &entities.Ingredient{ID: uuid.New(), Name: "Salt", MeasurementUnit: "g"}
	pepper := &entities.Ingredient{ID: uuid.New(), Name: "Pepper", MeasurementUnit: "g"}
	ingredients := map[string]*entities.Ingredient{
		salt.ID.String():   salt,
		pepper.ID.String(): pepper,
	}

	breakfast := &entities.Tag{ID: uuid.New(), Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}
	dinner := &entities.Tag{ID: uuid.New(), Name: "Dinner", Color: "#49B64E", Slug: "dinner"}
	tags := map[string]*entities.Tag{
		breakfast.ID.String(): breakfast,
		dinner.ID.String():    dinner,
	}

	repo := newFakeRecipeRepository(ingredients)
	storage := &fakeStorage{}
	service := NewRecipeService(
		repo,
		&fakeIngredientRepository{ingredients: ingredients},
		&fakeTagRepository{tags: tags},
		storage,
		domain.DefaultRecipeRules,
	)

	return &recipeFixture{
		service:   service,
		repo:      repo,
		storage:   storage,
		saltID:    salt.ID.String(),
		pepperID:  pepper.ID.String(),
		breakfast: breakfast,
		dinner:    dinner,
		authorID:  uuid.New().String(),
	}
}

func rawIngredient(id, amount string) domain.RawIngredient {
	raw := domain.RawAmount(amount)
	return domain.RawIngredient{ID: &id, Amount: &raw}
}

func testImage() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("image-bytes"))
}

func (f *recipeFixture) saveRequest() domain.SaveRecipeRequest {
	return domain.SaveRecipeRequest{
		Ingredients: []domain.RawIngredient{
			rawIngredient(f.saltID, "10"),
			rawIngredient(f.pepperID, "5"),
		},
		Tags:        []string{f.breakfast.ID.String()},
		Name:        "Scrambled eggs",
		Image:       testImage(),
		Text:        "Whisk and fry.",
		CookingTime: 10,
	}
}

func TestCheckIngredientsValidationOrder(t *testing.T) {
	f := newRecipeFixture()
	ctx := context.Background()

	missingAmount := domain.RawIngredient{ID: &f.saltID}
	amountOnly := domain.RawAmount("5")
	missingID := domain.RawIngredient{Amount: &amountOnly}

	tests := []struct {
		name    string
		entries []domain.RawIngredient
		wantErr error
	}{
		{"missing amount", []domain.RawIngredient{missingAmount}, domain.ErrMissingAmount},
		{"missing id", []domain.RawIngredient{missingID}, domain.ErrMissingID},
		{"zero amount", []domain.RawIngredient{rawIngredient(f.saltID, "0")}, domain.ErrNotPositiveInteger},
		{"negative amount", []domain.RawIngredient{rawIngredient(f.saltID, "-3")}, domain.ErrNotPositiveInteger},
		{"fractional amount", []domain.RawIngredient{rawIngredient(f.saltID, "2.5")}, domain.ErrNotPositiveInteger},
		{"unknown id", []domain.RawIngredient{rawIngredient(uuid.New().String(), "5")}, domain.ErrUnknownIngredient},
		{"malformed id", []domain.RawIngredient{rawIngredient("not-a-uuid", "5")}, domain.ErrUnknownIngredient},
		{"duplicate id", []domain.RawIngredient{
			rawIngredient(f.saltID, "5"),
			rawIngredient(f.saltID, "7"),
		}, domain.ErrDuplicateIngredient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.CheckIngredients(ctx, tt.entries)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckIngredientsAcceptsStringAmounts(t *testing.T) {
	f := newRecipeFixture()

	valid, err := f.service.CheckIngredients(context.Background(), []domain.RawIngredient{
		rawIngredient(f.saltID, "15"),
	})
	require.NoError(t, err)
	require.Len(t, valid, 1)
	assert.Equal(t, f.saltID, valid[0].IngredientID)
	assert.Equal(t, 15, valid[0].Amount)
}

func TestCreateRecipeRoundTrip(t *testing.T) {
	f := newRecipeFixture()

	res, err := f.service.CreateRecipe(context.Background(), f.saveRequest(), f.authorID)
	require.NoError(t, err)

	assert.Equal(t, "Scrambled eggs", res.Name)
	assert.Equal(t, 10, res.CookingTime)
	assert.Equal(t, f.authorID, res.Author.ID)
	assert.False(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
	assert.False(t, res.Author.IsSubscribed)

	require.Len(t, res.Tags, 1)
	assert.Equal(t, "breakfast", res.Tags[0].Slug)

	require.Len(t, res.Ingredients, 2)
	byID := map[string]domain.RecipeIngredientResponse{}
	for _, ing := range res.Ingredients {
		byID[ing.ID] = ing
	}
	assert.Equal(t, 10, byID[f.saltID].Amount)
	assert.Equal(t, "Salt", byID[f.saltID].Name)
	assert.Equal(t, "g", byID[f.saltID].MeasurementUnit)
	assert.Equal(t, 5, byID[f.pepperID].Amount)

	assert.Contains(t, res.Image, "https://cdn.test/recipes/")
}

func TestCreateRecipeRejectsMissingIngredientsField(t *testing.T) {
	f := newRecipeFixture()

	req := f.saveRequest()
	req.Ingredients = nil

	_, err := f.service.CreateRecipe(context.Background(), req, f.authorID)
	assert.ErrorIs(t, err, domain.ErrMissingIngredientsField)
}

func TestCreateRecipeCookingTimeBounds(t *testing.T) {
	f := newRecipeFixture()
	ctx := context.Background()

	req := f.saveRequest()
	req.CookingTime = 0
	_, err := f.service.CreateRecipe(ctx, req, f.authorID)
	assert.ErrorIs(t, err, domain.ErrCookingTimeOutOfRange)

	req = f.saveRequest()
	req.CookingTime = 3001
	_, err = f.service.CreateRecipe(ctx, req, f.authorID)
	assert.ErrorIs(t, err, domain.ErrCookingTimeOutOfRange)

	req = f.saveRequest()
	req.CookingTime = 3000
	_, err = f.service.CreateRecipe(ctx, req, f.authorID)
	assert.NoError(t, err)
}

func TestCreateRecipeTagChecks(t *testing.T) {
	f := newRecipeFixture()
	ctx := context.Background()

	req := f.saveRequest()
	req.Tags = []string{uuid.New().String()}
	_, err := f.service.CreateRecipe(ctx, req, f.authorID)
	assert.ErrorIs(t, err, domain.ErrTagNotFound)

	req = f.saveRequest()
	req.Tags = []string{f.breakfast.ID.String(), f.breakfast.ID.String()}
	_, err = f.service.CreateRecipe(ctx, req, f.authorID)
	assert.ErrorIs(t, err, domain.ErrDuplicateTagInSet)
}

func TestCreateRecipeRejectsBadImage(t *testing.T) {
	f := newRecipeFixture()

	req := f.saveRequest()
	req.Image = "%%% not base64 %%%"

	_, err := f.service.CreateRecipe(context.Background(), req, f.authorID)
	assert.ErrorIs(t, err, domain.ErrInvalidImage)
}

func TestUpdateRecipeReplacesComponents(t *testing.T) {
	f := newRecipeFixture()
	ctx := context.Background()

	created, err := f.service.CreateRecipe(ctx, f.saveRequest(), f.authorID)
	require.NoError(t, err)

	update := f.saveRequest()
	update.Name = "Scrambled eggs v2"
	update.Ingredients = []domain.RawIngredient{rawIngredient(f.pepperID, "20")}
	update.Tags = []string{f.dinner.ID.String()}

	res, err := f.service.UpdateRecipe(ctx, created.ID, update, f.authorID)
	require.NoError(t, err)

	assert.Equal(t, "Scrambled eggs v2", res.Name)
	require.Len(t, res.Ingredients, 1)
	assert.Equal(t, f.pepperID, res.Ingredients[0].ID)
	assert.Equal(t, 20, res.Ingredients[0].Amount)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, "dinner", res.Tags[0].Slug)
}

func TestUpdateRecipeAuthorization(t *testing.T) {
	f := newRecipeFixture()
	ctx := context.Background()

	created, err := f.service.CreateRecipe(ctx, f.saveRequest(), f.authorID)
	require.NoError(t, err)

	_, err = f.service.UpdateRecipe(ctx, created.ID, f.saveRequest(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)

	_, err = f.service.UpdateRecipe(ctx, uuid.New().String(), f.saveRequest(), f.authorID)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestDeleteRecipe(t *testing.T) {
	f := newRecipeFixture()
	ctx := context.Background()

	created, err := f.service.CreateRecipe(ctx, f.saveRequest(), f.authorID)
	require.NoError(t, err)

	err = f.service.DeleteRecipe(ctx, created.ID, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)
	assert.Empty(t, f.storage.deleted)

	require.NoError(t, f.service.DeleteRecipe(ctx, created.ID, f.authorID))

	// the stored image object goes with the row
	key := f.storage.GetObjectKeyFromLink(created.Image)
	require.NotEmpty(t, key)
	assert.Equal(t, []string{key}, f.storage.deleted)

	err = f.service.DeleteRecipe(ctx, created.ID, f.authorID)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestGetRecipeDetailViewerFlags(t *testing.T) {
	f := newRecipeFixture()
	ctx := context.Background()

	created, err := f.service.CreateRecipe(ctx, f.saveRequest(), f.authorID)
	require.NoError(t, err)

	viewerID := uuid.New().String()
	f.repo.favorites[pairKey(viewerID, created.ID)] = true
	f.repo.subs[pairKey(viewerID, f.authorID)] = true

	res, err := f.service.GetRecipeDetail(ctx, created.ID, viewerID)
	require.NoError(t, err)
	assert.True(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
	assert.True(t, res.Author.IsSubscribed)

	// anonymous viewers always see false flags
	res, err = f.service.GetRecipeDetail(ctx, created.ID, "")
	require.NoError(t, err)
	assert.False(t, res.IsFavorited)
	assert.False(t, res.Author.IsSubscribed)
}
