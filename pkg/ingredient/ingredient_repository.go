package ingredient

import (
	"context"

	"gorm.io/gorm"

	"foodgram-api/entities"
)

type (
	IngredientRepository interface {
		GetIngredients(ctx context.Context, name string) ([]*entities.Ingredient, error)
		GetIngredientByID(ctx context.Context, id string) (*entities.Ingredient, error)
		IngredientExists(ctx context.Context, id string) (bool, error)
		GetOrCreateIngredient(ctx context.Context, name, measurementUnit string) (*entities.Ingredient, error)
	}

	ingredientRepository struct {
		db *gorm.DB
	}
)

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) GetIngredients(ctx context.Context, name string) ([]*entities.Ingredient, error) {
	var ingredients []*entities.Ingredient
	query := r.db.WithContext(ctx).Model(&entities.Ingredient{}).Order("name asc")
	if name != "" {
		query = query.Where("name ILIKE ?", name+"%")
	}
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) GetIngredientByID(ctx context.Context, id string) (*entities.Ingredient, error) {
	var ingredient entities.Ingredient
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *ingredientRepository) IngredientExists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Ingredient{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ingredientRepository) GetOrCreateIngredient(ctx context.Context, name, measurementUnit string) (*entities.Ingredient, error) {
	ingredient := entities.Ingredient{Name: name, MeasurementUnit: measurementUnit}
	if err := r.db.WithContext(ctx).
		Where("name = ? AND measurement_unit = ?", name, measurementUnit).
		FirstOrCreate(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}
