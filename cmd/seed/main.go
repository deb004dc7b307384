package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"io"
	"os"

	"foodgram-api/cmd/config"
	migration "foodgram-api/cmd/database/migrate"
	"foodgram-api/domain"
	"foodgram-api/internal/utils"
	"foodgram-api/pkg/ingredient"
	"foodgram-api/pkg/logger"
	"foodgram-api/pkg/tag"
)

// Loads reference data from CSV files. Re-running against the same files is
// a no-op for rows that already exist.
func main() {
	ingredientsPath := flag.String("ingredients", "data/ingredients.csv", "CSV with name,measurement_unit rows")
	tagsPath := flag.String("tags", "data/tags.csv", "CSV with name,color,slug rows")
	flag.Parse()

	utils.LoadConfig()
	logger.Init("foodgram-seed", utils.GetConfig("APP_ENV") != "production")

	db, err := config.ConnectDB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := migration.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx := context.Background()
	ingredientRepository := ingredient.NewIngredientRepository(db)
	tagRepository := tag.NewTagRepository(db)
	tagService := tag.NewTagService(tagRepository)

	if err := seedIngredients(ctx, ingredientRepository, *ingredientsPath); err != nil {
		logger.Fatal().Err(err).Str("file", *ingredientsPath).Msg("ingredient seed failed")
	}
	if err := seedTags(ctx, tagService, *tagsPath); err != nil {
		logger.Fatal().Err(err).Str("file", *tagsPath).Msg("tag seed failed")
	}
}

func seedIngredients(ctx context.Context, repo ingredient.IngredientRepository, path string) error {
	rows, err := readCSV(path, 2)
	if err != nil {
		return err
	}

	var created int
	for _, row := range rows {
		if _, err := repo.GetOrCreateIngredient(ctx, row[0], row[1]); err != nil {
			return err
		}
		created++
	}
	logger.Info().Int("rows", created).Str("file", path).Msg("ingredients seeded")
	return nil
}

func seedTags(ctx context.Context, svc tag.TagService, path string) error {
	rows, err := readCSV(path, 3)
	if err != nil {
		return err
	}

	var created, skipped int
	for _, row := range rows {
		_, err := svc.CreateTag(ctx, domain.CreateTagRequest{
			Name:  row[0],
			Color: row[1],
			Slug:  row[2],
		})
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrColorNotUnique) || errors.Is(err, domain.ErrSlugNotUnique):
			skipped++
		default:
			return err
		}
	}
	logger.Info().Int("created", created).Int("skipped", skipped).Str("file", path).Msg("tags seeded")
	return nil
}

func readCSV(path string, fields int) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = fields

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}
