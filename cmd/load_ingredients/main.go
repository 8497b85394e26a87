package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/foodgram/foodgram/backend/config"
	"github.com/foodgram/foodgram/backend/internal/database"
	"github.com/foodgram/foodgram/backend/internal/logger"
	"github.com/foodgram/foodgram/backend/internal/middleware"
	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

type ingredientRecord struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=16"`
}

type tagRecord struct {
	Name  string `json:"name" validate:"required,max=200"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
	Color string `json:"color" validate:"required,hexcolor"`
}

func main() {
	ingredientsPath := flag.String("ingredients", "data/ingredients.json", "JSON array of {name, measurement_unit}")
	tagsPath := flag.String("tags", "", "Optional JSON array of {name, slug, color}")
	migrationsDir := flag.String("migrations", "migrations", "Directory holding the SQL migrations")
	flag.Parse()

	logger.Init("foodgram-loader", true, "info")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.Open(cfg)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db, *migrationsDir); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	v := validator.New()
	if err := middleware.RegisterValidators(v); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx := context.Background()
	catalog := service.NewCatalogService(db)

	ingredients, err := readFile(*ingredientsPath, func(r io.Reader) ([]models.Ingredient, error) {
		return parseIngredients(r, v)
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("file", *ingredientsPath).Msg("failed to read ingredients")
	}
	added, err := catalog.ImportIngredients(ctx, ingredients)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to import ingredients")
	}
	logger.Logger.Info().Int("read", len(ingredients)).Int("added", added).Msg("ingredients loaded")

	if *tagsPath == "" {
		return
	}
	tags, err := readFile(*tagsPath, func(r io.Reader) ([]models.Tag, error) {
		return parseTags(r, v)
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("file", *tagsPath).Msg("failed to read tags")
	}
	added, err = catalog.ImportTags(ctx, tags)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to import tags")
	}
	logger.Logger.Info().Int("read", len(tags)).Int("added", added).Msg("tags loaded")
}

func readFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f)
}

// parseIngredients decodes and validates an ingredient list. Surrounding
// whitespace is trimmed before validation.
func parseIngredients(r io.Reader, v *validator.Validate) ([]models.Ingredient, error) {
	var records []ingredientRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("invalid ingredients JSON: %w", err)
	}

	out := make([]models.Ingredient, 0, len(records))
	for i, rec := range records {
		rec.Name = strings.TrimSpace(rec.Name)
		rec.MeasurementUnit = strings.TrimSpace(rec.MeasurementUnit)
		if err := v.Struct(rec); err != nil {
			return nil, fmt.Errorf("ingredient %d: %w", i, err)
		}
		out = append(out, models.Ingredient{Name: rec.Name, MeasurementUnit: rec.MeasurementUnit})
	}
	return out, nil
}

// parseTags decodes and validates a tag list. Colors are kept as given.
func parseTags(r io.Reader, v *validator.Validate) ([]models.Tag, error) {
	var records []tagRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("invalid tags JSON: %w", err)
	}

	out := make([]models.Tag, 0, len(records))
	for i, rec := range records {
		if err := v.Struct(rec); err != nil {
			return nil, fmt.Errorf("tag %d: %w", i, err)
		}
		out = append(out, models.Tag{Name: rec.Name, Slug: rec.Slug, Color: rec.Color})
	}
	return out, nil
}
