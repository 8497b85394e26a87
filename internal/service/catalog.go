package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogService serves the tag and ingredient reference data.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("slug").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "tag"}
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

// ListIngredients returns ingredients whose name starts with prefix,
// ignoring case. An empty prefix returns everything.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	q := s.db.WithContext(ctx).Order("name").Order("measurement_unit")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, escapeLike(strings.ToLower(prefix))+"%")
	}

	var ingredients []models.Ingredient
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "ingredient"}
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return &ingredient, nil
}

// ImportIngredients inserts the ingredients whose (name, unit) pair is not
// stored yet and reports how many were added.
func (s *CatalogService) ImportIngredients(ctx context.Context, ingredients []models.Ingredient) (int, error) {
	var existing []models.Ingredient
	if err := s.db.WithContext(ctx).Select("name", "measurement_unit").Find(&existing).Error; err != nil {
		return 0, fmt.Errorf("failed to load ingredients: %w", err)
	}

	seen := make(map[[2]string]bool, len(existing))
	for _, i := range existing {
		seen[[2]string{i.Name, i.MeasurementUnit}] = true
	}

	fresh := make([]models.Ingredient, 0, len(ingredients))
	for _, i := range ingredients {
		key := [2]string{strings.TrimSpace(i.Name), strings.TrimSpace(i.MeasurementUnit)}
		if key[0] == "" || seen[key] {
			continue
		}
		seen[key] = true
		fresh = append(fresh, models.Ingredient{Name: key[0], MeasurementUnit: key[1]})
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := s.db.WithContext(ctx).CreateInBatches(&fresh, 500).Error; err != nil {
		return 0, fmt.Errorf("failed to import ingredients: %w", err)
	}
	return len(fresh), nil
}

// ImportTags inserts tags, skipping slugs that already exist.
func (s *CatalogService) ImportTags(ctx context.Context, tags []models.Tag) (int, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(&tags)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to import tags: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
