package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShoppingLine is one ingredient line of a recipe in a cart.
type ShoppingLine struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

type ShoppingService struct {
	db *gorm.DB
}

func NewShoppingService(db *gorm.DB) *ShoppingService {
	return &ShoppingService{db: db}
}

// BuildShoppingList aggregates the ingredient lines of every recipe in the
// user's cart. An empty cart yields an empty list.
func (s *ShoppingService) BuildShoppingList(ctx context.Context, user *models.User) ([]types.ShoppingItem, error) {
	if user == nil {
		return []types.ShoppingItem{}, nil
	}

	lines, err := s.cartLines(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return AggregateShoppingLines(lines), nil
}

func (s *ShoppingService) cartLines(ctx context.Context, userID uuid.UUID) ([]ShoppingLine, error) {
	var lines []ShoppingLine
	err := s.db.WithContext(ctx).
		Table("shopping_cart_entries").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_cart_entries.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_cart_entries.user_id = ?", userID).
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping cart lines: %w", err)
	}
	return lines, nil
}

type shoppingKey struct {
	name string
	unit string
}

// AggregateShoppingLines groups lines by (name, unit) and sums the
// amounts. Lines for the same name in different units stay separate. The
// result is ordered by name, then unit, comparing bytes.
func AggregateShoppingLines(lines []ShoppingLine) []types.ShoppingItem {
	totals := make(map[shoppingKey]int64, len(lines))
	for _, line := range lines {
		totals[shoppingKey{line.Name, line.MeasurementUnit}] += line.Amount
	}

	items := make([]types.ShoppingItem, 0, len(totals))
	for key, total := range totals {
		items = append(items, types.ShoppingItem{
			Name:            key.name,
			MeasurementUnit: key.unit,
			TotalAmount:     total,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items
}
