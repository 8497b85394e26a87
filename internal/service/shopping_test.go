package service_test

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/service"
	"github.com/foodgram/foodgram/backend/internal/testhelpers"
	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateShoppingLinesMerges(t *testing.T) {
	items := service.AggregateShoppingLines([]service.ShoppingLine{
		{Name: "salt", MeasurementUnit: "g", Amount: 10},
		{Name: "salt", MeasurementUnit: "g", Amount: 12},
	})
	assert.Equal(t, []types.ShoppingItem{{Name: "salt", MeasurementUnit: "g", TotalAmount: 22}}, items)
}

func TestAggregateShoppingLinesKeepsUnitsApart(t *testing.T) {
	items := service.AggregateShoppingLines([]service.ShoppingLine{
		{Name: "sugar", MeasurementUnit: "tbsp", Amount: 2},
		{Name: "sugar", MeasurementUnit: "g", Amount: 100},
		{Name: "apple", MeasurementUnit: "pcs", Amount: 3},
		{Name: "sugar", MeasurementUnit: "g", Amount: 50},
	})
	assert.Equal(t, []types.ShoppingItem{
		{Name: "apple", MeasurementUnit: "pcs", TotalAmount: 3},
		{Name: "sugar", MeasurementUnit: "g", TotalAmount: 150},
		{Name: "sugar", MeasurementUnit: "tbsp", TotalAmount: 2},
	}, items)
}

func TestAggregateShoppingLinesEmpty(t *testing.T) {
	items := service.AggregateShoppingLines(nil)
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestAggregateShoppingLinesIsOrderIndependent(t *testing.T) {
	names := []string{"salt", "Salt", "egg", "flour", "milk", "Ёжевика", "butter"}
	units := []string{"g", "ml", "pcs"}
	rng := rand.New(rand.NewSource(42))

	lines := make([]service.ShoppingLine, 0, 200)
	sums := map[[2]string]int64{}
	var total int64
	for i := 0; i < 200; i++ {
		l := service.ShoppingLine{
			Name:            names[rng.Intn(len(names))],
			MeasurementUnit: units[rng.Intn(len(units))],
			Amount:          int64(1 + rng.Intn(500)),
		}
		lines = append(lines, l)
		sums[[2]string{l.Name, l.MeasurementUnit}] += l.Amount
		total += l.Amount
	}

	want := service.AggregateShoppingLines(lines)
	for i := 0; i < 5; i++ {
		shuffled := append([]service.ShoppingLine(nil), lines...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, service.AggregateShoppingLines(shuffled))
	}

	assert.Len(t, want, len(sums))
	var got int64
	for _, item := range want {
		assert.Equal(t, sums[[2]string{item.Name, item.MeasurementUnit}], item.TotalAmount)
		got += item.TotalAmount
	}
	assert.Equal(t, total, got)

	assert.True(t, sort.SliceIsSorted(want, func(i, j int) bool {
		if want[i].Name != want[j].Name {
			return want[i].Name < want[j].Name
		}
		return want[i].MeasurementUnit < want[j].MeasurementUnit
	}))
}

func TestBuildShoppingList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testhelpers.CreateTestUser(t, env.db, "author")
	shopper := testhelpers.CreateTestUser(t, env.db, "shopper")

	salt := testhelpers.CreateTestIngredient(t, env.db, "salt", "g")
	// a second record with the same name and unit merges with the first
	saltAgain := testhelpers.CreateTestIngredient(t, env.db, "salt", "g")
	water := testhelpers.CreateTestIngredient(t, env.db, "water", "ml")

	r1 := testhelpers.CreateTestRecipe(t, env.db, author, "R1", nil,
		testhelpers.Line{Ingredient: salt, Amount: 10}, testhelpers.Line{Ingredient: water, Amount: 500})
	r2 := testhelpers.CreateTestRecipe(t, env.db, author, "R2", nil,
		testhelpers.Line{Ingredient: saltAgain, Amount: 12})
	testhelpers.CreateTestRecipe(t, env.db, author, "Not in cart", nil,
		testhelpers.Line{Ingredient: salt, Amount: 1000})

	testhelpers.AddToCart(t, env.db, shopper, r1)
	testhelpers.AddToCart(t, env.db, shopper, r2)

	items, err := env.shopping.BuildShoppingList(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, []types.ShoppingItem{
		{Name: "salt", MeasurementUnit: "g", TotalAmount: 22},
		{Name: "water", MeasurementUnit: "ml", TotalAmount: 500},
	}, items)
}

func TestBuildShoppingListEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	user := testhelpers.CreateTestUser(t, env.db, "nobody")

	items, err := env.shopping.BuildShoppingList(context.Background(), user)
	require.NoError(t, err)
	require.NotNil(t, items)
	assert.Empty(t, items)

	items, err = env.shopping.BuildShoppingList(context.Background(), (*models.User)(nil))
	require.NoError(t, err)
	assert.Empty(t, items)
}
