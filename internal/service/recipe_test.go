package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/service"
	"github.com/foodgram/foodgram/backend/internal/testhelpers"
	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recipeFixture struct {
	env       *testEnv
	author    *models.User
	breakfast *models.Tag
	lunch     *models.Tag
	salt      *models.Ingredient
	egg       *models.Ingredient
	milk      *models.Ingredient
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	env := newTestEnv(t)
	return &recipeFixture{
		env:       env,
		author:    testhelpers.CreateTestUser(t, env.db, "chef"),
		breakfast: testhelpers.CreateTestTag(t, env.db, "Breakfast", "breakfast"),
		lunch:     testhelpers.CreateTestTag(t, env.db, "Lunch", "lunch"),
		salt:      testhelpers.CreateTestIngredient(t, env.db, "salt", "g"),
		egg:       testhelpers.CreateTestIngredient(t, env.db, "egg", "pcs"),
		milk:      testhelpers.CreateTestIngredient(t, env.db, "milk", "ml"),
	}
}

func TestCreateRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	req := recipeRequest("Omelette", []*models.Tag{f.breakfast, f.lunch}, line(f.salt, 10), line(f.egg, 3))
	recipe, err := f.env.recipes.CreateRecipe(ctx, f.author, req)
	require.NoError(t, err)

	assert.Equal(t, "Omelette", recipe.Name)
	assert.Equal(t, f.author.ID, recipe.AuthorID)
	require.NotNil(t, recipe.Author)
	assert.Equal(t, "chef", recipe.Author.Username)
	assert.Contains(t, recipe.Image, "/media/recipes/images/")
	assert.Len(t, recipe.Tags, 2)

	amounts := map[uuid.UUID]int{}
	for _, l := range recipe.Ingredients {
		amounts[l.IngredientID] = l.Amount
	}
	assert.Equal(t, map[uuid.UUID]int{f.salt.ID: 10, f.egg.ID: 3}, amounts)
}

func TestCreateRecipeDuplicateIngredient(t *testing.T) {
	f := newRecipeFixture(t)

	req := recipeRequest("Salty", []*models.Tag{f.breakfast}, line(f.salt, 10), line(f.salt, 5))
	_, err := f.env.recipes.CreateRecipe(context.Background(), f.author, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrDuplicateIngredient))

	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "ingredients")

	assert.Zero(t, countRows(t, f.env.db, &models.Recipe{}))
	assert.Zero(t, countRows(t, f.env.db, &models.RecipeIngredient{}))
}

func TestCreateRecipeDuplicateTag(t *testing.T) {
	f := newRecipeFixture(t)

	req := recipeRequest("Twice", []*models.Tag{f.lunch, f.lunch}, line(f.egg, 1))
	_, err := f.env.recipes.CreateRecipe(context.Background(), f.author, req)
	assert.True(t, errors.Is(err, service.ErrDuplicateTag))
	assert.Zero(t, countRows(t, f.env.db, &models.Recipe{}))
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(r *types.RecipeRequest)
		field  string
	}{
		{"cooking time too short", func(r *types.RecipeRequest) { r.CookingTime = 0 }, "cooking_time"},
		{"cooking time too long", func(r *types.RecipeRequest) { r.CookingTime = 301 }, "cooking_time"},
		{"zero amount", func(r *types.RecipeRequest) { r.Ingredients[0].Amount = 0 }, "ingredients"},
		{"amount beyond int32", func(r *types.RecipeRequest) { r.Ingredients[0].Amount = math.MaxInt32 + 1 }, "ingredients"},
		{"no ingredients", func(r *types.RecipeRequest) { r.Ingredients = nil }, "ingredients"},
		{"no tags", func(r *types.RecipeRequest) { r.Tags = nil }, "tags"},
		{"unknown tag", func(r *types.RecipeRequest) { r.Tags = []uuid.UUID{missingID()} }, "tags"},
		{"unknown ingredient", func(r *types.RecipeRequest) { r.Ingredients[0].ID = missingID() }, "ingredients"},
		{"missing image", func(r *types.RecipeRequest) { r.Image = "" }, "image"},
		{"broken image", func(r *types.RecipeRequest) { r.Image = "not-an-image" }, "image"},
		{"missing name", func(r *types.RecipeRequest) { r.Name = "  " }, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := recipeRequest("Valid", []*models.Tag{f.breakfast}, line(f.egg, 2))
			tt.mutate(req)

			_, err := f.env.recipes.CreateRecipe(ctx, f.author, req)
			var verr *service.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	assert.Zero(t, countRows(t, f.env.db, &models.Recipe{}))
}

func TestCookingTimeBoundsAreInclusive(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	for _, minutes := range []int{service.MinCookingTime, service.MaxCookingTime} {
		req := recipeRequest("Edge", []*models.Tag{f.breakfast}, line(f.egg, 1))
		req.CookingTime = minutes
		_, err := f.env.recipes.CreateRecipe(ctx, f.author, req)
		assert.NoError(t, err, minutes)
	}
}

func TestUpdateRecipeReplacesWholesale(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.env.recipes.CreateRecipe(ctx, f.author,
		recipeRequest("Porridge", []*models.Tag{f.breakfast}, line(f.milk, 200), line(f.salt, 1)))
	require.NoError(t, err)

	update := recipeRequest("Porridge 2", []*models.Tag{f.lunch}, line(f.milk, 250), line(f.egg, 1))
	update.Image = ""

	for i := 0; i < 2; i++ {
		updated, err := f.env.recipes.UpdateRecipe(ctx, f.author, created.ID, update)
		require.NoError(t, err)

		assert.Equal(t, "Porridge 2", updated.Name)
		assert.Equal(t, created.Image, updated.Image, "image is kept when none is submitted")
		require.Len(t, updated.Tags, 1)
		assert.Equal(t, "lunch", updated.Tags[0].Slug)

		amounts := map[uuid.UUID]int{}
		for _, l := range updated.Ingredients {
			amounts[l.IngredientID] = l.Amount
		}
		assert.Equal(t, map[uuid.UUID]int{f.milk.ID: 250, f.egg.ID: 1}, amounts)
		assert.Equal(t, int64(2), countRows(t, f.env.db, &models.RecipeIngredient{}, "recipe_id = ?", created.ID))
	}
}

func TestUpdateRecipeValidationKeepsOldState(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	created, err := f.env.recipes.CreateRecipe(ctx, f.author,
		recipeRequest("Tea", []*models.Tag{f.breakfast}, line(f.milk, 50)))
	require.NoError(t, err)

	bad := recipeRequest("Tea", []*models.Tag{f.breakfast}, line(f.egg, 1), line(f.egg, 2))
	_, err = f.env.recipes.UpdateRecipe(ctx, f.author, created.ID, bad)
	require.True(t, errors.Is(err, service.ErrDuplicateIngredient))

	reloaded, err := f.env.recipes.GetRecipe(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Ingredients, 1)
	assert.Equal(t, f.milk.ID, reloaded.Ingredients[0].IngredientID)
}

func TestOnlyAuthorMayMutate(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	stranger := testhelpers.CreateTestUser(t, f.env.db, "stranger")

	created, err := f.env.recipes.CreateRecipe(ctx, f.author,
		recipeRequest("Mine", []*models.Tag{f.breakfast}, line(f.egg, 2)))
	require.NoError(t, err)

	_, err = f.env.recipes.UpdateRecipe(ctx, stranger, created.ID,
		recipeRequest("Yours", []*models.Tag{f.breakfast}, line(f.egg, 2)))
	assert.True(t, errors.Is(err, service.ErrForbidden))

	assert.True(t, errors.Is(f.env.recipes.DeleteRecipe(ctx, stranger, created.ID), service.ErrForbidden))
	assert.True(t, errors.Is(f.env.recipes.DeleteRecipe(ctx, nil, created.ID), service.ErrForbidden))

	_, err = f.env.recipes.UpdateRecipe(ctx, f.author, missingID(),
		recipeRequest("Ghost", []*models.Tag{f.breakfast}, line(f.egg, 2)))
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestDeleteRecipeCascades(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	fan := testhelpers.CreateTestUser(t, f.env.db, "fan")

	created, err := f.env.recipes.CreateRecipe(ctx, f.author,
		recipeRequest("Gone", []*models.Tag{f.breakfast}, line(f.egg, 2)))
	require.NoError(t, err)
	_, err = f.env.favorites.Add(ctx, fan.ID, created.ID)
	require.NoError(t, err)
	_, err = f.env.cart.Add(ctx, fan.ID, created.ID)
	require.NoError(t, err)

	require.NoError(t, f.env.recipes.DeleteRecipe(ctx, f.author, created.ID))

	_, err = f.env.recipes.GetRecipe(ctx, created.ID)
	assert.True(t, errors.Is(err, service.ErrNotFound))
	assert.Zero(t, countRows(t, f.env.db, &models.RecipeIngredient{}))
	assert.Zero(t, countRows(t, f.env.db, &models.Favorite{}))
	assert.Zero(t, countRows(t, f.env.db, &models.ShoppingCartEntry{}))

	var links int64
	require.NoError(t, f.env.db.Table("recipe_tags").Count(&links).Error)
	assert.Zero(t, links)
	assert.Equal(t, int64(1), countRows(t, f.env.db, &models.Tag{}, "id = ?", f.breakfast.ID))
}

func TestListRecipesFilters(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	other := testhelpers.CreateTestUser(t, f.env.db, "other")

	omelette, err := f.env.recipes.CreateRecipe(ctx, f.author,
		recipeRequest("Omelette", []*models.Tag{f.breakfast}, line(f.egg, 3)))
	require.NoError(t, err)
	soup, err := f.env.recipes.CreateRecipe(ctx, f.author,
		recipeRequest("Soup", []*models.Tag{f.lunch}, line(f.salt, 5)))
	require.NoError(t, err)
	_, err = f.env.recipes.CreateRecipe(ctx, other,
		recipeRequest("Pancakes", []*models.Tag{f.breakfast}, line(f.milk, 300)))
	require.NoError(t, err)

	_, err = f.env.favorites.Add(ctx, other.ID, soup.ID)
	require.NoError(t, err)
	_, err = f.env.cart.Add(ctx, other.ID, omelette.ID)
	require.NoError(t, err)

	names := func(filter types.RecipeFilter, viewer *models.User) ([]string, int64) {
		if filter.Limit == 0 {
			filter.Limit = 6
		}
		list, total, err := f.env.recipes.ListRecipes(ctx, viewer, filter)
		require.NoError(t, err)
		out := make([]string, 0, len(list))
		for _, r := range list {
			out = append(out, r.Name)
		}
		return out, total
	}

	got, total := names(types.RecipeFilter{}, nil)
	assert.Equal(t, int64(3), total)
	assert.ElementsMatch(t, []string{"Omelette", "Soup", "Pancakes"}, got)

	got, _ = names(types.RecipeFilter{AuthorID: &f.author.ID}, nil)
	assert.ElementsMatch(t, []string{"Omelette", "Soup"}, got)

	got, _ = names(types.RecipeFilter{TagSlugs: []string{"breakfast"}}, nil)
	assert.ElementsMatch(t, []string{"Omelette", "Pancakes"}, got)

	got, _ = names(types.RecipeFilter{TagSlugs: []string{"breakfast", "lunch"}}, nil)
	assert.Len(t, got, 3)

	got, _ = names(types.RecipeFilter{IsFavorited: true}, other)
	assert.Equal(t, []string{"Soup"}, got)

	got, _ = names(types.RecipeFilter{IsInShoppingCart: true}, other)
	assert.Equal(t, []string{"Omelette"}, got)

	// anonymous viewers cannot filter by their own relations
	got, _ = names(types.RecipeFilter{IsFavorited: true}, nil)
	assert.Len(t, got, 3)

	page1, total := names(types.RecipeFilter{Page: 1, Limit: 2}, nil)
	page2, _ := names(types.RecipeFilter{Page: 2, Limit: 2}, nil)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page1, 2)
	assert.Len(t, page2, 1)
	assert.NotContains(t, page1, page2[0])

	past, total := names(types.RecipeFilter{Page: 3, Limit: 2}, nil)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, past)

	huge, _ := names(types.RecipeFilter{Page: math.MaxInt64/6 + 2, Limit: 6}, nil)
	assert.Empty(t, huge)
}

func TestListByAuthor(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		_, err := f.env.recipes.CreateRecipe(ctx, f.author,
			recipeRequest(name, []*models.Tag{f.breakfast}, line(f.egg, 1)))
		require.NoError(t, err)
	}

	recipes, total, err := f.env.recipes.ListByAuthor(ctx, f.author.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, recipes, 2)

	recipes, _, err = f.env.recipes.ListByAuthor(ctx, f.author.ID, 0)
	require.NoError(t, err)
	assert.Len(t, recipes, 3)
}
