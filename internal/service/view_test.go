package service_test

import (
	"context"
	"testing"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewFieldsFollowRelations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testhelpers.CreateTestUser(t, env.db, "author")
	viewer := testhelpers.CreateTestUser(t, env.db, "viewer")
	egg := testhelpers.CreateTestIngredient(t, env.db, "egg", "pcs")
	tag := testhelpers.CreateTestTag(t, env.db, "Dinner", "dinner")
	created := testhelpers.CreateTestRecipe(t, env.db, author, "Eggs", []*models.Tag{tag},
		testhelpers.Line{Ingredient: egg, Amount: 4})

	recipe, err := env.recipes.GetRecipe(ctx, created.ID)
	require.NoError(t, err)

	view, err := env.views.Recipe(ctx, viewer, recipe)
	require.NoError(t, err)
	assert.False(t, view.IsFavorited)
	assert.False(t, view.IsInShoppingCart)
	assert.False(t, view.Author.IsSubscribed)

	_, err = env.favorites.Add(ctx, viewer.ID, recipe.ID)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, viewer.ID, recipe.ID)
	require.NoError(t, err)
	_, err = env.follows.Add(ctx, viewer.ID, author.ID)
	require.NoError(t, err)

	view, err = env.views.Recipe(ctx, viewer, recipe)
	require.NoError(t, err)
	assert.True(t, view.IsFavorited)
	assert.True(t, view.IsInShoppingCart)
	assert.True(t, view.Author.IsSubscribed)
	require.Len(t, view.Ingredients, 1)
	assert.Equal(t, "egg", view.Ingredients[0].Name)
	assert.Equal(t, "pcs", view.Ingredients[0].MeasurementUnit)
	assert.Equal(t, 4, view.Ingredients[0].Amount)

	// another viewer sees their own state, not the first viewer's
	stranger := testhelpers.CreateTestUser(t, env.db, "stranger")
	view, err = env.views.Recipe(ctx, stranger, recipe)
	require.NoError(t, err)
	assert.False(t, view.IsFavorited)
	assert.False(t, view.IsInShoppingCart)
}

func TestViewFieldsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := testhelpers.CreateTestUser(t, env.db, "author")
	recipe := testhelpers.CreateTestRecipe(t, env.db, author, "Toast", nil)

	_, err := env.favorites.Add(ctx, author.ID, recipe.ID)
	require.NoError(t, err)

	fav, err := env.views.IsFavorited(ctx, nil, recipe.ID)
	require.NoError(t, err)
	assert.False(t, fav)

	inCart, err := env.views.IsInShoppingCart(ctx, nil, recipe.ID)
	require.NoError(t, err)
	assert.False(t, inCart)

	sub, err := env.views.IsSubscribed(ctx, nil, author.ID)
	require.NoError(t, err)
	assert.False(t, sub)

	views, err := env.views.Recipes(ctx, nil, []models.Recipe{*recipe})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].IsFavorited)
	assert.NotNil(t, views[0].Tags)
}

func TestUsersView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := testhelpers.CreateTestUser(t, env.db, "a_user")
	b := testhelpers.CreateTestUser(t, env.db, "b_user")

	_, err := env.follows.Add(ctx, a.ID, b.ID)
	require.NoError(t, err)

	views, err := env.views.Users(ctx, a, []models.User{*a, *b})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.False(t, views[0].IsSubscribed)
	assert.True(t, views[1].IsSubscribed)
	assert.Equal(t, "b_user", views[1].Username)
}
