package testhelpers

import (
	"errors"
	"testing"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSetupTestDatabase(t *testing.T) {
	db := SetupTestDatabase(t)

	author := CreateTestUser(t, db, "chef")
	tag := CreateTestTag(t, db, "Breakfast", "breakfast")
	egg := CreateTestIngredient(t, db, "egg", "pcs")
	recipe := CreateTestRecipe(t, db, author, "Omelette", []*models.Tag{tag}, Line{egg, 3})

	var loaded models.Recipe
	err := db.Preload("Tags").Preload("Ingredients.Ingredient").First(&loaded, "id = ?", recipe.ID).Error
	require.NoError(t, err)
	assert.Equal(t, "Omelette", loaded.Name)
	require.Len(t, loaded.Tags, 1)
	assert.Equal(t, "breakfast", loaded.Tags[0].Slug)
	require.Len(t, loaded.Ingredients, 1)
	assert.Equal(t, 3, loaded.Ingredients[0].Amount)
	assert.Equal(t, "egg", loaded.Ingredients[0].Ingredient.Name)
}

func TestSetupTestDatabaseIsolated(t *testing.T) {
	first := SetupTestDatabase(t)
	second := SetupTestDatabase(t)

	CreateTestUser(t, first, "only_here")

	var count int64
	require.NoError(t, second.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUniqueViolationIsTranslated(t *testing.T) {
	db := SetupTestDatabase(t)
	user := CreateTestUser(t, db, "fan")
	author := CreateTestUser(t, db, "cook")
	recipe := CreateTestRecipe(t, db, author, "Soup", nil)

	require.NoError(t, db.Create(&models.Favorite{UserID: user.ID, RecipeID: recipe.ID}).Error)
	err := db.Create(&models.Favorite{UserID: user.ID, RecipeID: recipe.ID}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestDeletingAuthorCascades(t *testing.T) {
	db := SetupTestDatabase(t)
	author := CreateTestUser(t, db, "leaving")
	egg := CreateTestIngredient(t, db, "egg", "pcs")
	CreateTestRecipe(t, db, author, "Eggs", nil, Line{egg, 2})

	require.NoError(t, db.Delete(&models.User{}, "id = ?", author.ID).Error)

	var recipes, lines int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&recipes).Error)
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Count(&lines).Error)
	assert.Zero(t, recipes)
	assert.Zero(t, lines)
}

func TestPostgresDatabase(t *testing.T) {
	db := SetupPostgresDatabase(t)

	author := CreateTestUser(t, db, "pg_chef")
	tag := CreateTestTag(t, db, "Lunch", "lunch")
	salt := CreateTestIngredient(t, db, "salt", "g")
	recipe := CreateTestRecipe(t, db, author, "Salted", []*models.Tag{tag}, Line{salt, 5})

	err := db.Create(&models.Favorite{UserID: author.ID, RecipeID: recipe.ID}).Error
	require.NoError(t, err)
	err = db.Create(&models.Favorite{UserID: author.ID, RecipeID: recipe.ID}).Error
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	err = db.Create(&models.Follow{UserID: author.ID, FollowingID: author.ID}).Error
	assert.Error(t, err)
}
