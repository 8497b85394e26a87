package testhelpers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every user made by CreateTestUser.
const TestPassword = "testpassword123"

// CreateTestUser inserts a user with a unique username and email.
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", strings.ToLower(username)),
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hashed),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func CreateTestTag(t *testing.T, db *gorm.DB, name, slug string) *models.Tag {
	t.Helper()

	tag := &models.Tag{Name: name, Slug: slug, Color: "#E26C2D"}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return tag
}

func CreateTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()

	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("failed to create test ingredient: %v", err)
	}
	return ingredient
}

// Line is an (ingredient, amount) pair for CreateTestRecipe.
type Line struct {
	Ingredient *models.Ingredient
	Amount     int
}

// CreateTestRecipe inserts a recipe with its tags and ingredient lines,
// bypassing the service layer.
func CreateTestRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, tags []*models.Tag, lines ...Line) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		Name:        name,
		Text:        "Mix everything.",
		CookingTime: 15,
		AuthorID:    author.ID,
	}
	for _, tag := range tags {
		recipe.Tags = append(recipe.Tags, *tag)
	}
	for _, line := range lines {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			IngredientID: line.Ingredient.ID,
			Amount:       line.Amount,
		})
	}

	if err := db.Create(recipe).Error; err != nil {
		t.Fatalf("failed to create test recipe: %v", err)
	}
	return recipe
}

// AddToCart puts recipe into user's shopping cart directly.
func AddToCart(t *testing.T, db *gorm.DB, user *models.User, recipe *models.Recipe) {
	t.Helper()

	entry := &models.ShoppingCartEntry{UserID: user.ID, RecipeID: recipe.ID}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to add recipe to cart: %v", err)
	}
}

// RandomSuffix is a short unique string for names that must not collide.
func RandomSuffix() string {
	return strings.ReplaceAll(uuid.NewString()[:8], "-", "")
}
