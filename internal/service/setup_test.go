package service_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/service"
	"github.com/foodgram/foodgram/backend/internal/testhelpers"
	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	auth      *service.AuthService
	users     *service.UserService
	recipes   *service.RecipeService
	catalog   *service.CatalogService
	shopping  *service.ShoppingService
	views     *service.ViewService
	follows   *service.FollowGuard
	favorites *service.FavoriteGuard
	cart      *service.CartGuard
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testhelpers.SetupTestDatabase(t)
	follows := service.NewFollowGuard(db)
	favorites := service.NewFavoriteGuard(db)
	cart := service.NewCartGuard(db)
	recipes := service.NewRecipeService(db, service.NewLocalImageStore(t.TempDir(), "/media"))

	return &testEnv{
		db:        db,
		auth:      service.NewAuthService(db, "test-secret", time.Hour),
		users:     service.NewUserService(db, follows, recipes),
		recipes:   recipes,
		catalog:   service.NewCatalogService(db),
		shopping:  service.NewShoppingService(db),
		views:     service.NewViewService(follows, favorites, cart),
		follows:   follows,
		favorites: favorites,
		cart:      cart,
	}
}

var testImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n"))

func recipeRequest(name string, tags []*models.Tag, lines ...types.RecipeIngredientInput) *types.RecipeRequest {
	req := &types.RecipeRequest{
		Name:        name,
		Text:        "Cook it well.",
		Image:       testImage,
		CookingTime: 20,
		Ingredients: lines,
	}
	for _, tag := range tags {
		req.Tags = append(req.Tags, tag.ID)
	}
	return req
}

func line(ingredient *models.Ingredient, amount int) types.RecipeIngredientInput {
	return types.RecipeIngredientInput{ID: ingredient.ID, Amount: amount}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, where ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func missingID() uuid.UUID {
	return uuid.New()
}
