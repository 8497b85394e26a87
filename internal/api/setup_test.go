package api_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foodgram/foodgram/backend/internal/api"
	"github.com/foodgram/foodgram/backend/internal/middleware"
	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/service"
	"github.com/foodgram/foodgram/backend/internal/testhelpers"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.RegisterBindingValidators())

	db := testhelpers.SetupTestDatabase(t)
	follows := service.NewFollowGuard(db)
	favorites := service.NewFavoriteGuard(db)
	cart := service.NewCartGuard(db)
	recipes := service.NewRecipeService(db, service.NewLocalImageStore(t.TempDir(), "/media"))
	auth := service.NewAuthService(db, "test-secret", time.Hour)

	router := gin.New()
	api.RegisterRoutes(router, api.Services{
		Auth:      auth,
		Users:     service.NewUserService(db, follows, recipes),
		Recipes:   recipes,
		Catalog:   service.NewCatalogService(db),
		Shopping:  service.NewShoppingService(db),
		Views:     service.NewViewService(follows, favorites, cart),
		Favorites: favorites,
		Cart:      cart,
	}, api.Options{PageSize: 6})

	return &testServer{router: router, db: db, auth: auth}
}

// token returns an Authorization header value for user.
func (s *testServer) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := s.auth.GenerateToken(user)
	require.NoError(t, err)
	return "Token " + token
}

func (s *testServer) do(t *testing.T, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

var testImage = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n"))

func recipeBody(name string, tags []*models.Tag, lines ...testhelpers.Line) map[string]interface{} {
	tagIDs := []string{}
	for _, tag := range tags {
		tagIDs = append(tagIDs, tag.ID.String())
	}
	ingredients := []map[string]interface{}{}
	for _, l := range lines {
		ingredients = append(ingredients, map[string]interface{}{
			"id":     l.Ingredient.ID.String(),
			"amount": l.Amount,
		})
	}
	return map[string]interface{}{
		"name":         name,
		"text":         "Stir and serve.",
		"image":        testImage,
		"cooking_time": 25,
		"tags":         tagIDs,
		"ingredients":  ingredients,
	}
}

func assertStatus(t *testing.T, want int, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}
