package api

import (
	"github.com/foodgram/foodgram/backend/internal/middleware"
	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Services are the dependencies of the HTTP handlers.
type Services struct {
	Auth      service.IAuthService
	Users     service.IUserService
	Recipes   service.IRecipeService
	Catalog   service.ICatalogService
	Shopping  service.IShoppingService
	Views     service.IViewService
	Favorites service.Relations[models.Favorite]
	Cart      service.Relations[models.ShoppingCartEntry]
}

// Options tune handler behaviour.
type Options struct {
	PageSize    int
	PDFFontPath string
	// RecipeLimiter throttles recipe creation. Nil disables it.
	RecipeLimiter *middleware.RateLimiter
}

// RegisterRoutes registers all API routes under /api.
func RegisterRoutes(router *gin.Engine, svc Services, opts Options) {
	if opts.PageSize < 1 {
		opts.PageSize = 6
	}

	api := router.Group("/api")

	NewAuthHandler(svc.Auth).RegisterRoutes(api)
	NewUserHandler(svc, opts).RegisterRoutes(api)
	NewCatalogHandler(svc.Catalog).RegisterRoutes(api)
	NewRecipeHandler(svc, opts).RegisterRoutes(api)
}

// parseID reads a UUID path parameter. Malformed IDs cannot name any
// entity, so they are reported as not found.
func parseID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, &service.NotFoundError{Entity: entity})
		return uuid.Nil, false
	}
	return id, true
}
