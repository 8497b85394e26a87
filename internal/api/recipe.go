package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/foodgram/foodgram/backend/internal/export"
	"github.com/foodgram/foodgram/backend/internal/middleware"
	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/service"
	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RecipeHandler struct {
	authService   service.IAuthService
	recipeService service.IRecipeService
	shopping      service.IShoppingService
	views         service.IViewService
	favorites     service.Relations[models.Favorite]
	cart          service.Relations[models.ShoppingCartEntry]
	limiter       *middleware.RateLimiter
	pageSize      int
	pdfFontPath   string
}

func NewRecipeHandler(svc Services, opts Options) *RecipeHandler {
	return &RecipeHandler{
		authService:   svc.Auth,
		recipeService: svc.Recipes,
		shopping:      svc.Shopping,
		views:         svc.Views,
		favorites:     svc.Favorites,
		cart:          svc.Cart,
		limiter:       opts.RecipeLimiter,
		pageSize:      opts.PageSize,
		pdfFontPath:   opts.PDFFontPath,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.AuthMiddleware(h.authService)
	optionalAuth := middleware.OptionalAuth(h.authService)

	create := []gin.HandlerFunc{requireAuth}
	if h.limiter != nil {
		create = append(create, h.limiter.RateLimitMiddleware())
	}
	create = append(create, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optionalAuth, h.ListRecipes)
		recipes.POST("", create...)
		recipes.GET("/download_shopping_cart", requireAuth, h.DownloadShoppingCart)
		recipes.GET("/:id", optionalAuth, h.GetRecipe)
		recipes.PATCH("/:id", requireAuth, h.UpdateRecipe)
		recipes.DELETE("/:id", requireAuth, h.DeleteRecipe)
		recipes.POST("/:id/favorite", requireAuth, h.AddFavorite)
		recipes.DELETE("/:id/favorite", requireAuth, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", requireAuth, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", requireAuth, h.RemoveFromCart)
	}
}

// ListRecipes returns a page of recipes. Favorite and cart filters only
// apply to authenticated viewers.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := middleware.CurrentUser(c)

	page, limit := pageParams(c, h.pageSize)
	filter := types.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      queryBool(c, "is_favorited"),
		IsInShoppingCart: queryBool(c, "is_in_shopping_cart"),
		Page:             page,
		Limit:            limit,
	}
	if raw := c.Query("author"); raw != "" {
		authorID, err := uuid.Parse(raw)
		if err != nil {
			verr := &service.ValidationError{}
			verr.Add("author", "select a valid author")
			respondError(c, verr)
			return
		}
		filter.AuthorID = &authorID
	}

	recipes, total, err := h.recipeService.ListRecipes(ctx, viewer, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	views, err := h.views.Recipes(ctx, viewer, recipes)
	if err != nil {
		respondError(c, err)
		return
	}

	next, prev := pageLinks(c, page, limit, total)
	c.JSON(http.StatusOK, newPage(views, total, next, prev))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseID(c, "recipe")
	if !ok {
		return
	}
	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusCreated, recipe)
}

// UpdateRecipe replaces the recipe's fields, tags and ingredient lines.
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := parseID(c, "recipe")
	if !ok {
		return
	}
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), middleware.CurrentUser(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseID(c, "recipe")
	if !ok {
		return
	}
	if err := h.recipeService.DeleteRecipe(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	addRelation(h, c, h.favorites.Add)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeRelation(c, h.favorites.Remove)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	addRelation(h, c, h.cart.Add)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.cart.Remove)
}

// DownloadShoppingCart renders the viewer's aggregated shopping list as a
// PDF attachment, or plain text with ?format=txt.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	items, err := h.shopping.BuildShoppingList(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var renderer export.Renderer = export.PDFRenderer{FontPath: h.pdfFontPath}
	if c.Query("format") == "txt" {
		renderer = export.TextRenderer{}
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, items); err != nil {
		respondError(c, fmt.Errorf("failed to render shopping list: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, renderer.Filename()))
	c.Data(http.StatusOK, renderer.ContentType(), buf.Bytes())
}

// addRelation links the viewer to the recipe and answers with the short
// recipe form.
func addRelation[T any](h *RecipeHandler, c *gin.Context, add func(ctx context.Context, owner, target uuid.UUID) (*T, error)) {
	id, ok := parseID(c, "recipe")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := add(ctx, middleware.CurrentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	recipe, err := h.recipeService.GetRecipe(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.NewShortRecipe(recipe))
}

func (h *RecipeHandler) removeRelation(c *gin.Context, remove func(ctx context.Context, owner, target uuid.UUID) error) {
	id, ok := parseID(c, "recipe")
	if !ok {
		return
	}
	if err := remove(c.Request.Context(), middleware.CurrentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) respondRecipe(c *gin.Context, status int, recipe *models.Recipe) {
	view, err := h.views.Recipe(c.Request.Context(), middleware.CurrentUser(c), recipe)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, view)
}

// queryBool accepts the 1/0 and true/false spellings of a flag.
func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
