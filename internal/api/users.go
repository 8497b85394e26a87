package api

import (
	"net/http"

	"github.com/foodgram/foodgram/backend/internal/middleware"
	"github.com/foodgram/foodgram/backend/internal/service"
	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	authService service.IAuthService
	userService service.IUserService
	views       service.IViewService
	pageSize    int
}

func NewUserHandler(svc Services, opts Options) *UserHandler {
	return &UserHandler{
		authService: svc.Auth,
		userService: svc.Users,
		views:       svc.Views,
		pageSize:    opts.PageSize,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.AuthMiddleware(h.authService)
	optionalAuth := middleware.OptionalAuth(h.authService)

	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", optionalAuth, h.ListUsers)
		users.GET("/me", requireAuth, h.Me)
		users.DELETE("/me", requireAuth, h.DeleteMe)
		users.POST("/set_password", requireAuth, h.SetPassword)
		users.GET("/subscriptions", requireAuth, h.Subscriptions)
		users.GET("/:id", optionalAuth, h.GetUser)
		users.POST("/:id/subscribe", requireAuth, h.Subscribe)
		users.DELETE("/:id/subscribe", requireAuth, h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	limit, offset := offsetParams(c, h.pageSize)

	users, total, err := h.userService.ListUsers(ctx, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	views, err := h.views.Users(ctx, middleware.CurrentUser(c), users)
	if err != nil {
		respondError(c, err)
		return
	}

	next, prev := offsetLinks(c, limit, offset, total)
	c.JSON(http.StatusOK, newPage(views, total, next, prev))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.views.User(c.Request.Context(), middleware.CurrentUser(c), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	view, err := h.views.User(c.Request.Context(), user, user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	err := h.authService.SetPassword(c.Request.Context(), middleware.CurrentUser(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteMe removes the account and everything it owns.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	var req types.DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.DeleteAccount(c.Request.Context(), middleware.CurrentUser(c), req.CurrentPassword); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	ctx := c.Request.Context()
	viewer := middleware.CurrentUser(c)
	limit, offset := offsetParams(c, h.pageSize)
	recipesLimit := queryInt(c, "recipes_limit", 0)

	authors, total, err := h.userService.Subscriptions(ctx, viewer, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]types.SubscriptionResponse, 0, len(authors))
	for i := range authors {
		view, err := h.userService.SubscriptionView(ctx, viewer, &authors[i], recipesLimit)
		if err != nil {
			respondError(c, err)
			return
		}
		results = append(results, view)
	}

	next, prev := offsetLinks(c, limit, offset, total)
	c.JSON(http.StatusOK, newPage(results, total, next, prev))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	viewer := middleware.CurrentUser(c)

	author, err := h.userService.Subscribe(ctx, viewer, id)
	if err != nil {
		respondError(c, err)
		return
	}
	view, err := h.userService.SubscriptionView(ctx, viewer, author, queryInt(c, "recipes_limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := parseID(c, "user")
	if !ok {
		return
	}
	if err := h.userService.Unsubscribe(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
