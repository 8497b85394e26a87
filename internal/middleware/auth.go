package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/foodgram/foodgram/backend/internal/models"
	"github.com/foodgram/foodgram/backend/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userKey   = "user"
	userIDKey = "user_id"
)

// Authenticator validates tokens and loads the user they belong to.
type Authenticator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware rejects requests without a valid token. The resolved user
// is stored on the context for CurrentUser.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, status, msg := authenticate(c, auth)
		if user == nil {
			if status == 0 {
				status, msg = http.StatusUnauthorized, "authentication credentials were not provided"
			}
			c.AbortWithStatusJSON(status, gin.H{"detail": msg})
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth resolves the user when a valid token is present and lets
// anonymous requests through. A malformed or invalid token is still an error.
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, status, msg := authenticate(c, auth)
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"detail": msg})
			return
		}
		if user != nil {
			setUser(c, user)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// authenticate returns the user for the request's token. A zero status
// with a nil user means no credentials were sent.
func authenticate(c *gin.Context, auth Authenticator) (*models.User, int, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, 0, ""
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || (parts[0] != "Token" && parts[0] != "Bearer") {
		return nil, http.StatusUnauthorized, "invalid authorization header format"
	}

	claims, err := auth.ValidateToken(parts[1])
	if err != nil {
		return nil, http.StatusUnauthorized, "invalid token"
	}

	user, err := auth.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		return nil, http.StatusUnauthorized, "user not found"
	}
	return user, 0, ""
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(userKey, user)
	c.Set(userIDKey, user.ID)
}
