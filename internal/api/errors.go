package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/foodgram/foodgram/backend/internal/logger"
	"github.com/foodgram/foodgram/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError maps a service error onto the HTTP response. Relation
// errors are checked first because a missing relation also matches
// ErrNotFound.
func respondError(c *gin.Context, err error) {
	var (
		relErr   *service.RelationError
		validErr *service.ValidationError
	)

	switch {
	case errors.As(err, &relErr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": relErr.Message})
	case errors.As(err, &validErr):
		c.JSON(http.StatusBadRequest, validErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"detail": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{err.Error()}})
	default:
		logger.Error(c.Request.Context()).Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

// respondBindError reports request decoding problems. Validator failures
// become a field map keyed by the JSON field name.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed request body"})
		return
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := jsonFieldName(fe.Field())
		fields[name] = append(fields[name], fieldMessage(fe))
	}
	c.JSON(http.StatusBadRequest, fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		return "ensure this field has at least " + fe.Param() + " characters"
	case "max":
		return "ensure this field has no more than " + fe.Param() + " characters"
	case "username":
		return "enter a valid username: letters, digits and @/./+/-/_ only"
	default:
		return "invalid value"
	}
}

// jsonFieldName converts a Go field name such as FirstName to first_name.
func jsonFieldName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
