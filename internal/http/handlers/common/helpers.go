package common

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bluestock/company-backend/internal/http/middleware"
	"github.com/bluestock/company-backend/internal/interface/http/response"
	"github.com/bluestock/company-backend/internal/pkg/apperror"
	"github.com/bluestock/company-backend/internal/validation"
)

// ErrUserNotFound is returned when user is not found in context
var ErrUserNotFound = errors.New("пользователь не найден в контексте")

// CurrentUserID extracts user ID from Gin context
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}

	return userID, nil
}

// RequireUserID returns the user ID or writes 401 and returns false.
func RequireUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := CurrentUserID(c)
	if err != nil {
		response.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// OptionalUserID returns the user ID when the request is authenticated.
func OptionalUserID(c *gin.Context) *uuid.UUID {
	userID, err := CurrentUserID(c)
	if err != nil {
		return nil
	}
	return &userID
}

// ParseUUIDParam parses UUID from URL parameter
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, apperror.Validation("Validation failed", apperror.FieldError{
			Field:   paramName,
			Message: "Must be a valid UUID",
		})
	}
	return parsed, nil
}

// BindJSON binds the body and renders field errors on failure.
func BindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, validation.FromBinding(err))
		return false
	}
	return true
}
