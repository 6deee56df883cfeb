package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bluestock/company-backend/internal/interface/http/response"
	"github.com/bluestock/company-backend/internal/pkg/apperror"
)

// UUIDValidator проверяет, что параметр с указанным именем является валидным UUID.
// Использование: router.DELETE("/social/:id", UUIDValidator("id"), handler.DeleteSocialLink)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param(paramName)); err != nil {
			response.BadRequest(c, "Validation failed", apperror.FieldError{
				Field:   paramName,
				Message: "Must be a valid UUID",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
