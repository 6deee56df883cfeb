package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bluestock/company-backend/internal/interface/http/response"
	"github.com/bluestock/company-backend/internal/logger"
	"github.com/bluestock/company-backend/internal/reporting"
)

// ErrorHandler отдаёт последнюю ошибку из c.Errors, если обработчик не записал ответ сам.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Проверяем, не был ли уже отправлен ответ
		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		response.Error(c, c.Errors.Last().Err)
	}
}

// Recovery перехватывает панику, логирует её, отправляет в Sentry и отвечает 500.
func Recovery(reporter reporting.Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			logger.L().WithFields(logrus.Fields{
				"panic":      fmt.Sprint(rec),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
				"request_id": c.GetString(ContextRequestIDKey),
			}).Error("Паника при обработке запроса")

			if reporter != nil {
				reporter.Recover(rec)
			}

			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
					Success: false,
					Message: "Internal server error",
					Code:    "INTERNAL_ERROR",
				})
				return
			}
			c.Abort()
		}()
		c.Next()
	}
}
