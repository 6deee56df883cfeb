package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bluestock/company-backend/internal/logger"
	"github.com/bluestock/company-backend/internal/pkg/apperror"
)

// Response единый конверт ответа API.
type Response struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    interface{}           `json:"data,omitempty"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
	Code    string                `json:"code,omitempty"`
	Detail  string                `json:"detail,omitempty"`
}

// showDetail включает текст внутренних ошибок в ответе; только для development.
var showDetail bool

// SetDebug управляет выводом деталей внутренних ошибок клиенту.
func SetDebug(enabled bool) {
	showDetail = enabled
}

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Code != apperror.ErrCodeInternal {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.L().WithFields(logrus.Fields{
				"code":  appErr.Code,
				"path":  c.FullPath(),
				"error": err.Error(),
			}).Error("Ошибка внешнего сервиса")
		}
		resp := Response{
			Success: false,
			Message: appErr.Message,
			Errors:  appErr.Fields,
			Code:    string(appErr.Code),
		}
		if showDetail && appErr.Cause != nil {
			resp.Detail = appErr.Cause.Error()
		}
		c.JSON(appErr.HTTPStatus, resp)
		return
	}

	logger.L().WithFields(logrus.Fields{
		"path":  c.FullPath(),
		"error": err.Error(),
	}).Error("Внутренняя ошибка сервера")

	resp := Response{
		Success: false,
		Message: "Internal server error",
		Code:    string(apperror.ErrCodeInternal),
	}
	if showDetail {
		resp.Detail = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
}

func BadRequest(c *gin.Context, message string, fields ...apperror.FieldError) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Message: message,
		Errors:  fields,
		Code:    string(apperror.ErrCodeValidation),
	})
}

func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Response{
		Success: false,
		Message: message,
		Code:    string(apperror.ErrCodeNotFound),
	})
}

func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{
		Success: false,
		Message: message,
		Code:    string(apperror.ErrCodeUnauthorized),
	})
}

func TooManyRequests(c *gin.Context, message string) {
	c.JSON(http.StatusTooManyRequests, Response{
		Success: false,
		Message: message,
		Code:    "RATE_LIMITED",
	})
}
