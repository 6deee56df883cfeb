package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeAlreadyExists      ErrorCode = "ALREADY_EXISTS"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeOTPNotFound        ErrorCode = "OTP_NOT_FOUND"
	ErrCodeOTPAlreadyVerified ErrorCode = "OTP_ALREADY_VERIFIED"
	ErrCodeOTPExpired         ErrorCode = "OTP_EXPIRED"
	ErrCodeOTPInvalid         ErrorCode = "OTP_INVALID"
	ErrCodeTooManyAttempts    ErrorCode = "OTP_TOO_MANY_ATTEMPTS"
	ErrCodeExternalService    ErrorCode = "EXTERNAL_SERVICE_FAILURE"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// FieldError описывает ошибку валидации конкретного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	Fields     []FieldError
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал и для обёрнутых копий.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation создаёт ошибку валидации с деталями по полям.
func Validation(message string, fields ...FieldError) *AppError {
	e := New(ErrCodeValidation, message)
	e.Fields = fields
	return e
}

// External оборачивает сбой внешнего сервиса (хранилище, провайдер идентичности).
func External(err error, message string) *AppError {
	return Wrap(err, ErrCodeExternalService, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized, ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case ErrCodeValidation, ErrCodeAlreadyExists,
		ErrCodeOTPNotFound, ErrCodeOTPAlreadyVerified, ErrCodeOTPExpired,
		ErrCodeOTPInvalid, ErrCodeTooManyAttempts:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или INTERNAL_ERROR для неизвестных ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

var (
	ErrAlreadyExists      = New(ErrCodeAlreadyExists, "User already exists with this email or mobile number")
	ErrUserNotFound       = New(ErrCodeNotFound, "User not found")
	ErrCompanyNotFound    = New(ErrCodeNotFound, "Company not found")
	ErrCompanyExists      = New(ErrCodeAlreadyExists, "Company profile already exists")
	ErrSocialLinkNotFound = New(ErrCodeNotFound, "Social media link not found")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "Authentication required")
	ErrInvalidToken       = New(ErrCodeUnauthorized, "Invalid or expired token")
	ErrInvalidCredentials = New(ErrCodeInvalidCredentials, "Invalid email or password")

	ErrOTPNotFound        = New(ErrCodeOTPNotFound, "No OTP found for this phone number")
	ErrOTPAlreadyVerified = New(ErrCodeOTPAlreadyVerified, "OTP already verified")
	ErrOTPExpired         = New(ErrCodeOTPExpired, "OTP expired")
	ErrOTPInvalid         = New(ErrCodeOTPInvalid, "Invalid OTP")
	ErrTooManyAttempts    = New(ErrCodeTooManyAttempts, "Maximum verification attempts exceeded")

	ErrIdentityDisabled = New(ErrCodeExternalService, "Identity provider is not configured")
)
