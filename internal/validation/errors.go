package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bluestock/company-backend/internal/pkg/apperror"
)

// Errors накапливает ошибки по полям запроса.
type Errors []apperror.FieldError

func (e *Errors) Add(field string, err error) {
	if err != nil {
		*e = append(*e, apperror.FieldError{Field: field, Message: err.Error()})
	}
}

// Err возвращает VALIDATION_ERROR со всеми полями или nil.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return apperror.Validation("Validation failed", e...)
}

// FromBinding переводит ошибки binding/validator в VALIDATION_ERROR с деталями по полям.
func FromBinding(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Validation("Invalid request body")
	}

	fields := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   toSnake(fe.Field()),
			Message: bindingMessage(fe),
		})
	}
	return fields.Err()
}

func bindingMessage(fe validator.FieldError) string {
	name := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return "Valid email is required"
	case "len":
		return fmt.Sprintf("%s must be %s characters", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must be numeric", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, fe.Param())
	case "url":
		return "Valid URL is required"
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

// toSnake превращает имя поля Go (FullName) в имя JSON (full_name).
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
