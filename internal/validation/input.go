package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/bluestock/company-backend/internal/models"
)

// Константы валидации
const (
	MinFullNameLength    = 2
	MaxFullNameLength    = 255
	MinCompanyNameLength = 2
	MaxCompanyNameLength = 255
	MinPlaceLength       = 2
	MaxPlaceLength       = 50
	MinPostalCodeLength  = 3
	MaxPostalCodeLength  = 20
	MaxDescriptionLength = 2000
	MaxShortTextLength   = 255
	MaxURLLength         = 500
	OTPCodeLength        = 6
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	otpCodeRegex     = regexp.MustCompile(`^[0-9]{6}$`)
	platformRegex    = regexp.MustCompile(`^[a-z0-9_-]{2,30}$`)

	// Описания хранятся как обычный текст: все теги вырезаются.
	textPolicy = bluemonday.StrictPolicy()
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// NormalizeEmail проверяет формат email и приводит его к нижнему регистру.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("Valid email is required")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "", fmt.Errorf("Valid email is required")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 || len(domainPart) > 255 {
		return "", fmt.Errorf("Valid email is required")
	}
	if !emailLocalRegex.MatchString(localPart) || !emailDomainRegex.MatchString(domainPart) {
		return "", fmt.Errorf("Valid email is required")
	}

	return email, nil
}

// NormalizeFullName обрезает пробелы и проверяет длину имени.
func NormalizeFullName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := ValidateLength("Full name", name, MinFullNameLength, MaxFullNameLength); err != nil {
		return "", err
	}
	return name, nil
}

// NormalizeGender принимает полное имя или однобуквенный код (m, f, o).
// Пустое значение означает «не указан».
func NormalizeGender(raw string) (*string, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "":
		return nil, nil
	case "m":
		raw = models.GenderMale
	case "f":
		raw = models.GenderFemale
	case "o":
		raw = models.GenderOther
	}
	if _, ok := models.ValidGenders[raw]; !ok {
		return nil, fmt.Errorf("Gender must be male, female, or other")
	}
	return &raw, nil
}

// ValidateOTPCode проверяет, что код состоит ровно из 6 цифр.
func ValidateOTPCode(code string) error {
	if !otpCodeRegex.MatchString(code) {
		return fmt.Errorf("OTP must be %d digits", OTPCodeLength)
	}
	return nil
}

// ValidateURL проверяет абсолютный http(s) URL.
func ValidateURL(raw string) error {
	if len(raw) > MaxURLLength {
		return fmt.Errorf("URL must be at most %d characters", MaxURLLength)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("Valid URL is required")
	}
	return nil
}

// NormalizePlatform приводит название соцсети к виду "linkedin", "x", "facebook".
func NormalizePlatform(raw string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(raw))
	if len(p) == 1 {
		// короткие названия вроде "x" разрешены
		if p >= "a" && p <= "z" {
			return p, nil
		}
	}
	if !platformRegex.MatchString(p) {
		return "", fmt.Errorf("Platform must be 2-30 latin letters, digits, '-' or '_'")
	}
	return p, nil
}

// SanitizeText вырезает HTML и обрезает пробелы.
func SanitizeText(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

// ParseDate разбирает дату в формате YYYY-MM-DD (допускается и полный RFC3339).
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("Valid date is required (YYYY-MM-DD)")
}
