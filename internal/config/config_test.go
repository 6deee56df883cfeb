package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 3, cfg.OTPMaxAttempts)
	assert.False(t, cfg.OTPReturnCode)
	assert.Equal(t, IdentityDisabled, cfg.IdentityMode)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.AllowedOrigins)
}

func TestLoad_ProductionRejectsOTPEcho(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")
	t.Setenv("OTP_RETURN_CODE", "true")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresLongSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_FirebaseModeNeedsCredentials(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("IDENTITY_MODE", "firebase")
	t.Setenv("FIREBASE_PROJECT_ID", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_CompletenessFieldsList(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("COMPLETENESS_FIELDS", "company_name, logo_url ,,social_links")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"company_name", "logo_url", "social_links"}, cfg.CompletenessFields)
}
