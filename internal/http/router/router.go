package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/bluestock/company-backend/internal/config"
	"github.com/bluestock/company-backend/internal/http/handlers"
	"github.com/bluestock/company-backend/internal/http/middleware"
	"github.com/bluestock/company-backend/internal/interface/http/response"
	"github.com/bluestock/company-backend/internal/reporting"
	"github.com/bluestock/company-backend/internal/service"
)

// Deps - всё, что нужно для сборки HTTP слоя.
type Deps struct {
	Auth    *handlers.AuthHandler
	OTP     *handlers.OTPHandler
	Company *handlers.CompanyHandler
	Health  *handlers.HealthHandler
	WS      *handlers.WSHandler

	Tokens       *service.TokenManager
	Reporter     reporting.Reporter
	LimiterStore limiter.Store
}

func SetupRouter(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery(d.Reporter))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Route not found")
	})

	r.GET("/health", d.Health.Health)
	if cfg.StorageDriver == config.StorageDisk {
		r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))
	}

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(d.LimiterStore, "api", cfg.RateLimitLimit, cfg.RateLimitPeriod))
	api.GET("/health", d.Health.Health)

	auth := middleware.AuthMiddleware(d.Tokens)
	// Отдельный, более строгий лимит на вход и коды подтверждения.
	strict := middleware.RateLimitMiddleware(d.LimiterStore, "auth", cfg.AuthRateLimitLimit, cfg.RateLimitPeriod)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", strict, d.Auth.Register)
		authGroup.POST("/login", strict, d.Auth.Login)
		authGroup.GET("/me", auth, d.Auth.Me)
		authGroup.POST("/verify-email", auth, d.Auth.VerifyEmail)

		authGroup.POST("/otp/send", strict, auth, d.OTP.Send)
		authGroup.POST("/verify-mobile", strict, auth, d.OTP.Send)
		authGroup.POST("/otp/verify", strict, middleware.OptionalAuth(d.Tokens), d.OTP.Verify)
	}

	company := api.Group("/company")
	company.Use(auth)
	{
		company.GET("", d.Company.Get)
		company.POST("/register", d.Company.Register)
		company.PUT("", d.Company.Update)
		company.PUT("/profile", d.Company.Update)
		company.POST("/upload-logo", d.Company.UploadLogo)
		company.POST("/upload-banner", d.Company.UploadBanner)
		company.POST("/upload", d.Company.Upload)
		company.POST("/social", d.Company.AddSocialLink)
		company.DELETE("/social/:id", middleware.UUIDValidator("id"), d.Company.DeleteSocialLink)
	}

	api.GET("/ws", d.WS.Handle)

	return r
}
