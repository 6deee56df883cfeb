package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/bluestock/company-backend/internal/completeness"
	"github.com/bluestock/company-backend/internal/config"
	"github.com/bluestock/company-backend/internal/db"
	"github.com/bluestock/company-backend/internal/goroutine"
	httpHandlers "github.com/bluestock/company-backend/internal/http/handlers"
	"github.com/bluestock/company-backend/internal/http/middleware"
	httpRouter "github.com/bluestock/company-backend/internal/http/router"
	"github.com/bluestock/company-backend/internal/identity"
	"github.com/bluestock/company-backend/internal/interface/http/response"
	"github.com/bluestock/company-backend/internal/logger"
	"github.com/bluestock/company-backend/internal/messaging"
	"github.com/bluestock/company-backend/internal/reporting"
	"github.com/bluestock/company-backend/internal/repository"
	"github.com/bluestock/company-backend/internal/service"
	"github.com/bluestock/company-backend/internal/storage"
	"github.com/bluestock/company-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := cfg.LogLevel
	if logLevel == "" {
		logLevel = "info"
		if cfg.IsDevelopment() {
			logLevel = "debug"
		}
	}
	logger.Init(logLevel)
	if cfg.IsDevelopment() {
		logger.SetTextFormatter()
	}
	logger.AddFileOutput(cfg.LogFile)
	response.SetDebug(cfg.IsDevelopment())
	appLog := logger.L()

	reporter := reporting.NewSentry(cfg.SentryDSN, cfg.Env, "")
	defer reporter.Flush(2 * time.Second)
	recovery := goroutine.NewRecoveryHandler(appLog, reporter)

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	calc, err := completeness.New(cfg.CompletenessFields)
	if err != nil {
		log.Fatalf("main: неверный COMPLETENESS_FIELDS: %v", err)
	}
	appLog.WithField("fields", calc.Fields()).Debug("main: поля заполненности профиля")

	provider, err := identity.New(ctx, cfg)
	if err != nil {
		log.Fatalf("main: не удалось подключить провайдер идентичности: %v", err)
	}

	// Канал доставки OTP: NATS, если настроен, иначе только лог.
	var dispatcher messaging.Dispatcher = messaging.NewLogDispatcher(appLog)
	if cfg.NATSURL != "" {
		natsDispatcher, err := messaging.NewNATSDispatcher(cfg.NATSURL, cfg.NATSOTPSubject)
		if err != nil {
			log.Fatalf("main: ошибка подключения к NATS: %v", err)
		}
		defer natsDispatcher.Close()
		dispatcher = natsDispatcher
	}

	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		log.Fatalf("main: не удалось подготовить хранилище изображений: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("main: неверный REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}
	limiterStore, err := middleware.NewLimiterStore(redisClient, "company-backend:ratelimit")
	if err != nil {
		log.Fatalf("main: %v", err)
	}

	// Вебсокеты.
	hub := ws.NewHub(appLog, recovery)
	recovery.SafeGoWithContext(ctx, hub.Run)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	otpRepo := repository.NewOTPRepository(dbConn)
	companyRepo := repository.NewCompanyRepository(dbConn)

	// Сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	authService, err := service.NewAuthService(userRepo, tokenManager, provider, reporter, appLog)
	if err != nil {
		log.Fatalf("main: %v", err)
	}
	otpService := service.NewOTPService(otpRepo, userRepo, dispatcher, hub, reporter, appLog, service.OTPConfig{
		TTL:         cfg.OTPTTL,
		MaxAttempts: cfg.OTPMaxAttempts,
		ReturnCode:  cfg.OTPReturnCode,
	})
	companyService := service.NewCompanyService(companyRepo, objects, calc, hub, reporter, appLog, cfg.MaxUploadSizeMB*1024*1024)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, httpRouter.Deps{
		Auth:         httpHandlers.NewAuthHandler(authService),
		OTP:          httpHandlers.NewOTPHandler(otpService),
		Company:      httpHandlers.NewCompanyHandler(companyService),
		Health:       httpHandlers.NewHealthHandler(dbConn),
		WS:           httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins),
		Tokens:       tokenManager,
		Reporter:     reporter,
		LimiterStore: limiterStore,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLog.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	appLog.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// newObjectStore выбирает хранилище изображений по STORAGE_DRIVER.
func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.StorageDriver == config.StorageMinio {
		store, err := storage.NewMinioStore(storage.MinioOptions{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.MediaPublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	return storage.NewDiskStore(cfg.MediaStoragePath, cfg.MediaPublicBaseURL, cfg.MaxUploadSizeMB)
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
