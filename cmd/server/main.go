package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	orderapp "github.com/storefront/backend/internal/application/order"
	settingsapp "github.com/storefront/backend/internal/application/settings"
	shippingapp "github.com/storefront/backend/internal/application/shipping"
	domainsettings "github.com/storefront/backend/internal/domain/settings"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/carrier"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/notify"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/retry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Storefront Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Settings cache: Redis when reachable, in-process fallback otherwise
	var settingsCache domainsettings.Cache
	redisCache, err := cache.NewRedisSettingsCache(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory settings cache", zap.Error(err))
		settingsCache = cache.NewInMemorySettingsCache()
	} else {
		settingsCache = redisCache
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Error closing Redis connection", zap.Error(err))
			}
		}()
		log.Info("Redis settings cache connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Initialize repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)

	// Settings service
	settingsService := settingsapp.NewService(settingsRepo, settingsCache, log)

	// Carrier credential resolution chain. Platform-level config wins, then
	// the cache, then per-store settings. Test defaults only apply outside
	// live mode.
	sources := []settingsapp.CredentialSource{}
	if cfg.Carrier.APIToken != "" {
		sources = append(sources, settingsapp.NewStaticSource(domainsettings.Credentials{
			APIToken:       cfg.Carrier.APIToken,
			Mode:           cfg.Carrier.Mode,
			PickupLocation: cfg.Carrier.PickupLocation,
		}))
	}
	sources = append(sources,
		settingsapp.NewCacheSource(settingsCache),
		settingsapp.NewStoreSource(settingsRepo, settingsCache),
	)
	if cfg.Carrier.Mode == "test" {
		sources = append(sources, settingsapp.NewTestDefaultSource(cfg.Carrier.APIToken, cfg.Carrier.PickupLocation))
	}
	resolver := settingsapp.NewCredentialResolver(log, sources...)

	// Failure notifier for exhausted carrier retries
	var notifier notify.FailureNotifier
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL, log)
	} else {
		notifier = notify.NewLogNotifier(log)
	}

	executor := retry.NewExecutor(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay, log,
		retry.WithNotifier(notifier))

	// Carrier clients are built per store so credentials stay isolated
	carrierFactory := shippingapp.CarrierFactory(func(storeID uuid.UUID) (shippingapp.Carrier, error) {
		return carrier.NewClient(storeID, nil,
			carrier.WithResolver(resolver),
			carrier.WithClientLogger(log),
		)
	})

	// Application services
	events := event.NewLogPublisher(log)
	orderService := orderapp.NewService(orderRepo, settingsService, log, orderapp.WithEventPublisher(events))
	provisioningService := shippingapp.NewProvisioningService(orderRepo, resolver, carrierFactory, executor, log,
		shippingapp.WithEventPublisher(events))

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID first so panics and logs carry it, store
	// scoping last so everything behind it can rely on a valid store.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning and store scoping)
	systemHandler := handler.NewSystemHandler(db)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/healthz", systemHandler.Health)

	// Every API route requires a store identity
	engine.Use(middleware.StoreMiddlewareWithConfig(middleware.StoreMiddlewareConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready", "/api/v1/system"},
		Required:  true,
		Logger:    log,
	}))

	// Register API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewOrderHandler(orderService)).
		Register(handler.NewShippingHandler(provisioningService)).
		Register(handler.NewSettingsHandler(settingsService)).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
