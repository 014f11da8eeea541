package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbilling "github.com/aeroclub/backend/internal/application/billing"
	"github.com/aeroclub/backend/internal/domain/billing"
	"github.com/aeroclub/backend/internal/domain/shared"
	"github.com/aeroclub/backend/internal/infrastructure/cache"
	"github.com/aeroclub/backend/internal/infrastructure/config"
	"github.com/aeroclub/backend/internal/infrastructure/logger"
	"github.com/aeroclub/backend/internal/infrastructure/persistence"
	"github.com/aeroclub/backend/internal/infrastructure/persistence/models"
	"github.com/aeroclub/backend/internal/infrastructure/telemetry"
	"github.com/aeroclub/backend/internal/interfaces/http/handler"
	"github.com/aeroclub/backend/internal/interfaces/http/middleware"
	"github.com/aeroclub/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Aeroclub Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize OpenTelemetry tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Apply schema migrations
	if err := db.DB.AutoMigrate(
		&models.AircraftModel{},
		&models.FlightTypeModel{},
		&models.InstructorModel{},
		&models.ChargeableModel{},
		&models.AircraftRateModel{},
		&models.InstructorRateModel{},
		&models.ClubSettingsModel{},
		&models.BookingModel{},
		&models.InvoiceModel{},
		&models.LineItemModel{},
		&models.FlightLogModel{},
		&models.FlightLogSegmentModel{},
	); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}

	// Initialize repositories
	bookingRepo := persistence.NewGormBookingRepository(db.DB)
	aircraftRepo := persistence.NewGormAircraftRepository(db.DB)
	flightTypeRepo := persistence.NewGormFlightTypeRepository(db.DB)
	instructorRepo := persistence.NewGormInstructorRepository(db.DB)
	chargeableRepo := persistence.NewGormChargeableRepository(db.DB)
	rateRepo := persistence.NewGormRateRepository(db.DB)
	settingsRepo := persistence.NewGormSettingsRepository(db.DB)

	// Rate resolution: repository-backed source behind a TTL cache
	rateCache := cache.NewInMemoryRateCache(
		cache.WithRateCacheTTL(cfg.Billing.RateCacheTTL),
		cache.WithRateCacheLogger(log),
	)
	defer func() {
		_ = rateCache.Close()
	}()
	rateSource := persistence.NewRepositoryRateSource(rateRepo)
	taxProvider := persistence.NewSettingsTaxProvider(settingsRepo)
	rateResolver := billing.NewRateResolver(rateSource, taxProvider, rateCache)

	// Idempotency store for completion commits (Redis when configured,
	// in-memory for single-instance deployments)
	idempotencyFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		idempotencyStore, err = idempotencyFactory.CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
	} else {
		idempotencyStore = idempotencyFactory.CreateInMemoryStore()
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Completion coordinator: flight log commit plus invoice finalize
	invoiceStore := persistence.NewGormInvoiceStore(db.DB)
	committer := persistence.NewGormBookingCommitter(db.DB)
	coordinator := billing.NewCompletionCoordinator(committer, idempotencyStore, shared.IdempotencyConfig{
		TTL:     cfg.Billing.IdempotencyTTL,
		Enabled: true,
	}, log)

	// Application services
	completionService := appbilling.NewCompletionService(
		bookingRepo,
		aircraftRepo,
		flightTypeRepo,
		instructorRepo,
		chargeableRepo,
		rateResolver,
		taxProvider,
		invoiceStore,
		coordinator,
		log,
	)

	// Initialize HTTP handlers
	billingHandler := handler.NewBillingHandler(completionService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))

	// Per-IP rate limiting, disabled when the limit is zero
	if cfg.HTTP.RateLimitPerMin > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitPerMin, time.Minute)
		engine.Use(middleware.RateLimit(limiter))
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/healthz", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Booking completion and billing routes
	bookingRoutes := router.NewDomainGroup("bookings", "/bookings")
	bookingRoutes.POST("/:id/billing/calculate", billingHandler.Calculate)
	bookingRoutes.GET("/:id/billing", billingHandler.GetDraft)
	bookingRoutes.POST("/:id/billing/items", billingHandler.AddItem)
	bookingRoutes.PATCH("/:id/billing/items/:itemID", billingHandler.UpdateItem)
	bookingRoutes.DELETE("/:id/billing/items/:itemID", billingHandler.DeleteItem)
	bookingRoutes.POST("/:id/complete", billingHandler.Complete)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(bookingRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
