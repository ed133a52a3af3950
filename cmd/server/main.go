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

	syncapp "github.com/shopsync/backend/internal/application/sync"
	"github.com/shopsync/backend/internal/infrastructure/cache"
	"github.com/shopsync/backend/internal/infrastructure/config"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/infrastructure/persistence"
	"github.com/shopsync/backend/internal/infrastructure/scheduler"
	"github.com/shopsync/backend/internal/infrastructure/shopify"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
	"github.com/shopsync/backend/internal/interfaces/http/handler"
	"github.com/shopsync/backend/internal/interfaces/http/middleware"
	"github.com/shopsync/backend/internal/interfaces/http/router"
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
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ShopSync Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize telemetry providers. Both are no-ops when telemetry is
	// disabled, so the rest of the wiring does not branch on the flag.
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
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

	// Register database tracing when enabled
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:          true,
			LogFullSQL:       cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh:  cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:         "postgresql",
			WithoutVariables: !cfg.Telemetry.DBLogFullSQL,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
		log.Info("Database tracing enabled",
			zap.Duration("slow_query_threshold", cfg.Telemetry.DBSlowQueryThresh),
		)
	}

	// Run lock: Redis when configured, otherwise a process-local lock.
	// The in-memory variant is only safe for single-instance deployments.
	var runLock syncapp.RunLock
	if cfg.Redis.Enabled {
		redisLock, err := cache.NewRedisRunLock(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisLock.Close(); err != nil {
				log.Error("Error closing Redis connection", zap.Error(err))
			}
		}()
		runLock = redisLock
		log.Info("Redis run lock enabled",
			zap.String("host", cfg.Redis.Host),
			zap.Int("port", cfg.Redis.Port),
		)
	} else {
		runLock = cache.NewInMemoryRunLock()
	}

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	imageRepo := persistence.NewGormProductImageRepository(db.DB)
	warrantyRepo := persistence.NewGormWarrantyRepository(db.DB)
	syncRunRepo := persistence.NewGormSyncRunRepository(db.DB)

	// Initialize the Shopify Admin API client
	shopifyClient, err := shopify.NewClient(&shopify.Config{
		ShopURL:            cfg.Shopify.ShopURL,
		AccessToken:        cfg.Shopify.AccessToken,
		APIVersion:         cfg.Shopify.APIVersion,
		Timeout:            cfg.Shopify.Timeout,
		MinRequestInterval: cfg.Shopify.MinRequestInterval,
		MaxRetries:         cfg.Shopify.MaxRetries,
		RetryBackoffBase:   cfg.Shopify.RetryBackoffBase,
		RetryBackoffMax:    cfg.Shopify.RetryBackoffMax,
		PageSize:           cfg.Shopify.PageSize,
		BulkPollInterval:   cfg.Shopify.BulkPollInterval,
		BulkTimeout:        cfg.Shopify.BulkTimeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize Shopify client", zap.Error(err))
	}

	// Initialize the sync application service
	syncService := syncapp.NewService(
		productRepo,
		imageRepo,
		warrantyRepo,
		syncRunRepo,
		shopifyClient,
		runLock,
		log,
		syncapp.Config{
			CreateBatchSize: cfg.Sync.CreateBatchSize,
			BatchPause:      cfg.Sync.BatchPause,
			LockTTL:         cfg.Sync.LockTTL,
		},
	)

	// Wire sync metrics into the service and the platform client
	if cfg.Telemetry.Enabled {
		syncMetrics, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
			Meter:  meterProvider.Meter("shopsync"),
			Logger: log,
		})
		if err != nil {
			log.Fatal("Failed to initialize sync metrics", zap.Error(err))
		}
		syncService.SetSyncMetrics(syncMetrics)
		shopifyClient.SetMetrics(syncMetrics)
	}

	// Initialize periodic full-sync scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewCatalogSyncExecutor(syncService, log)
		syncScheduler, err := scheduler.NewCatalogSyncScheduler(scheduler.CatalogSyncSchedulerConfig{
			MaxConcurrentJobs: 1,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
			HistoryLimit:      cfg.Scheduler.HistoryLimit,
		}, executor, log)
		if err != nil {
			log.Fatal("Failed to create sync scheduler", zap.Error(err))
		}
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()

		trigger := scheduler.NewCatalogSyncIntervalTrigger(scheduler.CatalogSyncIntervalTriggerConfig{
			Interval:      cfg.Scheduler.Interval,
			DeleteOrphans: cfg.Scheduler.DeleteOrphans,
		}, syncScheduler, log)
		if err := trigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync trigger", zap.Error(err))
		}
		defer func() {
			if err := trigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync trigger", zap.Error(err))
			}
		}()
		log.Info("Sync scheduler started",
			zap.Duration("interval", cfg.Scheduler.Interval),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
			zap.Bool("delete_orphans", cfg.Scheduler.DeleteOrphans),
		)
	}

	// Initialize HTTP handlers
	syncHandler := handler.NewSyncHandler(syncService)
	productHandler := handler.NewProductHandler(syncService)
	exportHandler := handler.NewExportHandler(syncService)
	runHandler := handler.NewRunHandler(syncService)
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
	// 3. Tracing - Server spans with route-pattern names
	// 4. Logger - Log requests
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, shopifyClient))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Sync domain (reconcile runs, upload, run history)
	syncRoutes := router.NewDomainGroup("sync", "/sync")
	syncRoutes.POST("/products", syncHandler.SyncAll)
	syncRoutes.POST("/products/upload", syncHandler.UploadAll)
	syncRoutes.POST("/products/by-ids", syncHandler.SyncByIDs)
	syncRoutes.GET("/runs", runHandler.List)
	syncRoutes.GET("/runs/:id", runHandler.Get)

	// Product domain (targeted mutations, bulk export)
	productRoutes := router.NewDomainGroup("products", "/products")
	productRoutes.POST("/by-ids/create", productHandler.CreateByIDs)
	productRoutes.POST("/by-ids/update", productHandler.UpdateByIDs)
	productRoutes.POST("/by-ids/delete", productHandler.DeleteByIDs)
	productRoutes.POST("/delete-all", productHandler.DeleteAll)
	productRoutes.GET("/export", exportHandler.Export)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Register all domain groups
	r.Register(syncRoutes).
		Register(productRoutes).
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

// healthHandler returns a handler for health check endpoints. It reports the
// database and the remote platform independently so an operator can tell
// which dependency is down.
func healthHandler(db *persistence.Database, platform *shopify.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		status := http.StatusOK
		dbState := "ok"
		platformState := "ok"

		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check: database unreachable", zap.Error(err))
			dbState = "error"
			status = http.StatusServiceUnavailable
		}

		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := platform.TestConnection(checkCtx); err != nil {
			reqLog.Warn("Health check: platform unreachable", zap.Error(err))
			platformState = "error"
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": dbState,
			"shopify":  platformState,
		}
		if status != http.StatusOK {
			body["status"] = "unhealthy"
		}
		c.JSON(status, body)
	}
}
