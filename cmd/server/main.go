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
	"go.uber.org/zap/zapcore"

	linkapp "github.com/linkdeck/linkdeck/internal/application/links"
	"github.com/linkdeck/linkdeck/internal/domain/links"
	"github.com/linkdeck/linkdeck/internal/infrastructure/auth"
	"github.com/linkdeck/linkdeck/internal/infrastructure/config"
	"github.com/linkdeck/linkdeck/internal/infrastructure/kv"
	"github.com/linkdeck/linkdeck/internal/infrastructure/logger"
	"github.com/linkdeck/linkdeck/internal/infrastructure/meta"
	"github.com/linkdeck/linkdeck/internal/infrastructure/persistence"
	"github.com/linkdeck/linkdeck/internal/infrastructure/storage"
	"github.com/linkdeck/linkdeck/internal/infrastructure/telemetry"
	"github.com/linkdeck/linkdeck/internal/interfaces/http/handler"
	"github.com/linkdeck/linkdeck/internal/interfaces/http/middleware"
	"github.com/linkdeck/linkdeck/internal/interfaces/http/router"
	"github.com/linkdeck/linkdeck/internal/interfaces/web"
	"github.com/linkdeck/linkdeck/internal/interfaces/web/components"
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

	log.Info("Starting linkdeck server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("store", cfg.Store.Driver),
	)

	ctx := context.Background()

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
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

	// Metrics
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
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

	// Logs bridge: ship structured logs to the collector alongside stdout
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	if loggerProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: loggerProvider,
			Level:          zapcore.InfoLevel,
		})
		log = telemetry.NewBridgedLogger(log.Core(), otelCore)
	}

	// Continuous profiling
	if cfg.Profiling.Enabled {
		profilerConfig := telemetry.DefaultProfilerConfig()
		profilerConfig.Enabled = true
		profilerConfig.ServerAddress = cfg.Profiling.ServerAddress
		profilerConfig.ApplicationName = cfg.App.Name
		profilerConfig.BasicAuthUser = cfg.Profiling.BasicAuthUser
		profilerConfig.BasicAuthPassword = cfg.Profiling.BasicAuthPassword
		profiler, err := telemetry.NewProfiler(profilerConfig, log)
		if err != nil {
			log.Warn("Failed to start profiler, continuing without profiling", zap.Error(err))
		} else {
			defer func() {
				if err := profiler.Stop(); err != nil {
					log.Error("Error stopping profiler", zap.Error(err))
				}
			}()
			if err := tracerProvider.EnableSpanProfiles(); err != nil {
				log.Warn("Failed to enable span profiles", zap.Error(err))
			}
		}
	}

	// Link store selection
	var repo links.LinkRepository
	switch cfg.Store.Driver {
	case config.StoreDriverMemory, config.StoreDriverRedis:
		factory := kv.NewFactory(cfg.Redis, kv.WithLogger(log))
		repo, err = factory.CreateRepository(cfg.Store.Driver)
		if err != nil {
			log.Fatal("Failed to create link store", zap.Error(err))
		}
	case config.StoreDriverSQLite, config.StoreDriverPostgres:
		gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
		db, err := persistence.NewDatabaseWithLogger(cfg.Store.Driver, &cfg.Database, gormLog)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		if err := db.Migrate(); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}

		if cfg.Telemetry.Enabled {
			tracingPlugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
				Enabled:         cfg.Telemetry.DBTraceEnabled,
				SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
				DBName:          cfg.Database.DBName,
			}, log)
			if err := tracingPlugin.RegisterOtelGorm(db.DB); err != nil {
				log.Warn("Failed to register database tracing", zap.Error(err))
			}

			dbMetricsConfig := telemetry.DefaultDBMetricsConfig()
			dbMetricsConfig.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
			dbMetrics, err := telemetry.NewDBMetrics(meterProvider.Meter("linkdeck/db"), dbMetricsConfig, log)
			if err != nil {
				log.Warn("Failed to create database metrics", zap.Error(err))
			} else {
				if err := db.DB.Use(telemetry.NewDBMetricsPlugin(dbMetrics, log)); err != nil {
					log.Warn("Failed to register database metrics plugin", zap.Error(err))
				}
				if sqlDB, err := db.DB.DB(); err == nil {
					dbMetrics.SetSQLDB(sqlDB)
					dbMetrics.StartPoolStatsCollection(ctx)
					defer dbMetrics.Stop()
				}
			}
		}

		repo = persistence.NewGormLinkRepository(db.DB)
	default:
		log.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}
	log.Info("Link store ready", zap.String("driver", cfg.Store.Driver))

	// Application services
	linkService := linkapp.NewLinkService(repo)
	linkService.SetLogger(log)
	if cfg.Links.FetchTitles {
		linkService.SetTitleFetcher(meta.NewHTTPTitleFetcher(cfg.Links, log))
	}

	// Business metrics for link operations
	linkMetrics, err := telemetry.NewLinkMetrics(telemetry.LinkMetricsConfig{
		Meter:  meterProvider.Meter("linkdeck/links"),
		Logger: log,
	})
	if err != nil {
		log.Warn("Failed to create link metrics", zap.Error(err))
	} else {
		linkService.SetMetrics(linkMetrics)
		linkMetrics.StartPeriodicCollection(ctx, repo, 30*time.Second)
		defer linkMetrics.Stop()
	}

	// Snapshot export target: S3-compatible bucket, or a local directory
	var backupService *linkapp.BackupService
	if cfg.Backup.Enabled {
		var snapshots linkapp.SnapshotStorage
		if cfg.Backup.Bucket != "" {
			snapshots, err = storage.NewS3SnapshotStorage(&cfg.Backup, storage.WithLogger(log))
		} else {
			snapshots, err = storage.NewFileSnapshotStorage(cfg.Backup.Dir, log)
		}
		if err != nil {
			log.Fatal("Failed to initialize snapshot storage", zap.Error(err))
		}
		backupService = linkapp.NewBackupService(repo, snapshots, log)
		log.Info("Snapshot export enabled", zap.Bool("s3", cfg.Backup.Bucket != ""))
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP handlers
	linkHandler := handler.NewLinkHandler(linkService)
	authHandler := handler.NewAuthHandler(jwtService, cfg.Auth)
	systemHandler := handler.NewSystemHandler(backupService)

	pages, err := web.NewPages(components.NewRegistry(), linkService, log)
	if err != nil {
		log.Fatal("Failed to initialize pages", zap.Error(err))
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
		engine.Use(middleware.TracingAttributeInjector())
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("linkdeck/http"), true))
	}
	if cfg.Profiling.Enabled {
		engine.Use(middleware.Profiling())
	}

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Mutating routes require a token when auth is enabled. With auth off the
	// server runs open, which is the intended mode for local single-user use.
	var protect gin.HandlerFunc
	if cfg.Auth.Enabled {
		protect = middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService: jwtService,
			Logger:     log,
		})
	} else {
		protect = func(c *gin.Context) { c.Next() }
	}

	// Health probes
	engine.GET("/health", healthHandler(repo))
	engine.GET("/healthz", healthHandler(repo))
	engine.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Server-rendered pages
	engine.GET("/", pages.Home)
	engine.GET("/admin", pages.Admin)

	// Form-post routes consumed by the rendered pages and the terminal
	// client. The delete button descriptor on each card points at
	// POST /links/{key}/delete.
	formRoutes := engine.Group("/links")
	formRoutes.POST("", protect, linkHandler.Create)
	formRoutes.POST("/:key", protect, linkHandler.Update)
	formRoutes.POST("/:key/delete", protect, linkHandler.DeleteForm)

	// JSON API
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	linkRoutes := router.NewGroup("links", "/links")
	linkRoutes.GET("", linkHandler.List)
	linkRoutes.GET("/:key", linkHandler.Get)
	linkRoutes.POST("", protect, linkHandler.Create)
	linkRoutes.PUT("/:key", protect, linkHandler.Update)
	linkRoutes.DELETE("/:key", protect, linkHandler.Delete)
	r.Register(linkRoutes)

	if cfg.Auth.Enabled {
		authRoutes := router.NewGroup("auth", "/auth")
		if cfg.HTTP.AuthRateLimitEnabled {
			authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
			defer authLimiter.Stop()
			authRoutes.Use(middleware.RateLimit(authLimiter))
		}
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.RefreshToken)
		r.Register(authRoutes)
	}

	systemRoutes := router.NewGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.POST("/backup", protect, systemHandler.Backup)
	r.Register(systemRoutes)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler probes the link store with a count, which every store driver
// supports.
func healthHandler(repo links.LinkRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if _, err := repo.Count(c.Request.Context()); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"time":   time.Now().Format(time.RFC3339),
				"store":  "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"store":  "ok",
		})
	}
}
