package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	auditapp "github.com/memberportal/backend/internal/application/audit"
	catalogapp "github.com/memberportal/backend/internal/application/catalog"
	claimapp "github.com/memberportal/backend/internal/application/claim"
	"github.com/memberportal/backend/internal/application/dashboard"
	identityapp "github.com/memberportal/backend/internal/application/identity"
	orderapp "github.com/memberportal/backend/internal/application/order"
	paymentapp "github.com/memberportal/backend/internal/application/payment"
	tutorialapp "github.com/memberportal/backend/internal/application/tutorial"
	walletapp "github.com/memberportal/backend/internal/application/wallet"
	"github.com/memberportal/backend/internal/infrastructure/auth"
	"github.com/memberportal/backend/internal/infrastructure/cache"
	"github.com/memberportal/backend/internal/infrastructure/config"
	"github.com/memberportal/backend/internal/infrastructure/event"
	"github.com/memberportal/backend/internal/infrastructure/logger"
	paymentinfra "github.com/memberportal/backend/internal/infrastructure/payment"
	"github.com/memberportal/backend/internal/infrastructure/persistence"
	"github.com/memberportal/backend/internal/infrastructure/scheduler"
	"github.com/memberportal/backend/internal/infrastructure/secret"
	"github.com/memberportal/backend/internal/infrastructure/storage"
	"github.com/memberportal/backend/internal/infrastructure/telemetry"
	"github.com/memberportal/backend/internal/interfaces/http/handler"
	"github.com/memberportal/backend/internal/interfaces/http/middleware"
	"github.com/memberportal/backend/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()
	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log := logger.New(logCfg)

	// OpenTelemetry providers. Each is a no-op when disabled.
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		log = logger.New(logCfg, loggerProvider.ZapCore(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
	}
	logger.SetGlobal(log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting member portal",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Telemetry.ProfilingSpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	registry := telemetry.NewRegistry()

	// Database with a zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry, log); err != nil {
		log.Warn("Database tracing not registered", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis backs revocations, idempotency keys and optionally the request cache
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}
	var (
		revocations auth.Revocations = auth.NewInMemoryRevocations()
		redisConn   redis.UniversalClient
	)
	if redisClient != nil {
		redisConn = redisClient
		revocations = auth.NewRedisRevocations(redisClient, cfg.Cache.KeyPrefix+"auth:")
	}
	idempotency := cache.NewIdempotencyStore(redisConn, cfg.Cache.KeyPrefix, log)

	// Request cache and gateway queue
	cacheMetrics := cache.NewMetrics(registry)
	cacheStore, err := cache.NewStore(cfg.Cache, redisConn)
	if err != nil {
		log.Fatal("Failed to initialize cache store", zap.Error(err))
	}
	newCache := func(name string, ttl time.Duration) *cache.Cache {
		return cache.New(name, cfg.Cache.KeyPrefix, cacheStore,
			cache.WithMetrics(cacheMetrics),
			cache.WithLogger(log),
			cache.WithDefaultTTL(ttl),
		)
	}
	catalogCache := newCache("catalog", cfg.Cache.CatalogTTL)
	tutorialCache := newCache("tutorial", cfg.Cache.DefaultTTL)
	gatewayCache := newCache("tripay", cfg.Cache.ChannelsTTL)
	gatewayQueue := cache.NewQueue("tripay", cfg.Cache.QueueWorkers, cacheMetrics)
	defer gatewayQueue.Close()

	// Tripay client, traced through otelhttp
	tripay, err := paymentinfra.NewTripayAdapter(cfg.Tripay,
		paymentinfra.WithHTTPClient(&http.Client{
			Timeout:   cfg.Tripay.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
		paymentinfra.WithTripayLogger(log),
	)
	if err != nil {
		log.Fatal("Invalid Tripay configuration", zap.Error(err))
	}
	gateway := paymentinfra.NewQueuedGateway(tripay, gatewayQueue, gatewayCache, cfg.Cache.ChannelsTTL)

	credentialKey, err := cfg.Catalog.CredentialKeyBytes()
	if err != nil {
		log.Fatal("Invalid credential key", zap.Error(err))
	}
	sealer, err := secret.NewSealer(credentialKey)
	if err != nil {
		log.Fatal("Failed to initialize credential sealer", zap.Error(err))
	}

	var evidence claimapp.EvidenceStorage = storage.DisabledStorage{}
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare evidence bucket", zap.Error(err))
		}
		evidence = s3
	} else {
		log.Warn("Object storage disabled, claim evidence uploads are unavailable")
	}

	// Repositories
	scope := persistence.NewGormTransactionScope(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	walletRepo := persistence.NewGormWalletRepository(db.DB)
	walletTxRepo := persistence.NewGormWalletTransactionRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	stockRepo := persistence.NewGormStockRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	topUpRepo := persistence.NewGormTopUpRepository(db.DB)
	claimRepo := persistence.NewGormClaimRepository(db.DB)
	tutorialRepo := persistence.NewGormTutorialRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	auditService := auditapp.NewService(auditRepo, log)
	authService := identityapp.NewAuthService(scope, userRepo, jwtService, revocations, log)
	userService := identityapp.NewUserService(userRepo, revocations, cfg.JWT.RefreshTokenExpiration, auditService, log)
	walletService := walletapp.NewService(scope, walletRepo, walletTxRepo, auditService, log)
	catalogService := catalogapp.NewService(productRepo, stockRepo, sealer, catalogCache, cfg.Cache.CatalogTTL, auditService, log)
	orderService := orderapp.NewService(scope, productRepo, stockRepo, orderRepo, sealer, eventBus, log)
	paymentService := paymentapp.NewService(scope, topUpRepo, userRepo, gateway, idempotency, eventBus, paymentapp.Config{
		MinAmount:      cfg.Tripay.MinAmount,
		MaxAmount:      cfg.Tripay.MaxAmount,
		Expiry:         cfg.Tripay.Expiry,
		IdempotencyTTL: cfg.Cache.IdempotencyTTL,
		StaleBatch:     cfg.Scheduler.ExpireTopUpsBatch,
	}, log)
	claimService := claimapp.NewService(scope, claimRepo, orderRepo, evidence, eventBus, auditService, cfg.Storage.PresignExpiration, log)
	tutorialService := tutorialapp.NewService(tutorialRepo, tutorialCache, cfg.Cache.DefaultTTL, auditService, log)
	dashboardService := dashboard.NewService(userRepo, productRepo, stockRepo, orderRepo, topUpRepo, claimRepo)

	// Event subscribers. Audit entries are deduplicated by event ID so a
	// redelivered event does not write a second record.
	auditHandler := event.NewIdempotentHandler(auditapp.NewEventHandler(auditService, log), idempotency, cfg.Cache.IdempotencyTTL, log)
	eventBus.Subscribe(auditHandler, auditHandler.EventTypes()...)
	cacheInvalidator := catalogapp.NewCacheInvalidator(catalogService)
	eventBus.Subscribe(cacheInvalidator, cacheInvalidator.EventTypes()...)
	if meterProvider.IsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(meterProvider.Meter("memberportal"), telemetry.NewGormStockCounter(db.DB), log)
		if err != nil {
			log.Warn("Business metrics disabled", zap.Error(err))
		} else {
			eventBus.Subscribe(businessMetrics, businessMetrics.EventTypes()...)
			defer func() {
				_ = businessMetrics.Close()
			}()
		}
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Background jobs
	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs = scheduler.New(cfg.Scheduler.JobTimeout, log)
		if err := jobs.Register("expire-topups", cfg.Scheduler.ExpireTopUpsSchedule, func(ctx context.Context) error {
			n, err := paymentService.ExpireStale(ctx)
			if n > 0 {
				log.Info("Expired stale top-ups", zap.Int("count", n))
			}
			return err
		}); err != nil {
			log.Fatal("Failed to register job", zap.String("job", "expire-topups"), zap.Error(err))
		}
		if err := jobs.Register("cache-sweep", cfg.Scheduler.CacheSweepSchedule, func(ctx context.Context) error {
			// every cache shares one store, so one sweep covers them all
			_, err := catalogCache.Sweep(ctx)
			return err
		}); err != nil {
			log.Fatal("Failed to register job", zap.String("job", "cache-sweep"), zap.Error(err))
		}
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		log.Info("Scheduler started", zap.Int("jobs", len(jobs.Jobs())))
	}

	// HTTP handlers
	checks := []handler.HealthCheck{{Name: "database", Check: db.Ping}}
	if redisClient != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	systemHandler := handler.NewSystemHandler(version, checks...)
	var jobRunner handler.JobRunner
	if jobs != nil {
		jobRunner = jobs
	}
	handlers := router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		User:      handler.NewUserHandler(userService),
		Wallet:    handler.NewWalletHandler(walletService),
		Catalog:   handler.NewCatalogHandler(catalogService),
		Order:     handler.NewOrderHandler(orderService),
		Payment:   handler.NewPaymentHandler(paymentService),
		Claim:     handler.NewClaimHandler(claimService),
		Tutorial:  handler.NewTutorialHandler(tutorialService),
		Audit:     handler.NewAuditHandler(auditService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Job:       handler.NewJobHandler(jobRunner),
		System:    systemHandler,
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	// Global middleware: request ID first so every later log line carries it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(registry.GinMiddleware())
	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.HSTSEnabled = cfg.IsProduction()
	engine.Use(middleware.Secure(securityCfg))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
		engine.Use(middleware.RateLimit(limiter))
	}

	engine.GET("/health", systemHandler.Health)
	engine.GET("/metrics", gin.WrapH(registry.Handler()))

	// Tenant resolution: a malformed default is a configuration error
	var defaultTenant uuid.UUID
	if cfg.App.DefaultTenantID != "" {
		defaultTenant, err = uuid.Parse(cfg.App.DefaultTenantID)
		if err != nil {
			log.Fatal("Invalid default tenant ID", zap.String("tenant_id", cfg.App.DefaultTenantID), zap.Error(err))
		}
	}
	tenant := middleware.TenantMiddleware(middleware.TenantMiddlewareConfig{
		DefaultTenantID: defaultTenant,
		Required:        true,
	})
	profiling := middleware.Profiling(profiler.IsEnabled())
	guards := router.Guards{
		Public: []gin.HandlerFunc{tenant, profiling},
		Member: []gin.HandlerFunc{
			middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
				JWTService:  jwtService,
				Revocations: revocations,
				Logger:      log,
			}),
			tenant,
			profiling,
			middleware.TracingAttributeInjector(),
			middleware.AuditContext(),
		},
		Admin: []gin.HandlerFunc{middleware.RequireAdmin()},
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		defer authLimiter.Stop()
		guards.AuthLimit = middleware.RateLimitByKey(authLimiter, func(c *gin.Context) string {
			return "auth:" + c.ClientIP()
		})
	}

	router.NewRouter(engine).Register(router.PortalRoutes(handlers, guards)...).Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if jobs != nil {
		if err := jobs.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down log provider", zap.Error(err))
	}

	log.Info("Server exited")
}
