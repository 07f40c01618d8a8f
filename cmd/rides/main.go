package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/richxcame/ride-lifecycle/internal/history"
	"github.com/richxcame/ride-lifecycle/internal/rides"
	"github.com/richxcame/ride-lifecycle/pkg/cache"
	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/config"
	"github.com/richxcame/ride-lifecycle/pkg/database"
	"github.com/richxcame/ride-lifecycle/pkg/errors"
	"github.com/richxcame/ride-lifecycle/pkg/eventbus"
	"github.com/richxcame/ride-lifecycle/pkg/health"
	"github.com/richxcame/ride-lifecycle/pkg/logger"
	"github.com/richxcame/ride-lifecycle/pkg/middleware"
	redisclient "github.com/richxcame/ride-lifecycle/pkg/redis"
	"github.com/richxcame/ride-lifecycle/pkg/resilience"
	"github.com/richxcame/ride-lifecycle/pkg/tracing"
	"github.com/richxcame/ride-lifecycle/pkg/validation"
)

const (
	serviceName = "rides-service"
	version     = "1.0.0"

	routeCacheTTL = 10 * time.Minute
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting rides service",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
	)

	// Initialize Sentry for error tracking
	sentryConfig := errors.DefaultSentryConfig()
	sentryConfig.ServerName = serviceName
	sentryConfig.Release = version
	if err := errors.InitSentry(sentryConfig); err != nil {
		logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
	} else {
		defer errors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized successfully")
	}

	// Initialize OpenTelemetry tracer
	tp, err := tracing.InitTracer(tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	}, logger.Get())
	if err != nil {
		logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
	} else if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to shutdown tracer", zap.Error(err))
			}
		}()
		logger.Info("OpenTelemetry tracing initialized successfully")
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.MigrationsPath, cfg.Database.URL()); err != nil {
			logger.Fatal("Failed to apply database migrations", zap.Error(err))
		}
	}

	db, err := database.NewPostgresPool(startupCtx, &cfg.Database, serviceName)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)
	logger.Info("Connected to database")

	checks := health.Checks{}
	checks.Add("database", health.PingChecker("postgres", db))

	opts := []rides.Option{}

	historyDB, err := history.Open(startupCtx, cfg.Database.HistoryDSN(), cfg.Database.MaxConns/2)
	if err != nil {
		logger.Warn("History database unavailable, ride history endpoints disabled", zap.Error(err))
	} else {
		defer closeHistory(historyDB)
		opts = append(opts, rides.WithHistory(history.NewReader(historyDB)))
		checks.Add("history", health.PingChecker("history", health.PingFunc(historyDB.PingContext)))
	}

	// Redis backs the distributed lock, the ride cache, the route cache and
	// idempotency. Without it the service runs single-instance.
	var redisClient *redisclient.Client
	if cfg.Rides.LockBackend == config.LockBackendRedis || cfg.Rides.CacheEnabled {
		redisClient, err = redisclient.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("Failed to close redis client", zap.Error(err))
			}
		}()
		checks.Add("redis", health.PingChecker("redis", redisClient))
	}

	if cfg.Rides.LockBackend == config.LockBackendRedis {
		store := redisclient.NewLockStore(redisClient.Client, "ride")
		opts = append(opts, rides.WithLocker(rides.NewRedisLocker(store, cfg.Rides.LockTTL())))
		logger.Info("Using redis ride locks", zap.Duration("ttl", cfg.Rides.LockTTL()))
	}

	var cacheManager *cache.Manager
	if cfg.Rides.CacheEnabled && redisClient != nil {
		cacheManager = cache.NewManager(redisClient)
		opts = append(opts, rides.WithCache(rides.NewRedisRideCache(cacheManager, cfg.Rides.CacheTTL())))
		logger.Info("Ride cache enabled", zap.Duration("ttl", cfg.Rides.CacheTTL()))
	}

	var routes rides.RouteEstimator = rides.HaversineEstimator{}
	if cfg.Routing.ServiceURL != "" {
		var breaker *resilience.CircuitBreaker
		if cfg.Resilience.CircuitBreaker.Enabled {
			breakerCfg := cfg.Resilience.CircuitBreaker.SettingsFor("routing-service")
			breaker = resilience.NewCircuitBreaker(resilience.SettingsFromConfig("routing-service", breakerCfg))
			checks.Add("routing_breaker", health.BreakerChecker(breaker.Allow))

			logger.Info("Circuit breaker configured for routing service",
				zap.Int("failure_threshold", breakerCfg.FailureThreshold),
				zap.Int("success_threshold", breakerCfg.SuccessThreshold),
				zap.Int("timeout_seconds", breakerCfg.TimeoutSeconds),
				zap.Int("interval_seconds", breakerCfg.IntervalSeconds),
			)
		}
		routes = rides.NewHTTPRouteEstimator(cfg.Routing.ServiceURL, cfg.Routing.Timeout(), breaker)
		logger.Info("Routing service URL configured", zap.String("url", cfg.Routing.ServiceURL))
	}
	if cacheManager != nil {
		routes = rides.NewCachedRouteEstimator(routes, cacheManager, routeCacheTTL)
	}
	opts = append(opts, rides.WithRouteEstimator(routes))

	if cfg.NATS.Enabled {
		bus, err := eventbus.New(eventbus.Config{
			URL:        cfg.NATS.URL,
			Name:       serviceName,
			StreamName: cfg.NATS.StreamName,
		})
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer bus.Close()
		opts = append(opts, rides.WithEventPublisher(bus))
		checks.Add("nats", health.ConnectedChecker("nats", bus.Connected))
	}

	repo := rides.NewRepository(db)
	service := rides.NewService(repo, rides.Config{
		OperationTimeout:    cfg.Rides.OperationTimeout(),
		Currency:            cfg.Rides.Currency,
		CancellationFeeRate: cfg.Rides.CancellationFeeRate,
	}, opts...)
	handler := rides.NewHandler(service)

	if err := validation.RegisterGinValidators(); err != nil {
		logger.Fatal("Failed to register validators", zap.Error(err))
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.ErrorHandler())
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware(serviceName))
	}
	router.Use(middleware.Metrics(serviceName))
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout()))

	// Health check endpoints
	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/health/live", common.LivenessProbe(serviceName, version))
	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, checks.Funcs()))

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"version": version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routeCfg := rides.RouteConfig{
		JWTSecret:      cfg.JWT.Secret,
		InternalAPIKey: cfg.JWT.InternalAPIKey,
	}
	if redisClient != nil {
		routeCfg.Idempotency = middleware.Idempotency(redisClient)
	}
	handler.RegisterRoutes(router, routeCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func closeHistory(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("Failed to close history database", zap.Error(err))
	}
}
