package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/osvaldoandrade/hookq/internal/metrics"
	"github.com/osvaldoandrade/hookq/internal/middleware"
	"github.com/osvaldoandrade/hookq/internal/providers"
	"github.com/osvaldoandrade/hookq/internal/ratelimit"
	"github.com/osvaldoandrade/hookq/internal/repository"
	"github.com/osvaldoandrade/hookq/internal/services"
	"github.com/osvaldoandrade/hookq/internal/tracing"
	"github.com/osvaldoandrade/hookq/pkg/auth"
	"github.com/osvaldoandrade/hookq/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type Application struct {
	Config          *config.Config
	Engine          *gin.Engine
	Redis           *redis.Client
	Subs            services.SubscriptionService
	Dispatcher      services.DispatcherService
	Deliveries      services.DeliveryLogService
	Stats           services.StatsService
	Logger          *slog.Logger
	TZ              *time.Location
	Validator       auth.Validator
	RateLimiter     ratelimit.Limiter
	TracingShutdown func(context.Context) error
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithValidator sets a custom identity validator
func WithValidator(validator auth.Validator) ApplicationOption {
	return func(app *Application) error {
		app.Validator = validator
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	redisClient := providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword)
	limiter := ratelimit.NewTokenBucketLimiter(redisClient)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("UTC", 0)
	}

	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler).With("service", "hookq", "env", cfg.Env)
	slog.SetDefault(logger)

	metrics.RegisterRedisCollector(redisClient, logger)

	subRepo := repository.NewSubscriptionRepository(redisClient, loc)
	logRepo := repository.NewDeliveryLogRepository(redisClient, loc, cfg.DeliveryLogMaxEntries)

	delivery := services.NewDeliveryService(logger, services.DeliveryConfig{
		TimeoutSeconds:     cfg.DeliveryTimeoutSeconds,
		MaxAttempts:        cfg.DeliveryMaxAttempts,
		BackoffPolicy:      cfg.BackoffPolicy,
		BaseBackoffSeconds: cfg.BackoffBaseSeconds,
		MaxBackoffSeconds:  cfg.BackoffMaxSeconds,
		MaxBodyBytes:       int(cfg.ResponseBodyMaxBytes),
	}, limiter, ratelimit.Bucket(cfg.RateLimit.Webhook))
	recorder := services.NewRecorderService(subRepo, logRepo, logger, cfg.DisableThreshold, time.Now)
	dispatcher := services.NewDispatcherService(subRepo, delivery, recorder, logger, time.Now)
	subs := services.NewSubscriptionService(subRepo)
	deliveries := services.NewDeliveryLogService(logRepo)
	stats := services.NewStatsService(subRepo, logRepo)
	cleanup := services.NewIndexCleanupService(subRepo, logger, cfg.IndexSweepIntervalSeconds)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(logger),
		middleware.TracingMiddleware(cfg.TracingServiceName),
	)

	shutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  cfg.TracingServiceName,
		OTLPEndpoint: cfg.TracingOTLPEndpoint,
		OTLPInsecure: cfg.TracingOTLPInsecure,
		SampleRatio:  cfg.TracingSampleRatio,
	}, logger)
	if err != nil {
		return nil, err
	}

	go cleanup.Start(context.Background())

	app := &Application{
		Config:          cfg,
		Engine:          engine,
		Redis:           redisClient,
		Subs:            subs,
		Dispatcher:      dispatcher,
		Deliveries:      deliveries,
		Stats:           stats,
		Logger:          logger,
		TZ:              loc,
		RateLimiter:     limiter,
		TracingShutdown: shutdown,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	// Create default validator from config if not provided
	if app.Validator == nil && cfg.AuthProvider != "" {
		validator, err := auth.NewValidator(auth.ProviderConfig{
			Type:   cfg.AuthProvider,
			Config: cfg.AuthConfig,
		})
		if err != nil {
			return nil, err
		}
		app.Validator = validator
	}

	return app, nil
}
