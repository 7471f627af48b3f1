package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/propman/backend/internal/application/publishing"
	"github.com/propman/backend/internal/application/webhook"
	"github.com/propman/backend/internal/domain/syndication"
	"github.com/propman/backend/internal/infrastructure/cache"
	"github.com/propman/backend/internal/infrastructure/channels"
	"github.com/propman/backend/internal/infrastructure/config"
	"github.com/propman/backend/internal/infrastructure/logger"
	"github.com/propman/backend/internal/infrastructure/scheduler"
	"github.com/propman/backend/internal/infrastructure/store"
	"github.com/propman/backend/internal/interfaces/http/handler"
	"github.com/propman/backend/internal/interfaces/http/middleware"
	"github.com/propman/backend/internal/interfaces/http/router"
)

// version is stamped at build time via -ldflags
var version = "dev"

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

	log.Info("Starting listing syndication service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("store", cfg.Store.Backend),
		zap.String("version", version),
	)

	// Build the persisted store and the webhook dedup store for the
	// configured backend
	st, dedup, cleanup, err := buildStores(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer cleanup()

	// Platform adapter registry
	registry := channels.NewRegistry(cfg.Publisher.HTTPTimeout)

	// Connection orchestrator, restored from persisted credentials
	orch := publishing.NewOrchestrator(registry, st, log, cfg.Publisher.PlatformDelay)
	if err := orch.Restore(context.Background()); err != nil {
		log.Fatal("Failed to restore platform connections", zap.Error(err))
	}

	notifier := store.NewStoreNotifier(st)

	// Publishing service
	svc := publishing.NewService(orch, st, notifier, log, publishing.ServiceConfig{
		BatchSize:  cfg.Publisher.BatchSize,
		BatchDelay: cfg.Publisher.BatchDelay,
		RetryDelay: cfg.Publisher.RetryDelay,
		MaxRetries: cfg.Publisher.MaxRetries,
	})

	// Webhook pipeline
	pipeline := webhook.NewPipeline(registry, st, dedup, notifier, log, webhook.Config{
		QueueSize:    cfg.Webhook.QueueSize,
		DrainPause:   cfg.Webhook.DrainPause,
		DedupTTL:     cfg.Webhook.DedupTTL,
		EndpointBase: cfg.Webhook.EndpointBase,
	})
	if err := pipeline.Start(context.Background()); err != nil {
		log.Fatal("Failed to start webhook pipeline", zap.Error(err))
	}
	defer func() {
		if err := pipeline.Stop(context.Background()); err != nil {
			log.Error("Error stopping webhook pipeline", zap.Error(err))
		}
	}()

	// Schedule runner polling for due publishes and retries
	runner := scheduler.NewRunner(scheduler.Config{
		Enabled:      cfg.Scheduler.Enabled,
		PollInterval: cfg.Scheduler.PollInterval,
	}, svc, log)
	if err := runner.Start(context.Background()); err != nil {
		log.Fatal("Failed to start schedule runner", zap.Error(err))
	}
	defer func() {
		if err := runner.Stop(context.Background()); err != nil {
			log.Error("Error stopping schedule runner", zap.Error(err))
		}
	}()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	router.New(engine).
		Register(handler.NewSystemHandler(version)).
		Register(handler.NewPlatformHandler(orch)).
		Register(handler.NewPublishingHandler(svc, orch)).
		Register(handler.NewWebhookHandler(pipeline)).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildStores constructs the persisted store and the webhook dedup store for
// the configured backend, returning a cleanup to run at shutdown.
func buildStores(cfg *config.Config, log *zap.Logger) (syndication.Store, syndication.IdempotencyStore, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{Logger: gormLog})
		if err != nil {
			return nil, nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, nil, err
		}
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)

		st, err := store.NewGormStore(db)
		if err != nil {
			return nil, nil, nil, err
		}
		dedup := cache.NewMemoryDedupStore()
		cleanup := func() {
			_ = dedup.Close()
			_ = sqlDB.Close()
		}
		return st, dedup, cleanup, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, nil, err
		}
		cleanup := func() {
			_ = client.Close()
		}
		return store.NewRedisStore(client), cache.NewRedisDedupStore(client, ""), cleanup, nil

	default: // memory
		dedup := cache.NewMemoryDedupStore()
		cleanup := func() {
			_ = dedup.Close()
		}
		return store.NewMemoryStore(), dedup, cleanup, nil
	}
}
