package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sparkmatch/sparkmatch/internal/cache"
	"github.com/sparkmatch/sparkmatch/internal/config"
	"github.com/sparkmatch/sparkmatch/internal/database"
	"github.com/sparkmatch/sparkmatch/internal/events"
	"github.com/sparkmatch/sparkmatch/internal/httpapi"
	"github.com/sparkmatch/sparkmatch/internal/services"
	"github.com/sparkmatch/sparkmatch/internal/telemetry"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logConfig := telemetry.DefaultLogConfig()
	logConfig.Level = cfg.LogLevel
	if cfg.LogFile != "" {
		logConfig.Output = cfg.LogFile
		logConfig.Rotation = true
	}
	if err := telemetry.InitGlobalLogger(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := telemetry.WithCorrelationID(context.Background(), telemetry.NewCorrelationID())
	logger := telemetry.LogFromContext(ctx)

	var shutdownTelemetry func()
	if cfg.TracingEnabled {
		otelConfig := telemetry.LoadOTelConfigFromEnv()
		otelConfig.Environment = cfg.Environment

		var err error
		shutdownTelemetry, err = telemetry.InitializeOpenTelemetry(ctx, otelConfig)
		if err != nil {
			logger.WithError(err).Warn("Failed to initialize OpenTelemetry, continuing without tracing")
			cfg.TracingEnabled = false
		}
	}

	db, err := connectDatabase(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Error("Failed to ensure database schema")
		os.Exit(1)
	}

	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to Redis")
		os.Exit(1)
	}
	defer redisCache.Close()

	publisher := events.NewRedisPublisherFromClient(redisCache.Client())

	userService := services.NewUserService(database.NewUserStore(db), redisCache)
	matchingService := services.NewMatchingService(
		database.NewLikeStore(db),
		database.NewMatchStore(db),
		database.NewRoomStore(db),
		userService,
		publisher,
	)
	chatRoomService := services.NewChatRoomService(
		database.NewRoomStore(db),
		database.NewMessageStore(db),
		userService,
	)
	messagingService := services.NewMessagingService(
		database.NewRoomStore(db),
		database.NewMessageStore(db),
	)

	handler := httpapi.NewHandler(
		matchingService,
		chatRoomService,
		messagingService,
		httpapi.HealthCheck{Name: "database", Check: func(ctx context.Context) error { return db.Health() }},
		httpapi.HealthCheck{Name: "redis", Check: redisCache.Health},
	)

	routerConfig := httpapi.DefaultRouterConfig()
	routerConfig.EnableTracing = cfg.TracingEnabled
	routerConfig.RateLimitMax = cfg.RateLimitMax
	routerConfig.RateLimitEvery = cfg.RateLimitEvery

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Router(routerConfig),
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if shutdownTelemetry != nil {
		shutdownTelemetry()
	}

	logger.Info("Shutdown complete")
}

func connectDatabase(cfg config.Config) (*database.DB, error) {
	if cfg.TracingEnabled {
		return database.NewInstrumentedConnection(cfg.Database)
	}
	return database.NewConnection(cfg.Database)
}
