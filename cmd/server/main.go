package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/stockroom/internal/api"
	"github.com/hugh/stockroom/internal/auth"
	"github.com/hugh/stockroom/internal/database"
	"github.com/hugh/stockroom/internal/ledger"
	"github.com/hugh/stockroom/internal/policy"
	"github.com/hugh/stockroom/internal/tasks"
	"github.com/hugh/stockroom/pkg/config"
	"github.com/hugh/stockroom/pkg/queue"
	"github.com/hugh/stockroom/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env, cfg.Log.Level)
	slog.SetDefault(logger)

	logger.Info("starting stockroom server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
		"barcode_scope", cfg.Ledger.BarcodeScope,
	)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db, cfg.Ledger.GlobalBarcodes()); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it invitations are not mailed
	var (
		redisClient *redis.Client
		asynqClient *asynq.Client
	)
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("failed to connect to Redis", "error", err)
			redisClient.Close()
			redisClient = nil
		}
		cancel()
	}

	var dispatcher *tasks.Dispatcher
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
		dispatcher = tasks.NewDispatcher(asynqClient, logger)
	} else {
		dispatcher = tasks.NewDispatcher(nil, logger)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService, logger)
	inventory := ledger.New(db, ledger.Options{RecordZeroDelta: cfg.Ledger.RecordZeroDelta}, logger)
	policyService := policy.NewService(db, authService, dispatcher, logger)

	router := api.NewRouter(api.RouterConfig{
		DB:             db,
		Redis:          redisClient,
		Logger:         logger,
		AuthService:    authService,
		Ledger:         inventory,
		Policy:         policyService,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitReqs:  cfg.RateLimit.Requests,
		RateLimitSecs:  cfg.RateLimit.WindowSeconds,
		LoginAttempts:  cfg.RateLimit.LoginAttempts,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	router.Close()

	if asynqClient != nil {
		asynqClient.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("server stopped")
}
