package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/hugh/stockroom/internal/tasks"
	"github.com/hugh/stockroom/pkg/config"
	"github.com/hugh/stockroom/pkg/mailer"
	"github.com/hugh/stockroom/pkg/queue"
	"github.com/hugh/stockroom/pkg/util"
	"github.com/joho/godotenv"
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

	if !cfg.Redis.Enabled() {
		logger.Error("worker requires Redis, REDIS_HOST is empty")
		os.Exit(1)
	}

	logger.Info("starting stockroom worker", "concurrency", cfg.Worker.Concurrency)

	var sender mailer.Sender
	if cfg.SMTP.Enabled() {
		sender = mailer.New(&cfg.SMTP)
	} else {
		logger.Warn("SMTP_HOST not set, invitation mail will only be logged")
	}

	srv := queue.NewServer(&cfg.Redis, cfg.Worker.Concurrency)

	handler := tasks.NewHandler(sender, logger)

	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	if err := srv.Start(mux); err != nil {
		logger.Error("worker error", "error", err)
		os.Exit(1)
	}

	logger.Info("worker started, waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	srv.Shutdown()

	logger.Info("worker stopped")
}
