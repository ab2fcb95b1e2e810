package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/unique3900/devtul/internal/database"
	"github.com/unique3900/devtul/internal/events"
	"github.com/unique3900/devtul/internal/scanner"
	"github.com/unique3900/devtul/internal/tasks"
	"github.com/unique3900/devtul/pkg/config"
	"github.com/unique3900/devtul/pkg/queue"
	"github.com/unique3900/devtul/pkg/util"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting Devtul worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Redis client for publishing scan events
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis", "error", err)
		redisClient = nil
	}
	publisher := events.NewPublisher(redisClient, logger)

	// Asynq client for enqueuing follow-up scans from monitors
	asynqClient := queue.NewClient(&cfg.Redis)

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, 10)

	// Build the checker registry and task handler
	checkers := scanner.NewRegistry(&cfg.Scanner, logger)
	handler := tasks.NewHandler(db, logger, checkers, publisher, asynqClient)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Handle shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Enqueue a monitor tick every minute so due monitors get scanned
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := asynqClient.Enqueue(tasks.NewMonitorTickTask()); err != nil {
					logger.Error("failed to enqueue monitor tick", "error", err)
				}
			}
		}
	}()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		srv.Shutdown()
		cancel()
	}()

	logger.Info("worker started, waiting for tasks...")

	// Start the server
	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	// Close Asynq client
	asynqClient.Close()

	if redisClient != nil {
		redisClient.Close()
	}

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
