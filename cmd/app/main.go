package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"storyforge/cmd"
	"storyforge/internal/adapters/out/postgres/bookrepo"
	"storyforge/internal/adapters/out/postgres/jobrepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configs, err := getConfigs()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	gormDB, err := gorm.Open(postgres.Open(configs.DSN()), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err = gormDB.AutoMigrate(&jobrepo.JobDTO{}, &bookrepo.BookDTO{}); err != nil {
		logger.Error("Failed to migrate database schema", "error", err)
		os.Exit(1)
	}

	app := cmd.NewCompositionRoot(configs, gormDB, logger)

	queueWorker, err := app.CreateWorker()
	if err != nil {
		logger.Error("Failed to create queue worker", "error", err)
		os.Exit(1)
	}

	if err = queueWorker.Start(); err != nil {
		logger.Error("Failed to start queue worker", "error", err)
		os.Exit(1)
	}

	jobManager := app.CreateJobManager()
	if err = jobManager.StartAll(); err != nil {
		logger.Error("Failed to start scheduled jobs", "error", err)
		queueWorker.Stop()
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	app.CreateHTTPServer(queueWorker).RegisterRoutes(e)

	go func() {
		if serveErr := e.Start("0.0.0.0:" + configs.HTTPPort); serveErr != nil {
			logger.Info("HTTP server stopped", "reason", serveErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), configs.ShutdownTimeout)
	defer cancel()

	if err = e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	jobManager.StopAll()
	queueWorker.Stop()

	logger.Info("Shutdown complete")
}

func getConfigs() (cmd.Config, error) {
	// A missing .env file is fine; real deployments set the environment directly.
	_ = godotenv.Load(".env")

	config := cmd.Config{
		HTTPPort:   envOrDefault("HTTP_PORT", "8080"),
		DBHost:     envOrDefault("DB_HOST", "localhost"),
		DBPort:     envOrDefault("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSslMode:  envOrDefault("DB_SSLMODE", "disable"),

		WorkerID:          envOrDefault("WORKER_ID", defaultWorkerID()),
		WorkerConcurrency: intEnv("WORKER_CONCURRENCY", 1),
		PollInterval:      durationEnv("WORKER_POLL_INTERVAL", 5*time.Second),
		JobTimeout:        durationEnv("WORKER_JOB_TIMEOUT", 10*time.Minute),
		ShutdownTimeout:   durationEnv("WORKER_SHUTDOWN_TIMEOUT", 30*time.Second),
		StaleJobAfter:     durationEnv("STALE_JOB_AFTER", 15*time.Minute),
		JobRetention:      durationEnv("JOB_RETENTION", 14*24*time.Hour),

		GenerationBaseURL: os.Getenv("GENERATION_BASE_URL"),
		GenerationAPIKey:  os.Getenv("GENERATION_API_KEY"),
		GenerationTimeout: durationEnv("GENERATION_TIMEOUT", 5*time.Minute),

		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),

		FileStoreDir: envOrDefault("FILE_STORE_DIR", "./data/artifacts"),
	}

	if err := config.Validate(); err != nil {
		return cmd.Config{}, err
	}

	return config, nil
}

func defaultWorkerID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("worker-%d@%s", os.Getpid(), hostname)
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Ignoring invalid integer setting", "key", key, "value", raw)
		return fallback
	}
	return value
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("Ignoring invalid duration setting", "key", key, "value", raw)
		return fallback
	}
	return value
}
