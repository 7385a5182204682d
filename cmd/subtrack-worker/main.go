package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"subtrack/internal/amqp"
	"subtrack/internal/config"
	"subtrack/internal/log"
	gsheet "subtrack/internal/sheets/google"
	"subtrack/internal/storage"
	"subtrack/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("starting subtrack-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to initialize SQLite repository",
			log.FieldError, err,
			"path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the sync worker")
		os.Exit(1)
	}

	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.SyncQueue, cfg.ReminderQueue)
	if err != nil {
		logger.Error("failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncWorker := worker.NewSyncWorker(repo, sheetsClient, cfg.SyncBatchSize, logger)

	// Drain anything that piled up while the worker was down.
	logger.Info("performing startup sync check")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("startup sync check failed", log.FieldError, err)
	}

	go func() {
		if err := amqpClient.ConsumeSubscriptionSync(ctx, syncWorker.HandleSyncMessage); err != nil {
			if err != context.Canceled {
				logger.Error("message consumption failed", log.FieldError, err)
			}
			cancel()
		}
	}()

	// Periodic scan catches messages lost between publish and consume.
	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := syncWorker.ProcessPending(ctx); err != nil {
					logger.Error("periodic sync failed", log.FieldError, err)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	logger.Info("shutting down worker")
	cancel()
	time.Sleep(2 * time.Second) // let in-flight handlers finish
	logger.Info("worker shutdown complete")
}
