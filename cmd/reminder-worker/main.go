package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"subtrack/internal/amqp"
	"subtrack/internal/config"
	"subtrack/internal/log"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentReminder,
	})
	log.SetDefault(logger)

	logger.Info("starting reminder-worker", "schedule", cfg.ReminderCron)

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

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.SyncQueue, cfg.ReminderQueue)
	if err != nil {
		logger.Error("failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	processor := services.NewReminderProcessor(repo, amqpClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scan := func() {
		scanCtx, scanCancel := context.WithTimeout(ctx, 2*time.Minute)
		defer scanCancel()

		count, err := processor.ProcessDueReminders(scanCtx, time.Now())
		if err != nil {
			logger.Error("reminder scan failed", log.FieldError, err)
			return
		}
		logger.Info("reminder scan complete", "published", count)
	}

	// Run once at startup so a restart never skips today's reminders.
	scan()

	c := cron.New()
	if _, err := c.AddFunc(cfg.ReminderCron, scan); err != nil {
		logger.Error("invalid reminder cron schedule",
			"schedule", cfg.ReminderCron,
			log.FieldError, err)
		os.Exit(1)
	}
	c.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutdown signal received", "signal", sig.String())

	stopCtx := c.Stop()
	cancel()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("shutdown timeout reached")
	}
	logger.Info("reminder worker stopped")
}
