package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"subtrack/internal/amqp"
	"subtrack/internal/auth"
	"subtrack/internal/config"
	apphttp "subtrack/internal/http"
	"subtrack/internal/log"
	"subtrack/internal/services"
	"subtrack/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

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

	// AMQP is optional: without it rows stay pending and the worker's
	// periodic scan picks them up.
	var publisher services.SyncPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.SyncQueue, cfg.ReminderQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sync messages disabled", log.FieldError, err)
		} else {
			publisher = amqpClient
			defer amqpClient.Close()
		}
	}

	authenticator := auth.NewPasswordAuthenticator(repo)
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.SessionDuration)
	subscriptions := services.NewSubscriptionService(repo, publisher)
	dashboard := services.NewDashboardService(repo)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:          ":" + cfg.Port,
		Subscriptions: subscriptions,
		Dashboard:     dashboard,
		Auth:          authenticator,
		Tokens:        tokens,
		Logger:        logger,
		Registry:      prometheus.NewRegistry(),
	})
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting subtrack server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("server stopped gracefully")
}
