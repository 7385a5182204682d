package worker

import (
	"context"
	"errors"
	"fmt"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/sheets"
	"subtrack/internal/storage"
)

// SyncStore is the slice of the repository the sync worker needs.
type SyncStore interface {
	GetSubscriptionByID(ctx context.Context, id string) (core.Subscription, error)
	GetPendingSync(ctx context.Context, limit int) ([]core.Subscription, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

// SyncWorker mirrors subscription rows from SQLite into the Google Sheets
// backup spreadsheet.
type SyncWorker struct {
	store     SyncStore
	exporter  sheets.SubscriptionExporter
	batchSize int
	logger    *log.Logger
}

func NewSyncWorker(store SyncStore, exporter sheets.SubscriptionExporter, batchSize int, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleSyncMessage processes a single subscription sync message from AMQP.
// A subscription deleted between publish and consume is treated as done.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SubscriptionSyncMessage) error {
	w.logger.InfoContext(ctx, "processing sync message",
		log.FieldSubscriptionID, msg.ID,
		"version", msg.Version)

	sub, err := w.store.GetSubscriptionByID(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.logger.WarnContext(ctx, "subscription gone before sync, skipping",
				log.FieldSubscriptionID, msg.ID)
			return nil
		}
		return fmt.Errorf("get subscription from storage: %w", err)
	}

	return w.export(ctx, sub)
}

// ProcessPending exports rows still marked pending. This is the backup
// path for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.GetPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending subscriptions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "processing pending subscriptions", "count", len(pending))

	for _, sub := range pending {
		if err := w.export(ctx, sub); err != nil {
			w.logger.ErrorContext(ctx, "failed to sync subscription",
				log.FieldSubscriptionID, sub.ID,
				log.FieldError, err)
		}
	}

	return nil
}

// StartupSyncCheck drains a larger pending batch once at worker startup to
// recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.store.GetPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending subscriptions for startup check: %w", err)
	}
	if len(pending) == 0 {
		w.logger.InfoContext(ctx, "no pending subscriptions found on startup")
		return nil
	}

	w.logger.InfoContext(ctx, "found pending subscriptions on startup", "count", len(pending))

	synced := 0
	failed := 0
	for _, sub := range pending {
		if err := w.export(ctx, sub); err != nil {
			w.logger.ErrorContext(ctx, "failed to sync subscription during startup",
				log.FieldSubscriptionID, sub.ID,
				log.FieldError, err)
			failed++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)

	return nil
}

func (w *SyncWorker) export(ctx context.Context, sub core.Subscription) error {
	ref, err := w.exporter.Export(ctx, sub)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, sub.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "failed to mark sync error",
				log.FieldSubscriptionID, sub.ID,
				log.FieldError, markErr)
		}
		return fmt.Errorf("export subscription to sheets: %w", err)
	}

	if err := w.store.MarkSynced(ctx, sub.ID); err != nil {
		return fmt.Errorf("mark subscription synced: %w", err)
	}

	w.logger.InfoContext(ctx, "subscription synced",
		log.FieldSubscriptionID, sub.ID,
		log.FieldSheetsRef, ref)

	return nil
}
