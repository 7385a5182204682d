package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
)

// ReminderStore lists every subscription across owners for the daily scan.
type ReminderStore interface {
	ListAllSubscriptions(ctx context.Context) ([]core.Subscription, error)
}

// ReminderPublisher delivers reminder messages to the reminders queue.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, msg *amqp.ReminderMessage) error
}

// ReminderProcessor scans all subscriptions and publishes a reminder for
// each one whose next billing date falls inside its reminder lead window.
type ReminderProcessor struct {
	store     ReminderStore
	publisher ReminderPublisher
}

func NewReminderProcessor(store ReminderStore, publisher ReminderPublisher) *ReminderProcessor {
	return &ReminderProcessor{store: store, publisher: publisher}
}

// ProcessDueReminders runs one scan as of now. It returns the number of
// reminders published; individual publish failures are logged and skipped
// so one bad row never stalls the rest of the scan.
func (p *ReminderProcessor) ProcessDueReminders(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	subs, err := p.store.ListAllSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions for reminder scan: %w", err)
	}

	slog.InfoContext(ctx, "Scanning subscriptions for due reminders",
		"total", len(subs),
		"scan_date", now.Format("2006-01-02"))

	published := 0
	for _, sub := range subs {
		if !sub.DueWithinReminder(now) {
			continue
		}

		due := sub.NextBilling(now)
		msg := &amqp.ReminderMessage{
			SubscriptionID: sub.ID,
			OwnerID:        sub.OwnerID,
			Name:           sub.Name,
			AmountCents:    sub.ActualAmount.Cents,
			DueOn:          due.Format("2006-01-02"),
			DaysLeft:       core.DaysUntil(due, now),
			Timestamp:      now,
		}
		if err := p.publisher.PublishReminder(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "Failed to publish reminder",
				"subscription_id", sub.ID,
				"error", err)
			continue
		}
		published++
	}

	return published, nil
}
