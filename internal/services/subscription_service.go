// Package services provides business logic orchestrating the storage,
// messaging, and calculation layers.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subtrack/internal/core"
)

// SubscriptionStore is the persistence surface the service needs.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, s *core.Subscription) error
	GetSubscription(ctx context.Context, ownerID, id string) (core.Subscription, error)
	ListSubscriptions(ctx context.Context, ownerID string) ([]core.Subscription, error)
	UpdateSubscription(ctx context.Context, s *core.Subscription) error
	DeleteSubscription(ctx context.Context, ownerID, id string) error
}

// SyncPublisher publishes backup-sync messages. Optional; a nil publisher
// disables syncing without affecting writes.
type SyncPublisher interface {
	PublishSubscriptionSync(ctx context.Context, id string, version int64) error
}

// SubscriptionInput carries validated-but-raw form values. Amount is the
// billed amount per period; for shared subscriptions it is the total before
// the split.
type SubscriptionInput struct {
	Name         string
	Amount       core.Money
	Frequency    core.Frequency
	StartDate    time.Time
	BillingDay   int
	Category     string
	ReminderDays int
	Shared       bool
	Participants int
}

// SubscriptionService orchestrates subscription writes across storage and AMQP.
type SubscriptionService struct {
	store     SubscriptionStore
	publisher SyncPublisher
}

func NewSubscriptionService(store SubscriptionStore, publisher SyncPublisher) *SubscriptionService {
	return &SubscriptionService{store: store, publisher: publisher}
}

// build normalizes the input amounts and assembles a full subscription.
// The monthly-equivalent is always recomputed server-side; it is never
// accepted from the client.
func build(ownerID string, in SubscriptionInput) (core.Subscription, error) {
	norm, err := core.Normalize(in.Amount, in.Frequency, in.Shared, in.Participants)
	if err != nil {
		return core.Subscription{}, err
	}

	sub := core.Subscription{
		OwnerID:       ownerID,
		Name:          in.Name,
		MonthlyAmount: norm.Monthly,
		ActualAmount:  norm.Actual,
		Frequency:     in.Frequency,
		StartDate:     in.StartDate,
		BillingDay:    in.BillingDay,
		Category:      in.Category,
		ReminderDays:  in.ReminderDays,
		Shared:        in.Shared,
	}
	if in.Shared {
		total := in.Amount
		sub.TotalAmount = &total
		participants := in.Participants
		sub.Participants = &participants
	}

	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	return sub, nil
}

// Create validates, normalizes, and persists a new subscription, then
// queues it for backup sync. A failed publish never fails the request;
// the row stays pending and the worker catches up later.
func (s *SubscriptionService) Create(ctx context.Context, ownerID string, in SubscriptionInput) (core.Subscription, error) {
	sub, err := build(ownerID, in)
	if err != nil {
		return core.Subscription{}, err
	}

	if err := s.store.CreateSubscription(ctx, &sub); err != nil {
		return core.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}

	s.publishSync(ctx, sub.ID, 1)
	return sub, nil
}

// Update overwrites all mutable fields of an existing subscription.
func (s *SubscriptionService) Update(ctx context.Context, ownerID, id string, in SubscriptionInput) (core.Subscription, error) {
	sub, err := build(ownerID, in)
	if err != nil {
		return core.Subscription{}, err
	}
	sub.ID = id

	if err := s.store.UpdateSubscription(ctx, &sub); err != nil {
		return core.Subscription{}, err
	}

	s.publishSync(ctx, sub.ID, 2)
	return sub, nil
}

// Delete removes a subscription outright on user confirmation.
func (s *SubscriptionService) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteSubscription(ctx, ownerID, id)
}

// Get returns one subscription scoped to its owner.
func (s *SubscriptionService) Get(ctx context.Context, ownerID, id string) (core.Subscription, error) {
	return s.store.GetSubscription(ctx, ownerID, id)
}

// List returns all subscriptions for an owner.
func (s *SubscriptionService) List(ctx context.Context, ownerID string) ([]core.Subscription, error) {
	return s.store.ListSubscriptions(ctx, ownerID)
}

func (s *SubscriptionService) publishSync(ctx context.Context, id string, version int64) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping sync message", "id", id)
		return
	}
	if err := s.publisher.PublishSubscriptionSync(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
}
