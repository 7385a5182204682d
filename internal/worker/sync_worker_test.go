package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
	"subtrack/internal/storage"
)

type fakeSyncStore struct {
	subs        map[string]core.Subscription
	pending     []core.Subscription
	synced      []string
	syncErrored []string
	pendingErr  error
}

func (s *fakeSyncStore) GetSubscriptionByID(ctx context.Context, id string) (core.Subscription, error) {
	sub, ok := s.subs[id]
	if !ok {
		return core.Subscription{}, storage.ErrNotFound
	}
	return sub, nil
}

func (s *fakeSyncStore) GetPendingSync(ctx context.Context, limit int) ([]core.Subscription, error) {
	if s.pendingErr != nil {
		return nil, s.pendingErr
	}
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *fakeSyncStore) MarkSynced(ctx context.Context, id string) error {
	s.synced = append(s.synced, id)
	return nil
}

func (s *fakeSyncStore) MarkSyncError(ctx context.Context, id string) error {
	s.syncErrored = append(s.syncErrored, id)
	return nil
}

type fakeExporter struct {
	exported []string
	err      error
}

func (e *fakeExporter) Export(ctx context.Context, s core.Subscription) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.exported = append(e.exported, s.ID)
	return "2026 Subscriptions!A2:J2", nil
}

func testSub(id string) core.Subscription {
	return core.Subscription{
		ID:            id,
		OwnerID:       "user-1",
		Name:          "Cloud Drive",
		MonthlyAmount: core.Money{Cents: 19900},
		ActualAmount:  core.Money{Cents: 19900},
		Frequency:     core.Monthly,
		StartDate:     time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
		BillingDay:    5,
		Category:      "storage",
	}
}

func TestHandleSyncMessage(t *testing.T) {
	store := &fakeSyncStore{subs: map[string]core.Subscription{"sub-1": testSub("sub-1")}}
	exporter := &fakeExporter{}
	w := NewSyncWorker(store, exporter, 10, nil)

	msg := &amqp.SubscriptionSyncMessage{ID: "sub-1", Version: 1}
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}

	if len(exporter.exported) != 1 || exporter.exported[0] != "sub-1" {
		t.Errorf("exported = %v, want [sub-1]", exporter.exported)
	}
	if len(store.synced) != 1 || store.synced[0] != "sub-1" {
		t.Errorf("synced = %v, want [sub-1]", store.synced)
	}
}

func TestHandleSyncMessageDeletedSubscription(t *testing.T) {
	store := &fakeSyncStore{subs: map[string]core.Subscription{}}
	w := NewSyncWorker(store, &fakeExporter{}, 10, nil)

	msg := &amqp.SubscriptionSyncMessage{ID: "gone", Version: 2}
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage() for deleted subscription should not error, got %v", err)
	}
}

func TestHandleSyncMessageExportFailure(t *testing.T) {
	store := &fakeSyncStore{subs: map[string]core.Subscription{"sub-1": testSub("sub-1")}}
	exporter := &fakeExporter{err: errors.New("sheets unavailable")}
	w := NewSyncWorker(store, exporter, 10, nil)

	msg := &amqp.SubscriptionSyncMessage{ID: "sub-1", Version: 1}
	err := w.HandleSyncMessage(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error when export fails")
	}

	if len(store.syncErrored) != 1 || store.syncErrored[0] != "sub-1" {
		t.Errorf("syncErrored = %v, want [sub-1]", store.syncErrored)
	}
	if len(store.synced) != 0 {
		t.Errorf("synced = %v, want empty", store.synced)
	}
}

func TestProcessPending(t *testing.T) {
	store := &fakeSyncStore{
		pending: []core.Subscription{testSub("sub-1"), testSub("sub-2")},
	}
	exporter := &fakeExporter{}
	w := NewSyncWorker(store, exporter, 10, nil)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}

	if len(exporter.exported) != 2 {
		t.Errorf("exported %d subscriptions, want 2", len(exporter.exported))
	}
	if len(store.synced) != 2 {
		t.Errorf("synced %d subscriptions, want 2", len(store.synced))
	}
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	store := &fakeSyncStore{
		pending: []core.Subscription{testSub("sub-1"), testSub("sub-2"), testSub("sub-3")},
	}
	exporter := &fakeExporter{}
	w := NewSyncWorker(store, exporter, 2, nil)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}
	if len(exporter.exported) != 2 {
		t.Errorf("exported %d subscriptions, want batch of 2", len(exporter.exported))
	}
}

func TestProcessPendingStoreError(t *testing.T) {
	store := &fakeSyncStore{pendingErr: errors.New("db locked")}
	w := NewSyncWorker(store, &fakeExporter{}, 10, nil)

	if err := w.ProcessPending(context.Background()); err == nil {
		t.Fatal("expected error when store fails")
	}
}

func TestStartupSyncCheckContinuesPastFailures(t *testing.T) {
	store := &fakeSyncStore{
		pending: []core.Subscription{testSub("sub-1"), testSub("sub-2")},
	}
	// First export fails, then the exporter recovers.
	exporter := &fakeExporter{err: errors.New("transient")}
	w := NewSyncWorker(store, exporter, 10, nil)

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck() error = %v", err)
	}
	if len(store.syncErrored) != 2 {
		t.Errorf("syncErrored = %v, want both marked", store.syncErrored)
	}

	exporter.err = nil
	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck() retry error = %v", err)
	}
	if len(store.synced) != 2 {
		t.Errorf("synced = %v, want both synced on retry", store.synced)
	}
}
