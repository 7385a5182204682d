package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/storage"
)

type fakeStore struct {
	subs    map[string]core.Subscription
	nextID  int
	created int
	updated int
	deleted int
}

func newFakeStore() *fakeStore {
	return &fakeStore{subs: make(map[string]core.Subscription)}
}

func (f *fakeStore) CreateSubscription(_ context.Context, s *core.Subscription) error {
	f.nextID++
	if s.ID == "" {
		s.ID = "sub-" + string(rune('0'+f.nextID))
	}
	f.subs[s.ID] = *s
	f.created++
	return nil
}

func (f *fakeStore) GetSubscription(_ context.Context, ownerID, id string) (core.Subscription, error) {
	s, ok := f.subs[id]
	if !ok || s.OwnerID != ownerID {
		return core.Subscription{}, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) ListSubscriptions(_ context.Context, ownerID string) ([]core.Subscription, error) {
	var out []core.Subscription
	for _, s := range f.subs {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateSubscription(_ context.Context, s *core.Subscription) error {
	existing, ok := f.subs[s.ID]
	if !ok || existing.OwnerID != s.OwnerID {
		return storage.ErrNotFound
	}
	f.subs[s.ID] = *s
	f.updated++
	return nil
}

func (f *fakeStore) DeleteSubscription(_ context.Context, ownerID, id string) error {
	s, ok := f.subs[id]
	if !ok || s.OwnerID != ownerID {
		return storage.ErrNotFound
	}
	delete(f.subs, id)
	f.deleted++
	return nil
}

type fakePublisher struct {
	published []string
	fail      bool
}

func (f *fakePublisher) PublishSubscriptionSync(_ context.Context, id string, _ int64) error {
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, id)
	return nil
}

func validInput() SubscriptionInput {
	return SubscriptionInput{
		Name:         "Music streaming",
		Amount:       core.Money{Cents: 120000},
		Frequency:    core.Yearly,
		StartDate:    time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
		BillingDay:   5,
		Category:     "Entertainment",
		ReminderDays: 3,
	}
}

func TestCreateNormalizesAmounts(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewSubscriptionService(store, pub)

	sub, err := svc.Create(context.Background(), "user-1", validInput())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if sub.ActualAmount.Cents != 120000 {
		t.Errorf("actual = %d, want 120000", sub.ActualAmount.Cents)
	}
	if sub.MonthlyAmount.Cents != 10000 {
		t.Errorf("monthly = %d, want 10000 (1200/12)", sub.MonthlyAmount.Cents)
	}
	if len(pub.published) != 1 || pub.published[0] != sub.ID {
		t.Errorf("expected one sync message for %q, got %v", sub.ID, pub.published)
	}
}

func TestCreateSharedSplitsTotal(t *testing.T) {
	store := newFakeStore()
	svc := NewSubscriptionService(store, nil)

	in := validInput()
	in.Amount = core.Money{Cents: 90000}
	in.Frequency = core.Monthly
	in.Shared = true
	in.Participants = 3

	sub, err := svc.Create(context.Background(), "user-1", in)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if sub.ActualAmount.Cents != 30000 {
		t.Errorf("actual = %d, want 30000 (900/3)", sub.ActualAmount.Cents)
	}
	if sub.MonthlyAmount.Cents != 30000 {
		t.Errorf("monthly = %d, want 30000", sub.MonthlyAmount.Cents)
	}
	if sub.TotalAmount == nil || sub.TotalAmount.Cents != 90000 {
		t.Errorf("total = %v, want 90000", sub.TotalAmount)
	}
	if sub.Participants == nil || *sub.Participants != 3 {
		t.Errorf("participants = %v, want 3", sub.Participants)
	}
}

func TestCreateRejectsInvalidInputBeforeStore(t *testing.T) {
	store := newFakeStore()
	svc := NewSubscriptionService(store, nil)

	cases := []struct {
		name   string
		mutate func(*SubscriptionInput)
	}{
		{"zero amount", func(in *SubscriptionInput) { in.Amount = core.Money{} }},
		{"negative amount", func(in *SubscriptionInput) { in.Amount = core.Money{Cents: -500} }},
		{"bad frequency", func(in *SubscriptionInput) { in.Frequency = "weekly" }},
		{"shared single participant", func(in *SubscriptionInput) { in.Shared = true; in.Participants = 1 }},
		{"empty name", func(in *SubscriptionInput) { in.Name = "" }},
		{"billing day out of range", func(in *SubscriptionInput) { in.BillingDay = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, err := svc.Create(context.Background(), "user-1", in); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	// No store mutation happened for any rejected input.
	if store.created != 0 {
		t.Errorf("store was mutated %d times by invalid input", store.created)
	}
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{fail: true}
	svc := NewSubscriptionService(store, pub)

	if _, err := svc.Create(context.Background(), "user-1", validInput()); err != nil {
		t.Fatalf("Create() must not fail on publish error, got: %v", err)
	}
	if store.created != 1 {
		t.Error("subscription was not saved")
	}
}

func TestUpdateRecomputesMonthly(t *testing.T) {
	store := newFakeStore()
	svc := NewSubscriptionService(store, nil)
	ctx := context.Background()

	sub, err := svc.Create(ctx, "user-1", validInput())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	in := validInput()
	in.Amount = core.Money{Cents: 60000}
	in.Frequency = core.HalfYearly
	updated, err := svc.Update(ctx, "user-1", sub.ID, in)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if updated.MonthlyAmount.Cents != 10000 {
		t.Errorf("monthly = %d, want 10000 (600/6)", updated.MonthlyAmount.Cents)
	}

	got, err := svc.Get(ctx, "user-1", sub.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Frequency != core.HalfYearly {
		t.Errorf("frequency = %q, want halfyearly", got.Frequency)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	svc := NewSubscriptionService(newFakeStore(), nil)
	_, err := svc.Update(context.Background(), "user-1", "missing", validInput())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	store := newFakeStore()
	svc := NewSubscriptionService(store, nil)
	ctx := context.Background()

	sub, err := svc.Create(ctx, "user-1", validInput())
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := svc.Delete(ctx, "user-1", sub.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := svc.Get(ctx, "user-1", sub.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() after delete = %v, want ErrNotFound", err)
	}
}
