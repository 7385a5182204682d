package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validSubscription() Subscription {
	return Subscription{
		ID:            "sub-1",
		OwnerID:       "user-1",
		Name:          "Music streaming",
		MonthlyAmount: Money{Cents: 19900},
		ActualAmount:  Money{Cents: 19900},
		Frequency:     Monthly,
		StartDate:     time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
		BillingDay:    5,
		Category:      "Entertainment",
		ReminderDays:  3,
	}
}

func TestSubscriptionValidate(t *testing.T) {
	two := 2
	one := 1
	total := Money{Cents: 39800}

	tests := []struct {
		name    string
		mutate  func(*Subscription)
		wantErr error
	}{
		{"valid", func(s *Subscription) {}, nil},
		{"empty name", func(s *Subscription) { s.Name = "  " }, ErrEmptyName},
		{"zero amount", func(s *Subscription) { s.ActualAmount = Money{} }, ErrInvalidAmount},
		{"negative monthly", func(s *Subscription) { s.MonthlyAmount = Money{Cents: -1} }, ErrInvalidAmount},
		{"bad frequency", func(s *Subscription) { s.Frequency = "weekly" }, ErrInvalidFrequency},
		{"zero start date", func(s *Subscription) { s.StartDate = time.Time{} }, ErrInvalidStartDate},
		{"billing day 0", func(s *Subscription) { s.BillingDay = 0 }, ErrInvalidBillingDay},
		{"billing day 32", func(s *Subscription) { s.BillingDay = 32 }, ErrInvalidBillingDay},
		{"empty category", func(s *Subscription) { s.Category = "" }, ErrEmptyCategory},
		{"negative reminder days", func(s *Subscription) { s.ReminderDays = -1 }, ErrInvalidReminderDays},
		{
			"shared without participants",
			func(s *Subscription) { s.Shared = true; s.TotalAmount = &total },
			ErrInvalidParticipants,
		},
		{
			"shared with one participant",
			func(s *Subscription) { s.Shared = true; s.TotalAmount = &total; s.Participants = &one },
			ErrInvalidParticipants,
		},
		{
			"shared without total",
			func(s *Subscription) { s.Shared = true; s.Participants = &two },
			ErrMissingTotalAmount,
		},
		{
			"shared valid",
			func(s *Subscription) { s.Shared = true; s.TotalAmount = &total; s.Participants = &two },
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubscription()
			tt.mutate(&sub)
			err := sub.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscriptionValidateNameTooLong(t *testing.T) {
	sub := validSubscription()
	sub.Name = strings.Repeat("x", 121)
	if err := sub.Validate(); err == nil {
		t.Fatal("expected error for overlong name")
	}
}
