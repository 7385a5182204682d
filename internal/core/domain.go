package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Monthly    Frequency = "monthly"
	Quarterly  Frequency = "quarterly"
	HalfYearly Frequency = "halfyearly"
	Yearly     Frequency = "yearly"
)

type (
	// Frequency is the billing cadence of a subscription.
	Frequency string

	Money struct {
		Cents int64
	}

	// Subscription is a recurring charge tracked for a single owner.
	// MonthlyAmount and ActualAmount are derived from the billed amount
	// and must satisfy the normalization invariant (see Normalize).
	Subscription struct {
		ID            string
		OwnerID       string
		Name          string
		MonthlyAmount Money // actual amount normalized to a 1-month period
		ActualAmount  Money // amount billed per period, post-split if shared
		Frequency     Frequency
		StartDate     time.Time
		BillingDay    int // day-of-month anchor, 1-31
		Category      string
		ReminderDays  int
		Shared        bool
		TotalAmount   *Money // pre-split total, set only when shared
		Participants  *int   // set only when shared, >= 2
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidFrequency    = errors.New("invalid billing frequency")
	ErrInvalidBillingDay   = errors.New("billing day must be between 1 and 31")
	ErrInvalidReminderDays = errors.New("reminder days cannot be negative")
	ErrInvalidStartDate    = errors.New("start date is required")
	ErrEmptyName           = errors.New("empty subscription name")
	ErrEmptyCategory       = errors.New("empty category")
	ErrInvalidParticipants = errors.New("shared subscription needs at least 2 participants")
	ErrMissingTotalAmount  = errors.New("shared subscription needs a total amount")
)

// frequencyMonths maps each billing cadence to its length in months.
var frequencyMonths = map[Frequency]int{
	Monthly:    1,
	Quarterly:  3,
	HalfYearly: 6,
	Yearly:     12,
}

// Months returns the number of months covered by one billing period,
// or false for an unknown frequency.
func (f Frequency) Months() (int, bool) {
	m, ok := frequencyMonths[f]
	return m, ok
}

// Valid reports whether f is a supported billing frequency.
func (f Frequency) Valid() bool {
	_, ok := frequencyMonths[f]
	return ok
}

// ParseFrequency normalizes and validates a frequency string.
// It accepts the UI spellings "half-yearly" and "half_yearly" as aliases.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	f := Frequency(s)
	if !f.Valid() {
		return "", ErrInvalidFrequency
	}
	return f, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (s Subscription) Validate() error {
	if len(strings.TrimSpace(s.Name)) == 0 {
		return ErrEmptyName
	}
	if len(s.Name) > 120 {
		return errors.New("subscription name too long (max 120 characters)")
	}
	if err := s.ActualAmount.Validate(); err != nil {
		return err
	}
	if err := s.MonthlyAmount.Validate(); err != nil {
		return err
	}
	if !s.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if s.StartDate.IsZero() {
		return ErrInvalidStartDate
	}
	if s.BillingDay < 1 || s.BillingDay > 31 {
		return ErrInvalidBillingDay
	}
	if strings.TrimSpace(s.Category) == "" {
		return ErrEmptyCategory
	}
	if s.ReminderDays < 0 {
		return ErrInvalidReminderDays
	}
	if s.Shared {
		// Enforced here as well as in the form layer so a malformed write
		// can never persist a shared row without a valid split.
		if s.Participants == nil || *s.Participants < 2 {
			return ErrInvalidParticipants
		}
		if s.TotalAmount == nil {
			return ErrMissingTotalAmount
		}
		if err := s.TotalAmount.Validate(); err != nil {
			return err
		}
	}
	return nil
}
