package core

// NormalizedAmounts is the output of Normalize: the per-period billed
// amount and its 1-month equivalent.
type NormalizedAmounts struct {
	Actual  Money // billed per period, post-split when shared
	Monthly Money // Actual spread across the months in one period
}

// Normalize computes the actual and monthly-equivalent amounts for a billed
// amount. For shared subscriptions the input is the total before the split
// and participants must be >= 2; otherwise participants is ignored.
//
// All divisions round half-up at the cent.
func Normalize(amount Money, freq Frequency, shared bool, participants int) (NormalizedAmounts, error) {
	if err := amount.Validate(); err != nil {
		return NormalizedAmounts{}, err
	}
	months, ok := freq.Months()
	if !ok {
		return NormalizedAmounts{}, ErrInvalidFrequency
	}

	actual := amount.Cents
	if shared {
		if participants < 2 {
			return NormalizedAmounts{}, ErrInvalidParticipants
		}
		actual = divideCents(actual, int64(participants))
	}

	return NormalizedAmounts{
		Actual:  Money{Cents: actual},
		Monthly: Money{Cents: divideCents(actual, int64(months))},
	}, nil
}

// divideCents divides positive cents with half-up rounding.
func divideCents(cents, by int64) int64 {
	return (cents + by/2) / by
}
