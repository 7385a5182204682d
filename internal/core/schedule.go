package core

import "time"

// clampDay returns day limited to the number of days in year/month.
// A billing anchor of 29-31 lands on the last valid day of shorter months
// instead of rolling into the next month.
func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

// billingDateIn places the anchor day inside the given year/month,
// clamped to the month's length.
func billingDateIn(year int, month time.Month, anchor int) time.Time {
	return time.Date(year, month, clampDay(year, month, anchor), 0, 0, 0, 0, time.UTC)
}

// NextBillingDate projects the next billing date strictly after today.
//
// The projection starts in the month of the start date and advances by the
// frequency's month step. Within each candidate month the billing-day anchor
// is clamped to the last valid day, so an anchor of 31 bills on Feb 28 (29 in
// leap years), Apr 30, and so on. This clamping is deliberate policy rather
// than a side effect of time.Date normalization.
func NextBillingDate(start time.Time, anchor int, freq Frequency, today time.Time) time.Time {
	step, ok := freq.Months()
	if !ok {
		step = 1
	}

	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	year, month := start.Year(), start.Month()
	candidate := billingDateIn(year, month, anchor)
	for !candidate.After(today) {
		// Advance year/month by hand: AddDate would re-normalize the
		// clamped day and drift the anchor.
		m := int(month) + step
		year += (m - 1) / 12
		month = time.Month((m-1)%12 + 1)
		candidate = billingDateIn(year, month, anchor)
	}
	return candidate
}

// DaysUntil returns whole days from today until the given date.
func DaysUntil(date, today time.Time) int {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return int(date.Sub(today).Hours() / 24)
}

// NextBilling returns the subscription's projected next billing date.
func (s Subscription) NextBilling(today time.Time) time.Time {
	return NextBillingDate(s.StartDate, s.BillingDay, s.Frequency, today)
}

// DueWithinReminder reports whether the next billing date falls inside the
// subscription's reminder lead window.
func (s Subscription) DueWithinReminder(today time.Time) bool {
	return DaysUntil(s.NextBilling(today), today) <= s.ReminderDays
}
