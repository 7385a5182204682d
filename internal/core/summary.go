package core

import (
	"sort"
	"time"
)

// CategoryAmount represents a monthly-equivalent amount aggregated by category.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// UpcomingBilling pairs a subscription with its projected next billing date.
type UpcomingBilling struct {
	Subscription Subscription
	DueOn        time.Time
	DaysLeft     int
}

// Summary is the dashboard view over a set of subscriptions. It carries no
// state of its own and is recomputed on every read.
type Summary struct {
	MonthlySpend Money
	YearlySpend  Money
	NextDue      *UpcomingBilling
	Upcoming     []UpcomingBilling
	ByCategory   []CategoryAmount
}

// Summarize projects next billing dates for all subscriptions, sorts them
// ascending (stable, so equal dates keep input order), and totals
// monthly-equivalent spending. Yearly spending is the monthly total times 12.
func Summarize(subs []Subscription, today time.Time) Summary {
	var sum Summary

	byCat := make(map[string]int64)
	catOrder := make([]string, 0)

	for _, s := range subs {
		due := s.NextBilling(today)
		sum.Upcoming = append(sum.Upcoming, UpcomingBilling{
			Subscription: s,
			DueOn:        due,
			DaysLeft:     DaysUntil(due, today),
		})
		sum.MonthlySpend.Cents += s.MonthlyAmount.Cents

		if _, seen := byCat[s.Category]; !seen {
			catOrder = append(catOrder, s.Category)
		}
		byCat[s.Category] += s.MonthlyAmount.Cents
	}

	sort.SliceStable(sum.Upcoming, func(i, j int) bool {
		return sum.Upcoming[i].DueOn.Before(sum.Upcoming[j].DueOn)
	})

	if len(sum.Upcoming) > 0 {
		sum.NextDue = &sum.Upcoming[0]
	}
	sum.YearlySpend = Money{Cents: sum.MonthlySpend.Cents * 12}

	for _, name := range catOrder {
		sum.ByCategory = append(sum.ByCategory, CategoryAmount{
			Name:   name,
			Amount: Money{Cents: byCat[name]},
		})
	}
	sort.SliceStable(sum.ByCategory, func(i, j int) bool {
		return sum.ByCategory[i].Amount.Cents > sum.ByCategory[j].Amount.Cents
	})

	return sum
}
