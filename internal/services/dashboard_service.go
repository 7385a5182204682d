package services

import (
	"context"
	"fmt"
	"time"

	"subtrack/internal/core"
)

// DashboardService computes the per-owner spending overview. It holds no
// state: every read projects billing dates and totals afresh.
type DashboardService struct {
	store SubscriptionStore
}

func NewDashboardService(store SubscriptionStore) *DashboardService {
	return &DashboardService{store: store}
}

// Overview loads the owner's subscriptions and summarizes them as of today.
func (d *DashboardService) Overview(ctx context.Context, ownerID string, today time.Time) (core.Summary, error) {
	subs, err := d.store.ListSubscriptions(ctx, ownerID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list subscriptions for overview: %w", err)
	}
	return core.Summarize(subs, today), nil
}
