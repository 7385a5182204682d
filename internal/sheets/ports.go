package sheets

import (
	"context"

	"subtrack/internal/core"
)

// Ports for outbound adapters.
type (
	// SubscriptionExporter writes a subscription snapshot to the backup
	// spreadsheet and returns a reference to the written row.
	SubscriptionExporter interface {
		Export(ctx context.Context, s core.Subscription) (rowRef string, err error)
	}
)
