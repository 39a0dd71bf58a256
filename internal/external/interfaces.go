// Package external provides the anti-corruption layer between Accord domain
// logic and third-party vendor APIs. Outbound HTTP calls to non-AWS vendors
// route through the BaseClient, which enforces circuit breaking, retries with
// backoff, trace propagation, and error mapping. AWS SDK clients carry their
// own retry stack and are used directly.
package external

import (
	"context"

	"accord/internal/types"
)

// EmailProvider transmits a pre-rendered email and returns the provider's
// message id.
type EmailProvider interface {
	Send(ctx context.Context, input types.SendInput) (string, error)
}

// PushProvider transmits a batch of push messages and returns one receipt
// per message, index-aligned with the input.
type PushProvider interface {
	SendBatch(ctx context.Context, messages []types.PushMessage) ([]types.PushReceipt, error)
}

// PriceCatalog reads the payment provider's regional price listing for a
// product.
type PriceCatalog interface {
	ListPrices(ctx context.Context, productID string) ([]*types.RegionalPrice, error)
}

// MetricsPublisher records per-run job counters to the telemetry backend.
type MetricsPublisher interface {
	PublishRunMetrics(ctx context.Context, job string, queued, skipped, errors int)
}
