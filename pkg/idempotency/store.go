// Package idempotency tracks which order ids have already had their effects
// applied, with time-bounded retention.
package idempotency

import (
	"context"
	"time"
)

// DefaultRetention is how long a processed order id stays visible. A
// duplicate arriving after expiry is reprocessed; the window is a
// best-effort optimization, not a cross-system exactly-once guarantee.
const DefaultRetention = 10 * time.Minute

// Store records processed order ids. Implementations must be safe under
// concurrent check-then-mark from multiple consumers; while a record is live
// a duplicate check never returns false, and a check never returns true for
// an order that was not marked.
type Store interface {
	// IsProcessed reports whether a non-expired record exists for orderID.
	IsProcessed(ctx context.Context, orderID string) (bool, error)
	// MarkProcessed inserts or refreshes the record for orderID and sweeps
	// expired entries as a side effect.
	MarkProcessed(ctx context.Context, orderID string) error
	Close(ctx context.Context) error
}
