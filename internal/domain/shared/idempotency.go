package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed identifiers so that repeated
// deliveries (webhook retries, client retries with an Idempotency-Key)
// are detected and suppressed.
type IdempotencyStore interface {
	// MarkProcessed marks an ID as processed with a TTL. It returns true
	// if the ID was newly marked, false if it had been seen before.
	MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether an ID has already been processed
	IsProcessed(ctx context.Context, id string) (bool, error)

	// Close releases the underlying resources
	Close() error
}
