package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already processed, for a TTL.
// Used to drop duplicate gateway callbacks.
type IdempotencyStore interface {
	// MarkProcessed returns true if the key was newly marked,
	// false if it had already been marked and is not expired.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	// Forget removes a key so the work can be attempted again after a failure.
	Forget(ctx context.Context, key string) error
	Close() error
}
