// Package ratelimit provides a keyed counter with an expiry window, used to
// cap how often one buyer can issue hold requests.
package ratelimit

import (
	"context"
	"time"
)

// Counter increments the count for a key and returns the new value. The
// first increment of a key starts its window; the key expires (and the count
// resets) once the window elapses.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int, error)
}
