package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is an in-process Counter for single-node and test use. Stale
// keys are swept lazily on access and by Sweep, which main runs on a ticker.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

type entry struct {
	count     int
	expiresAt time.Time
}

func NewMemory() *MemoryCounter {
	return &MemoryCounter{
		entries: make(map[string]*entry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (c *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.expiresAt.After(now) {
		e = &entry{expiresAt: now.Add(window)}
		c.entries[key] = e
	}
	e.count++
	return e.count, nil
}

// Sweep drops every expired key and returns how many it removed.
func (c *MemoryCounter) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if !e.expiresAt.After(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// StartSweeper sweeps on the given interval until the context is cancelled.
func (c *MemoryCounter) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}
