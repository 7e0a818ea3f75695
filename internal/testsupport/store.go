package testsupport

import (
	"context"
	"sync"
	"testing"
	"time"

	"outreach/internal/config"
	"outreach/internal/queue"
)

// MustOpenStore opens the queue store for cfg and closes it at cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...queue.Option) *queue.Store {
	t.Helper()
	store, err := queue.Open(cfg, opts...)
	if err != nil {
		t.Fatalf("queue.Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustInsert inserts an item and fails the test on error.
func MustInsert(t testing.TB, store *queue.Store, in queue.NewItem) *queue.Item {
	t.Helper()
	item, err := store.Insert(context.Background(), in)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return item
}

// MustGet fetches an item and fails the test when it is missing.
func MustGet(t testing.TB, store *queue.Store, id int64) *queue.Item {
	t.Helper()
	item, err := store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if item == nil {
		t.Fatalf("item %d not found", id)
	}
	return item
}

// Clock is a manually advanced time source safe for concurrent use.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock fixed at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t.UTC()
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
