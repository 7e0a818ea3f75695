package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"outreach/internal/queue"
)

// StatusSummary is a point-in-time view of the coordinator.
type StatusSummary struct {
	Running        bool
	ActiveCalls    int
	ActiveItems    []int64
	MaxConcurrency int
	Warmup         time.Duration
	LastError      string
	LastTick       time.Time
	Ticks          int64
	QueueStats     map[queue.Status]int
}

// Status returns the latest coordinator information.
func (o *Orchestrator) Status(ctx context.Context) StatusSummary {
	ids := o.activeIDs()
	o.mu.Lock()
	summary := StatusSummary{
		Running:        o.running,
		ActiveCalls:    len(ids),
		ActiveItems:    ids,
		MaxConcurrency: o.maxConcurrency,
		Warmup:         o.warmup,
		LastTick:       o.lastTick,
		Ticks:          o.ticks,
	}
	if o.lastErr != nil {
		summary.LastError = o.lastErr.Error()
	}
	o.mu.Unlock()

	stats, err := o.store.Stats(ctx)
	if err != nil {
		o.logger.Warn("failed to read queue stats", zap.Error(err))
	}
	summary.QueueStats = stats
	return summary
}
