package orchestrator

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"outreach/internal/logging"
	"outreach/internal/queue"
	"outreach/internal/stageexec"
)

type activeCall struct {
	item    *queue.Item
	stage   Stage
	ctx     context.Context
	started time.Time
	done    chan struct{}
	// outcome is written before done is closed.
	outcome stageexec.Outcome
}

func (c *activeCall) finished() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) track(call *activeCall) {
	o.mu.Lock()
	o.active[call.item.ID] = call
	o.mu.Unlock()
}

// ActiveCalls returns the number of tracked calls, including finished ones
// not yet reaped.
func (o *Orchestrator) ActiveCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.active)
}

func (o *Orchestrator) activeIDs() []int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]int64, 0, len(o.active))
	for id := range o.active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// reap records every finished call. A store failure leaves the entry in
// place for the next tick.
func (o *Orchestrator) reap(ctx context.Context) {
	o.mu.Lock()
	finished := make([]*activeCall, 0, len(o.active))
	for _, call := range o.active {
		if call.finished() {
			finished = append(finished, call)
		}
	}
	o.mu.Unlock()

	for _, call := range finished {
		err := o.record(call.ctx, call.stage, call.item, call.outcome, o.now())
		if err != nil {
			o.setLastError(err)
			logging.WithContext(call.ctx, o.logger).Error("record call outcome failed; will retry",
				zap.Error(err),
				logging.Event("reap_failed"),
				logging.ErrorKind(err),
			)
			continue
		}
		o.mu.Lock()
		delete(o.active, call.item.ID)
		o.mu.Unlock()
	}
}
