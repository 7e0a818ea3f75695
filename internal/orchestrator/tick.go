package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"outreach/internal/logging"
	"outreach/internal/queue"
	"outreach/internal/services"
	"outreach/internal/stageexec"
	"outreach/internal/textutil"
)

// Tick runs one coordinator iteration: reclaim stale rows, dispatch one
// email or else start one call if a slot is free, then reap finished calls.
// Per-item failures become status writes; only store errors are returned.
func (o *Orchestrator) Tick(ctx context.Context) error {
	now := o.now()
	o.mu.Lock()
	o.lastTick = now
	o.ticks++
	o.mu.Unlock()

	if err := o.reclaimStale(ctx, now); err != nil {
		return err
	}
	handled, err := o.dispatchEmail(ctx, now)
	if err != nil {
		return err
	}
	if !handled {
		if err := o.dispatchCall(ctx, now); err != nil {
			return err
		}
	}
	o.reap(ctx)
	return nil
}

func (o *Orchestrator) reclaimStale(ctx context.Context, now time.Time) error {
	if o.staleTimeout <= 0 {
		return nil
	}
	reclaimed, err := o.store.ReclaimStale(ctx, now.Add(-o.staleTimeout), o.activeIDs()...)
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		o.logger.Warn("reclaimed stale processing items",
			logging.Event("stale_reclaimed"),
			zap.Int64("count", reclaimed),
			logging.Hint("a previous coordinator exited with work in flight"),
		)
	}
	return nil
}

// dispatchEmail handles one ready_to_send item synchronously. It reports
// whether an item was found.
func (o *Orchestrator) dispatchEmail(ctx context.Context, now time.Time) (bool, error) {
	stg := o.stages[StageNewEmail]
	item, err := o.store.NextForStatuses(ctx, stg.Source)
	if err != nil || item == nil {
		return false, err
	}
	itemCtx := o.itemContext(ctx, stg, item)
	logger := logging.WithContext(itemCtx, o.logger)

	if done, err := o.checkEligibility(itemCtx, stg, item); done || err != nil {
		return true, err
	}

	won, err := o.store.Claim(itemCtx, item.ID, stg.Source, stg.Processing)
	if err != nil {
		return true, err
	}
	if !won {
		logger.Debug("email claim lost", logging.Event("claim_lost"))
		return true, nil
	}
	logger.Info("stage started", logging.Event("stage_start"))

	// Once claimed, the run and its bookkeeping finish even during shutdown.
	runCtx := context.WithoutCancel(itemCtx)
	outcome := o.execute(runCtx, o.request(itemCtx, stg, item))
	return true, o.record(runCtx, stg, item, outcome, now)
}

// dispatchCall starts one warmed-up item when a call slot is free.
func (o *Orchestrator) dispatchCall(ctx context.Context, now time.Time) error {
	stg := o.stages[StageCalling]
	if o.ActiveCalls() >= stg.MaxConcurrency {
		return nil
	}
	item, err := o.store.NextWarmedUp(ctx, now.Add(-o.warmup))
	if err != nil || item == nil {
		return err
	}
	if stg.Eligible != nil && !stg.Eligible(item, now) {
		return nil
	}
	itemCtx := o.itemContext(ctx, stg, item)
	logger := logging.WithContext(itemCtx, o.logger)

	if done, err := o.checkEligibility(itemCtx, stg, item); done || err != nil {
		return err
	}

	started := now
	won, err := o.store.Transition(itemCtx, item.ID, stg.Source, stg.Processing, queue.Change{CallStartedAt: &started})
	if err != nil {
		return err
	}
	if !won {
		logger.Debug("call claim lost", logging.Event("claim_lost"))
		return nil
	}
	logger.Info("stage started", logging.Event("stage_start"), zap.Int("active", o.ActiveCalls()+1))

	runCtx := context.WithoutCancel(itemCtx)
	call := &activeCall{
		item:    item,
		stage:   stg,
		ctx:     runCtx,
		started: started,
		done:    make(chan struct{}),
	}
	req := o.request(itemCtx, stg, item)
	o.track(call)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer close(call.done)
		call.outcome = o.execute(runCtx, req)
	}()
	return nil
}

// checkEligibility parks items that cannot be dispatched. It reports true
// when the item was handled without execution.
func (o *Orchestrator) checkEligibility(ctx context.Context, stg Stage, item *queue.Item) (bool, error) {
	var (
		target queue.Status
		reason string
	)
	switch {
	case !item.Reachable():
		target = queue.StatusUnreachable
		reason = "no phone or email on record"
	case stg.Missing(item):
		target = stg.Ineligible
		reason = fmt.Sprintf("missing %s required by %s", stg.Requires, stg.Name)
	default:
		return false, nil
	}
	moved, err := o.store.Transition(ctx, item.ID, stg.Source, target, queue.Change{}.WithNotes(reason))
	if err != nil {
		return true, err
	}
	if moved {
		logging.WithContext(ctx, o.logger).Warn("item not eligible for stage",
			logging.Event("data_ineligible"),
			zap.String(logging.FieldStatus, string(target)),
			zap.String("reason", reason),
		)
	}
	return true, nil
}

func (o *Orchestrator) itemContext(ctx context.Context, stg Stage, item *queue.Item) context.Context {
	ctx = services.WithItemID(ctx, item.ID)
	ctx = services.WithStage(ctx, stg.Name)
	return services.WithRequestID(ctx, uuid.NewString())
}

func (o *Orchestrator) request(ctx context.Context, stg Stage, item *queue.Item) stageexec.Request {
	correlation, _ := services.RequestIDFromContext(ctx)
	req := stageexec.Request{
		Action:        stg.Action,
		ItemID:        item.ID,
		CorrelationID: correlation,
		CompanyName:   item.CompanyName,
		ContactName:   item.ContactName,
		Website:       item.Website,
	}
	switch stg.Action {
	case stageexec.ActionEmail:
		vars := map[string]string{
			"company": item.CompanyName,
			"contact": textutil.Ternary(item.ContactName != "", item.ContactName, "there"),
			"website": item.Website,
		}
		req.Email = item.Email
		req.Subject = textutil.Expand(o.subject, vars)
		req.Body = textutil.Expand(o.body, vars)
	case stageexec.ActionCall:
		req.Phone = item.Phone
	}
	return req
}

// execute runs the executor and converts a runner panic into a crash outcome.
func (o *Orchestrator) execute(ctx context.Context, req stageexec.Request) (out stageexec.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = stageexec.Outcome{
				ExitCode: -1,
				Err:      services.Wrap(services.ErrExecutorCrash, "orchestrator", "execute", fmt.Sprintf("runner panic: %v", r), nil),
			}
		}
	}()
	return o.runner.Run(ctx, req)
}

// record writes the stage outcome. It is the only place item status leaves
// a processing state after a dispatch.
func (o *Orchestrator) record(ctx context.Context, stg Stage, item *queue.Item, outcome stageexec.Outcome, at time.Time) error {
	logger := logging.WithContext(ctx, o.logger)
	if outcome.Succeeded() {
		change := queue.Change{}.WithNotes("")
		res := outcome.Result
		switch stg.Action {
		case stageexec.ActionEmail:
			change.EmailSentAt = &at
			change.Metadata = func(m *queue.Metadata) { m.EmailMessageID = res.MessageID }
		case stageexec.ActionCall:
			change.ContactedAt = &at
			change.Metadata = func(m *queue.Metadata) { m.CallID = res.CallID }
		}
		moved, err := o.store.Transition(ctx, item.ID, stg.Processing, stg.Success, change)
		if err != nil {
			return err
		}
		if !moved {
			logger.Warn("stage result not recorded; item left processing state",
				logging.Event("stage_result_orphaned"),
				logging.Hint("item was reclaimed or edited while the executor ran"),
			)
			return nil
		}
		logger.Info("stage completed",
			logging.Event("stage_complete"),
			zap.String(logging.FieldStatus, string(stg.Success)),
			zap.Duration("duration", outcome.Duration),
		)
		return nil
	}

	note := outcome.Failure()
	moved, err := o.store.Transition(ctx, item.ID, stg.Processing, stg.Failure,
		queue.Change{}.WithNotes(note).WithFailedStage(stg.Source))
	if err != nil {
		return err
	}
	if moved {
		logger.Error("stage failed",
			logging.Event("stage_failed"),
			logging.ErrorKind(outcome.Err),
			zap.Int("exit_code", outcome.ExitCode),
			zap.Bool("killed", outcome.Killed),
			zap.String("notes", note),
			logging.Hint("inspect notes, fix the cause, then run queue retry"),
		)
	}
	return nil
}
