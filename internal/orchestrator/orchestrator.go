package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/logging"
	"outreach/internal/queue"
	"outreach/internal/stageexec"
)

// Options wires an Orchestrator.
type Options struct {
	Config *config.Config
	Store  *queue.Store
	Runner stageexec.Runner
	Logger *zap.Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
	// PollInterval overrides the configured tick interval when positive.
	PollInterval time.Duration
}

// Orchestrator is the stage coordinator.
type Orchestrator struct {
	store  *queue.Store
	runner stageexec.Runner
	logger *zap.Logger
	clock  func() time.Time

	stages         map[string]Stage
	order          []Stage
	pollInterval   time.Duration
	retryInterval  time.Duration
	staleTimeout   time.Duration
	warmup         time.Duration
	maxConcurrency int
	subject        string
	body           string

	mu       sync.Mutex
	active   map[int64]*activeCall
	running  bool
	lastErr  error
	lastTick time.Time
	ticks    int64

	wg sync.WaitGroup
}

// New validates opts and builds an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Config == nil {
		return nil, errors.New("orchestrator: config is required")
	}
	if opts.Store == nil {
		return nil, errors.New("orchestrator: store is required")
	}
	if opts.Runner == nil {
		return nil, errors.New("orchestrator: runner is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	cfg := opts.Config
	maxConcurrency := max(cfg.Orchestrator.MaxConcurrency, 1)
	order := BuildStages(cfg.Orchestrator.Warmup(), maxConcurrency)
	stages := make(map[string]Stage, len(order))
	for _, stg := range order {
		stages[stg.Name] = stg
	}
	poll := cfg.Orchestrator.Poll()
	if opts.PollInterval > 0 {
		poll = opts.PollInterval
	}
	return &Orchestrator{
		store:          opts.Store,
		runner:         opts.Runner,
		logger:         logging.NewComponentLogger(opts.Logger, "orchestrator"),
		clock:          clock,
		stages:         stages,
		order:          order,
		pollInterval:   poll,
		retryInterval:  cfg.Orchestrator.ErrorRetry(),
		staleTimeout:   cfg.Orchestrator.Stale(),
		warmup:         cfg.Orchestrator.Warmup(),
		maxConcurrency: maxConcurrency,
		subject:        cfg.Pipeline.OutreachSubject,
		body:           cfg.Pipeline.OutreachBody,
		active:         make(map[int64]*activeCall),
	}, nil
}

// Stages returns the compiled stage table in order.
func (o *Orchestrator) Stages() []Stage {
	out := make([]Stage, len(o.order))
	copy(out, o.order)
	return out
}

// Run ticks until ctx is cancelled, then waits for in-flight calls and
// records their outcomes before returning.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return errors.New("orchestrator already running")
	}
	o.running = true
	o.mu.Unlock()

	o.logger.Info("orchestrator started",
		logging.Event("orchestrator_start"),
		zap.Int("max_concurrency", o.maxConcurrency),
		zap.Duration("warmup", o.warmup),
		zap.Duration("poll_interval", o.pollInterval),
	)

	for ctx.Err() == nil {
		wait := o.pollInterval
		if err := o.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			o.setLastError(err)
			o.logger.Error("orchestrator tick failed",
				zap.Error(err),
				logging.Event("tick_failed"),
				logging.ErrorKind(err),
				logging.Hint("check queue database access"),
			)
			wait = o.retryInterval
		}
		sleep(ctx, wait)
	}

	o.drain()

	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
	o.logger.Info("orchestrator stopped", logging.Event("orchestrator_stop"))
	return nil
}

// drain waits for every in-flight call and reaps it.
func (o *Orchestrator) drain() {
	if n := o.ActiveCalls(); n > 0 {
		o.logger.Info("waiting for in-flight calls", logging.Event("drain_start"), zap.Int("active", n))
	}
	o.wg.Wait()
	o.reap(context.Background())
}

func (o *Orchestrator) now() time.Time {
	return o.clock().UTC()
}

func (o *Orchestrator) setLastError(err error) {
	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
