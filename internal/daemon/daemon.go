package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/logging"
	"outreach/internal/orchestrator"
	"outreach/internal/queue"
)

// Daemon owns the orchestrator lifecycle and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *queue.Store
	orch   *orchestrator.Orchestrator

	lockPath string
	lock     *flock.Flock

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	runErr  error
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Orchestrator orchestrator.StatusSummary
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon around an already built orchestrator.
func New(cfg *config.Config, store *queue.Store, logger *zap.Logger, orch *orchestrator.Orchestrator) (*Daemon, error) {
	if cfg == nil || store == nil || orch == nil {
		return nil, errors.New("daemon requires config, store, and orchestrator")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		orch:     orch,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the orchestrator loop.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another outreachd instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done
	d.runErr = nil
	d.running.Store(true)

	go func() {
		defer close(done)
		if err := d.orch.Run(runCtx); err != nil {
			d.logger.Error("orchestrator stopped with error",
				zap.Error(err),
				logging.Event("orchestrator_failed"),
				logging.ErrorKind(err),
			)
			d.mu.Lock()
			d.runErr = err
			d.mu.Unlock()
		}
	}()

	d.logger.Info("outreach daemon started",
		logging.Event("daemon_start"),
		zap.String("lock", d.lockPath),
		zap.String("database", d.store.Path()),
	)
	return nil
}

// Done is closed when the orchestrator loop exits. It is nil before Start.
func (d *Daemon) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Err returns the error the orchestrator loop exited with, if any.
func (d *Daemon) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runErr
}

// Stop cancels the orchestrator, waits for it to drain, and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running.Load() {
		d.mu.Unlock()
		return
	}
	cancel, done := d.cancel, d.done
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			zap.Error(err),
			logging.Event("daemon_unlock_failed"),
			logging.Hint("remove the lock file if no outreachd process is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("outreach daemon stopped", logging.Event("daemon_stop"))
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Orchestrator: d.orch.Status(ctx),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
