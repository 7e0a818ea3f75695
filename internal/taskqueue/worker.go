package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/logging"
	"outreach/internal/queue"
	"outreach/internal/services"
)

// Store is the subset of *queue.Store a worker needs.
type Store interface {
	NextPendingTask(ctx context.Context) (*queue.Task, error)
	ClaimTask(ctx context.Context, id int64, workerID string) (bool, error)
	CompleteTask(ctx context.Context, id int64, workerID string, result json.RawMessage) error
	FailTask(ctx context.Context, id int64, workerID, message string) error
	ReclaimStaleTasks(ctx context.Context, cutoff time.Time) (int64, error)
}

// Executor runs a skill. *skills.Dispatcher satisfies it.
type Executor interface {
	Execute(ctx context.Context, taskType string, payload json.RawMessage) (json.RawMessage, error)
}

// Options configures a Worker.
type Options struct {
	Store              Store
	Executor           Executor
	ID                 string
	PollInterval       time.Duration
	ErrorRetryInterval time.Duration
	// StaleAfter fails processing tasks idle this long. Zero disables
	// reclaim.
	StaleAfter time.Duration
	Logger     *zap.Logger
}

// OptionsFromConfig fills the intervals from cfg.Tasks.
func OptionsFromConfig(cfg *config.Config, store Store, exec Executor, logger *zap.Logger) Options {
	return Options{
		Store:              store,
		Executor:           exec,
		PollInterval:       cfg.Tasks.Poll(),
		ErrorRetryInterval: cfg.Tasks.ErrorRetry(),
		StaleAfter:         cfg.Tasks.Stale(),
		Logger:             logger,
	}
}

// Worker polls for one task at a time.
type Worker struct {
	id           string
	store        Store
	exec         Executor
	pollInterval time.Duration
	retryWait    time.Duration
	staleAfter   time.Duration
	lastReclaim  time.Time
	logger       *zap.Logger
}

// NewWorker builds a worker. A blank ID gets a generated one.
func NewWorker(opts Options) *Worker {
	id := strings.TrimSpace(opts.ID)
	if id == "" {
		id = NewWorkerID(1)
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = time.Second
	}
	retry := opts.ErrorRetryInterval
	if retry <= 0 {
		retry = 5 * time.Second
	}
	return &Worker{
		id:           id,
		store:        opts.Store,
		exec:         opts.Executor,
		pollInterval: poll,
		retryWait:    retry,
		staleAfter:   opts.StaleAfter,
		logger:       logging.NewComponentLogger(opts.Logger, "taskqueue").With(zap.String(logging.FieldWorkerID, id)),
	}
}

// NewWorkerID returns "<hostname>-<uuid8>-<n>".
func NewWorkerID(n int) string {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%s-%d", host, uuid.NewString()[:8], n)
}

// ID returns the worker identity written to claimed tasks.
func (w *Worker) ID() string { return w.id }

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("task worker started", logging.Event("worker_start"))
	defer w.logger.Info("task worker stopped", logging.Event("worker_stop"))

	for {
		if ctx.Err() != nil {
			return nil
		}
		worked, err := w.Tick(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("task poll failed",
				zap.Error(err),
				logging.Event("task_poll_failed"),
				logging.ErrorKind(err),
				logging.Hint("check queue database access"),
			)
			sleep(ctx, w.retryWait)
		case !worked:
			w.reclaimStale(ctx)
			sleep(ctx, w.pollInterval)
		}
	}
}

// Tick performs one poll. It reports whether a pending task was found,
// whether or not this worker won the claim. Errors are store failures; task
// failures are recorded on the task and never returned.
func (w *Worker) Tick(ctx context.Context) (bool, error) {
	task, err := w.store.NextPendingTask(ctx)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}
	won, err := w.store.ClaimTask(ctx, task.ID, w.id)
	if err != nil {
		return true, err
	}
	if !won {
		w.logger.Debug("task claimed by another worker", logging.Event("task_claim_lost"), zap.Int64(logging.FieldTaskID, task.ID))
		return true, nil
	}

	taskCtx := services.WithWorkerID(services.WithTaskID(ctx, task.ID), w.id)
	logger := logging.WithContext(taskCtx, w.logger).With(zap.String(logging.FieldTaskType, task.TaskType))
	logger.Info("task claimed", logging.Event("task_claimed"))

	started := time.Now()
	result, execErr := w.execute(taskCtx, task)
	// The outcome is written even when shutdown cancelled ctx mid-skill.
	finishCtx := context.WithoutCancel(ctx)
	if execErr != nil {
		message := services.ErrorMessage(execErr)
		logger.Warn("task failed",
			zap.Error(execErr),
			logging.Event("task_failed"),
			logging.ErrorKind(execErr),
			zap.Duration("duration", time.Since(started)),
		)
		return true, w.store.FailTask(finishCtx, task.ID, w.id, message)
	}
	if err := w.store.CompleteTask(finishCtx, task.ID, w.id, result); err != nil {
		return true, err
	}
	logger.Info("task completed", logging.Event("task_completed"), zap.Duration("duration", time.Since(started)))
	return true, nil
}

// reclaimStale fails tasks abandoned in processing by a worker that died.
// It runs at most once per staleAfter.
func (w *Worker) reclaimStale(ctx context.Context) {
	if w.staleAfter <= 0 {
		return
	}
	now := time.Now()
	if !w.lastReclaim.IsZero() && now.Sub(w.lastReclaim) < w.staleAfter {
		return
	}
	w.lastReclaim = now
	n, err := w.store.ReclaimStaleTasks(ctx, now.Add(-w.staleAfter))
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Warn("stale task reclaim failed", zap.Error(err), logging.Event("task_reclaim_failed"), logging.ErrorKind(err))
		}
		return
	}
	if n > 0 {
		w.logger.Warn("failed stale processing tasks",
			logging.Event("task_reclaimed"),
			zap.Int64("count", n),
			logging.Hint("run task retry to requeue them"),
		)
	}
}

func (w *Worker) execute(ctx context.Context, task *queue.Task) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("skill %s panicked: %v", task.TaskType, r)
		}
	}()
	if w.exec == nil {
		return nil, errors.New("no skill executor configured")
	}
	return w.exec.Execute(ctx, task.TaskType, task.Payload)
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
