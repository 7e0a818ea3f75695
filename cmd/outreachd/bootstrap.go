package main

import (
	"context"

	"go.uber.org/zap"

	"outreach/internal/config"
	"outreach/internal/daemon"
	"outreach/internal/logging"
	"outreach/internal/orchestrator"
	"outreach/internal/queue"
	"outreach/internal/stageexec"
)

// buildDaemon opens the store and wires the process runner and orchestrator.
// The returned daemon owns the store.
func buildDaemon(cfg *config.Config, logger *zap.Logger) (*daemon.Daemon, error) {
	store, err := queue.Open(cfg)
	if err != nil {
		return nil, err
	}
	runner, err := stageexec.NewProcessRunner(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	orch, err := orchestrator.New(orchestrator.Options{
		Config: cfg,
		Store:  store,
		Runner: runner,
		Logger: logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	d, err := daemon.New(cfg, store, logger, orch)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return d, nil
}

// run blocks until ctx is cancelled and returns the process exit code. Only
// a signal-driven shutdown exits 0.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) int {
	d, err := buildDaemon(cfg, logger)
	if err != nil {
		logger.Error("outreachd bootstrap failed", zap.Error(err), logging.Event("bootstrap_failed"), logging.ErrorKind(err))
		return 1
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn("close store", zap.Error(err))
		}
	}()

	if err := d.Start(ctx); err != nil {
		logger.Error("outreachd start failed", zap.Error(err), logging.Event("daemon_start_failed"))
		return 1
	}

	select {
	case <-ctx.Done():
		logger.Info("outreachd shutting down", logging.Event("daemon_shutdown"))
		d.Stop()
		return 0
	case <-d.Done():
		d.Stop()
		if err := d.Err(); err != nil {
			return 1
		}
		if ctx.Err() != nil {
			return 0
		}
		return 1
	}
}
