package main

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"outreach/internal/testsupport"
)

func TestBuildDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d, err := buildDaemon(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("buildDaemon: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("daemon should not run before Start")
	}
	if status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("database path = %q, want %q", status.DatabasePath, cfg.DatabasePath())
	}
	if status.Orchestrator.MaxConcurrency != cfg.Orchestrator.MaxConcurrency {
		t.Fatalf("max concurrency = %d, want %d", status.Orchestrator.MaxConcurrency, cfg.Orchestrator.MaxConcurrency)
	}
}

func TestRunExitsZeroOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() { done <- run(ctx, cfg, zap.NewNop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("exit code = %d, want 0", code)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRunFailsWhenLockHeld(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	holder, err := buildDaemon(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("buildDaemon: %v", err)
	}
	t.Cleanup(func() { _ = holder.Close() })
	if err := holder.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if code := run(context.Background(), cfg, zap.NewNop()); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}
