package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"outreach/internal/queue"
)

func TestTaskEnqueueDrainAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	out, _, err := runCLI(t, env, "task", "enqueue", "score_site", `{"url":"www.example.com"}`)
	if err != nil {
		t.Fatalf("task enqueue: %v", err)
	}
	requireContains(t, out, "Enqueued task 1 (score_site)")

	if _, _, err := runCLI(t, env, "task", "enqueue", "unknown_skill"); err != nil {
		t.Fatalf("task enqueue unknown: %v", err)
	}
	if _, _, err := runCLI(t, env, "task", "enqueue", "score_site", "{not json"); err == nil {
		t.Fatal("expected invalid payload to be rejected")
	}

	out, _, err = runCLI(t, env, "worker", "--drain")
	if err != nil {
		t.Fatalf("worker --drain: %v", err)
	}
	requireContains(t, out, "Processed 2 tasks")

	done, err := env.store.GetTask(ctx, 1)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if done.Status != queue.TaskCompleted {
		t.Fatalf("expected completed, got %s (%s)", done.Status, done.ErrorMessage)
	}
	var report struct {
		Score int `json:"score"`
	}
	if err := json.Unmarshal(done.Result, &report); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if report.Score != 45 {
		t.Fatalf("score = %d, want 45", report.Score)
	}

	failed, err := env.store.GetTask(ctx, 2)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if failed.Status != queue.TaskFailed || !strings.Contains(failed.ErrorMessage, "unknown_skill") {
		t.Fatalf("expected failed unknown_skill task, got %s %q", failed.Status, failed.ErrorMessage)
	}

	out, _, err = runCLI(t, env, "task", "list", "--status", "failed")
	if err != nil {
		t.Fatalf("task list: %v", err)
	}
	requireContains(t, out, "unknown_skill")
	if strings.Contains(out, "score_site") {
		t.Fatalf("status filter leaked completed task: %s", out)
	}

	out, _, err = runCLI(t, env, "task", "show", "1")
	if err != nil {
		t.Fatalf("task show: %v", err)
	}
	requireContains(t, out, `"status": "completed"`)

	out, _, err = runCLI(t, env, "task", "retry")
	if err != nil {
		t.Fatalf("task retry: %v", err)
	}
	requireContains(t, out, "Requeued 1 failed task")
	requeued, err := env.store.GetTask(ctx, 2)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if requeued.Status != queue.TaskPending {
		t.Fatalf("expected pending, got %s", requeued.Status)
	}
}

func TestTaskEnqueueFromStdin(t *testing.T) {
	env := setupCLITestEnv(t)
	cmd := newRootCommand()
	var stdout strings.Builder
	cmd.SetOut(&stdout)
	cmd.SetIn(strings.NewReader(`{"query":"plumbers","location":"Austin"}`))
	cmd.SetArgs([]string{"--config", env.configPath, "task", "enqueue", "lookup_business", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("task enqueue -: %v", err)
	}
	requireContains(t, stdout.String(), "lookup_business")

	task, err := env.store.GetTask(context.Background(), 1)
	if err != nil || task == nil {
		t.Fatalf("get task: %v", err)
	}
	requireContains(t, string(task.Payload), "plumbers")
}
