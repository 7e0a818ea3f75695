package taskqueue_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/goleak"

	"outreach/internal/queue"
	"outreach/internal/services"
	"outreach/internal/skills"
	"outreach/internal/taskqueue"
	"outreach/internal/testsupport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type execFunc func(ctx context.Context, taskType string, payload json.RawMessage) (json.RawMessage, error)

func (f execFunc) Execute(ctx context.Context, taskType string, payload json.RawMessage) (json.RawMessage, error) {
	return f(ctx, taskType, payload)
}

func newWorker(t *testing.T, exec taskqueue.Executor) (*taskqueue.Worker, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	worker := taskqueue.NewWorker(taskqueue.Options{
		Store:        store,
		Executor:     exec,
		ID:           "worker-test",
		PollInterval: 10 * time.Millisecond,
	})
	return worker, store
}

func enqueue(t *testing.T, store *queue.Store, taskType, payload string) *queue.Task {
	t.Helper()
	task, err := store.EnqueueTask(context.Background(), taskType, json.RawMessage(payload))
	if err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}
	return task
}

func getTask(t *testing.T, store *queue.Store, id int64) *queue.Task {
	t.Helper()
	task, err := store.GetTask(context.Background(), id)
	if err != nil || task == nil {
		t.Fatalf("GetTask(%d) failed: %v", id, err)
	}
	return task
}

func TestTickUnknownSkillFailsTask(t *testing.T) {
	worker, store := newWorker(t, skills.New(skills.Deps{}))
	task := enqueue(t, store, "unknown_skill", `{}`)

	worked, err := worker.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if !worked {
		t.Fatal("expected Tick to find the pending task")
	}

	got := getTask(t, store, task.ID)
	if got.Status != queue.TaskFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if !strings.Contains(got.ErrorMessage, "unknown_skill") {
		t.Fatalf("error message should name the skill, got %q", got.ErrorMessage)
	}
	if got.WorkerID != "worker-test" {
		t.Fatalf("unexpected worker id %q", got.WorkerID)
	}
}

func TestTickCompletesWithResult(t *testing.T) {
	worker, store := newWorker(t, execFunc(func(_ context.Context, taskType string, _ json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`{"ok":true}`), nil
	}))
	task := enqueue(t, store, "anything", `{"x":1}`)

	if _, err := worker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	got := getTask(t, store, task.ID)
	if got.Status != queue.TaskCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if string(got.Result) != `{"ok":true}` {
		t.Fatalf("unexpected result %s", got.Result)
	}
}

func TestTickEmptyQueue(t *testing.T) {
	worker, _ := newWorker(t, execFunc(func(context.Context, string, json.RawMessage) (json.RawMessage, error) {
		t.Fatal("executor must not run on an empty queue")
		return nil, nil
	}))
	worked, err := worker.Tick(context.Background())
	if err != nil || worked {
		t.Fatalf("expected idle tick, got worked=%v err=%v", worked, err)
	}
}

func TestTickRecoversPanic(t *testing.T) {
	worker, store := newWorker(t, execFunc(func(context.Context, string, json.RawMessage) (json.RawMessage, error) {
		panic("boom")
	}))
	task := enqueue(t, store, "explode", `{}`)

	if _, err := worker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	got := getTask(t, store, task.ID)
	if got.Status != queue.TaskFailed || !strings.Contains(got.ErrorMessage, "panicked") {
		t.Fatalf("expected panic recorded as failure, got %s %q", got.Status, got.ErrorMessage)
	}
}

func TestTickTruncatesErrorMessage(t *testing.T) {
	long := strings.Repeat("é", 2000)
	worker, store := newWorker(t, execFunc(func(context.Context, string, json.RawMessage) (json.RawMessage, error) {
		return nil, errors.New(long)
	}))
	task := enqueue(t, store, "verbose", `{}`)

	if _, err := worker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	got := getTask(t, store, task.ID)
	if n := utf8.RuneCountInString(got.ErrorMessage); n > services.MaxMessageRunes {
		t.Fatalf("error message has %d runes, want <= %d", n, services.MaxMessageRunes)
	}
}

func TestTickRecordsOutcomeAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker, store := newWorker(t, execFunc(func(ctx context.Context, _ string, _ json.RawMessage) (json.RawMessage, error) {
		cancel()
		return nil, ctx.Err()
	}))
	task := enqueue(t, store, "interrupted", `{}`)

	if _, err := worker.Tick(ctx); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	got := getTask(t, store, task.ID)
	if got.Status != queue.TaskFailed {
		t.Fatalf("expected failed after shutdown, got %s", got.Status)
	}
	if !strings.Contains(got.ErrorMessage, "canceled") {
		t.Fatalf("unexpected error message %q", got.ErrorMessage)
	}
}

func TestTickCompletesAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker, store := newWorker(t, execFunc(func(context.Context, string, json.RawMessage) (json.RawMessage, error) {
		cancel()
		return json.RawMessage(`{"sent":true}`), nil
	}))
	task := enqueue(t, store, "finishing", `{}`)

	if _, err := worker.Tick(ctx); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if got := getTask(t, store, task.ID); got.Status != queue.TaskCompleted {
		t.Fatalf("expected completed after shutdown, got %s", got.Status)
	}
}

func TestRunFailsAbandonedTasks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	task := enqueue(t, store, "orphan", `{}`)
	if won, err := store.ClaimTask(context.Background(), task.ID, "dead-worker"); err != nil || !won {
		t.Fatalf("ClaimTask failed: won=%v err=%v", won, err)
	}
	time.Sleep(5 * time.Millisecond)

	worker := taskqueue.NewWorker(taskqueue.Options{
		Store:        store,
		ID:           "worker-test",
		PollInterval: 5 * time.Millisecond,
		StaleAfter:   time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := worker.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := getTask(t, store, task.ID)
	if got.Status != queue.TaskFailed {
		t.Fatalf("expected abandoned task failed, got %s", got.Status)
	}
	if !strings.Contains(got.ErrorMessage, "dead-worker") {
		t.Fatalf("error message should name the worker, got %q", got.ErrorMessage)
	}
}

type lostClaimStore struct {
	task *queue.Task
}

func (s *lostClaimStore) NextPendingTask(context.Context) (*queue.Task, error) { return s.task, nil }
func (s *lostClaimStore) ClaimTask(context.Context, int64, string) (bool, error) {
	return false, nil
}
func (s *lostClaimStore) CompleteTask(context.Context, int64, string, json.RawMessage) error {
	return errors.New("unexpected complete")
}
func (s *lostClaimStore) FailTask(context.Context, int64, string, string) error {
	return errors.New("unexpected fail")
}
func (s *lostClaimStore) ReclaimStaleTasks(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func TestTickLostClaimSkipsExecution(t *testing.T) {
	worker := taskqueue.NewWorker(taskqueue.Options{
		Store: &lostClaimStore{task: &queue.Task{ID: 1, TaskType: "x"}},
		Executor: execFunc(func(context.Context, string, json.RawMessage) (json.RawMessage, error) {
			t.Fatal("executor must not run after a lost claim")
			return nil, nil
		}),
	})
	worked, err := worker.Tick(context.Background())
	if err != nil || !worked {
		t.Fatalf("expected worked=true err=nil, got %v %v", worked, err)
	}
}

type downStore struct{ *lostClaimStore }

func (downStore) NextPendingTask(context.Context) (*queue.Task, error) {
	return nil, services.Wrap(services.ErrStoreUnavailable, "queue", "next pending task", "", errors.New("database is locked"))
}

func TestRunSurvivesStoreOutage(t *testing.T) {
	worker := taskqueue.NewWorker(taskqueue.Options{
		Store:              downStore{&lostClaimStore{}},
		ErrorRetryInterval: 5 * time.Millisecond,
	})
	if _, err := worker.Tick(context.Background()); !errors.Is(err, services.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := worker.Run(ctx); err != nil {
		t.Fatalf("Run should return nil on cancellation, got %v", err)
	}
}

func TestPoolStressNoDuplicateExecution(t *testing.T) {
	const (
		workers = 6
		tasks   = 120
	)
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	for i := range tasks {
		taskType := "count"
		if i%10 == 0 {
			taskType = "reject"
		}
		enqueue(t, store, taskType, fmt.Sprintf(`{"n":%d}`, i))
	}

	var (
		mu   sync.Mutex
		seen = make(map[int]int)
	)
	exec := execFunc(func(_ context.Context, taskType string, payload json.RawMessage) (json.RawMessage, error) {
		var p struct{ N int }
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		mu.Lock()
		seen[p.N]++
		mu.Unlock()
		if taskType == "reject" {
			return nil, errors.New("rejected")
		}
		return payload, nil
	})

	pool := taskqueue.NewPool(workers, taskqueue.Options{
		Store:        store,
		Executor:     exec,
		PollInterval: 5 * time.Millisecond,
	})
	ids := make(map[string]struct{})
	for _, w := range pool.Workers() {
		ids[w.ID()] = struct{}{}
	}
	if len(ids) != workers {
		t.Fatalf("expected %d distinct worker ids, got %d", workers, len(ids))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pool.Run(ctx) }()

	deadline := time.Now().Add(30 * time.Second)
	for {
		stats, err := store.TaskStats(context.Background())
		if err != nil {
			t.Fatalf("TaskStats failed: %v", err)
		}
		if stats[queue.TaskCompleted]+stats[queue.TaskFailed] == tasks {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("tasks did not finish: %+v", stats)
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("pool returned error: %v", err)
	}

	stats, err := store.TaskStats(context.Background())
	if err != nil {
		t.Fatalf("TaskStats failed: %v", err)
	}
	if stats[queue.TaskCompleted] != tasks-tasks/10 || stats[queue.TaskFailed] != tasks/10 {
		t.Fatalf("unexpected final stats %+v", stats)
	}
	if len(seen) != tasks {
		t.Fatalf("expected %d distinct executions, got %d", tasks, len(seen))
	}
	for n, count := range seen {
		if count != 1 {
			t.Fatalf("task %d executed %d times", n, count)
		}
	}
}
