package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EnqueueTask inserts a pending task for the named skill.
func (s *Store) EnqueueTask(ctx context.Context, taskType string, payload json.RawMessage) (*Task, error) {
	ctx = ensureContext(ctx)
	taskType = strings.TrimSpace(taskType)
	if taskType == "" {
		return nil, errors.New("enqueue task: task type is required")
	}
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	if !json.Valid(payload) {
		return nil, errors.New("enqueue task: payload is not valid JSON")
	}
	timestamp := formatTime(s.now())
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO tasks (task_type, payload, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		taskType, string(payload), TaskPending, timestamp, timestamp,
	)
	if err != nil {
		return nil, storeError("enqueue task", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask fetches a task by identifier.
func (s *Store) GetTask(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get task", err)
	}
	return task, nil
}

// NextPendingTask returns the oldest pending task, or nil when none exists.
func (s *Store) NextPendingTask(ctx context.Context) (*Task, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+taskColumns+` FROM tasks WHERE status = ? ORDER BY created_at, id LIMIT 1`,
		TaskPending,
	)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("next pending task", err)
	}
	return task, nil
}

// ClaimTask marks a pending task as processing by workerID. It returns false
// when the task was no longer pending, meaning another worker won the claim.
func (s *Store) ClaimTask(ctx context.Context, id int64, workerID string) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tasks SET status = ?, worker_id = ?, updated_at = ? WHERE id = ? AND status = ?`,
		TaskProcessing, workerID, formatTime(s.now()), id, TaskPending,
	)
	if err != nil {
		return false, storeError("claim task", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, storeError("claim task", err)
	}
	return affected == 1, nil
}

// CompleteTask records a successful result for a task held by workerID.
func (s *Store) CompleteTask(ctx context.Context, id int64, workerID string, result json.RawMessage) error {
	if len(result) == 0 {
		result = json.RawMessage(`null`)
	}
	return s.finishTask(ctx, "complete task", id, workerID, TaskCompleted, string(result), nil)
}

// FailTask records a failure message for a task held by workerID.
func (s *Store) FailTask(ctx context.Context, id int64, workerID, message string) error {
	return s.finishTask(ctx, "fail task", id, workerID, TaskFailed, nil, message)
}

func (s *Store) finishTask(ctx context.Context, operation string, id int64, workerID string, status TaskStatus, result, message any) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE tasks SET status = ?, result = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status = ? AND worker_id = ?`,
		status, result, message, formatTime(s.now()), id, TaskProcessing, workerID,
	)
	if err != nil {
		return storeError(operation, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return storeError(operation, err)
	}
	if affected != 1 {
		return fmt.Errorf("%s: task %d is not processing under worker %s", operation, id, workerID)
	}
	return nil
}

// ReclaimStaleTasks fails processing tasks whose updated_at is older than
// cutoff. The owning worker stopped before recording an outcome, so the
// task is not rerun; RequeueFailed puts it back explicitly.
func (s *Store) ReclaimStaleTasks(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ensureContext(ctx),
		`UPDATE tasks
        SET status = ?,
            error_message = 'reclaimed: worker ' || COALESCE(worker_id, 'unknown') || ' stopped before recording a result',
            updated_at = ?
        WHERE status = ? AND updated_at < ?`,
		TaskFailed, formatTime(s.now()), TaskProcessing, formatTime(cutoff),
	)
	if err != nil {
		return 0, storeError("reclaim stale tasks", err)
	}
	return res.RowsAffected()
}

// ListTasks returns tasks in the provided statuses (all when none), oldest first.
func (s *Store) ListTasks(ctx context.Context, statuses ...TaskStatus) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, storeError("list tasks", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, storeError("list tasks", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list tasks", err)
	}
	return tasks, nil
}

// RequeueFailed moves failed tasks back to pending. With no ids every failed
// task is requeued.
func (s *Store) RequeueFailed(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE tasks SET status = ?, worker_id = NULL, result = NULL, error_message = NULL, updated_at = ?
        WHERE status = ?`
	args := []any{TaskPending, formatTime(s.now()), TaskFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		args = append(args, idArgs(ids)...)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, storeError("requeue failed tasks", err)
	}
	return res.RowsAffected()
}

// TaskStats returns a count of tasks grouped by status.
func (s *Store) TaskStats(ctx context.Context) (map[TaskStatus]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, storeError("task stats", err)
	}
	defer rows.Close()

	stats := make(map[TaskStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, storeError("task stats", err)
		}
		stats[TaskStatus(status)] = count
	}
	return stats, rows.Err()
}
