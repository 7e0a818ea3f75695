package queue

import (
	"encoding/json"
	"strings"
	"time"
)

// TaskStatus represents the lifecycle of an ad hoc task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

var allTaskStatuses = []TaskStatus{TaskPending, TaskProcessing, TaskCompleted, TaskFailed}

// AllTaskStatuses returns the ordered list of task statuses.
func AllTaskStatuses() []TaskStatus {
	cp := make([]TaskStatus, len(allTaskStatuses))
	copy(cp, allTaskStatuses)
	return cp
}

// ParseTaskStatus converts a string into a known TaskStatus.
func ParseTaskStatus(value string) (TaskStatus, bool) {
	normalized := TaskStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allTaskStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Task is a one-off skill invocation. TaskType names the skill.
type Task struct {
	ID           int64
	TaskType     string
	Payload      json.RawMessage
	Status       TaskStatus
	WorkerID     string
	Result       json.RawMessage
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
