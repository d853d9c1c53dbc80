package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a background task.
type TaskStatus string

const (
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// TaskKind selects the executor a task is dispatched to.
type TaskKind string

const (
	TaskKindClearCache TaskKind = "clear_cache"
)

// Task is a unit of background work carried through the task queue.
type Task struct {
	ID        uuid.UUID   `json:"id"`
	Status    TaskStatus  `json:"status"`
	Kind      TaskKind    `json:"kind"`
	Details   TaskDetails `json:"details"`
	Error     *string     `json:"error"`
	CreatedAt time.Time   `json:"created_at"`
}

// TaskDetails holds the kind-specific payload. Exactly one field is set.
type TaskDetails struct {
	ClearCache *ClearCacheDetails `json:"clear_cache,omitempty"`
}

// ClearCacheDetails asks for derivatives created before BeforeDate to be dropped.
type ClearCacheDetails struct {
	BeforeDate time.Time `json:"before_date"`
}

// NewClearCacheTask returns a queued sweep task with the given cutoff.
func NewClearCacheTask(before time.Time) Task {
	return Task{
		ID:        uuid.New(),
		Status:    TaskStatusQueued,
		Kind:      TaskKindClearCache,
		Details:   TaskDetails{ClearCache: &ClearCacheDetails{BeforeDate: before.UTC()}},
		CreatedAt: time.Now().UTC(),
	}
}

// Fail marks the task failed with err's message.
func (t *Task) Fail(err error) {
	msg := err.Error()
	t.Status = TaskStatusFailed
	t.Error = &msg
}
