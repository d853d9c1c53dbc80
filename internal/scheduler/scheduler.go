package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/media-service/internal/model"
)

const defaultPollInterval = time.Second

// queue accepts tasks for later execution.
type queue interface {
	Push(ctx context.Context, t model.Task) error
}

// source hands out queued tasks. Pop returns model.ErrNotFound when empty.
type source interface {
	Pop(ctx context.Context) (model.Task, error)
}

// history keeps finished tasks.
type history interface {
	Record(ctx context.Context, t model.Task) error
	History(ctx context.Context, limit int) ([]model.Task, error)
}

// Executor runs tasks of one kind.
type Executor interface {
	Kind() model.TaskKind
	Execute(ctx context.Context, t model.Task) error
}

// taskObserver is notified when a task finishes.
type taskObserver interface {
	TaskFinished(kind, status string)
}

// Scheduler enqueues background tasks and dispatches them to executors.
type Scheduler struct {
	queue     queue
	history   history
	observer  taskObserver
	executors map[model.TaskKind]Executor
}

// New creates a new Scheduler. observer may be nil.
func New(q queue, h history, observer taskObserver, executors ...Executor) *Scheduler {
	s := &Scheduler{
		queue:     q,
		history:   h,
		observer:  observer,
		executors: make(map[model.TaskKind]Executor, len(executors)),
	}

	for _, e := range executors {
		s.executors[e.Kind()] = e
	}

	return s
}

// Enqueue pushes t to the queue and returns it.
func (s *Scheduler) Enqueue(ctx context.Context, t model.Task) (model.Task, error) {
	if _, ok := s.executors[t.Kind]; !ok {
		return model.Task{}, fmt.Errorf("enqueue: unknown task kind %q: %w", t.Kind, model.ErrInvalidArgument)
	}

	if err := s.queue.Push(ctx, t); err != nil {
		return model.Task{}, fmt.Errorf("enqueue: %w", err)
	}

	zlog.Logger.Info().
		Str("task_id", t.ID.String()).
		Str("kind", string(t.Kind)).
		Msg("task enqueued")

	return t, nil
}

// Execute dispatches t to its executor and records the outcome in history.
// The returned error is the executor's; a failed task is still recorded.
func (s *Scheduler) Execute(ctx context.Context, t model.Task) error {
	var runErr error

	e, ok := s.executors[t.Kind]
	if !ok {
		runErr = fmt.Errorf("execute: unknown task kind %q: %w", t.Kind, model.ErrInvalidArgument)
	} else {
		runErr = e.Execute(ctx, t)
	}

	if runErr != nil {
		t.Fail(runErr)
	} else {
		t.Status = model.TaskStatusCompleted
	}

	if s.observer != nil {
		s.observer.TaskFinished(string(t.Kind), string(t.Status))
	}

	if err := s.history.Record(ctx, t); err != nil {
		zlog.Logger.Err(err).Str("task_id", t.ID.String()).Msg("failed to record task")
	}

	if runErr != nil {
		return fmt.Errorf("execute task %s: %w", t.ID, runErr)
	}

	zlog.Logger.Info().
		Str("task_id", t.ID.String()).
		Str("kind", string(t.Kind)).
		Msg("task completed")

	return nil
}

// History returns up to limit finished tasks, newest first.
func (s *Scheduler) History(ctx context.Context, limit int) ([]model.Task, error) {
	tasks, err := s.history.History(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	return tasks, nil
}

// Run polls src and executes tasks until ctx is canceled. The queue is
// drained before waiting for the next tick.
func (s *Scheduler) Run(ctx context.Context, src source, interval time.Duration, wg *sync.WaitGroup) {
	defer wg.Done()

	if interval <= 0 {
		interval = defaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	zlog.Logger.Info().Dur("interval", interval).Msg("starting task poller")

	for {
		s.drain(ctx, src)

		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("shutdown signal received, stopping task poller")
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) drain(ctx context.Context, src source) {
	for ctx.Err() == nil {
		t, err := src.Pop(ctx)
		if err != nil {
			if !errors.Is(err, model.ErrNotFound) {
				zlog.Logger.Err(err).Msg("failed to pop task")
			}

			return
		}

		if err := s.Execute(ctx, t); err != nil {
			zlog.Logger.Err(err).Str("task_id", t.ID.String()).Msg("task failed")
		}
	}
}
