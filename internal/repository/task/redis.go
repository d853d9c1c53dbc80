package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aliskhannn/media-service/internal/model"
)

const (
	queuedKey    = "internal:queue:tasks:queued"
	completedKey = "internal:queue:tasks:completed"

	defaultHistorySize = 1000
)

// RedisRepository keeps the task queue and the history of finished tasks in
// Redis lists. Tasks are pushed on the left and popped from the right.
type RedisRepository struct {
	client      *redis.Client
	historySize int64
}

// NewRedisRepository creates a new RedisRepository keeping at most
// historySize finished tasks.
func NewRedisRepository(client *redis.Client, historySize int) *RedisRepository {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}

	return &RedisRepository{client: client, historySize: int64(historySize)}
}

// Push appends t to the queue.
func (r *RedisRepository) Push(ctx context.Context, t model.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("push: failed to marshal task: %w", err)
	}

	if err := r.client.LPush(ctx, queuedKey, data).Err(); err != nil {
		return fmt.Errorf("push: failed to push task: %v: %w", err, model.ErrUpstream)
	}

	return nil
}

// Pop removes the oldest queued task. It returns model.ErrNotFound when the
// queue is empty.
func (r *RedisRepository) Pop(ctx context.Context) (model.Task, error) {
	data, err := r.client.RPop(ctx, queuedKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Task{}, fmt.Errorf("pop: queue empty: %w", model.ErrNotFound)
		}

		return model.Task{}, fmt.Errorf("pop: failed to pop task: %v: %w", err, model.ErrUpstream)
	}

	var t model.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return model.Task{}, fmt.Errorf("pop: failed to unmarshal task: %w", err)
	}

	return t, nil
}

// Record stores a finished task at the head of the history.
func (r *RedisRepository) Record(ctx context.Context, t model.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("record: failed to marshal task: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, completedKey, data)
		pipe.LTrim(ctx, completedKey, 0, r.historySize-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record: failed to record task: %v: %w", err, model.ErrUpstream)
	}

	return nil
}

// History returns up to limit finished tasks, newest first.
func (r *RedisRepository) History(ctx context.Context, limit int) ([]model.Task, error) {
	if limit <= 0 {
		return nil, nil
	}

	items, err := r.client.LRange(ctx, completedKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("history: failed to read tasks: %v: %w", err, model.ErrUpstream)
	}

	out := make([]model.Task, 0, len(items))
	for _, item := range items {
		var t model.Task
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			return nil, fmt.Errorf("history: failed to unmarshal task: %w", err)
		}

		out = append(out, t)
	}

	return out, nil
}
