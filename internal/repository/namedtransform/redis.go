package namedtransform

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/aliskhannn/media-service/internal/model"
)

const hashKey = "named_transformations"

// RedisRepository stores named transformations in a Redis hash mapping the
// name to its chain string.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new RedisRepository.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// List returns every named transformation ordered by name.
func (r *RedisRepository) List(ctx context.Context) ([]model.NamedTransformation, error) {
	all, err := r.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list: failed to get named transformations: %v: %w", err, model.ErrUpstream)
	}

	out := make([]model.NamedTransformation, 0, len(all))
	for name, chain := range all {
		out = append(out, model.NamedTransformation{Name: name, Transformations: chain})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

// Get returns the named transformation called name.
func (r *RedisRepository) Get(ctx context.Context, name string) (model.NamedTransformation, error) {
	chain, err := r.client.HGet(ctx, hashKey, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.NamedTransformation{}, fmt.Errorf("named transformation %q: %w", name, model.ErrNotFound)
		}

		return model.NamedTransformation{}, fmt.Errorf("get: failed to get named transformation: %v: %w", err, model.ErrUpstream)
	}

	return model.NamedTransformation{Name: name, Transformations: chain}, nil
}

// Save creates or replaces nt.
func (r *RedisRepository) Save(ctx context.Context, nt model.NamedTransformation) error {
	if err := r.client.HSet(ctx, hashKey, nt.Name, nt.Transformations).Err(); err != nil {
		return fmt.Errorf("save: failed to save named transformation: %v: %w", err, model.ErrUpstream)
	}

	return nil
}

// Delete removes the named transformation called name.
func (r *RedisRepository) Delete(ctx context.Context, name string) error {
	n, err := r.client.HDel(ctx, hashKey, name).Result()
	if err != nil {
		return fmt.Errorf("delete: failed to delete named transformation: %v: %w", err, model.ErrUpstream)
	}

	if n == 0 {
		return fmt.Errorf("named transformation %q: %w", name, model.ErrNotFound)
	}

	return nil
}
