package apikey

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aliskhannn/media-service/internal/model"
)

const (
	byNameKey = "apikeys:by_name"
	byKeyKey  = "apikeys:by_key"
)

// RedisRepository stores API keys in two Redis hashes, name -> key and
// key -> name, so both management and authentication are single lookups.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new RedisRepository.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// Create mints a key for name, replacing any key the name already had.
func (r *RedisRepository) Create(ctx context.Context, name string) (model.ApiKey, error) {
	if strings.TrimSpace(name) == "" {
		return model.ApiKey{}, fmt.Errorf("create: empty api key name: %w", model.ErrInvalidArgument)
	}

	key := model.ApiKey{Name: name, Key: newKey()}

	old, err := r.client.HGet(ctx, byNameKey, name).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return model.ApiKey{}, fmt.Errorf("create: failed to get api key: %v: %w", err, model.ErrUpstream)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if old != "" {
			pipe.HDel(ctx, byKeyKey, old)
		}
		pipe.HSet(ctx, byNameKey, key.Name, key.Key)
		pipe.HSet(ctx, byKeyKey, key.Key, key.Name)
		return nil
	})
	if err != nil {
		return model.ApiKey{}, fmt.Errorf("create: failed to save api key: %v: %w", err, model.ErrUpstream)
	}

	return key, nil
}

// List returns every API key ordered by name.
func (r *RedisRepository) List(ctx context.Context) ([]model.ApiKey, error) {
	all, err := r.client.HGetAll(ctx, byNameKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list: failed to get api keys: %v: %w", err, model.ErrUpstream)
	}

	out := make([]model.ApiKey, 0, len(all))
	for name, key := range all {
		out = append(out, model.ApiKey{Name: name, Key: key})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

// GetByKey returns the API key whose token is key.
func (r *RedisRepository) GetByKey(ctx context.Context, key string) (model.ApiKey, error) {
	name, err := r.client.HGet(ctx, byKeyKey, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ApiKey{}, fmt.Errorf("api key: %w", model.ErrNotFound)
		}

		return model.ApiKey{}, fmt.Errorf("get: failed to get api key: %v: %w", err, model.ErrUpstream)
	}

	return model.ApiKey{Name: name, Key: key}, nil
}

// Delete removes the key called name.
func (r *RedisRepository) Delete(ctx context.Context, name string) error {
	key, err := r.client.HGet(ctx, byNameKey, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("api key %q: %w", name, model.ErrNotFound)
		}

		return fmt.Errorf("delete: failed to get api key: %v: %w", err, model.ErrUpstream)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, byNameKey, name)
		pipe.HDel(ctx, byKeyKey, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete: failed to delete api key: %v: %w", err, model.ErrUpstream)
	}

	return nil
}

func newKey() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
