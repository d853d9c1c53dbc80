package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aliskhannn/media-service/internal/model"
)

const (
	keyPrefix = "metadata:"
	// staleIndex is a sorted set of paths scored by the creation time of
	// their oldest derivative, in unix milliseconds.
	staleIndex = "metadata:index:oldest_derived"
)

// RedisRepository stores metadata documents as JSON strings in Redis.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new RedisRepository.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// GetByPath returns the record stored for p.
func (r *RedisRepository) GetByPath(ctx context.Context, p model.Path) (model.Metadata, error) {
	doc, err := r.client.Get(ctx, keyPrefix+p.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Metadata{}, fmt.Errorf("get %s: %w", p, model.ErrNotFound)
		}

		return model.Metadata{}, fmt.Errorf("get: failed to get metadata: %v: %w", err, model.ErrUpstream)
	}

	return decode(doc)
}

// ListStale returns up to limit records whose oldest derivative was created
// before the cutoff, oldest first.
func (r *RedisRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]model.Metadata, error) {
	paths, err := r.client.ZRangeByScore(ctx, staleIndex, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + strconv.FormatInt(before.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list stale: failed to query index: %v: %w", err, model.ErrUpstream)
	}

	if len(paths) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, keyPrefix+p)
	}

	docs, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list stale: failed to get metadata: %v: %w", err, model.ErrUpstream)
	}

	out := make([]model.Metadata, 0, len(docs))
	for _, doc := range docs {
		s, ok := doc.(string)
		if !ok {
			// Deleted between the index read and the fetch.
			continue
		}

		m, err := decode([]byte(s))
		if err != nil {
			return nil, err
		}

		out = append(out, m)
	}

	return out, nil
}

// Save stores m and updates the sweep index in one transaction.
func (r *RedisRepository) Save(ctx context.Context, m model.Metadata) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("save: failed to marshal metadata: %w", err)
	}

	path := m.Path.String()

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyPrefix+path, doc, 0)

		if oldest, ok := m.OldestDerivedAt(); ok {
			pipe.ZAdd(ctx, staleIndex, redis.Z{Score: float64(oldest.UnixMilli()), Member: path})
		} else {
			pipe.ZRem(ctx, staleIndex, path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("save: failed to save metadata: %v: %w", err, model.ErrUpstream)
	}

	return nil
}

// Delete removes the record for p.
func (r *RedisRepository) Delete(ctx context.Context, p model.Path) error {
	var del *redis.IntCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, keyPrefix+p.String())
		pipe.ZRem(ctx, staleIndex, p.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete: failed to delete metadata: %v: %w", err, model.ErrUpstream)
	}

	if del.Val() == 0 {
		return fmt.Errorf("delete %s: %w", p, model.ErrNotFound)
	}

	return nil
}
