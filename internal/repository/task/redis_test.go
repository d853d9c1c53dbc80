package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/media-service/internal/model"
)

func newTestRepository(t *testing.T, historySize int) *RedisRepository {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisRepository(client, historySize)
}

func TestRedisRepository_QueueIsFIFO(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, 10)

	first := model.NewClearCacheTask(time.Now().Add(-time.Hour))
	second := model.NewClearCacheTask(time.Now())

	require.NoError(t, repo.Push(ctx, first))
	require.NoError(t, repo.Push(ctx, second))

	got, err := repo.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, model.TaskKindClearCache, got.Kind)
	require.NotNil(t, got.Details.ClearCache)
	assert.True(t, first.Details.ClearCache.BeforeDate.Equal(got.Details.ClearCache.BeforeDate))

	got, err = repo.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = repo.Pop(ctx)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRedisRepository_HistoryIsTrimmed(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, 2)

	var ids []string
	for i := 0; i < 3; i++ {
		task := model.NewClearCacheTask(time.Now())
		if i == 1 {
			task.Fail(errors.New("boom"))
		} else {
			task.Status = model.TaskStatusCompleted
		}

		require.NoError(t, repo.Record(ctx, task))
		ids = append(ids, task.ID.String())
	}

	history, err := repo.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ids[2], history[0].ID.String())
	assert.Equal(t, ids[1], history[1].ID.String())
	require.NotNil(t, history[1].Error)
	assert.Equal(t, "boom", *history[1].Error)
}
