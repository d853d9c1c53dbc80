package namedtransform

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/media-service/internal/model"
)

func newTestRepository(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisRepository(client), mr
}

func TestRedisRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t)

	require.NoError(t, repo.Save(ctx, model.NamedTransformation{Name: "thumb", Transformations: "c_scale:w_100,h_100"}))
	require.NoError(t, repo.Save(ctx, model.NamedTransformation{Name: "bw", Transformations: "c_grayscale"}))

	got, err := repo.Get(ctx, "thumb")
	require.NoError(t, err)
	assert.Equal(t, "c_scale:w_100,h_100", got.Transformations)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "bw", all[0].Name)

	require.NoError(t, repo.Delete(ctx, "thumb"))

	_, err = repo.Get(ctx, "thumb")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "thumb"), model.ErrNotFound)
}

func TestCached_ServesFromMemoryAndInvalidates(t *testing.T) {
	ctx := context.Background()
	repo, mr := newTestRepository(t)

	cached, err := NewCached(repo, 8)
	require.NoError(t, err)

	require.NoError(t, cached.Save(ctx, model.NamedTransformation{Name: "thumb", Transformations: "c_grayscale"}))

	_, err = cached.Get(ctx, "thumb")
	require.NoError(t, err)

	// A write behind the cache's back is not seen until invalidation.
	mr.HSet(hashKey, "thumb", "c_scale:w_1,h_1")

	got, err := cached.Get(ctx, "thumb")
	require.NoError(t, err)
	assert.Equal(t, "c_grayscale", got.Transformations)

	require.NoError(t, cached.Save(ctx, model.NamedTransformation{Name: "thumb", Transformations: "c_scale:w_2,h_2"}))

	got, err = cached.Get(ctx, "thumb")
	require.NoError(t, err)
	assert.Equal(t, "c_scale:w_2,h_2", got.Transformations)

	require.NoError(t, cached.Delete(ctx, "thumb"))

	_, err = cached.Get(ctx, "thumb")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
