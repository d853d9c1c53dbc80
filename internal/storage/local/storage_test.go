package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/media-service/internal/model"
)

func TestStorage_UploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewStorage(dir)
	require.NoError(t, err)

	require.NoError(t, s.Upload(ctx, "uploads/a.webp", []byte("data"), "image/webp"))

	_, err = os.Stat(filepath.Join(dir, "uploads", "a.webp"))
	require.NoError(t, err)

	body, err := s.Download(ctx, "uploads/a.webp")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), body)

	require.NoError(t, s.Delete(ctx, "uploads/a.webp"))
	require.NoError(t, s.Delete(ctx, "uploads/a.webp"))

	_, err = s.Download(ctx, "uploads/a.webp")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestStorage_Copy(t *testing.T) {
	ctx := context.Background()

	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Upload(ctx, "a/b.png", []byte("x"), ""))
	require.NoError(t, s.Copy(ctx, "a/b.png", "c/d.png"))

	body, err := s.Download(ctx, "c/d.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), body)

	assert.ErrorIs(t, s.Copy(ctx, "missing.png", "e.png"), model.ErrNotFound)
}

func TestStorage_KeysStayBelowBase(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStorage(filepath.Join(dir, "root"))
	require.NoError(t, err)

	require.NoError(t, s.Upload(context.Background(), "../../escape.txt", []byte("x"), ""))

	_, err = os.Stat(filepath.Join(dir, "root", "escape.txt"))
	assert.NoError(t, err)

	assert.ErrorIs(t, s.Upload(context.Background(), "", nil, ""), model.ErrInvalidArgument)
}

func TestStorage_ConcurrentUploadsToSameKey(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewStorage(dir)
	require.NoError(t, err)

	const writers, rounds = 8, 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for w := range writers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for r := range rounds {
				body := []byte(fmt.Sprintf("writer-%d-round-%d", w, r))
				if err := s.Upload(ctx, "/a/derived.webp", body, "image/webp"); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}
		}()
	}

	wg.Wait()
	assert.Empty(t, errs)

	body, err := s.Download(ctx, "/a/derived.webp")
	require.NoError(t, err)
	assert.Contains(t, string(body), "writer-")

	entries, err := os.ReadDir(filepath.Join(dir, "a"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
