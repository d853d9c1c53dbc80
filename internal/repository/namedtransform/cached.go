package namedtransform

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aliskhannn/media-service/internal/model"
)

const defaultCacheSize = 256

// store is the backing named transformation storage.
type store interface {
	List(ctx context.Context) ([]model.NamedTransformation, error)
	Get(ctx context.Context, name string) (model.NamedTransformation, error)
	Save(ctx context.Context, nt model.NamedTransformation) error
	Delete(ctx context.Context, name string) error
}

// Cached keeps recently resolved named transformations in memory. Writes go
// through this instance and invalidate the entry; writes made by other
// instances are picked up once the entry is evicted.
type Cached struct {
	store store
	cache *lru.Cache[string, model.NamedTransformation]
}

// NewCached wraps s with an LRU of the given size.
func NewCached(s store, size int) (*Cached, error) {
	if size <= 0 {
		size = defaultCacheSize
	}

	cache, err := lru.New[string, model.NamedTransformation](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create named transformation cache: %w", err)
	}

	return &Cached{store: s, cache: cache}, nil
}

// List always reads the backing store.
func (c *Cached) List(ctx context.Context) ([]model.NamedTransformation, error) {
	return c.store.List(ctx)
}

// Get serves name from memory when possible.
func (c *Cached) Get(ctx context.Context, name string) (model.NamedTransformation, error) {
	if nt, ok := c.cache.Get(name); ok {
		return nt, nil
	}

	nt, err := c.store.Get(ctx, name)
	if err != nil {
		return model.NamedTransformation{}, err
	}

	c.cache.Add(name, nt)

	return nt, nil
}

// Save writes nt and drops any cached copy.
func (c *Cached) Save(ctx context.Context, nt model.NamedTransformation) error {
	defer c.cache.Remove(nt.Name)
	return c.store.Save(ctx, nt)
}

// Delete removes name and drops any cached copy.
func (c *Cached) Delete(ctx context.Context, name string) error {
	defer c.cache.Remove(name)
	return c.store.Delete(ctx, name)
}
