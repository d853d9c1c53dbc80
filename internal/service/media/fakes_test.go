package media

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aliskhannn/media-service/internal/model"
	"github.com/aliskhannn/media-service/internal/processor"
)

type memBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   int
	downloads int
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}}
}

func (m *memBlobs) Upload(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.uploads++
	m.objects[key] = append([]byte(nil), body...)

	return nil
}

func (m *memBlobs) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.downloads++

	b, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("download %s: %w", key, model.ErrNotFound)
	}

	return append([]byte(nil), b...), nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)

	return nil
}

func (m *memBlobs) Copy(_ context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.objects[src]
	if !ok {
		return fmt.Errorf("copy %s: %w", src, model.ErrNotFound)
	}
	m.objects[dst] = append([]byte(nil), b...)

	return nil
}

func (m *memBlobs) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[key]
	return ok
}

func (m *memBlobs) counts() (uploads, downloads int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.uploads, m.downloads
}

type memMetadata struct {
	mu      sync.Mutex
	records map[model.Path]model.Metadata
	saves   int
}

func newMemMetadata() *memMetadata {
	return &memMetadata{records: map[model.Path]model.Metadata{}}
}

func (m *memMetadata) GetByPath(_ context.Context, p model.Path) (model.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[p]
	if !ok {
		return model.Metadata{}, fmt.Errorf("get %s: %w", p, model.ErrNotFound)
	}

	return r.Clone(), nil
}

func (m *memMetadata) Save(_ context.Context, r model.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	m.records[r.Path] = r.Clone()

	return nil
}

func (m *memMetadata) Delete(_ context.Context, p model.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[p]; !ok {
		return fmt.Errorf("delete %s: %w", p, model.ErrNotFound)
	}
	delete(m.records, p)

	return nil
}

// countingObserver counts pipeline step runs and cache lookups.
type countingObserver struct {
	mu     sync.Mutex
	steps  map[string]int
	hits   int
	misses int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{steps: map[string]int{}}
}

func (o *countingObserver) ObserveStep(step string, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps[step]++
}

func (o *countingObserver) stepRuns(step string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.steps[step]
}

func (o *countingObserver) CacheHit() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hits++
}

func (o *countingObserver) CacheMiss() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.misses++
}

type failingColorizer struct{}

func (failingColorizer) Colorize(context.Context, processor.ColorizeRequest) ([]byte, error) {
	return nil, fmt.Errorf("colorize: service is not configured: %w", model.ErrUpstream)
}
