package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/media-service/internal/model"
)

const defaultSweepLimit = 100

// metadataStore lists and rewrites records holding stale derivatives.
type metadataStore interface {
	ListStale(ctx context.Context, before time.Time, limit int) ([]model.Metadata, error)
	Save(ctx context.Context, m model.Metadata) error
}

// blobDeleter removes derived blobs from cache storage.
type blobDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Service sweeps derived media out of cache storage.
type Service struct {
	metadata metadataStore
	cache    blobDeleter
	limit    int
}

// NewService creates a new Service handling at most limit records per sweep.
func NewService(metadata metadataStore, cache blobDeleter, limit int) *Service {
	if limit <= 0 {
		limit = defaultSweepLimit
	}

	return &Service{metadata: metadata, cache: cache, limit: limit}
}

// Kind returns the task kind this service executes.
func (s *Service) Kind() model.TaskKind { return model.TaskKindClearCache }

// Execute runs a clear-cache task.
func (s *Service) Execute(ctx context.Context, task model.Task) error {
	details := task.Details.ClearCache
	if details == nil {
		return fmt.Errorf("clear cache: task %s has no details: %w", task.ID, model.ErrInvalidArgument)
	}

	_, err := s.ClearCache(ctx, details.BeforeDate)

	return err
}

// ClearCache deletes derivatives created before the cutoff and prunes them
// from their parents' metadata, one page of stale records at a time.
// Originals are never touched. Records that fail are skipped on later pages
// so they cannot hold back the rest of the sweep. It returns the number of
// derivatives removed.
func (s *Service) ClearCache(ctx context.Context, before time.Time) (int, error) {
	var (
		removed  int
		pages    int
		firstErr error
		seen     = make(map[model.Path]struct{})
	)

	for {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		// Records already handled may still be listed, so widen the page by
		// their count to always reach limit unseen ones.
		records, err := s.metadata.ListStale(ctx, before, s.limit+len(seen))
		if err != nil {
			return removed, fmt.Errorf("clear cache: failed to list stale metadata: %w", err)
		}

		var fresh int
		for _, m := range records {
			if _, ok := seen[m.Path]; ok {
				continue
			}
			seen[m.Path] = struct{}{}
			fresh++

			n, err := s.prune(ctx, &m, before)
			removed += n

			if err != nil {
				zlog.Logger.Warn().Err(err).Str("path", m.Path.String()).Msg("cache sweep skipped record")
				if firstErr == nil {
					firstErr = err
				}
			}
		}

		if fresh == 0 {
			break
		}
		pages++
	}

	zlog.Logger.Info().
		Time("before", before).
		Int("pages", pages).
		Int("records", len(seen)).
		Int("removed", removed).
		Msg("cache sweep finished")

	return removed, firstErr
}

// prune removes the stale derivatives of m. Entries whose blob could not be
// deleted stay, so metadata never loses track of a live blob.
func (s *Service) prune(ctx context.Context, m *model.Metadata, before time.Time) (int, error) {
	var (
		kept    []model.Metadata
		removed int
		errs    []error
	)

	for _, d := range m.DerivedMedias {
		if !d.CreatedAt.Before(before) {
			kept = append(kept, d)
			continue
		}

		if err := s.cache.Delete(ctx, d.Path.Key()); err != nil && !errors.Is(err, model.ErrNotFound) {
			errs = append(errs, fmt.Errorf("clear cache: failed to delete %s: %w", d.Path, err))
			kept = append(kept, d)
			continue
		}

		removed++
	}

	if removed == 0 {
		return 0, errors.Join(errs...)
	}

	if kept == nil {
		kept = []model.Metadata{}
	}

	m.DerivedMedias = kept
	m.Touch()

	if err := s.metadata.Save(ctx, *m); err != nil {
		errs = append(errs, fmt.Errorf("clear cache: failed to save metadata for %s: %w", m.Path, err))
	}

	return removed, errors.Join(errs...)
}
