package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/media-service/internal/model"
	"github.com/aliskhannn/media-service/internal/pipeline"
	"github.com/aliskhannn/media-service/internal/processor"
	"github.com/aliskhannn/media-service/internal/transform"
)

const defaultMaxParallelChains = 4

// blobStore defines the interface for storing blobs by object key
// (e.g., MinIO bucket or local filesystem).
type blobStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Copy(ctx context.Context, src, dst string) error
}

// metadataStore defines the interface for persisting metadata records.
type metadataStore interface {
	GetByPath(ctx context.Context, p model.Path) (model.Metadata, error)
	Save(ctx context.Context, m model.Metadata) error
	Delete(ctx context.Context, p model.Path) error
}

// stepFactory builds the pipeline steps for originals and derivatives.
type stepFactory interface {
	NormalizationSteps() []processor.Step
	DerivationSteps(chain transform.Chain) ([]processor.Step, error)
}

// cacheObserver is told whether derived media came from cache.
type cacheObserver interface {
	CacheHit()
	CacheMiss()
}

type noopObserver struct{}

func (noopObserver) CacheHit()  {}
func (noopObserver) CacheMiss() {}

// Service orchestrates media operations over file storage (originals),
// cache storage (derivatives) and metadata storage (lineage).
type Service struct {
	files    blobStore
	cache    blobStore
	metadata metadataStore
	factory  stepFactory
	executor *pipeline.Executor[processor.Attributes]
	observer cacheObserver

	abortOnChainFailure bool
	maxParallelChains   int
}

// Option configures a Service.
type Option func(*Service)

// WithObserver reports cache hits and misses to o.
func WithObserver(o cacheObserver) Option {
	return func(s *Service) { s.observer = o }
}

// WithAbortOnChainFailure makes Upload fail as a whole when one chain fails
// instead of skipping that chain.
func WithAbortOnChainFailure(abort bool) Option {
	return func(s *Service) { s.abortOnChainFailure = abort }
}

// WithMaxParallelChains bounds how many chains of one upload run at once.
func WithMaxParallelChains(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxParallelChains = n
		}
	}
}

// NewService creates a new Service.
func NewService(
	files, cache blobStore,
	metadata metadataStore,
	factory stepFactory,
	executor *pipeline.Executor[processor.Attributes],
	opts ...Option,
) *Service {
	s := &Service{
		files:             files,
		cache:             cache,
		metadata:          metadata,
		factory:           factory,
		executor:          executor,
		observer:          noopObserver{},
		maxParallelChains: defaultMaxParallelChains,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Read returns the metadata stored for p.
func (s *Service) Read(ctx context.Context, p model.Path) (model.Metadata, error) {
	m, err := s.metadata.GetByPath(ctx, p)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("read: failed to get metadata: %w", err)
	}

	return m, nil
}

// FailedChain describes a chain whose derivative could not be produced.
type FailedChain struct {
	Transformation string `json:"transformation"`
	Error          string `json:"error"`
}

// UploadResult is the stored original with its derivatives and the chains
// that were skipped.
type UploadResult struct {
	Metadata     model.Metadata `json:"metadata"`
	FailedChains []FailedChain  `json:"failed_chains"`
}

// Upload normalizes body, stores it as a new original next to p and derives
// one cached variant per chain. Chains run concurrently; the parent metadata
// is written once after all of them finished.
func (s *Service) Upload(ctx context.Context, p model.Path, chains []transform.Chain, body []byte) (UploadResult, error) {
	pc := processor.NewContext(model.NewMediaHandle(body, model.NewMetadata(p)), transform.Chain{}, p)

	pl := pipeline.New(s.factory.NormalizationSteps()...).Add(s.sink("store_original", s.files))

	out, err := s.executor.Execute(ctx, pl, pc)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: failed to store original: %w", err)
	}

	group := model.NewMediaGroupHandle(out.Attributes.Media)

	if err := s.metadata.Save(ctx, group.Media.Metadata); err != nil {
		return UploadResult{}, fmt.Errorf("upload: failed to save metadata: %w", err)
	}

	derived, failed, err := s.deriveAll(ctx, group.Media, chains)
	if err != nil {
		return UploadResult{}, err
	}

	for _, d := range derived {
		group.AddDerivedMedia(d)
	}

	if len(derived) > 0 {
		group.Media.Metadata.Touch()

		if err := s.metadata.Save(ctx, group.Media.Metadata); err != nil {
			return UploadResult{}, fmt.Errorf("upload: failed to save metadata: %w", err)
		}
	}

	zlog.Logger.Info().
		Str("path", group.Media.Metadata.Path.String()).
		Int("derived", len(derived)).
		Int("failed", len(failed)).
		Msg("media uploaded")

	return UploadResult{Metadata: group.Media.Metadata, FailedChains: failed}, nil
}

// deriveAll runs every chain against original. Results keep the order of chains.
func (s *Service) deriveAll(ctx context.Context, original model.MediaHandle, chains []transform.Chain) ([]model.MediaHandle, []FailedChain, error) {
	results := make([]*model.MediaHandle, len(chains))
	errs := make([]error, len(chains))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallelChains)

	for i, chain := range chains {
		g.Go(func() error {
			d, err := s.derive(gctx, original, chain)
			if err != nil {
				if s.abortOnChainFailure {
					return fmt.Errorf("upload: chain %s: %w: %w", chain, model.ErrPartialFailure, err)
				}

				errs[i] = err
				return nil
			}

			results[i] = &d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		derived []model.MediaHandle
		failed  []FailedChain
	)

	for i, chain := range chains {
		if errs[i] != nil {
			zlog.Logger.Err(errs[i]).Str("transformation", chain.String()).Msg("skipping failed transformation")
			failed = append(failed, FailedChain{Transformation: chain.String(), Error: errs[i].Error()})
			continue
		}

		derived = append(derived, *results[i])
	}

	return derived, failed, nil
}

// derive computes the variant of original for chain and writes it to cache
// storage.
func (s *Service) derive(ctx context.Context, original model.MediaHandle, chain transform.Chain) (model.MediaHandle, error) {
	steps, err := s.factory.DerivationSteps(chain)
	if err != nil {
		return model.MediaHandle{}, err
	}

	meta := model.NewMetadata(original.Metadata.Path)
	meta.ContentType = original.Metadata.ContentType

	pc := processor.NewContext(model.NewMediaHandle(original.Body, meta), chain, original.Metadata.Path)
	pl := pipeline.New(steps...).Add(s.sink("store_derived", s.cache))

	out, err := s.executor.Execute(ctx, pl, pc)
	if err != nil {
		return model.MediaHandle{}, err
	}

	return out.Attributes.Media, nil
}

// sink returns a step writing the handle to store under its metadata path.
func (s *Service) sink(name string, store blobStore) processor.Step {
	return pipeline.NewStepFunc(name, func(ctx context.Context, pc processor.Context) (processor.Context, error) {
		media := pc.Attributes.Media

		if err := store.Upload(ctx, media.Metadata.Path.Key(), media.Body, media.Metadata.ContentType); err != nil {
			return pc, err
		}

		return pc, nil
	})
}

// Download returns the bytes of p, transformed by chain when it is not empty.
// Derivatives are served from cache storage when present; otherwise they are
// computed from the original, written through to the cache and recorded in
// the original's metadata.
func (s *Service) Download(ctx context.Context, p model.Path, chain transform.Chain) ([]byte, error) {
	if chain.IsEmpty() {
		body, err := s.files.Download(ctx, p.Key())
		if err != nil {
			return nil, fmt.Errorf("download: %w", err)
		}

		return body, nil
	}

	derivedPath := model.DerivedPath(p, chain.PathSuffix())

	body, err := s.cache.Download(ctx, derivedPath.Key())
	if err == nil {
		s.observer.CacheHit()
		return body, nil
	}

	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("download: failed to read cache: %w", err)
	}

	s.observer.CacheMiss()

	meta, err := s.metadata.GetByPath(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("download: failed to get metadata: %w", err)
	}

	original, err := s.files.Download(ctx, p.Key())
	if err != nil {
		return nil, fmt.Errorf("download: failed to read original: %w", err)
	}

	derived, err := s.derive(ctx, model.MediaHandle{Body: original, Metadata: meta}, chain)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	meta.AppendDerivedMedia(derived.Metadata)
	meta.Touch()

	if err := s.metadata.Save(ctx, meta); err != nil {
		return nil, fmt.Errorf("download: failed to save metadata: %w", err)
	}

	return derived.Body, nil
}

// Move relocates the original at src and its derivatives to dst and stores
// the rewritten metadata under dst. The record under src is kept; Delete
// removes it.
func (s *Service) Move(ctx context.Context, src, dst model.Path) (model.Metadata, error) {
	return s.relocate(ctx, src, dst, true)
}

// Copy duplicates the original at src and its derivatives to dst.
func (s *Service) Copy(ctx context.Context, src, dst model.Path) (model.Metadata, error) {
	return s.relocate(ctx, src, dst, false)
}

func (s *Service) relocate(ctx context.Context, src, dst model.Path, removeSource bool) (model.Metadata, error) {
	op := "copy"
	if removeSource {
		op = "move"
	}

	if src == dst {
		return model.Metadata{}, fmt.Errorf("%s: source and destination are the same: %w", op, model.ErrInvalidArgument)
	}

	meta, err := s.metadata.GetByPath(ctx, src)
	if err != nil {
		return model.Metadata{}, fmt.Errorf("%s: failed to get metadata: %w", op, err)
	}

	moved := meta.Clone()
	moved.Path = dst
	moved.DerivedMedias = moved.DerivedMedias[:0]

	for _, d := range meta.DerivedMedias {
		if d.Transformation == "" {
			zlog.Logger.Warn().Str("path", d.Path.String()).Msg("derived media without transformation, not relocated")
			continue
		}

		target := d.Clone()
		target.Path = model.DerivedPath(dst, transform.EscapeValue(d.Transformation))

		if err := s.transfer(ctx, s.cache, d.Path, target.Path, removeSource); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				// Already swept; the entry goes away with it.
				continue
			}

			return model.Metadata{}, fmt.Errorf("%s: failed to relocate derived media: %w", op, err)
		}

		moved.AppendDerivedMedia(target)
	}

	if err := s.transfer(ctx, s.files, src, dst, removeSource); err != nil {
		return model.Metadata{}, fmt.Errorf("%s: failed to relocate original: %w", op, err)
	}

	moved.Touch()

	if err := s.metadata.Save(ctx, moved); err != nil {
		return model.Metadata{}, fmt.Errorf("%s: failed to save metadata: %w", op, err)
	}

	return moved, nil
}

func (s *Service) transfer(ctx context.Context, store blobStore, src, dst model.Path, removeSource bool) error {
	if err := store.Copy(ctx, src.Key(), dst.Key()); err != nil {
		return err
	}

	if removeSource {
		return store.Delete(ctx, src.Key())
	}

	return nil
}

// Delete removes p from file storage, its derivatives from cache storage and
// its metadata record. Every store is attempted; the first error is returned.
func (s *Service) Delete(ctx context.Context, p model.Path) error {
	var errs []error

	meta, err := s.metadata.GetByPath(ctx, p)
	switch {
	case err == nil:
		for _, d := range meta.DerivedMedias {
			if err := s.cache.Delete(ctx, d.Path.Key()); err != nil {
				errs = append(errs, fmt.Errorf("delete: failed to delete derived media %s: %w", d.Path, err))
			}
		}
	case !errors.Is(err, model.ErrNotFound):
		errs = append(errs, fmt.Errorf("delete: failed to get metadata: %w", err))
	}

	if err := s.files.Delete(ctx, p.Key()); err != nil {
		errs = append(errs, fmt.Errorf("delete: failed to delete original: %w", err))
	}

	if err := s.metadata.Delete(ctx, p); err != nil {
		errs = append(errs, fmt.Errorf("delete: failed to delete metadata: %w", err))
	}

	if len(errs) > 0 {
		return errs[0]
	}

	return nil
}
