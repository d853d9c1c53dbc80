package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/media-service/internal/api/handlers/apikey"
	"github.com/aliskhannn/media-service/internal/api/handlers/media"
	"github.com/aliskhannn/media-service/internal/api/handlers/task"
	"github.com/aliskhannn/media-service/internal/api/handlers/transformation"
	"github.com/aliskhannn/media-service/internal/api/middleware"
	"github.com/aliskhannn/media-service/internal/api/router"
	"github.com/aliskhannn/media-service/internal/api/server"
	"github.com/aliskhannn/media-service/internal/codec/webp"
	"github.com/aliskhannn/media-service/internal/config"
	"github.com/aliskhannn/media-service/internal/infra/kafka/consumer"
	"github.com/aliskhannn/media-service/internal/infra/kafka/producer"
	taskmsg "github.com/aliskhannn/media-service/internal/kafka/handlers/task"
	"github.com/aliskhannn/media-service/internal/metrics"
	"github.com/aliskhannn/media-service/internal/model"
	"github.com/aliskhannn/media-service/internal/pipeline"
	"github.com/aliskhannn/media-service/internal/processor"
	apikeyrepo "github.com/aliskhannn/media-service/internal/repository/apikey"
	metadatarepo "github.com/aliskhannn/media-service/internal/repository/metadata"
	"github.com/aliskhannn/media-service/internal/repository/namedtransform"
	taskrepo "github.com/aliskhannn/media-service/internal/repository/task"
	"github.com/aliskhannn/media-service/internal/scheduler"
	cachesvc "github.com/aliskhannn/media-service/internal/service/cache"
	mediasvc "github.com/aliskhannn/media-service/internal/service/media"
	"github.com/aliskhannn/media-service/internal/storage/file"
	"github.com/aliskhannn/media-service/internal/storage/local"
	"github.com/aliskhannn/media-service/internal/transform"
)

// blobStore is what both the file and the cache storage provide.
type blobStore interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Copy(ctx context.Context, src, dst string) error
}

// metadataStore is what every metadata backend provides.
type metadataStore interface {
	GetByPath(ctx context.Context, p model.Path) (model.Metadata, error)
	ListStale(ctx context.Context, before time.Time, limit int) ([]model.Metadata, error)
	Save(ctx context.Context, m model.Metadata) error
	Delete(ctx context.Context, p model.Path) error
}

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad("./config/config.yml")

	// Retry strategy for Kafka, storage startup and other external calls.
	strategy := cfg.Retry.Strategy()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := retry.Do(func() error { return rdb.Ping(ctx).Err() }, strategy); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	files, cache := mustOpenStorages(ctx, cfg, strategy)
	metadata, db := mustOpenMetadata(cfg, rdb)

	// Metrics shared by the pipeline, the media service and the scheduler.
	observer, err := metrics.New("media_service", prometheus.DefaultRegisterer)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to register metrics")
	}

	// Transformation catalog, named transformations and the step factory.
	registry := transform.NewRegistry()

	named, err := namedtransform.NewCached(namedtransform.NewRedisRepository(rdb), cfg.NamedTransformations.CacheSize)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to create named transformation cache")
	}

	extractor := transform.NewExtractor(registry, named)

	colorize := processor.NewColorizeClient(processor.ColorizeConfig{
		Endpoint:     cfg.Colorize.Endpoint,
		Token:        cfg.Colorize.Token,
		Version:      cfg.Colorize.Version,
		ModelName:    cfg.Colorize.ModelName,
		RenderFactor: cfg.Colorize.RenderFactor,
		PollInterval: cfg.Colorize.PollInterval,
		MaxWait:      cfg.Colorize.MaxWait,
	}, nil)

	factory := processor.NewFactory(files, colorize, webp.New(cfg.Pipeline.WebPQuality))
	executor := pipeline.NewExecutor(pipeline.WithObserver[processor.Attributes](observer))

	mediaService := mediasvc.NewService(files, cache, metadata, factory, executor,
		mediasvc.WithObserver(observer),
		mediasvc.WithAbortOnChainFailure(cfg.Pipeline.AbortOnChainFailure),
		mediasvc.WithMaxParallelChains(cfg.Pipeline.MaxParallelChains),
	)
	cacheService := cachesvc.NewService(metadata, cache, cfg.Cache.SweepLimit)

	// Task scheduler: Redis lists always keep the history; the queue itself
	// is either the same Redis list or a Kafka topic.
	tasks := taskrepo.NewRedisRepository(rdb, cfg.Scheduler.HistorySize)

	var (
		wg sync.WaitGroup
		p  *producer.Producer
		c  *consumer.Consumer
		s  *scheduler.Scheduler
	)

	switch cfg.Scheduler.Backend {
	case "kafka":
		p = producer.New(&cfg.Kafka, strategy)
		s = scheduler.New(p, tasks, observer, cacheService)
		c = consumer.New(&cfg.Kafka, strategy, taskmsg.NewHandler(s))

		wg.Add(1)
		go c.Consume(ctx, &wg)
	default:
		s = scheduler.New(tasks, tasks, observer, cacheService)

		wg.Add(1)
		go s.Run(ctx, tasks, cfg.Scheduler.PollInterval, &wg)
	}

	// HTTP handlers and router.
	keys := apikeyrepo.NewRedisRepository(rdb)
	handlers := router.Handlers{
		Media:           media.NewHandler(mediaService, extractor, cfg.Server.MaxUploadMB),
		Transformations: transformation.NewHandler(registry, named, factory),
		ApiKeys:         apikey.NewHandler(keys),
		Tasks:           task.NewHandler(s),
	}
	r := router.Setup(handlers, middleware.Auth(cfg.Server.MasterKey, keys), middleware.RequireMaster(), nil)

	// Start HTTP server in a separate goroutine.
	srv := server.New(cfg.Server.HTTPPort, r)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	zlog.Logger.Info().Str("addr", srv.Addr).Msg("server started")

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	// Wait for the task consumer or poller to finish.
	wg.Wait()

	if p != nil {
		if err := p.Client.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
		}
	}
	if c != nil {
		if err := c.Client.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
		}
	}

	if db != nil {
		if err := db.Master.Close(); err != nil {
			zlog.Logger.Printf("failed to close master DB: %v", err)
		}
		for i, s := range db.Slaves {
			if err := s.Close(); err != nil {
				zlog.Logger.Printf("failed to close slave DB %d: %v", i, err)
			}
		}
	}

	if err := rdb.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close redis client")
	}
}

// mustOpenStorages connects the original and the derived media stores.
func mustOpenStorages(ctx context.Context, cfg *config.Config, strategy retry.Strategy) (blobStore, blobStore) {
	if cfg.Storage.Backend == "local" {
		files, err := local.NewStorage(filepath.Join(cfg.Storage.BaseDir, cfg.Storage.FilesBucket))
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to open file storage")
		}

		cache, err := local.NewStorage(filepath.Join(cfg.Storage.BaseDir, cfg.Storage.CacheBucket))
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to open cache storage")
		}

		return files, cache
	}

	open := func(bucket string) *file.Storage {
		var st *file.Storage

		err := retry.Do(func() error {
			var err error
			st, err = file.NewStorage(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, bucket, cfg.Storage.UseSSL)
			return err
		}, strategy)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Str("bucket", bucket).Msg("failed to connect to storage")
		}

		return st
	}

	return open(cfg.Storage.FilesBucket), open(cfg.Storage.CacheBucket)
}

// mustOpenMetadata returns the configured metadata store and, for the
// Postgres backend, the database handle to close on shutdown.
func mustOpenMetadata(cfg *config.Config, rdb *redis.Client) (metadataStore, *dbpg.DB) {
	if cfg.Metadata.Backend == "redis" {
		return metadatarepo.NewRedisRepository(rdb), nil
	}

	// Connect to PostgreSQL (master and slaves).
	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
	for _, s := range cfg.Database.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	return metadatarepo.NewPostgresRepository(db), db
}
