package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// Config holds the main configuration for the application.
type Config struct {
	Server               Server               `mapstructure:"server"`
	Database             Database             `mapstructure:"database"`
	Storage              Storage              `mapstructure:"storage"`
	Redis                Redis                `mapstructure:"redis"`
	Kafka                Kafka                `mapstructure:"kafka"`
	Retry                Retry                `mapstructure:"retry"`
	Pipeline             Pipeline             `mapstructure:"pipeline"`
	Colorize             Colorize             `mapstructure:"colorize"`
	Cache                Cache                `mapstructure:"cache"`
	Metadata             Metadata             `mapstructure:"metadata"`
	Scheduler            Scheduler            `mapstructure:"scheduler"`
	NamedTransformations NamedTransformations `mapstructure:"named_transformations"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort    string `mapstructure:"http_port"`     // HTTP port to listen on
	MasterKey   string `mapstructure:"master_key"`    // key allowed to manage API keys
	MaxUploadMB int64  `mapstructure:"max_upload_mb"` // multipart memory limit
}

// Database holds database master and slave configuration.
type Database struct {
	Master DatabaseNode   `mapstructure:"master"`
	Slaves []DatabaseNode `mapstructure:"slaves"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DatabaseNode holds connection parameters for a single database node.
type DatabaseNode struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	SSLMode string `mapstructure:"ssl_mode"`
}

// Storage holds configuration for the blob storage backends.
// Backend is either "minio" or "local".
type Storage struct {
	Backend     string `mapstructure:"backend"`
	Endpoint    string `mapstructure:"endpoint"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	FilesBucket string `mapstructure:"files_bucket"`
	CacheBucket string `mapstructure:"cache_bucket"`
	UseSSL      bool   `mapstructure:"use_ssl"`
	BaseDir     string `mapstructure:"base_dir"` // root for the local backend
}

// Redis holds connection parameters for Redis.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Kafka holds configuration for the Kafka task queue.
type Kafka struct {
	GroupID string   `mapstructure:"group_id"` // Consumer group ID
	Topic   string   `mapstructure:"topic"`    // Kafka topic name
	Brokers []string `mapstructure:"brokers"`  // List of Kafka broker addresses
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff"`  // Backoff multiplier for delays
}

// Pipeline tunes how uploads derive their transformation chains.
type Pipeline struct {
	AbortOnChainFailure bool    `mapstructure:"abort_on_chain_failure"`
	MaxParallelChains   int     `mapstructure:"max_parallel_chains"`
	WebPQuality         float32 `mapstructure:"webp_quality"`
}

// Colorize configures the remote colorization model.
type Colorize struct {
	Endpoint     string        `mapstructure:"endpoint"`
	Token        string        `mapstructure:"token"`
	Version      string        `mapstructure:"version"`
	ModelName    string        `mapstructure:"model_name"`
	RenderFactor int           `mapstructure:"render_factor"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
}

// Cache configures the clear-cache sweep.
type Cache struct {
	SweepLimit int `mapstructure:"sweep_limit"`
}

// Metadata selects the metadata store, "postgres" or "redis".
type Metadata struct {
	Backend string `mapstructure:"backend"`
}

// Scheduler selects the task queue, "kafka" or "redis".
type Scheduler struct {
	Backend      string        `mapstructure:"backend"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	HistorySize  int           `mapstructure:"history_size"`
}

// NamedTransformations configures the named transformation read cache.
type NamedTransformations struct {
	CacheSize int `mapstructure:"cache_size"`
}

// DSN returns the PostgreSQL DSN string for connecting to this database node.
func (n DatabaseNode) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		n.User, n.Pass, n.Host, n.Port, n.Name, n.SSLMode,
	)
}

// Strategy returns the retry policy used for Kafka and other external calls.
func (r Retry) Strategy() retry.Strategy {
	return retry.Strategy{
		Attempts: r.Attempts,
		Delay:    r.Delay,
		Backoff:  r.Backoff,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", "8080")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("storage.backend", "minio")
	v.SetDefault("storage.files_bucket", "files")
	v.SetDefault("storage.cache_bucket", "cache")
	v.SetDefault("storage.base_dir", "./data")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", "500ms")
	v.SetDefault("retry.backoff", 2.0)
	v.SetDefault("pipeline.max_parallel_chains", 4)
	v.SetDefault("pipeline.webp_quality", 75)
	v.SetDefault("colorize.model_name", "artistic")
	v.SetDefault("colorize.render_factor", 35)
	v.SetDefault("colorize.poll_interval", "2s")
	v.SetDefault("colorize.max_wait", "2m")
	v.SetDefault("cache.sweep_limit", 100)
	v.SetDefault("metadata.backend", "postgres")
	v.SetDefault("scheduler.backend", "redis")
	v.SetDefault("scheduler.poll_interval", "5s")
	v.SetDefault("scheduler.history_size", 1000)
	v.SetDefault("named_transformations.cache_size", 256)
}

// mustBindEnv binds critical environment variables to Viper keys.
//
// It panics if any environment variable cannot be bound.
func mustBindEnv(v *viper.Viper) {
	bindings := map[string]string{
		"database.master.host": "DB_HOST",
		"database.master.port": "DB_PORT",
		"database.master.user": "DB_USER",
		"database.master.pass": "DB_PASSWORD",
		"database.master.name": "DB_NAME",
		"server.master_key":    "MASTER_KEY",
		"storage.access_key":   "STORAGE_ACCESS_KEY",
		"storage.secret_key":   "STORAGE_SECRET_KEY",
		"redis.password":       "REDIS_PASSWORD",
		"colorize.token":       "COLORIZE_TOKEN",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			zlog.Logger.Panic().Err(err).Msgf("failed to bind env %s", env)
		}
	}
}

// Load reads the configuration file at path. Missing keys fall back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	mustBindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Server.MasterKey == "" {
		return nil, fmt.Errorf("config: server.master_key is required")
	}

	return &cfg, nil
}

// MustLoad loads the configuration from the specified file path.
// It panics if the configuration file cannot be loaded or unmarshaled.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to load config")
	}

	return cfg
}
