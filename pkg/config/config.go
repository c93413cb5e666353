// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem that the forward-index build pipeline touches (the build
// settings themselves, plus the ambient Postgres/Kafka/Redis/logging/tracing/
// metrics layers shared by the build and stats daemons).
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Build    BuildConfig    `yaml:"build"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Stats    StatsConfig    `yaml:"stats"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AnalyzerConfig describes one stage of the analyzer pipeline. The forward
// index's libsvm fast path requires exactly one entry with Method "libsvm".
type AnalyzerConfig struct {
	Method string `yaml:"method"`
	Ngram  int    `yaml:"ngram"`
}

// BuildConfig holds every key spec.md section 6 names as "configuration
// keys consumed", plus the label-type and num-lines knobs original_source's
// libsvm_corpus.cpp reads.
type BuildConfig struct {
	ForwardIndex    string           `yaml:"forward-index"`
	IndexerRAMBudgetMiB int64        `yaml:"indexer-ram-budget"`
	Uninvert        bool             `yaml:"uninvert"`
	Prefix          string           `yaml:"prefix"`
	Dataset         string           `yaml:"dataset"`
	Corpus          string           `yaml:"corpus"`
	Analyzers       []AnalyzerConfig `yaml:"analyzers"`
	LabelType       string           `yaml:"label-type"`
	NumLines        int64            `yaml:"num-lines"`
	Workers         int              `yaml:"workers"`
}

// RAMBudgetBytes converts the configured MiB budget to bytes, the unit
// spec.md section 5 requires internally.
func (b BuildConfig) RAMBudgetBytes() uint64 {
	budget := b.IndexerRAMBudgetMiB
	if budget <= 0 {
		budget = 1024
	}
	return uint64(budget) * 1024 * 1024
}

// WorkerCount returns the configured tokenizer worker pool size, defaulting
// to the host's CPU count when unset.
func (b BuildConfig) WorkerCount() int {
	if b.Workers > 0 {
		return b.Workers
	}
	return runtime.NumCPU()
}

// PostgresConfig holds PostgreSQL connection parameters for the optional
// build ledger.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	BuildRequests   string `yaml:"buildRequests"`
	IndexComplete   string `yaml:"indexComplete"`
	CacheInvalidate string `yaml:"cacheInvalidate"`
}

// RedisConfig holds Redis connection parameters for the build lock and
// downstream cache invalidation.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	PoolSize  int           `yaml:"poolSize"`
	LockTTL   time.Duration `yaml:"lockTTL"`
}

// StatsConfig controls the read-only RPC/HTTP stats daemon.
type StatsConfig struct {
	RPCPort     int           `yaml:"rpcPort"`
	HTTPPort    int           `yaml:"httpPort"`
	RPCTimeout  time.Duration `yaml:"rpcTimeout"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig is parsed from the "tracing" section. Enabled is not
// consulted anywhere: Build always logs its span tree.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			IndexerRAMBudgetMiB: 1024,
		},
		Postgres: PostgresConfig{
			Port:            5432,
			Database:        "forwardindex",
			User:            "forwardindex",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "fwdindex-build-group",
			Topics: KafkaTopics{
				BuildRequests:   "fwdindex.build-requests",
				IndexComplete:   "fwdindex.index-complete",
				CacheInvalidate: "fwdindex.cache-invalidate",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			LockTTL:  10 * time.Minute,
		},
		Stats: StatsConfig{
			RPCPort:    9400,
			HTTPPort:   9401,
			RPCTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads FI_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FI_FORWARD_INDEX"); v != "" {
		cfg.Build.ForwardIndex = v
	}
	if v := os.Getenv("FI_RAM_BUDGET_MIB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Build.IndexerRAMBudgetMiB = n
		}
	}
	if v := os.Getenv("FI_UNINVERT"); v != "" {
		cfg.Build.Uninvert = v == "true" || v == "1"
	}
	if v := os.Getenv("FI_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("FI_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("FI_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("FI_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("FI_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("FI_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("FI_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("FI_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("FI_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FI_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("FI_STATS_RPC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Stats.RPCPort = port
		}
	}
}
