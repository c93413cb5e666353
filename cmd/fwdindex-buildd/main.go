// Command fwdindex-buildd is the build daemon: it consumes build requests
// from Kafka, constructs or rebuilds forward indexes under a Redis build
// lock, records each attempt in the Postgres build ledger, and publishes
// completion/cache-invalidation events for downstream consumers.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/orin-search/forward-index/internal/fwdindex"
	"github.com/orin-search/forward-index/pkg/buildledger"
	"github.com/orin-search/forward-index/pkg/config"
	"github.com/orin-search/forward-index/pkg/health"
	"github.com/orin-search/forward-index/pkg/kafka"
	"github.com/orin-search/forward-index/pkg/logger"
	"github.com/orin-search/forward-index/pkg/metrics"
	"github.com/orin-search/forward-index/pkg/postgres"
	"github.com/orin-search/forward-index/pkg/proto"
	"github.com/orin-search/forward-index/pkg/redis"
	"github.com/orin-search/forward-index/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	indexRoot := flag.String("index-root", "./data/indexes", "root directory under which forward indexes are built")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting forward-index build daemon")

	m := metrics.New()

	var ledger *buildledger.Ledger
	if cfg.Postgres.Host != "" {
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres; continuing without a build ledger", "error", err)
		} else {
			defer pg.Close()
			ledger = buildledger.New(pg)
		}
	}

	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		c, err := redis.NewClient(cfg.Redis)
		if err != nil {
			slog.Error("failed to connect to redis; continuing without a build lock or cache invalidation", "error", err)
		} else {
			defer c.Close()
			cache = c
		}
	}

	indexCompleteProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
	defer indexCompleteProducer.Close()
	cacheInvalidateProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CacheInvalidate)
	defer cacheInvalidateProducer.Close()

	publishBreaker := resilience.NewCircuitBreaker("build-event-publish", resilience.CircuitBreakerConfig{})
	cacheBreaker := resilience.NewCircuitBreaker("build-cache-invalidate", resilience.CircuitBreakerConfig{})

	checker := health.NewChecker()
	if cache != nil {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := cache.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/livez", checker.LiveHandler())
	mux.HandleFunc("/readyz", checker.ReadyHandler())
	shutdownHTTP := metrics.StartServer(cfg.Metrics.Port, mux)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := func(ctx context.Context, key []byte, value []byte) error {
		req, err := kafka.DecodeJSON[proto.BuildRequest](value)
		if err != nil {
			slog.Error("discarding malformed build request", "error", err)
			return nil
		}
		handleBuildRequest(ctx, req, *indexRoot, *configPath, cache, cfg.Redis.LockTTL, ledger, m, indexCompleteProducer, cacheInvalidateProducer, publishBreaker, cacheBreaker)
		return nil
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.BuildRequests, handler)
	slog.Info("build daemon ready, consuming from kafka", "topic", cfg.Kafka.Topics.BuildRequests, "group", cfg.Kafka.ConsumerGroup)

	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownHTTP(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("build daemon stopped")
}

// handleBuildRequest constructs or rebuilds one forward index under a Redis
// build lock (when Redis is configured) so two build requests for the same
// dataset never race each other's chunk/spill directories.
func handleBuildRequest(
	ctx context.Context,
	req proto.BuildRequest,
	indexRoot, defaultConfigPath string,
	cache *redis.Client,
	lockTTL time.Duration,
	ledger *buildledger.Ledger,
	m *metrics.Metrics,
	indexCompleteProducer, cacheInvalidateProducer *kafka.Producer,
	publishBreaker, cacheBreaker *resilience.CircuitBreaker,
) {
	log := logger.WithComponent("build-handler").With("dataset", req.Dataset)

	lockKey := fmt.Sprintf("fwdindex:build-lock:%s", req.Dataset)
	if cache != nil {
		token := randomToken()
		ok, err := cache.TryLock(ctx, lockKey, token, lockTTL)
		if err != nil {
			log.Error("acquiring build lock failed", "error", err)
			return
		}
		if !ok {
			log.Warn("build already in progress for this dataset, skipping")
			return
		}
		defer cache.Unlock(ctx, lockKey, token)
	}

	configPath := req.ConfigPath
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("loading build config failed", "error", err)
		return
	}
	if req.Prefix != "" {
		cfg.Build.Prefix = req.Prefix
	}
	if req.Dataset != "" {
		cfg.Build.Dataset = req.Dataset
	}

	idx, err := fwdindex.Build(ctx, fwdindex.BuildOptions{
		Dir:        filepath.Join(indexRoot, req.Dataset),
		Name:       req.Dataset,
		Config:     cfg,
		ConfigPath: configPath,
		Deps: fwdindex.Deps{
			IndexCompleteProducer:   indexCompleteProducer,
			CacheInvalidateProducer: cacheInvalidateProducer,
			Cache:                   cache,
			Ledger:                  ledger,
			Metrics:                 m,
			PublishBreaker:          publishBreaker,
			CacheBreaker:            cacheBreaker,
		},
	})
	if err != nil {
		log.Error("build failed", "error", err)
		return
	}
	defer idx.Close()

	log.Info("build request complete", "num_docs", idx.NumDocs(), "unique_terms", idx.UniqueTerms())
}

func randomToken() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("fallback-%p", &b)
	}
	return hex.EncodeToString(b[:])
}
