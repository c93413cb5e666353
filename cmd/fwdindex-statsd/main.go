// Command fwdindex-statsd is the read-only stats daemon: it loads a built
// forward index and serves point queries (stats, postings, liblinear lines)
// over a JSON-over-TCP RPC server, alongside an HTTP server for Prometheus
// scraping and Kubernetes health probes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/orin-search/forward-index/internal/fwdindex"
	"github.com/orin-search/forward-index/pkg/config"
	apperrors "github.com/orin-search/forward-index/pkg/errors"
	"github.com/orin-search/forward-index/pkg/grpc"
	"github.com/orin-search/forward-index/pkg/health"
	"github.com/orin-search/forward-index/pkg/logger"
	"github.com/orin-search/forward-index/pkg/metrics"
	"github.com/orin-search/forward-index/pkg/middleware"
	"github.com/orin-search/forward-index/pkg/proto"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	indexDir := flag.String("index-dir", "", "directory holding the built forward index to serve")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting forward-index stats daemon")

	if *indexDir == "" {
		slog.Error("-index-dir is required")
		os.Exit(1)
	}

	m := metrics.New()

	store := &indexStore{dir: *indexDir}
	if err := store.reload(); err != nil {
		slog.Error("failed to load forward index", "dir", *indexDir, "error", err)
		os.Exit(1)
	}
	defer store.close()

	checker := health.NewChecker()
	checker.Register("forward-index", func(ctx context.Context) health.ComponentHealth {
		if store.get() == nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no index loaded"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	rpc := grpc.NewServer()
	registerHandlers(rpc, store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Stats.RPCPort)
		slog.Info("rpc server listening", "addr", addr)
		if err := rpc.Serve(addr); err != nil {
			slog.Error("rpc server stopped", "error", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/livez", checker.LiveHandler())
	mux.HandleFunc("/readyz", checker.ReadyHandler())

	wrapped := http.NewServeMux()
	var handler http.Handler = mux
	handler = middleware.Timeout(cfg.Stats.RPCTimeout)(handler)
	handler = middleware.Metrics(m)(handler)
	wrapped.Handle("/", handler)
	shutdownHTTP := metrics.StartServer(cfg.Stats.HTTPPort, wrapped)

	slog.Info("stats daemon ready")
	<-ctx.Done()

	slog.Info("stats daemon shutting down")
	rpc.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownHTTP(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
}

// indexStore holds the currently loaded forward index behind a mutex so a
// future hot-reload (triggered by an index-complete event, say) can swap it
// out without a restart.
type indexStore struct {
	dir string
	mu  sync.RWMutex
	idx *fwdindex.Index
}

func (s *indexStore) reload() error {
	idx, err := fwdindex.Load(s.dir)
	if err != nil {
		return err
	}
	s.mu.Lock()
	old := s.idx
	s.idx = idx
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

func (s *indexStore) get() *fwdindex.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx
}

func (s *indexStore) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx != nil {
		s.idx.Close()
	}
}

func registerHandlers(rpc *grpc.Server, store *indexStore) {
	rpc.Register("Stats.Get", func(ctx context.Context, raw json.RawMessage) (any, error) {
		idx := store.get()
		if idx == nil {
			return nil, apperrors.ErrIndexNotValid
		}
		totalPostings, avgDocLength := idx.Stats()
		return proto.StatsResponse{
			NumDocs:       idx.NumDocs(),
			UniqueTerms:   idx.UniqueTerms(),
			TotalPostings: totalPostings,
			AvgDocLength:  avgDocLength,
			Uninverted:    idx.Uninverted(),
		}, nil
	})

	rpc.Register("Stats.SearchPrimary", func(ctx context.Context, raw json.RawMessage) (any, error) {
		idx := store.get()
		if idx == nil {
			return nil, apperrors.ErrIndexNotValid
		}
		var req proto.SearchPrimaryRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		rec, err := idx.SearchPrimary(req.DocID)
		if err != nil {
			return nil, err
		}
		postings := make([]proto.Posting, len(rec.Counts))
		for i, c := range rec.Counts {
			postings[i] = proto.Posting{TermID: c.TermID, Weight: c.Weight}
		}
		return proto.SearchPrimaryResponse{DocID: req.DocID, Postings: postings}, nil
	})

	rpc.Register("Stats.LiblinearData", func(ctx context.Context, raw json.RawMessage) (any, error) {
		idx := store.get()
		if idx == nil {
			return nil, apperrors.ErrIndexNotValid
		}
		var req proto.LiblinearDataRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		line, err := idx.LiblinearData(req.DocID)
		if err != nil {
			return nil, err
		}
		return proto.LiblinearDataResponse{Line: line}, nil
	})

	rpc.Register("Stats.HealthCheck", func(ctx context.Context, raw json.RawMessage) (any, error) {
		status := "SERVING"
		if store.get() == nil {
			status = "NOT_SERVING"
		}
		return proto.HealthCheckResponse{Status: status}, nil
	})
}
