// Package tokenize implements the parallel tokenization driver: the
// dominant construction path that spawns a worker pool, each worker
// pulling documents from a shared corpus, analyzing them, growing a shared
// vocabulary, and writing its own chunk file.
package tokenize

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/orin-search/forward-index/internal/analyzer"
	"github.com/orin-search/forward-index/internal/corpus"
	"github.com/orin-search/forward-index/internal/fwdindex/chunk"
	"github.com/orin-search/forward-index/internal/fwdindex/labels"
	"github.com/orin-search/forward-index/internal/fwdindex/metadata"
	"github.com/orin-search/forward-index/internal/fwdindex/postings"
	"github.com/orin-search/forward-index/internal/fwdindex/vocab"
)

// ProgressFunc is invoked, under the driver's progress lock, after each
// document is fetched from the corpus. It is optional and nil-safe.
type ProgressFunc func(docsProcessed, totalDocs uint64)

// WarnFunc receives advisory warnings (empty document, RAM budget
// exceeded). It is optional and nil-safe; with a nil WarnFunc, Run drops
// warnings silently (the orchestrator always supplies a pkg/logger-backed
// WarnFunc).
type WarnFunc func(msg string, args ...any)

// Result is what a completed tokenization run hands to the merge step.
type Result struct {
	ChunkPaths []string
	Vocabulary *vocab.Set
	NumDocs    uint64
}

// Options configures a tokenization run.
type Options struct {
	Workers      int
	RAMBudget    uint64
	ChunkDir     string
	ChunkPrefix  string
	Progress     ProgressFunc
	Warn         WarnFunc
	MetadataSink metadata.Sink
	Labels       *labels.Store
}

// Run drives the parallel tokenization pipeline described in spec.md §4.4:
// a fixed worker pool pulls documents from c under a corpus lock, analyzes
// them without locks using its own cloned analyzer, inserts (or looks up)
// each resulting term under a vocabulary lock, and appends the resulting
// record to the worker's own chunk file without locks. The first worker
// error cancels the group; every other worker observes the cancellation the
// next time it tries to acquire the corpus lock. factory is cloned once per
// worker via Clone before that worker's fetch loop starts, so no analyzer
// instance is ever shared across goroutines.
func Run(ctx context.Context, c corpus.Corpus, factory analyzer.Analyzer, opts Options) (*Result, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	vset := vocab.NewSet()
	budgetWarned := int32(0)

	var corpusMu sync.Mutex
	var progressMu sync.Mutex
	var docsProcessed uint64
	totalDocs := c.Size()

	chunkPaths := make([]string, workers)
	g, gctx := errgroup.WithContext(ctx)

	for worker := 0; worker < workers; worker++ {
		worker := worker
		chunkPath := fmt.Sprintf("%s/%s%d", opts.ChunkDir, opts.ChunkPrefix, worker)
		chunkPaths[worker] = chunkPath

		g.Go(func() error {
			cw, err := chunk.NewWriter(chunkPath)
			if err != nil {
				return err
			}
			defer cw.Close()

			an := factory.Clone()

			for {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				doc, ok, err := fetchNext(&corpusMu, c, gctx)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}

				progressMu.Lock()
				docsProcessed++
				if opts.Progress != nil {
					opts.Progress(docsProcessed, totalDocs)
				}
				progressMu.Unlock()

				pairs, err := an.Analyze(doc.Content)
				if err != nil {
					return fmt.Errorf("analyzing document %d: %w", doc.DocID, err)
				}

				if opts.Labels != nil {
					opts.Labels.Set(doc.DocID, doc.Label)
				}

				if len(pairs) == 0 && opts.Warn != nil {
					opts.Warn("document produced zero terms", "doc_id", doc.DocID)
				}

				counts, exceeded := insertPairs(vset, pairs, opts.RAMBudget)
				if exceeded && atomic.CompareAndSwapInt32(&budgetWarned, 0, 1) && opts.Warn != nil {
					opts.Warn("vocabulary RAM budget exceeded; continuing (advisory only)",
						"budget_bytes", opts.RAMBudget, "bytes_used", vset.BytesUsed())
				}

				sumWeight := 0.0
				for _, cnt := range counts {
					sumWeight += math.Round(cnt.Weight)
				}
				if opts.MetadataSink != nil {
					opts.MetadataSink.Set(doc.DocID, metadata.Entry{
						Length:      uint64(sumWeight),
						UniqueTerms: uint64(len(counts)),
					})
				}

				if err := cw.Write(postings.Record{DocID: doc.DocID, Counts: counts}); err != nil {
					return fmt.Errorf("writing chunk record for document %d: %w", doc.DocID, err)
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("tokenization complete", "workers", workers, "docs", docsProcessed, "vocabulary_terms", vset.Size())

	return &Result{
		ChunkPaths: chunkPaths,
		Vocabulary: vset,
		NumDocs:    totalDocs,
	}, nil
}

// fetchNext performs the corpus-lock critical section: HasNext and Next as
// one atomic step, so DocIds are still handed out in a single global
// sequence even though many workers race to call it.
func fetchNext(mu *sync.Mutex, c corpus.Corpus, ctx context.Context) (corpus.Document, bool, error) {
	mu.Lock()
	defer mu.Unlock()

	if ctx.Err() != nil {
		return corpus.Document{}, false, ctx.Err()
	}
	if !c.HasNext() {
		return corpus.Document{}, false, nil
	}
	doc, err := c.Next()
	if err != nil {
		return corpus.Document{}, false, err
	}
	return doc, true, nil
}

// insertPairs looks up or inserts every pair's term, emits (insertion-order
// TermId, weight), and reports whether the budget is currently exceeded.
// Each Insert and the final BytesUsed check take the vocabulary set's own
// internal mutex separately; no lock is held across a whole document, so
// concurrent workers' new terms may interleave in insertion order.
func insertPairs(vset *vocab.Set, pairs []analyzer.Pair, ramBudget uint64) ([]postings.Count, bool) {
	if len(pairs) == 0 {
		return nil, vset.BytesUsed() > ramBudget
	}
	counts := make([]postings.Count, len(pairs))
	for i, p := range pairs {
		counts[i] = postings.Count{TermID: vset.Insert(p.Term), Weight: p.Weight}
	}
	return counts, vset.BytesUsed() > ramBudget
}
