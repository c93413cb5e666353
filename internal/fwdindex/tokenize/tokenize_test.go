package tokenize

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/orin-search/forward-index/internal/analyzer"
	"github.com/orin-search/forward-index/internal/corpus"
	"github.com/orin-search/forward-index/internal/fwdindex/build"
	"github.com/orin-search/forward-index/internal/fwdindex/chunk"
	"github.com/orin-search/forward-index/internal/fwdindex/labels"
	"github.com/orin-search/forward-index/internal/fwdindex/metadata"
	"github.com/orin-search/forward-index/internal/fwdindex/pfile"
)

// recordingCorpus implements internal/corpus.Corpus for tests without
// depending on any file on disk.
type recordingCorpus struct {
	mu   sync.Mutex
	docs []string
	pos  int
}

func (c *recordingCorpus) HasNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos < len(c.docs)
}

func (c *recordingCorpus) Next() (corpus.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pos >= len(c.docs) {
		return corpus.Document{}, fmt.Errorf("no more documents")
	}
	d := corpus.Document{DocID: uint64(c.pos), Label: "[none]", Content: c.docs[c.pos]}
	c.pos++
	return d, nil
}

func (c *recordingCorpus) Size() uint64 { return uint64(len(c.docs)) }
func (c *recordingCorpus) Close() error { return nil }

func TestRunProducesMergeableChunks(t *testing.T) {
	dir := t.TempDir()

	docs := []string{"the quick brown fox", "the lazy dog", "quick fox jumps"}
	c := &recordingCorpus{docs: docs}
	an := analyzer.NewNgramAnalyzer(1)

	result, err := Run(context.Background(), c, an, Options{
		Workers:     2,
		RAMBudget:   1 << 30,
		ChunkDir:    dir,
		ChunkPrefix: "chunk-",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.NumDocs != uint64(len(docs)) {
		t.Fatalf("NumDocs = %d, want %d", result.NumDocs, len(docs))
	}
	if result.Vocabulary.Size() == 0 {
		t.Fatalf("expected non-empty vocabulary")
	}

	res, err := build.MergeChunks(result.ChunkPaths, result.Vocabulary, result.NumDocs,
		filepath.Join(dir, "postings.dat"), filepath.Join(dir, "vocab.map"))
	if err != nil {
		t.Fatalf("MergeChunks: %v", err)
	}
	if res.NumDocs != uint64(len(docs)) {
		t.Fatalf("merged NumDocs = %d, want %d", res.NumDocs, len(docs))
	}

	pr, err := pfile.Open(filepath.Join(dir, "postings.dat"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pr.Close()
	if pr.NumDocs() != uint64(len(docs)) {
		t.Fatalf("pfile NumDocs = %d, want %d", pr.NumDocs(), len(docs))
	}
	for i := range docs {
		if _, err := pr.Find(uint64(i)); err != nil {
			t.Fatalf("Find(%d): %v", i, err)
		}
	}
}

func TestRunSingleWorkerIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	docs := []string{"alpha beta", "beta gamma", ""}
	c := &recordingCorpus{docs: docs}
	an := analyzer.NewNgramAnalyzer(1)

	result, err := Run(context.Background(), c, an, Options{
		Workers:     1,
		RAMBudget:   1 << 30,
		ChunkDir:    dir,
		ChunkPrefix: "solo-",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.ChunkPaths) != 1 {
		t.Fatalf("expected 1 chunk path, got %d", len(result.ChunkPaths))
	}

	r, err := chunk.OpenReader(result.ChunkPaths[0])
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	var seen []uint64
	for r.Valid() {
		seen = append(seen, r.Record().DocID)
		if err := r.Advance(); err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
	r.Close()
	for i, id := range seen {
		if id != uint64(i) {
			t.Fatalf("chunk records out of order: %v", seen)
		}
	}
}

// TestRunConcurrentLabelsAndMetadata exercises the multi-worker path with
// both Labels and MetadataSink populated by every worker goroutine, the
// concurrency scenario the label store and metadata sink must survive
// without external synchronization. Run under -race.
func TestRunConcurrentLabelsAndMetadata(t *testing.T) {
	dir := t.TempDir()

	docs := make([]string, 200)
	for i := range docs {
		docs[i] = fmt.Sprintf("term%d shared common word%d", i, i%7)
	}
	c := &recordingCorpus{docs: docs}
	an := analyzer.NewNgramAnalyzer(1)

	lbls := labels.NewStore()
	metaWriter := metadata.NewWriter()

	result, err := Run(context.Background(), c, an, Options{
		Workers:      16,
		RAMBudget:    1 << 30,
		ChunkDir:     dir,
		ChunkPrefix:  "concurrent-",
		Labels:       lbls,
		MetadataSink: metaWriter,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.NumDocs != uint64(len(docs)) {
		t.Fatalf("NumDocs = %d, want %d", result.NumDocs, len(docs))
	}

	for i := range docs {
		if got := lbls.Label(uint64(i)); got != "[none]" {
			t.Fatalf("Label(%d) = %q, want %q", i, got, "[none]")
		}
	}

	if err := metaWriter.Flush(filepath.Join(dir, "metadata.db"), filepath.Join(dir, "metadata.index"), result.NumDocs); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

// failingAnalyzer returns an error from Analyze once content matches a
// fixed marker, letting the test assert that Run propagates the first
// worker's error rather than blocking or losing it.
type failingAnalyzer struct {
	fail string
}

func (a *failingAnalyzer) Clone() analyzer.Analyzer { return &failingAnalyzer{fail: a.fail} }

func (a *failingAnalyzer) Analyze(content string) ([]analyzer.Pair, error) {
	if content == a.fail {
		return nil, errors.New("boom")
	}
	return []analyzer.Pair{{Term: content, Weight: 1}}, nil
}

func TestRunReturnsFirstWorkerError(t *testing.T) {
	dir := t.TempDir()
	docs := []string{"one", "two", "boom-me", "four", "five"}
	c := &recordingCorpus{docs: docs}
	an := &failingAnalyzer{fail: "boom-me"}

	_, err := Run(context.Background(), c, an, Options{
		Workers:     4,
		RAMBudget:   1 << 30,
		ChunkDir:    dir,
		ChunkPrefix: "fail-",
	})
	if err == nil {
		t.Fatal("expected Run to return an error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("error = %v, want it to wrap the analyzer's error", err)
	}
}

func TestRunWarnsOnceOnEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	docs := []string{"", "", "content here"}
	c := &recordingCorpus{docs: docs}
	an := analyzer.NewNgramAnalyzer(1)

	var mu sync.Mutex
	var warnings int
	_, err := Run(context.Background(), c, an, Options{
		Workers:     1,
		RAMBudget:   1 << 30,
		ChunkDir:    dir,
		ChunkPrefix: "warn-",
		Warn: func(msg string, args ...any) {
			mu.Lock()
			warnings++
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if warnings != 2 {
		t.Fatalf("warnings = %d, want 2", warnings)
	}
}
