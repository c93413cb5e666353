package uninvert

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/orin-search/forward-index/internal/analyzer"
	"github.com/orin-search/forward-index/internal/corpus"
	"github.com/orin-search/forward-index/internal/fwdindex/build"
	"github.com/orin-search/forward-index/internal/fwdindex/pfile"
	"github.com/orin-search/forward-index/internal/fwdindex/tokenize"
	"github.com/orin-search/forward-index/internal/invindex"
)

type sliceCorpus struct {
	docs []string
	pos  int
}

func (c *sliceCorpus) HasNext() bool { return c.pos < len(c.docs) }
func (c *sliceCorpus) Next() (corpus.Document, error) {
	d := corpus.Document{DocID: uint64(c.pos), Content: c.docs[c.pos], Label: "[none]"}
	c.pos++
	return d, nil
}
func (c *sliceCorpus) Size() uint64 { return uint64(len(c.docs)) }
func (c *sliceCorpus) Close() error { return nil }

func TestUninvertGapFillsMissingDocID(t *testing.T) {
	dir := t.TempDir()
	idx := &fakeInvertedIndex{
		vocab: []string{"a", "b"},
		postings: [][]invindex.Posting{
			{{DocID: 0, Count: 1}, {DocID: 2, Count: 1}},
			{{DocID: 2, Count: 3}},
		},
	}

	postingsPath := filepath.Join(dir, "postings.dat")
	written, err := Run(idx, dir, "spill-", 1<<20, postingsPath, 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if written != 2 {
		t.Fatalf("written = %d, want 2", written)
	}

	pr, err := pfile.Open(postingsPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pr.Close()

	rec, err := pr.Find(1)
	if err != nil {
		t.Fatalf("Find(1): %v", err)
	}
	if len(rec.Counts) != 0 {
		t.Fatalf("expected doc 1 to have no postings, got %v", rec.Counts)
	}

	rec2, err := pr.Find(2)
	if err != nil {
		t.Fatalf("Find(2): %v", err)
	}
	if len(rec2.Counts) != 2 {
		t.Fatalf("expected doc 2 to have 2 postings, got %v", rec2.Counts)
	}
}

func TestUninvertSpillsUnderTinyBudget(t *testing.T) {
	dir := t.TempDir()
	idx := &fakeInvertedIndex{
		vocab: []string{"a", "b", "c"},
		postings: [][]invindex.Posting{
			{{DocID: 0, Count: 1}},
			{{DocID: 1, Count: 1}},
			{{DocID: 2, Count: 1}},
		},
	}

	postingsPath := filepath.Join(dir, "postings.dat")
	written, err := Run(idx, dir, "spill-", 1, postingsPath, 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if written != 3 {
		t.Fatalf("written = %d, want 3", written)
	}
}

func TestUninvertAgreesWithTokenizeMerge(t *testing.T) {
	dir := t.TempDir()
	docs := []string{"the quick fox", "the lazy dog", "quick dog"}

	an := analyzer.NewNgramAnalyzer(1)
	memIdx, _, err := invindex.BuildFromCorpus(&sliceCorpus{docs: docs}, an)
	if err != nil {
		t.Fatalf("BuildFromCorpus: %v", err)
	}

	uninvertedPath := filepath.Join(dir, "uninverted.dat")
	if _, err := Run(memIdx, dir, "spill-", 1<<20, uninvertedPath, memIdx.NumDocs()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	result, err := tokenize.Run(context.Background(), &sliceCorpus{docs: docs}, an, tokenize.Options{
		Workers:     1,
		RAMBudget:   1 << 30,
		ChunkDir:    dir,
		ChunkPrefix: "tok-",
	})
	if err != nil {
		t.Fatalf("tokenize.Run: %v", err)
	}
	tokenizedPath := filepath.Join(dir, "tokenized.dat")
	if _, err := build.MergeChunks(result.ChunkPaths, result.Vocabulary, result.NumDocs, tokenizedPath, filepath.Join(dir, "vocab.map")); err != nil {
		t.Fatalf("MergeChunks: %v", err)
	}

	pu, err := pfile.Open(uninvertedPath)
	if err != nil {
		t.Fatalf("Open uninverted: %v", err)
	}
	defer pu.Close()
	pt, err := pfile.Open(tokenizedPath)
	if err != nil {
		t.Fatalf("Open tokenized: %v", err)
	}
	defer pt.Close()

	for d := uint64(0); d < uint64(len(docs)); d++ {
		ru, err := pu.Find(d)
		if err != nil {
			t.Fatalf("Find(%d) uninverted: %v", d, err)
		}
		rt, err := pt.Find(d)
		if err != nil {
			t.Fatalf("Find(%d) tokenized: %v", d, err)
		}
		if len(ru.Counts) != len(rt.Counts) {
			t.Fatalf("doc %d: uninverted has %d counts, tokenized has %d", d, len(ru.Counts), len(rt.Counts))
		}
		for i := range ru.Counts {
			if ru.Counts[i] != rt.Counts[i] {
				t.Fatalf("doc %d count %d mismatch: uninverted %v, tokenized %v", d, i, ru.Counts[i], rt.Counts[i])
			}
		}
	}
}

type fakeInvertedIndex struct {
	vocab    []string
	postings [][]invindex.Posting
}

func (f *fakeInvertedIndex) UniqueTerms() uint64 { return uint64(len(f.vocab)) }
func (f *fakeInvertedIndex) SearchPrimary(termID uint64) []invindex.Posting {
	if termID >= uint64(len(f.postings)) {
		return nil
	}
	return f.postings[termID]
}
