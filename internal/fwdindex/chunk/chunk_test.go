package chunk

import (
	"path/filepath"
	"testing"

	"github.com/orin-search/forward-index/internal/fwdindex/postings"
)

func writeChunk(t *testing.T, dir, name string, recs []postings.Record) string {
	t.Helper()
	path := filepath.Join(dir, name)
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, r := range recs {
		if err := w.Write(r); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func TestReaderDeletesFileOnClose(t *testing.T) {
	dir := t.TempDir()
	path := writeChunk(t, dir, "chunk-0", []postings.Record{{DocID: 0}})

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := OpenReader(path); err == nil {
		t.Fatal("chunk file still exists after Close")
	}
}

func TestMultiwayMergePartitioned(t *testing.T) {
	dir := t.TempDir()
	// Worker 0 saw DocIds 0, 2; worker 1 saw DocIds 1, 3 — a typical
	// partitioning where each DocId appears in exactly one chunk.
	c0 := writeChunk(t, dir, "chunk-0", []postings.Record{
		{DocID: 0, Counts: []postings.Count{{TermID: 5, Weight: 1}}},
		{DocID: 2, Counts: []postings.Count{{TermID: 7, Weight: 2}}},
	})
	c1 := writeChunk(t, dir, "chunk-1", []postings.Record{
		{DocID: 1, Counts: []postings.Count{{TermID: 6, Weight: 3}}},
		{DocID: 3, Counts: nil},
	})

	r0, err := OpenReader(c0)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	r1, err := OpenReader(c1)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}

	var got []postings.Record
	merge := func(docID uint64, counts []postings.Count) postings.Record {
		return postings.Record{DocID: docID, Counts: counts}
	}
	sink := func(r postings.Record) error {
		got = append(got, r)
		return nil
	}

	n, err := MultiwayMerge([]*Reader{r0, r1}, merge, sink)
	if err != nil {
		t.Fatalf("MultiwayMerge: %v", err)
	}
	if n != 4 {
		t.Fatalf("unique keys = %d, want 4", n)
	}
	for i, rec := range got {
		if rec.DocID != uint64(i) {
			t.Fatalf("got[%d].DocID = %d, want %d (merge did not restore global order)", i, rec.DocID, i)
		}
	}
}

func TestMultiwayMergeGroupsSharedDocID(t *testing.T) {
	dir := t.TempDir()
	c0 := writeChunk(t, dir, "chunk-0", []postings.Record{
		{DocID: 0, Counts: []postings.Count{{TermID: 1, Weight: 1}}},
	})
	c1 := writeChunk(t, dir, "chunk-1", []postings.Record{
		{DocID: 0, Counts: []postings.Count{{TermID: 2, Weight: 2}}},
	})

	r0, _ := OpenReader(c0)
	r1, _ := OpenReader(c1)

	var got []postings.Record
	n, err := MultiwayMerge([]*Reader{r0, r1},
		func(docID uint64, counts []postings.Count) postings.Record {
			return postings.Record{DocID: docID, Counts: counts}
		},
		func(r postings.Record) error {
			got = append(got, r)
			return nil
		},
	)
	if err != nil {
		t.Fatalf("MultiwayMerge: %v", err)
	}
	if n != 1 {
		t.Fatalf("unique keys = %d, want 1", n)
	}
	if len(got) != 1 || len(got[0].Counts) != 2 {
		t.Fatalf("expected one merged record with 2 counts, got %+v", got)
	}
}
