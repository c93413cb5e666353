package pfile

import (
	"path/filepath"
	"testing"

	"github.com/orin-search/forward-index/internal/fwdindex/postings"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postings.index")

	w, err := NewWriter(path, 5)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	records := map[uint64]postings.Record{
		0: {DocID: 0, Counts: []postings.Count{{TermID: 0, Weight: 1}, {TermID: 1, Weight: 2}}},
		2: {DocID: 2, Counts: []postings.Count{{TermID: 3, Weight: 0.5}}},
		4: {DocID: 4, Counts: nil},
	}
	for _, d := range []uint64{0, 2, 4} {
		if err := w.Write(records[d]); err != nil {
			t.Fatalf("Write(%d): %v", d, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.NumDocs() != 5 {
		t.Fatalf("NumDocs() = %d, want 5", r.NumDocs())
	}

	for d := uint64(0); d < 5; d++ {
		got, err := r.Find(d)
		if err != nil {
			t.Fatalf("Find(%d): %v", d, err)
		}
		if got.DocID != d {
			t.Fatalf("Find(%d).DocID = %d", d, got.DocID)
		}
		want, ok := records[d]
		if !ok {
			want = postings.Record{DocID: d}
		}
		if len(got.Counts) != len(want.Counts) {
			t.Fatalf("Find(%d): got %d counts, want %d", d, len(got.Counts), len(want.Counts))
		}
		for i := range want.Counts {
			if got.Counts[i] != want.Counts[i] {
				t.Fatalf("Find(%d).Counts[%d] = %+v, want %+v", d, i, got.Counts[i], want.Counts[i])
			}
		}
	}
}

func TestReaderFindOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postings.index")
	w, err := NewWriter(path, 1)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, err := r.Find(1); err == nil {
		t.Fatal("Find(1) on a 1-document index succeeded, want error")
	}
}

func TestWriterRejectsOutOfOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "postings.index")
	w, err := NewWriter(path, 3)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	defer w.Close()

	if err := w.Write(postings.Record{DocID: 2}); err != nil {
		t.Fatalf("Write(2): %v", err)
	}
	if err := w.Write(postings.Record{DocID: 1}); err == nil {
		t.Fatal("Write(1) after Write(2) succeeded, want error")
	}
}
