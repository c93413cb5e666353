// Package chunk implements per-worker intermediate postings files and the
// k-way merge primitive used both to merge tokenization chunks into the
// final postings file and to merge the postings inverter's spill files.
package chunk

import (
	"bufio"
	"container/heap"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/orin-search/forward-index/internal/fwdindex/postings"
)

// Writer appends postings.Record values sequentially to a chunk file. No
// offset array is kept: chunk files are read once, strictly forward, by the
// merge step.
type Writer struct {
	f *os.File
	w *bufio.Writer
}

// NewWriter creates a chunk file at path.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating chunk file %s: %w", path, err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// Write appends r.
func (w *Writer) Write(r postings.Record) error {
	if _, err := postings.Encode(w.w, r); err != nil {
		return fmt.Errorf("chunk: writing record %d: %w", r.DocID, err)
	}
	return nil
}

// Close flushes and closes the chunk file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("chunk: flushing: %w", err)
	}
	return w.f.Close()
}

// Reader streams postings.Record values from a chunk file in order and
// deletes the underlying file when closed, mirroring the source's
// auto-deleting chunk_reader: once a chunk has been merged it is no longer
// needed, and leaving it around would leak disk space on every build.
type Reader struct {
	f          *os.File
	br         *bufio.Reader
	path       string
	totalBytes int64
	bytesRead  int64
	cur        postings.Record
	ok         bool
	deleted    bool
}

// OpenReader opens the chunk file at path and buffers its first record.
// A zero-byte chunk (a worker that received no documents) opens with
// Valid() false; callers must check Valid() before using it in a merge.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chunk file %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat chunk file %s: %w", path, err)
	}
	r := &Reader{
		f:          f,
		br:         bufio.NewReader(f),
		path:       path,
		totalBytes: st.Size(),
	}
	if err := r.advance(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) advance() error {
	rec, n, err := postings.Decode(r.br)
	if err != nil {
		r.ok = false
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("chunk: decoding %s: %w", r.path, err)
	}
	r.cur = rec
	r.bytesRead += int64(n)
	r.ok = true
	return nil
}

// Valid reports whether there is a buffered record available.
func (r *Reader) Valid() bool { return r.ok }

// Record returns the currently buffered record. Valid must be true.
func (r *Reader) Record() postings.Record { return r.cur }

// Advance discards the buffered record and reads the next one.
func (r *Reader) Advance() error { return r.advance() }

// TotalBytes returns the chunk file's total size.
func (r *Reader) TotalBytes() int64 { return r.totalBytes }

// BytesRead returns the number of bytes consumed so far.
func (r *Reader) BytesRead() int64 { return r.bytesRead }

// Close closes and deletes the underlying chunk file.
func (r *Reader) Close() error {
	if r.deleted {
		return nil
	}
	r.deleted = true
	r.f.Close()
	return os.Remove(r.path)
}

// readerHeap is a min-heap of *Reader ordered by the buffered record's
// DocID, used to drive the k-way merge.
type readerHeap []*Reader

func (h readerHeap) Len() int            { return len(h) }
func (h readerHeap) Less(i, j int) bool  { return h[i].cur.DocID < h[j].cur.DocID }
func (h readerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *readerHeap) Push(x interface{}) { *h = append(*h, x.(*Reader)) }
func (h *readerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MergeFunc receives one merged record: the DocID and the concatenation of
// every contributing chunk's counts for that DocID, in the order the chunks
// were merged. It returns the (possibly renumbered) record to write.
type MergeFunc func(docID uint64, counts []postings.Count) postings.Record

// Sink receives each merged, translated record in ascending DocId order.
type Sink func(postings.Record) error

// MultiwayMerge performs a k-way merge of readers ordered by each reader's
// next record's DocID, grouping records that share a DocID (as the postings
// inverter's spill chunks do) before calling merge to translate and
// combine them, then passing the result to sink. It returns the number of
// distinct DocIds written. Exhausted readers are removed from the merge set
// as encountered; MultiwayMerge closes (and therefore deletes) every reader
// it consumes, whether or not an error occurs.
func MultiwayMerge(readers []*Reader, merge MergeFunc, sink Sink) (uint64, error) {
	h := make(readerHeap, 0, len(readers))
	for _, r := range readers {
		if r.Valid() {
			h = append(h, r)
		} else {
			r.Close()
		}
	}
	heap.Init(&h)

	defer func() {
		for _, r := range h {
			r.Close()
		}
	}()

	var uniqueKeys uint64
	for h.Len() > 0 {
		minDocID := h[0].cur.DocID
		var counts []postings.Count
		var drained []*Reader

		for h.Len() > 0 && h[0].cur.DocID == minDocID {
			r := heap.Pop(&h).(*Reader)
			counts = append(counts, r.cur.Counts...)
			if err := r.Advance(); err != nil {
				r.Close()
				for _, d := range drained {
					d.Close()
				}
				return uniqueKeys, err
			}
			if r.Valid() {
				drained = append(drained, r)
			} else {
				r.Close()
			}
		}
		for _, r := range drained {
			heap.Push(&h, r)
		}

		rec := merge(minDocID, counts)
		if err := sink(rec); err != nil {
			return uniqueKeys, err
		}
		uniqueKeys++
	}
	return uniqueKeys, nil
}
