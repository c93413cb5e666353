// Package metadata is the minimal concrete implementation of the metadata
// sidecar spec.md names as an out-of-scope external collaborator: per-
// document length and unique-term count, keyed by DocId. It is
// intentionally thin — spec.md scopes metadata/label storage design out of
// the CORE, so this exists only to make the tokenization driver runnable.
package metadata

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

// Entry holds one document's metadata fields.
type Entry struct {
	Length      uint64 // sum of rounded weights
	UniqueTerms uint64
}

// Sink is the interface the tokenization and uninvert paths write
// per-document metadata through.
type Sink interface {
	Set(docID uint64, e Entry)
}

// Writer accumulates Entry values in memory, keyed by DocId, and persists
// them to a pair of files (metadata.db, metadata.index) mirroring the
// filesystem layout spec.md §6 names, without implementing metadata's full
// design (additional fields, compaction, etc. are out of scope). Set is
// safe to call concurrently: spec.md §5 requires the metadata sink to be
// internally thread-safe since the tokenization driver calls it from every
// worker without serializing the calls itself.
type Writer struct {
	mu      sync.Mutex
	entries map[uint64]Entry
}

// NewWriter creates an empty metadata Writer.
func NewWriter() *Writer {
	return &Writer{entries: make(map[uint64]Entry)}
}

// Set implements Sink.
func (w *Writer) Set(docID uint64, e Entry) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries[docID] = e
}

// Flush writes every recorded entry to dbPath/indexPath, keyed by DocId in
// ascending order. numDocs pads any missing DocId with a zero entry so the
// sidecar stays dense, matching the postings file's own gap policy.
func (w *Writer) Flush(dbPath, indexPath string, numDocs uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	db, err := os.Create(dbPath)
	if err != nil {
		return fmt.Errorf("creating metadata db %s: %w", dbPath, err)
	}
	defer db.Close()
	idx, err := os.Create(indexPath)
	if err != nil {
		return fmt.Errorf("creating metadata index %s: %w", indexPath, err)
	}
	defer idx.Close()

	dbw := bufio.NewWriter(db)
	idxw := bufio.NewWriter(idx)

	var offset int64
	var rec [16]byte
	var offBuf [8]byte
	for d := uint64(0); d < numDocs; d++ {
		e := w.entries[d]
		binary.LittleEndian.PutUint64(rec[0:8], e.Length)
		binary.LittleEndian.PutUint64(rec[8:16], e.UniqueTerms)
		if _, err := dbw.Write(rec[:]); err != nil {
			return fmt.Errorf("writing metadata entry %d: %w", d, err)
		}
		binary.LittleEndian.PutUint64(offBuf[:], uint64(offset))
		if _, err := idxw.Write(offBuf[:]); err != nil {
			return fmt.Errorf("writing metadata offset %d: %w", d, err)
		}
		offset += int64(len(rec))
	}
	if err := dbw.Flush(); err != nil {
		return fmt.Errorf("flushing metadata db: %w", err)
	}
	if err := idxw.Flush(); err != nil {
		return fmt.Errorf("flushing metadata index: %w", err)
	}
	return nil
}

// Reader gives O(1) random access to a flushed metadata sidecar pair.
type Reader struct {
	db      *os.File
	offsets []int64
}

// OpenReader opens a metadata sidecar pair previously written by Flush (or
// copied verbatim by CopyVerbatim).
func OpenReader(dbPath, indexPath string) (*Reader, error) {
	db, err := os.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening metadata db %s: %w", dbPath, err)
	}
	idx, err := os.Open(indexPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening metadata index %s: %w", indexPath, err)
	}
	defer idx.Close()

	st, err := idx.Stat()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("stat metadata index %s: %w", indexPath, err)
	}
	n := st.Size() / 8
	offsets := make([]int64, n)
	idxr := bufio.NewReader(idx)
	var buf [8]byte
	for i := range offsets {
		if _, err := io.ReadFull(idxr, buf[:]); err != nil {
			db.Close()
			return nil, fmt.Errorf("reading metadata index entry %d: %w", i, err)
		}
		offsets[i] = int64(binary.LittleEndian.Uint64(buf[:]))
	}
	return &Reader{db: db, offsets: offsets}, nil
}

// NumDocs returns the number of DocIds this reader covers.
func (r *Reader) NumDocs() uint64 { return uint64(len(r.offsets)) }

// Get returns the Entry recorded for docID.
func (r *Reader) Get(docID uint64) (Entry, error) {
	if docID >= uint64(len(r.offsets)) {
		return Entry{}, fmt.Errorf("metadata: DocId %d out of range [0, %d)", docID, len(r.offsets))
	}
	if _, err := r.db.Seek(r.offsets[docID], 0); err != nil {
		return Entry{}, fmt.Errorf("metadata: seeking to DocId %d: %w", docID, err)
	}
	var rec [16]byte
	if _, err := io.ReadFull(r.db, rec[:]); err != nil {
		return Entry{}, fmt.Errorf("metadata: reading DocId %d: %w", docID, err)
	}
	return Entry{
		Length:      binary.LittleEndian.Uint64(rec[0:8]),
		UniqueTerms: binary.LittleEndian.Uint64(rec[8:16]),
	}, nil
}

// Close closes the underlying metadata db file.
func (r *Reader) Close() error {
	return r.db.Close()
}

// CopyVerbatim copies a metadata sidecar pair from one directory pair of
// paths to another, byte for byte. No construction path calls it: the
// uninvert and libsvm paths recompute metadata by rescanning the written
// postings file (computeAndFlushMetadata in package fwdindex).
func CopyVerbatim(srcDB, srcIndex, dstDB, dstIndex string) error {
	if err := copyFile(srcDB, dstDB); err != nil {
		return err
	}
	return copyFile(srcIndex, dstIndex)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}
