// Package pfile implements the packed postings file: an append-only data
// stream of postings.Record values plus a parallel per-DocId byte-offset
// array enabling O(1) random access. Chunk files (package chunk) share the
// record encoding of package postings but are written without an offsets
// sidecar.
package pfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/orin-search/forward-index/internal/fwdindex/postings"
)

// OffsetsSuffix is appended to a postings file's path to name its sidecar
// offset array.
const OffsetsSuffix = ".offsets"

// Writer appends postings.Record values to a data file in ascending DocId
// order and records each record's starting byte offset in a parallel
// offsets file. It is sized to a known document count N: any DocId in
// [0, N) never written explicitly is materialized as an empty record on
// Close so offsets stays valid for every DocId.
type Writer struct {
	path       string
	n          uint64
	data       *os.File
	dataw      *bufio.Writer
	offsets    []int64
	nextOffset int64
	nextDocID  uint64
	closed     bool
}

// NewWriter creates a Writer that will produce path and path+OffsetsSuffix,
// sized for n documents.
func NewWriter(path string, n uint64) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating postings file %s: %w", path, err)
	}
	return &Writer{
		path:    path,
		n:       n,
		data:    f,
		dataw:   bufio.NewWriter(f),
		offsets: make([]int64, 0, n),
	}, nil
}

// Write appends r, which must have DocID >= the DocID of any previously
// written record. Gaps between the previous DocID and r.DocID are
// materialized as empty records so the offsets array stays dense.
func (w *Writer) Write(r postings.Record) error {
	if r.DocID < w.nextDocID {
		return fmt.Errorf("pfile: out-of-order write: DocID %d after %d", r.DocID, w.nextDocID)
	}
	for w.nextDocID < r.DocID {
		if err := w.writeOne(postings.Record{DocID: w.nextDocID}); err != nil {
			return err
		}
	}
	return w.writeOne(r)
}

func (w *Writer) writeOne(r postings.Record) error {
	w.offsets = append(w.offsets, w.nextOffset)
	n, err := postings.Encode(w.dataw, r)
	if err != nil {
		return fmt.Errorf("pfile: writing record %d: %w", r.DocID, err)
	}
	w.nextOffset += int64(n)
	w.nextDocID++
	return nil
}

// Close pads any remaining DocIds up to N with empty records, flushes the
// data stream, and persists the offsets array.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	for w.nextDocID < w.n {
		if err := w.writeOne(postings.Record{DocID: w.nextDocID}); err != nil {
			return err
		}
	}
	if err := w.dataw.Flush(); err != nil {
		return fmt.Errorf("pfile: flushing data stream: %w", err)
	}
	if err := w.data.Close(); err != nil {
		return fmt.Errorf("pfile: closing data file: %w", err)
	}
	return writeOffsets(w.path+OffsetsSuffix, w.offsets)
}

func writeOffsets(path string, offsets []int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating offsets file %s: %w", path, err)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	hdr := make([]byte, 8)
	binary.LittleEndian.PutUint64(hdr, uint64(len(offsets)))
	if _, err := buf.Write(hdr); err != nil {
		return fmt.Errorf("writing offsets header: %w", err)
	}
	var b [8]byte
	for _, off := range offsets {
		binary.LittleEndian.PutUint64(b[:], uint64(off))
		if _, err := buf.Write(b[:]); err != nil {
			return fmt.Errorf("writing offset entry: %w", err)
		}
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("flushing offsets file: %w", err)
	}
	return f.Sync()
}

// Reader opens a packed postings file and its offsets sidecar for
// random-access reads.
type Reader struct {
	data    *os.File
	offsets []int64
}

// Open opens the postings file at path along with path+OffsetsSuffix.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening postings file %s: %w", path, err)
	}
	offsets, err := readOffsets(path + OffsetsSuffix)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{data: f, offsets: offsets}, nil
}

func readOffsets(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening offsets file %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("reading offsets header: %w", err)
	}
	count := binary.LittleEndian.Uint64(hdr[:])
	offsets := make([]int64, count)
	var b [8]byte
	for i := range offsets {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, fmt.Errorf("reading offset %d: %w", i, err)
		}
		offsets[i] = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return offsets, nil
}

// NumDocs returns the number of DocIds this reader covers.
func (r *Reader) NumDocs() uint64 {
	return uint64(len(r.offsets))
}

// Find returns the full record for DocId d.
func (r *Reader) Find(d uint64) (postings.Record, error) {
	if d >= uint64(len(r.offsets)) {
		return postings.Record{}, fmt.Errorf("pfile: DocId %d out of range [0, %d)", d, len(r.offsets))
	}
	if _, err := r.data.Seek(r.offsets[d], 0); err != nil {
		return postings.Record{}, fmt.Errorf("pfile: seeking to DocId %d: %w", d, err)
	}
	rec, _, err := postings.Decode(bufio.NewReader(r.data))
	if err != nil {
		return postings.Record{}, fmt.Errorf("pfile: decoding DocId %d: %w", d, err)
	}
	return rec, nil
}

// FindStream returns a sequence of (TermId, weight) pairs for DocId d. The
// whole record, including its []Count, is decoded via Find before
// FindStream returns; only the iteration over the counts is left to the
// caller.
func (r *Reader) FindStream(d uint64) (func(yield func(postings.Count) bool), error) {
	rec, err := r.Find(d)
	if err != nil {
		return nil, err
	}
	return func(yield func(postings.Count) bool) {
		for _, c := range rec.Counts {
			if !yield(c) {
				return
			}
		}
	}, nil
}

// Close closes the underlying data file.
func (r *Reader) Close() error {
	return r.data.Close()
}
