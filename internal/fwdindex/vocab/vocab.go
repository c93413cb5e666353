// Package vocab implements the probing vocabulary set used during
// tokenization (a concurrency-safe insertion-order string -> TermId map)
// and the sorted, on-disk vocabulary map written after renumbering.
package vocab

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

// perEntryOverhead is a rough constant accounting for Go's map bucket and
// string-header overhead per entry, used by BytesUsed's advisory estimate.
// It does not need to be exact: spec.md's RAM budget check is diagnostic,
// not a hard resource limiter for the tokenization path.
const perEntryOverhead = 48

// Set is a concurrency-safe, insertion-order string-to-TermId map. Insert
// is idempotent: a string already present returns its existing index.
// ExtractKeys destructively empties the set while keeping the key order
// array's capacity, so a subsequent reinsertion pass allocates no new
// backing storage for it. (build.MergeChunks does not reinsert; it
// renumbers through a translation table instead.)
type Set struct {
	mu       sync.Mutex
	index    map[string]uint64
	keys     []string
	strBytes uint64
}

// NewSet creates an empty vocabulary set.
func NewSet() *Set {
	return &Set{index: make(map[string]uint64)}
}

// Insert returns the TermId for s, inserting it at the next free index if
// it is not already present.
func (s *Set) Insert(term string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.index[term]; ok {
		return id
	}
	id := uint64(len(s.keys))
	s.index[term] = id
	s.keys = append(s.keys, term)
	s.strBytes += uint64(len(term))
	return id
}

// Find returns the TermId for term and whether it was present.
func (s *Set) Find(term string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.index[term]
	return id, ok
}

// Size returns the number of distinct terms currently held.
func (s *Set) Size() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.keys))
}

// BytesUsed estimates the set's memory footprint, including string storage
// and per-entry hash table overhead, for RAM budget checks.
func (s *Set) BytesUsed() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strBytes + uint64(len(s.keys))*perEntryOverhead
}

// ExtractKeys destructively returns keys such that keys[i] is the string
// previously found at TermId i, emptying the set but retaining its
// key array's capacity for reinsertion. The returned slice does not share
// storage with the set, so later inserts leave it intact.
func (s *Set) ExtractKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.keys
	s.keys = make([]string, 0, cap(keys))
	s.index = make(map[string]uint64, len(keys))
	s.strBytes = 0
	return keys
}

// WriteMap writes sortedKeys, already in lexicographic order, to path as
// the on-disk vocabulary map: a back-to-back sequence of UTF-8 strings,
// each prefixed by its little-endian uint32 byte length (no separators),
// position i implying TermId i.
func WriteMap(path string, sortedKeys []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating vocabulary map %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var lenBuf [4]byte
	for _, k := range sortedKeys {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(k)))
		if _, err := w.Write(lenBuf[:]); err != nil {
			return fmt.Errorf("writing vocabulary map %s: %w", path, err)
		}
		if _, err := w.WriteString(k); err != nil {
			return fmt.Errorf("writing vocabulary map %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing vocabulary map %s: %w", path, err)
	}
	return f.Sync()
}

// ReadMap reads back the sorted on-disk vocabulary map written by
// WriteMap, in TermId order.
func ReadMap(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary map %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var keys []string
	var lenBuf [4]byte
	for {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading vocabulary map %s: %w", path, err)
		}
		n := binary.LittleEndian.Uint32(lenBuf[:])
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("reading vocabulary map %s: %w", path, err)
		}
		keys = append(keys, string(buf))
	}
	return keys, nil
}

// SortLexicographic returns a sorted copy of keys, the first step of the
// insertion-order -> lexicographic renumbering protocol.
func SortLexicographic(keys []string) []string {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)
	return sorted
}
