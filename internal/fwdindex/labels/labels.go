// Package labels implements per-document label bookkeeping: the label
// string or numeric response recorded for each DocId (docs.labels) and the
// compact label <-> label-id mapping (labelids.mapping) used for
// classification corpora.
package labels

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// Store records one label per DocId and assigns compact, stable label ids
// in first-seen order, mirroring the vocabulary set's insertion-order
// contract but for the (typically tiny) label alphabet. Set is safe to call
// concurrently: spec.md §5 requires the label store to be internally
// thread-safe since the tokenization driver calls it from every worker
// without serializing the calls itself.
type Store struct {
	mu     sync.Mutex
	perDoc []string
	ids    map[string]uint64
	byID   []string
}

// NewStore creates an empty label Store.
func NewStore() *Store {
	return &Store{ids: make(map[string]uint64)}
}

// Set records label for docID. DocIds may arrive in any order (concurrent
// workers interleave them); the per-document table grows to fit the
// largest DocId seen.
func (s *Store) Set(docID uint64, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for uint64(len(s.perDoc)) <= docID {
		s.perDoc = append(s.perDoc, "")
	}
	s.perDoc[docID] = label
	if _, ok := s.ids[label]; !ok {
		id := uint64(len(s.byID))
		s.ids[label] = id
		s.byID = append(s.byID, label)
	}
}

// Label returns the label recorded for docID.
func (s *Store) Label(docID uint64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if docID >= uint64(len(s.perDoc)) {
		return ""
	}
	return s.perDoc[docID]
}

// LabelID returns the compact label id for label.
func (s *Store) LabelID(label string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ids[label]
	return id, ok
}

// Flush writes docs.labels (one label per line, by DocId) and
// labelids.mapping (one label per line, by label id) to the given paths.
func (s *Store) Flush(docsPath, labelIDsPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeLines(docsPath, s.perDoc); err != nil {
		return fmt.Errorf("writing %s: %w", docsPath, err)
	}
	if err := writeLines(labelIDsPath, s.byID); err != nil {
		return fmt.Errorf("writing %s: %w", labelIDsPath, err)
	}
	return nil
}

// Load reads docs.labels and labelids.mapping back into a Store.
func Load(docsPath, labelIDsPath string) (*Store, error) {
	perDoc, err := readLines(docsPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", docsPath, err)
	}
	byID, err := readLines(labelIDsPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", labelIDsPath, err)
	}
	ids := make(map[string]uint64, len(byID))
	for i, l := range byID {
		ids[l] = uint64(i)
	}
	return &Store{perDoc: perDoc, byID: byID, ids: ids}, nil
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, l := range lines {
		if _, err := w.WriteString(l); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
