// Package libsvmpath implements the libsvm fast path: direct ingestion of
// pre-vectorized "label idx:weight ..." lines, bypassing tokenization and
// the analyzer pipeline entirely, per spec.md §4.7.
package libsvmpath

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/orin-search/forward-index/internal/corpus"
	"github.com/orin-search/forward-index/internal/fwdindex/labels"
	"github.com/orin-search/forward-index/internal/fwdindex/pfile"
	"github.com/orin-search/forward-index/internal/fwdindex/postings"
)

// Result summarizes a completed libsvm fast-path build. UniqueTerms is
// derived from the highest feature index observed, not from a vocabulary
// set: the libsvm format carries no token strings, only indices, so no
// vocabulary map is produced.
type Result struct {
	NumDocs     uint64
	UniqueTerms uint64
}

// Run parses c's raw lines directly and writes the result straight to a
// packed postings file at postingsPath. lbls, if non-nil, is populated with
// each document's leading label/response token exactly as the tokenize
// driver populates it, since the libsvm corpus carries that token too.
func Run(c *corpus.LibsvmCorpus, postingsPath string, lbls *labels.Store) (Result, error) {
	numDocs := c.Size()
	pw, err := pfile.NewWriter(postingsPath, numDocs)
	if err != nil {
		return Result{}, fmt.Errorf("libsvmpath: %w", err)
	}

	var maxTermID uint64
	var sawAny bool

	for c.HasNext() {
		doc, err := c.Next()
		if err != nil {
			pw.Close()
			return Result{}, fmt.Errorf("libsvmpath: reading document: %w", err)
		}
		if lbls != nil {
			lbls.Set(doc.DocID, doc.Label)
		}

		counts, err := parseLine(doc.Content)
		if err != nil {
			pw.Close()
			return Result{}, fmt.Errorf("libsvmpath: parsing doc %d: %w", doc.DocID, err)
		}
		for _, cnt := range counts {
			if !sawAny || cnt.TermID > maxTermID {
				maxTermID = cnt.TermID
			}
			sawAny = true
		}

		if err := pw.Write(postings.Record{DocID: doc.DocID, Counts: counts}); err != nil {
			pw.Close()
			return Result{}, fmt.Errorf("libsvmpath: writing doc %d: %w", doc.DocID, err)
		}
	}

	if err := pw.Close(); err != nil {
		return Result{}, fmt.Errorf("libsvmpath: %w", err)
	}

	var uniqueTerms uint64
	if sawAny {
		uniqueTerms = maxTermID + 1
	}
	return Result{NumDocs: numDocs, UniqueTerms: uniqueTerms}, nil
}

// parseLine parses one "label idx1:w1 idx2:w2 ..." line into a
// TermId-sorted counts slice, shifting each 1-indexed libsvm feature index
// to the forward index's 0-indexed TermId space.
func parseLine(line string) ([]postings.Count, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	counts := make([]postings.Count, 0, len(fields)-1)
	for _, f := range fields[1:] {
		parts := strings.SplitN(f, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed feature token %q", f)
		}
		idx, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed feature index %q: %w", parts[0], err)
		}
		if idx == 0 {
			return nil, fmt.Errorf("libsvm feature indices are 1-indexed, got 0")
		}
		weight, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed feature weight %q: %w", parts[1], err)
		}
		counts = append(counts, postings.Count{TermID: idx - 1, Weight: weight})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].TermID < counts[j].TermID })
	return counts, nil
}
