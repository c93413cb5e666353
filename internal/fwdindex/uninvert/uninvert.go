// Package uninvert implements the alternative construction path: rebuilding
// a forward index from an existing inverted index under a bounded RAM
// budget, per spec.md §4.6. Unlike tokenization's advisory budget, this
// path enforces its budget strictly by spilling to disk.
package uninvert

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/orin-search/forward-index/internal/fwdindex/chunk"
	"github.com/orin-search/forward-index/internal/fwdindex/pfile"
	"github.com/orin-search/forward-index/internal/fwdindex/postings"
	"github.com/orin-search/forward-index/internal/invindex"
)

// rawCount is one (TermId, integer count) observation buffered for a
// DocId before it is spilled, matching the inverted index's integer-count
// convention. Widening to float64 happens where a rawCount is converted
// into a postings.Count, at spill time — the "compression pass" spec.md
// describes.
type rawCount struct {
	TermID uint64
	Count  uint64
}

const perCountBytes = 24 // two uint64 fields plus slice-header amortization

// Inverter is the external-memory transposer: it accepts (TermId, postings)
// lists in TermId order and produces (DocId, postings) records, spilling its
// in-memory buffer to disk chunks whenever it would exceed ramBudget.
type Inverter struct {
	ramBudget  uint64
	dir        string
	prefix     string
	buffer     map[uint64][]rawCount
	bufBytes   uint64
	chunkSeq   int
	chunkPaths []string
}

// NewInverter creates an Inverter that spills chunk files to dir using the
// given filename prefix.
func NewInverter(dir, prefix string, ramBudget uint64) *Inverter {
	return &Inverter{
		ramBudget: ramBudget,
		dir:       dir,
		prefix:    prefix,
		buffer:    make(map[uint64][]rawCount),
	}
}

// Feed appends termID's postings list to the buffer, one rawCount per
// posting, spilling the buffer to disk first if adding the list would take
// it over budget. A single list larger than the whole budget is still
// buffered in one piece. Callers must feed TermIds in ascending order
// (spec.md §4.6).
func (inv *Inverter) Feed(termID uint64, ps []invindex.Posting) error {
	if inv.bufBytes+uint64(len(ps))*perCountBytes > inv.ramBudget {
		if err := inv.spill(); err != nil {
			return err
		}
	}
	for _, p := range ps {
		inv.buffer[p.DocID] = append(inv.buffer[p.DocID], rawCount{TermID: termID, Count: p.Count})
		inv.bufBytes += perCountBytes
	}
	return nil
}

func (inv *Inverter) spill() error {
	if len(inv.buffer) == 0 {
		return nil
	}
	docIDs := make([]uint64, 0, len(inv.buffer))
	for d := range inv.buffer {
		docIDs = append(docIDs, d)
	}
	sort.Slice(docIDs, func(i, j int) bool { return docIDs[i] < docIDs[j] })

	path := fmt.Sprintf("%s/%s%d", inv.dir, inv.prefix, inv.chunkSeq)
	inv.chunkSeq++
	w, err := chunk.NewWriter(path)
	if err != nil {
		return err
	}
	for _, d := range docIDs {
		counts := make([]postings.Count, len(inv.buffer[d]))
		for i, rc := range inv.buffer[d] {
			counts[i] = postings.Count{TermID: rc.TermID, Weight: float64(rc.Count)}
		}
		if err := w.Write(postings.Record{DocID: d, Counts: counts}); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	inv.chunkPaths = append(inv.chunkPaths, path)
	inv.buffer = make(map[uint64][]rawCount)
	inv.bufBytes = 0
	return nil
}

// Finish spills any remaining buffered records, then k-way merges every
// spill chunk, writing each resulting DocId's combined record to sink in
// ascending DocId order. It returns the number of distinct DocIds written.
func (inv *Inverter) Finish(sink chunk.Sink) (uint64, error) {
	if err := inv.spill(); err != nil {
		return 0, err
	}

	readers := make([]*chunk.Reader, 0, len(inv.chunkPaths))
	for _, p := range inv.chunkPaths {
		r, err := chunk.OpenReader(p)
		if err != nil {
			return 0, fmt.Errorf("uninvert: opening spill chunk %s: %w", p, err)
		}
		readers = append(readers, r)
	}

	merge := func(docID uint64, counts []postings.Count) postings.Record {
		sorted := make([]postings.Count, len(counts))
		copy(sorted, counts)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].TermID < sorted[j].TermID })
		return postings.Record{DocID: docID, Counts: sorted}
	}

	return chunk.MultiwayMerge(readers, merge, sink)
}

// Run drives the full uninvert pipeline: feed every TermId's postings list
// from inv (in ascending TermId order, as spec.md §4.6 requires) into an
// Inverter, then merge its spill chunks directly into a packed postings
// file sized for numDocs.
func Run(inv invindex.InvertedIndex, dir, spillPrefix string, ramBudget uint64, postingsPath string, numDocs uint64) (uint64, error) {
	inverter := NewInverter(dir, spillPrefix, ramBudget)

	uniqueTerms := inv.UniqueTerms()
	for t := uint64(0); t < uniqueTerms; t++ {
		if err := inverter.Feed(t, inv.SearchPrimary(t)); err != nil {
			return 0, fmt.Errorf("uninvert: feeding term %d: %w", t, err)
		}
	}

	pw, err := pfile.NewWriter(postingsPath, numDocs)
	if err != nil {
		return 0, fmt.Errorf("uninvert: %w", err)
	}

	written, err := inverter.Finish(pw.Write)
	if err != nil {
		pw.Close()
		return 0, fmt.Errorf("uninvert: merging spill chunks: %w", err)
	}
	if err := pw.Close(); err != nil {
		return 0, fmt.Errorf("uninvert: %w", err)
	}

	slog.Debug("uninvert complete", "unique_terms", uniqueTerms, "docs_with_postings", written, "num_docs", numDocs)
	return written, nil
}
