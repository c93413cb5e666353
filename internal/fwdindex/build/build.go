// Package build implements the merge step: renumbering the tokenization
// driver's insertion-order vocabulary into lexicographic order and k-way
// merging the per-worker chunk files into the final packed postings file,
// per spec.md §4.5.
package build

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/orin-search/forward-index/internal/fwdindex/chunk"
	"github.com/orin-search/forward-index/internal/fwdindex/pfile"
	"github.com/orin-search/forward-index/internal/fwdindex/postings"
	"github.com/orin-search/forward-index/internal/fwdindex/vocab"
)

// Result describes a completed merge.
type Result struct {
	NumDocs     uint64
	UniqueTerms uint64
}

// MergeChunks runs the renumbering protocol:
//  1. extract the vocabulary's keys in insertion order (TermId i == keys[i]);
//  2. sort a copy lexicographically;
//  3. build the old->new TermId translation table from the two orderings;
//  4. open a fresh packed postings file sized for numDocs;
//  5. open a chunk.Reader for every non-empty chunk path;
//  6. k-way merge the chunks, translating every old TermId to its new,
//     lexicographic-rank TermId as each record is grouped;
//  7. write the merged, translated records to the postings file;
//  8. write the now-sorted vocabulary to the on-disk map.
//
// Chunk readers are consumed (and therefore deleted) by the merge
// regardless of outcome.
func MergeChunks(chunkPaths []string, vset *vocab.Set, numDocs uint64, postingsPath, vocabPath string) (Result, error) {
	insertionOrder := vset.ExtractKeys()
	sortedKeys := vocab.SortLexicographic(insertionOrder)

	translate := make([]uint64, len(insertionOrder))
	newIndex := make(map[string]uint64, len(sortedKeys))
	for newID, term := range sortedKeys {
		newIndex[term] = uint64(newID)
	}
	for oldID, term := range insertionOrder {
		translate[oldID] = newIndex[term]
	}

	pw, err := pfile.NewWriter(postingsPath, numDocs)
	if err != nil {
		return Result{}, fmt.Errorf("build: %w", err)
	}

	readers := make([]*chunk.Reader, 0, len(chunkPaths))
	for _, p := range chunkPaths {
		r, err := chunk.OpenReader(p)
		if err != nil {
			for _, opened := range readers {
				opened.Close()
			}
			pw.Close()
			return Result{}, fmt.Errorf("build: opening chunk %s: %w", p, err)
		}
		readers = append(readers, r)
	}

	// Counts are sorted by (translated) TermId so the tokenize+merge path and
	// the uninvert path agree byte-for-byte on a document's postings, per
	// spec.md §8's uninvert round-trip property.
	merge := func(docID uint64, counts []postings.Count) postings.Record {
		translated := make([]postings.Count, len(counts))
		for i, c := range counts {
			translated[i] = postings.Count{TermID: translate[c.TermID], Weight: c.Weight}
		}
		sort.Slice(translated, func(i, j int) bool { return translated[i].TermID < translated[j].TermID })
		return postings.Record{DocID: docID, Counts: translated}
	}

	written, err := chunk.MultiwayMerge(readers, merge, pw.Write)
	if err != nil {
		pw.Close()
		return Result{}, fmt.Errorf("build: merging chunks: %w", err)
	}

	if err := pw.Close(); err != nil {
		return Result{}, fmt.Errorf("build: %w", err)
	}

	if err := vocab.WriteMap(vocabPath, sortedKeys); err != nil {
		return Result{}, fmt.Errorf("build: %w", err)
	}

	slog.Debug("merge complete", "docs_with_postings", written, "num_docs", numDocs, "unique_terms", len(sortedKeys))

	return Result{NumDocs: numDocs, UniqueTerms: uint64(len(sortedKeys))}, nil
}
