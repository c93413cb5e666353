// Package invindex is the minimal concrete implementation of the inverted
// index spec.md names as an out-of-scope external collaborator: something
// exposing unique_terms() and search_primary(TermId) -> postings so the
// uninvert path has a real collaborator to transpose.
package invindex

import (
	"github.com/orin-search/forward-index/internal/analyzer"
	"github.com/orin-search/forward-index/internal/corpus"
	"github.com/orin-search/forward-index/internal/fwdindex/labels"
	"github.com/orin-search/forward-index/internal/fwdindex/vocab"
)

// Posting is one (DocId, count) pair in a term's postings list. Counts are
// integers here, matching the source's convention that inverted-index
// postings store term occurrence counts rather than floating weights; the
// uninvert compression pass is what promotes them to float64.
type Posting struct {
	DocID uint64
	Count uint64
}

// InvertedIndex is the interface the uninvert pipeline consumes.
type InvertedIndex interface {
	UniqueTerms() uint64
	SearchPrimary(termID uint64) []Posting
}

// MemoryInvertedIndex holds a complete inverted index in memory, term
// postings indexed by the lexicographic-rank TermId the same way the final
// forward index is numbered, so a tokenize-then-merge build and a build-
// then-uninvert build of the same corpus agree on vocabulary numbering.
type MemoryInvertedIndex struct {
	vocabulary []string
	postings   [][]Posting
	numDocs    uint64
}

// BuildFromCorpus tokenizes every document in c with an (unshared) instance
// of an, accumulating per-term postings, then renumbers terms into
// lexicographic rank exactly as the tokenize+merge path's k-way merge does.
// It returns the resulting index and the label store populated along the
// way.
func BuildFromCorpus(c corpus.Corpus, an analyzer.Analyzer) (*MemoryInvertedIndex, *labels.Store, error) {
	vset := vocab.NewSet()
	lbls := labels.NewStore()
	var insertionPostings [][]Posting

	numDocs := c.Size()
	for c.HasNext() {
		doc, err := c.Next()
		if err != nil {
			return nil, nil, err
		}
		lbls.Set(doc.DocID, doc.Label)

		pairs, err := an.Analyze(doc.Content)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range pairs {
			termID := vset.Insert(p.Term)
			for uint64(len(insertionPostings)) <= termID {
				insertionPostings = append(insertionPostings, nil)
			}
			insertionPostings[termID] = append(insertionPostings[termID], Posting{
				DocID: doc.DocID,
				Count: uint64(p.Weight),
			})
		}
	}

	keys := vset.ExtractKeys()
	sortedKeys := vocab.SortLexicographic(keys)

	oldIndex := make(map[string]uint64, len(keys))
	for i, k := range keys {
		oldIndex[k] = uint64(i)
	}

	postings := make([][]Posting, len(sortedKeys))
	for newID, term := range sortedKeys {
		postings[newID] = insertionPostings[oldIndex[term]]
	}

	return &MemoryInvertedIndex{
		vocabulary: sortedKeys,
		postings:   postings,
		numDocs:    numDocs,
	}, lbls, nil
}

// UniqueTerms implements InvertedIndex.
func (idx *MemoryInvertedIndex) UniqueTerms() uint64 {
	return uint64(len(idx.postings))
}

// SearchPrimary implements InvertedIndex.
func (idx *MemoryInvertedIndex) SearchPrimary(termID uint64) []Posting {
	if termID >= uint64(len(idx.postings)) {
		return nil
	}
	return idx.postings[termID]
}

// Vocabulary returns the lexicographically sorted term list, position i
// being TermId i. The uninvert path copies this verbatim into the forward
// index's own termids.mapping, since inversion preserves vocabulary
// identity (spec.md §4.6).
func (idx *MemoryInvertedIndex) Vocabulary() []string {
	return idx.vocabulary
}

// NumDocs returns the document count the index was built over.
func (idx *MemoryInvertedIndex) NumDocs() uint64 {
	return idx.numDocs
}
