package libsvmpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/orin-search/forward-index/internal/corpus"
	"github.com/orin-search/forward-index/internal/fwdindex/labels"
	"github.com/orin-search/forward-index/internal/fwdindex/pfile"
)

func writeDataset(t *testing.T, root, name string, lines []string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(dir, name+".dat")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	for _, l := range lines {
		if _, err := f.WriteString(l + "\n"); err != nil {
			t.Fatalf("WriteString: %v", err)
		}
	}
	return path
}

func TestRunShiftsAndSortsFeatureIndices(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "ds", []string{"+1 3:0.5 1:2.0"})

	c, err := corpus.NewLibsvmCorpus(root, "ds", corpus.Classification, 0)
	if err != nil {
		t.Fatalf("NewLibsvmCorpus: %v", err)
	}
	defer c.Close()

	postingsPath := filepath.Join(root, "postings.dat")
	res, err := Run(c, postingsPath, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.NumDocs != 1 {
		t.Fatalf("NumDocs = %d, want 1", res.NumDocs)
	}
	if res.UniqueTerms != 3 {
		t.Fatalf("UniqueTerms = %d, want 3", res.UniqueTerms)
	}

	pr, err := pfile.Open(postingsPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pr.Close()

	rec, err := pr.Find(0)
	if err != nil {
		t.Fatalf("Find(0): %v", err)
	}
	if len(rec.Counts) != 2 {
		t.Fatalf("counts = %v, want 2 entries", rec.Counts)
	}
	if rec.Counts[0].TermID != 0 || rec.Counts[0].Weight != 2.0 {
		t.Fatalf("counts[0] = %v, want TermID=0 Weight=2.0", rec.Counts[0])
	}
	if rec.Counts[1].TermID != 2 || rec.Counts[1].Weight != 0.5 {
		t.Fatalf("counts[1] = %v, want TermID=2 Weight=0.5", rec.Counts[1])
	}
}

func TestRunCapturesLabels(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "ds", []string{"+1 1:1.0", "-1 2:1.0"})

	c, err := corpus.NewLibsvmCorpus(root, "ds", corpus.Classification, 0)
	if err != nil {
		t.Fatalf("NewLibsvmCorpus: %v", err)
	}
	defer c.Close()

	lbls := labels.NewStore()
	if _, err := Run(c, filepath.Join(root, "postings.dat"), lbls); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := lbls.Label(0); got != "+1" {
		t.Fatalf("Label(0) = %q, want %q", got, "+1")
	}
	if got := lbls.Label(1); got != "-1" {
		t.Fatalf("Label(1) = %q, want %q", got, "-1")
	}
}

func TestRunMultipleDocuments(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root, "ds", []string{
		"+1 1:1.0",
		"-1 2:1.0 5:2.0",
	})

	c, err := corpus.NewLibsvmCorpus(root, "ds", corpus.Classification, 0)
	if err != nil {
		t.Fatalf("NewLibsvmCorpus: %v", err)
	}
	defer c.Close()

	postingsPath := filepath.Join(root, "postings.dat")
	res, err := Run(c, postingsPath, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.NumDocs != 2 {
		t.Fatalf("NumDocs = %d, want 2", res.NumDocs)
	}
	if res.UniqueTerms != 5 {
		t.Fatalf("UniqueTerms = %d, want 5 (max index 5, 0-indexed -> 4, +1)", res.UniqueTerms)
	}
}

func TestParseLineRejectsZeroIndex(t *testing.T) {
	if _, err := parseLine("+1 0:1.0"); err == nil {
		t.Fatalf("expected error for 0-indexed feature")
	}
}

func TestParseLineEmptyLine(t *testing.T) {
	counts, err := parseLine("")
	if err != nil {
		t.Fatalf("parseLine: %v", err)
	}
	if counts != nil {
		t.Fatalf("counts = %v, want nil", counts)
	}
}
