package fwdindex

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orin-search/forward-index/pkg/config"
)

func writeLineCorpus(t *testing.T, root, dataset string, lines []string) string {
	t.Helper()
	dir := filepath.Join(root, dataset)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(dir, dataset+".dat")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return dir
}

func baseConfig(prefix, dataset string) *config.Config {
	cfg := &config.Config{}
	cfg.Build = config.BuildConfig{
		Prefix:              prefix,
		Dataset:             dataset,
		IndexerRAMBudgetMiB: 64,
		Workers:             2,
		Analyzers:           []config.AnalyzerConfig{{Method: "ngram", Ngram: 1}},
	}
	return cfg
}

func TestBuildTokenizePathThenLoad(t *testing.T) {
	root := t.TempDir()
	writeLineCorpus(t, root, "ds", []string{"the quick fox", "the lazy dog", "quick dog"})

	indexDir := filepath.Join(root, "idx")
	cfg := baseConfig(root, "ds")

	idx, err := Build(context.Background(), BuildOptions{Dir: indexDir, Name: "ds", Config: cfg})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer idx.Close()

	if !Valid(indexDir) {
		t.Fatalf("Valid(%s) = false after successful build", indexDir)
	}
	if idx.NumDocs() != 3 {
		t.Fatalf("NumDocs = %d, want 3", idx.NumDocs())
	}
	if idx.UniqueTerms() == 0 {
		t.Fatalf("UniqueTerms = 0, want > 0")
	}

	rec, err := idx.SearchPrimary(0)
	if err != nil {
		t.Fatalf("SearchPrimary(0): %v", err)
	}
	if len(rec.Counts) == 0 {
		t.Fatalf("doc 0 has no postings")
	}

	if _, err := idx.SearchPrimary(idx.NumDocs()); err == nil {
		t.Fatalf("expected out-of-range error for doc id %d", idx.NumDocs())
	}

	reloaded, err := Load(indexDir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer reloaded.Close()
	if reloaded.NumDocs() != idx.NumDocs() || reloaded.UniqueTerms() != idx.UniqueTerms() {
		t.Fatalf("reloaded index disagrees with freshly built one")
	}
	if len(reloaded.Vocabulary()) != int(reloaded.UniqueTerms()) {
		t.Fatalf("vocabulary length = %d, want %d", len(reloaded.Vocabulary()), reloaded.UniqueTerms())
	}
}

func TestBuildUninvertPathAgreesWithTokenizePath(t *testing.T) {
	root := t.TempDir()
	writeLineCorpus(t, root, "ds", []string{"the quick fox", "the lazy dog", "quick dog"})

	tokDir := filepath.Join(root, "tok")
	tokCfg := baseConfig(root, "ds")
	tokIdx, err := Build(context.Background(), BuildOptions{Dir: tokDir, Name: "ds", Config: tokCfg})
	if err != nil {
		t.Fatalf("Build (tokenize): %v", err)
	}
	defer tokIdx.Close()

	uniDir := filepath.Join(root, "uni")
	uniCfg := baseConfig(root, "ds")
	uniCfg.Build.Uninvert = true
	uniIdx, err := Build(context.Background(), BuildOptions{Dir: uniDir, Name: "ds", Config: uniCfg})
	if err != nil {
		t.Fatalf("Build (uninvert): %v", err)
	}
	defer uniIdx.Close()

	if tokIdx.NumDocs() != uniIdx.NumDocs() || tokIdx.UniqueTerms() != uniIdx.UniqueTerms() {
		t.Fatalf("tokenize and uninvert paths disagree: (%d, %d) vs (%d, %d)",
			tokIdx.NumDocs(), tokIdx.UniqueTerms(), uniIdx.NumDocs(), uniIdx.UniqueTerms())
	}

	for d := uint64(0); d < tokIdx.NumDocs(); d++ {
		rt, err := tokIdx.SearchPrimary(d)
		if err != nil {
			t.Fatalf("tokenize SearchPrimary(%d): %v", d, err)
		}
		ru, err := uniIdx.SearchPrimary(d)
		if err != nil {
			t.Fatalf("uninvert SearchPrimary(%d): %v", d, err)
		}
		if len(rt.Counts) != len(ru.Counts) {
			t.Fatalf("doc %d: tokenize has %d counts, uninvert has %d", d, len(rt.Counts), len(ru.Counts))
		}
		for i := range rt.Counts {
			if rt.Counts[i] != ru.Counts[i] {
				t.Fatalf("doc %d count %d mismatch: tokenize %v, uninvert %v", d, i, rt.Counts[i], ru.Counts[i])
			}
		}
	}
}

func TestBuildLibsvmPath(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "ds")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	lines := []string{"+1 3:0.5 1:2.0", "-1 2:1.0"}
	if err := os.WriteFile(filepath.Join(dir, "ds.dat"), []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	indexDir := filepath.Join(root, "idx")
	cfg := &config.Config{Build: config.BuildConfig{
		Prefix:    root,
		Dataset:   "ds",
		Analyzers: []config.AnalyzerConfig{{Method: "libsvm"}},
	}}

	idx, err := Build(context.Background(), BuildOptions{Dir: indexDir, Name: "ds", Config: cfg})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer idx.Close()

	if idx.NumDocs() != 2 {
		t.Fatalf("NumDocs = %d, want 2", idx.NumDocs())
	}
	if idx.Vocabulary() != nil {
		t.Fatalf("expected no vocabulary map for libsvm-built index, got %v", idx.Vocabulary())
	}

	line, err := idx.LiblinearData(0)
	if err != nil {
		t.Fatalf("LiblinearData(0): %v", err)
	}
	if line != "+1 1:2.0 3:0.5" {
		t.Fatalf("LiblinearData(0) = %q, want %q", line, "+1 1:2.0 3:0.5")
	}
}

func TestBuildRejectsLibsvmAnalyzerMismatch(t *testing.T) {
	root := t.TempDir()
	writeLineCorpus(t, root, "ds", []string{"the quick fox"})

	cfg := baseConfig(root, "ds")
	cfg.Build.Analyzers = []config.AnalyzerConfig{{Method: "libsvm"}, {Method: "ngram", Ngram: 1}}

	indexDir := filepath.Join(root, "idx")
	if _, err := Build(context.Background(), BuildOptions{Dir: indexDir, Name: "ds", Config: cfg}); err == nil {
		t.Fatalf("expected an error for a mismatched libsvm analyzer/corpus pairing")
	}
}

func TestValidFalseForIncompleteDirectory(t *testing.T) {
	dir := t.TempDir()
	if Valid(dir) {
		t.Fatalf("Valid(%s) = true for an empty directory", dir)
	}
}

func TestLoadFailsWithoutCommitMarker(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected Load to fail on a directory with no commit marker")
	}
}
