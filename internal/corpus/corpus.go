// Package corpus implements the corpus reader spec.md names as an
// out-of-scope external collaborator, plus two concrete forms
// (LineCorpus, LibsvmCorpus) needed to drive the tokenize and libsvm
// fast paths end to end. Both use a three-tier sizing lookup: a
// configured num-lines, then a "<file>.numdocs" sidecar, then a
// last-resort newline count.
package corpus

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Document is one corpus entry handed to the tokenization driver.
type Document struct {
	DocID   uint64
	Label   string
	Content string
}

// Corpus hands out Documents in ascending DocId order. HasNext/Next must be
// called from within the caller's corpus lock; the tokenization driver
// treats them as one critical section per spec.md §4.4.
type Corpus interface {
	HasNext() bool
	Next() (Document, error)
	Size() uint64
	Close() error
}

// resolveSize implements the num-lines -> numdocs-sidecar -> newline-count
// fallback chain shared by LineCorpus and LibsvmCorpus.
func resolveSize(path string, numLines int64) (uint64, error) {
	if numLines > 0 {
		return uint64(numLines), nil
	}
	if data, err := os.ReadFile(path + ".numdocs"); err == nil {
		n, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed numdocs file %s.numdocs: %w", path, err)
		}
		return n, nil
	}
	return countLines(path)
}

func countLines(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("counting lines in %s: %w", path, err)
	}
	defer f.Close()

	var n uint64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}

// LineCorpus reads one document per line from "<prefix>/<dataset>/<dataset>.dat",
// with an optional matching ".dat.labels" sidecar.
type LineCorpus struct {
	path      string
	size      uint64
	curID     uint64
	sc        *bufio.Scanner
	labelSc   *bufio.Scanner
	file      *os.File
	labelFile *os.File
}

// NewLineCorpus opens a LineCorpus rooted at prefix/dataset, with an
// optional num-lines size hint (0 triggers the sidecar/newline-count
// fallback).
func NewLineCorpus(prefix, dataset string, numLines int64) (*LineCorpus, error) {
	path := fmt.Sprintf("%s/%s/%s.dat", prefix, dataset, dataset)
	size, err := resolveSize(path, numLines)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file %s: %w", path, err)
	}
	lc := &LineCorpus{
		path: path,
		size: size,
		file: f,
		sc:   bufio.NewScanner(f),
	}
	lc.sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if lf, err := os.Open(path + ".labels"); err == nil {
		lc.labelFile = lf
		lc.labelSc = bufio.NewScanner(lf)
	}
	return lc, nil
}

// HasNext implements Corpus.
func (c *LineCorpus) HasNext() bool {
	return c.curID < c.size
}

// Next implements Corpus.
func (c *LineCorpus) Next() (Document, error) {
	if !c.sc.Scan() {
		if err := c.sc.Err(); err != nil {
			return Document{}, fmt.Errorf("reading %s: %w", c.path, err)
		}
		return Document{}, fmt.Errorf("reading %s: unexpected end of corpus at doc %d", c.path, c.curID)
	}
	label := "[none]"
	if c.labelSc != nil && c.labelSc.Scan() {
		label = c.labelSc.Text()
	}
	doc := Document{DocID: c.curID, Label: label, Content: c.sc.Text()}
	c.curID++
	return doc, nil
}

// Size implements Corpus.
func (c *LineCorpus) Size() uint64 { return c.size }

// Close implements Corpus.
func (c *LineCorpus) Close() error {
	if c.labelFile != nil {
		c.labelFile.Close()
	}
	return c.file.Close()
}

// LabelType selects how LibsvmCorpus interprets a libsvm line's leading
// token.
type LabelType int

const (
	// Classification treats the leading token as an opaque class label.
	Classification LabelType = iota
	// Regression treats the leading token as a real-valued response.
	Regression
)

// ParseLabelType maps the "label-type" config key to a LabelType.
func ParseLabelType(s string) (LabelType, error) {
	switch s {
	case "", "classification":
		return Classification, nil
	case "regression":
		return Regression, nil
	default:
		return 0, fmt.Errorf("unrecognized label-type: %s", s)
	}
}

// LibsvmCorpus reads raw "label idx1:w1 idx2:w2 ..." lines without
// tokenizing them; the libsvm fast path parses Content itself.
type LibsvmCorpus struct {
	path      string
	size      uint64
	curID     uint64
	labelType LabelType
	sc        *bufio.Scanner
	file      *os.File
	nextLine  string
	hasNext   bool
}

// NewLibsvmCorpus opens a LibsvmCorpus rooted at prefix/dataset.
func NewLibsvmCorpus(prefix, dataset string, labelType LabelType, numLines int64) (*LibsvmCorpus, error) {
	path := fmt.Sprintf("%s/%s/%s.dat", prefix, dataset, dataset)
	size, err := resolveSize(path, numLines)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus file %s: %w", path, err)
	}
	c := &LibsvmCorpus{
		path:      path,
		size:      size,
		labelType: labelType,
		file:      f,
		sc:        bufio.NewScanner(f),
	}
	c.sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	c.buffer()
	return c, nil
}

func (c *LibsvmCorpus) buffer() {
	if c.sc.Scan() {
		c.nextLine = c.sc.Text()
		c.hasNext = true
	} else {
		c.hasNext = false
	}
}

// HasNext implements Corpus.
func (c *LibsvmCorpus) HasNext() bool { return c.hasNext }

// Next implements Corpus.
func (c *LibsvmCorpus) Next() (Document, error) {
	if !c.hasNext {
		return Document{}, fmt.Errorf("reading %s: no more documents", c.path)
	}
	line := c.nextLine
	label := libsvmLabelToken(line)
	doc := Document{DocID: c.curID, Label: label, Content: line}
	c.curID++
	c.buffer()
	return doc, nil
}

// Size implements Corpus.
func (c *LibsvmCorpus) Size() uint64 { return c.size }

// Close implements Corpus.
func (c *LibsvmCorpus) Close() error { return c.file.Close() }

// LabelType reports how this corpus's leading token should be interpreted.
func (c *LibsvmCorpus) LabelType() LabelType { return c.labelType }

func libsvmLabelToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "[none]"
	}
	return fields[0]
}
