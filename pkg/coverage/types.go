package coverage

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// LineState classifies a single source line after a coverage run.
type LineState int

const (
	// Nonexecutable marks lines the instrumentation never reports on:
	// blank lines, braces, declarations.
	Nonexecutable LineState = iota
	// NotCovered marks executable lines that no test reached.
	NotCovered
	// Covered marks executable lines hit at least once.
	Covered
)

func (s LineState) String() string {
	switch s {
	case Covered:
		return "covered"
	case NotCovered:
		return "not-covered"
	default:
		return "uncovered"
	}
}

// SourceFile is a repository file read once and never modified afterwards.
type SourceFile struct {
	// Path is relative to the repository root, always slash separated.
	Path string
	// Lines are the raw text lines, Lines[0] is line 1.
	Lines []string
}

// ReadSourceFile reads filename into a SourceFile registered under path.
func ReadSourceFile(filename string, path string) (*SourceFile, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	return ParseSourceFile(path, fd)
}

// ParseSourceFile splits the reader contents into lines.
func ParseSourceFile(path string, r io.Reader) (*SourceFile, error) {
	var lines []string
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for s.Scan() {
		lines = append(lines, strings.TrimSuffix(s.Text(), "\r"))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &SourceFile{Path: path, Lines: lines}, nil
}

// Record is the per-line outcome of one coverage run for one test target.
// Its length always equals the number of lines of the source file.
type Record []LineState

// NewRecord returns a record of n nonexecutable lines.
func NewRecord(n int) Record {
	return make(Record, n)
}

// Aggregated is the merged coverage of a source file across every run that succeeded.
type Aggregated struct {
	File       *SourceFile
	LineStates []LineState
}

// CoveredCount returns the number of covered lines.
func (a *Aggregated) CoveredCount() int {
	return a.count(Covered)
}

// NotCoveredCount returns the number of executable lines never hit.
func (a *Aggregated) NotCoveredCount() int {
	return a.count(NotCovered)
}

// ExecutableCount returns covered plus not covered lines.
func (a *Aggregated) ExecutableCount() int {
	return a.CoveredCount() + a.NotCoveredCount()
}

// Percentage returns the covered share of executable lines, rounded to two decimals.
func (a *Aggregated) Percentage() float64 {
	return Percent(a.CoveredCount(), a.ExecutableCount())
}

func (a *Aggregated) count(state LineState) int {
	n := 0
	for _, s := range a.LineStates {
		if s == state {
			n++
		}
	}
	return n
}

// Percent calculates covered / executable * 100 rounded to two decimals.
// An empty denominator yields 0.
func Percent(covered, executable int) float64 {
	if executable == 0 {
		return 0
	}
	c := float64(covered) / float64(executable) * 100
	return math.Round(c*100) / 100
}
