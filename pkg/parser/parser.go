package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/Azure/filecover/pkg/coverage"
)

var ErrNoRecord = errors.New("no coverage record for source file")

// Format names the artifact format the coverage tool writes.
type Format string

const (
	FormatLCOV      Format = "lcov"
	FormatGoProfile Format = "goprofile"
)

// ParseFormat parses a runner format name, case insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatLCOV, FormatGoProfile:
		return f, nil
	}
	return "", fmt.Errorf("unknown artifact format %q", s)
}

// ParseFile reads the artifact at filename and extracts the record of source.
func ParseFile(format Format, filename string, source *coverage.SourceFile) (coverage.Record, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	return Parse(format, fd, source)
}

// Parse extracts the record of source from an artifact.
// Lines the artifact reports outside of the source file are ignored.
func Parse(format Format, r io.Reader, source *coverage.SourceFile) (coverage.Record, error) {
	switch format {
	case FormatLCOV:
		return ParseLCOV(r, source.Path, len(source.Lines))
	case FormatGoProfile:
		return ParseGoProfile(r, source.Path, len(source.Lines))
	}
	return nil, fmt.Errorf("unknown artifact format %q", format)
}

// hits accumulates execution counts per 1-based line.
type hits map[int]int64

func (h hits) add(line int, count int64) {
	h[line] += count
}

func (h hits) record(lineCount int) coverage.Record {
	record := coverage.NewRecord(lineCount)
	for line, count := range h {
		if line < 1 || line > lineCount {
			continue
		}
		if count > 0 {
			record[line-1] = coverage.Covered
		} else {
			record[line-1] = coverage.NotCovered
		}
	}
	return record
}

// samePath reports whether an artifact path names the source file. Tools write
// absolute or package relative paths, so either may be a suffix of the other
// as long as it starts at a path element boundary.
func samePath(artifactPath string, sourcePath string) bool {
	a := path.Clean(strings.ReplaceAll(artifactPath, "\\", "/"))
	s := path.Clean(sourcePath)
	if a == s {
		return true
	}
	return strings.HasSuffix(a, "/"+s) || strings.HasSuffix(s, "/"+a)
}
