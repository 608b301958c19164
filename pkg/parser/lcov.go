package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Azure/filecover/pkg/coverage"
)

// ParseLCOV extracts the record of sourcePath from LCOV tracefile data.
// Every SF section naming the file contributes; hits of the same line are summed.
func ParseLCOV(r io.Reader, sourcePath string, lineCount int) (coverage.Record, error) {
	h := make(hits)
	found := false
	inSection := false

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for s.Scan() {
		lineNo++
		line := strings.TrimSpace(s.Text())

		switch {
		case strings.HasPrefix(line, "SF:"):
			inSection = samePath(strings.TrimPrefix(line, "SF:"), sourcePath)
			found = found || inSection
		case line == "end_of_record":
			inSection = false
		case inSection && strings.HasPrefix(line, "DA:"):
			number, count, err := parseDA(strings.TrimPrefix(line, "DA:"))
			if err != nil {
				return nil, fmt.Errorf("lcov line %d: %w", lineNo, err)
			}
			h.add(number, count)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read lcov: %w", err)
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoRecord, sourcePath)
	}
	return h.record(lineCount), nil
}

// parseDA parses "<line>,<hits>[,<checksum>]".
func parseDA(s string) (int, int64, error) {
	fields := strings.Split(s, ",")
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("malformed DA record %q", s)
	}
	number, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed DA line number %q", fields[0])
	}
	count, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed DA hit count %q", fields[1])
	}
	return number, count, nil
}
