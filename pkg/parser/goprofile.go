package parser

import (
	"fmt"
	"io"

	"golang.org/x/tools/cover"

	"github.com/Azure/filecover/pkg/coverage"
)

// ParseGoProfile extracts the record of sourcePath from a Go cover profile.
// Every line spanned by a block is executable, and covered if any block over it ran.
func ParseGoProfile(r io.Reader, sourcePath string, lineCount int) (coverage.Record, error) {
	profiles, err := cover.ParseProfilesFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse cover profile: %w", err)
	}

	h := make(hits)
	found := false
	for _, profile := range profiles {
		if !samePath(profile.FileName, sourcePath) {
			continue
		}
		found = true

		for _, block := range profile.Blocks {
			for line := block.StartLine; line <= block.EndLine; line++ {
				h.add(line, int64(block.Count))
			}
		}
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoRecord, sourcePath)
	}
	return h.record(lineCount), nil
}
