package testfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

var (
	ErrSourceFileNotFound = errors.New("file doesn't exist")
	ErrMissingTestFile    = errors.New("no appropriate test file found")
)

// SkipReason explains why a source file needs no coverage run.
type SkipReason string

const (
	NotSkipped          SkipReason = ""
	SkipCoverageExempt  SkipReason = "This file is exempted from code coverage analysis; skipping coverage check."
	SkipTestNotRequired SkipReason = "This file is exempted from having a test file; skipping coverage check."
)

// Exemptions answers the exemption queries the resolver needs.
type Exemptions interface {
	RequiresTestFile(path string) bool
	IsCoverageExempt(path string) bool
}

// Resolution is the outcome of resolving a source file: either the test
// targets to run or the reason to skip.
type Resolution struct {
	SourcePath string
	Targets    []TestTarget
	Skip       SkipReason
}

// Skipped reports whether no coverage run is needed.
func (r *Resolution) Skipped() bool {
	return r.Skip != NotSkipped
}

// Resolver finds the test targets that must run for a source file.
type Resolver struct {
	repositoryPath string
	conventions    *Conventions
	exemptions     Exemptions
	logger         logrus.FieldLogger
}

// NewResolver creates a resolver for the repository rooted at repositoryPath.
func NewResolver(
	repositoryPath string,
	conventions *Conventions,
	exemptions Exemptions,
	logger logrus.FieldLogger,
) *Resolver {
	if logger == nil {
		logger = logrus.New()
	}
	return &Resolver{
		repositoryPath: repositoryPath,
		conventions:    conventions,
		exemptions:     exemptions,
		logger:         logger.WithField("source", "resolver"),
	}
}

// Resolve returns the test targets for sourcePath, a skip, or an error.
// The source file must exist even if it is exempted.
// Coverage exemption is checked before any test file lookup, and every existing
// candidate is returned: shared and local variants are distinct suites.
func (r *Resolver) Resolve(sourcePath string) (*Resolution, error) {
	if !fileExists(r.repositoryPath, sourcePath) {
		return nil, fmt.Errorf("%w: %s", ErrSourceFileNotFound, sourcePath)
	}

	resolution := &Resolution{SourcePath: sourcePath}
	if r.exemptions.IsCoverageExempt(sourcePath) {
		resolution.Skip = SkipCoverageExempt
		return resolution, nil
	}

	for _, candidate := range r.conventions.Candidates(sourcePath) {
		if !fileExists(r.repositoryPath, candidate.Path) {
			r.logger.Debugf("no test file at %s", candidate.Path)
			continue
		}
		r.logger.Debugf("found test file %s (root %s, variant %s)", candidate.Path, candidate.Root, candidate.Variant)
		resolution.Targets = append(resolution.Targets, candidate)
	}

	if len(resolution.Targets) > 0 {
		return resolution, nil
	}

	if r.exemptions.RequiresTestFile(sourcePath) {
		return nil, fmt.Errorf("%w for %s", ErrMissingTestFile, sourcePath)
	}
	resolution.Skip = SkipTestNotRequired
	return resolution, nil
}

func fileExists(root string, p string) bool {
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(p)))
	return err == nil && !info.IsDir()
}
