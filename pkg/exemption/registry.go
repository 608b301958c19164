// Package exemption loads the per-path exemption dataset.
//
// Each entry may waive two independent things for a source file:
//   - test_file_not_required: the file does not need a corresponding test file.
//   - source_file_is_incompatible_with_code_coverage: the file is skipped by
//     coverage analysis altogether.
//
// The dataset is a YAML document:
//
//	test_file_exemption:
//	  - exempted_file_path: app/src/main/java/org/oppia/android/app/Foo.kt
//	    test_file_not_required: true
package exemption

import (
	"errors"
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

var ErrExemptionsMalformed = errors.New("exemption data cannot be parsed")

// Entry is a single exemption.
type Entry struct {
	Path                     string `yaml:"exempted_file_path"`
	TestFileNotRequired      bool   `yaml:"test_file_not_required,omitempty"`
	IncompatibleWithCoverage bool   `yaml:"source_file_is_incompatible_with_code_coverage,omitempty"`
}

// Dataset is the serialized form of the registry.
type Dataset struct {
	Exemptions []Entry `yaml:"test_file_exemption"`
}

// Registry answers exemption queries by exact repository-relative path.
// It is immutable once built.
type Registry struct {
	entries map[string]Entry
}

// New builds a registry from entries. Entries sharing a path have their flags OR-ed.
func New(entries []Entry) *Registry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		p := normalize(e.Path)
		prev := m[p]
		m[p] = Entry{
			Path:                     p,
			TestFileNotRequired:      prev.TestFileNotRequired || e.TestFileNotRequired,
			IncompatibleWithCoverage: prev.IncompatibleWithCoverage || e.IncompatibleWithCoverage,
		}
	}
	return &Registry{entries: m}
}

// Empty returns a registry that exempts nothing.
func Empty() *Registry {
	return New(nil)
}

// Load reads the dataset at filename. A missing file yields an empty registry.
func Load(filename string) (*Registry, error) {
	dataset, err := LoadDataset(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Empty(), nil
		}
		return nil, err
	}
	return New(dataset.Exemptions), nil
}

// LoadRequired reads the dataset at filename, a missing file is an error.
func LoadRequired(filename string) (*Registry, error) {
	dataset, err := LoadDataset(filename)
	if err != nil {
		return nil, err
	}
	return New(dataset.Exemptions), nil
}

// LoadDataset reads and decodes the dataset at filename.
func LoadDataset(filename string) (*Dataset, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML dataset.
func Parse(data []byte) (*Dataset, error) {
	dataset := &Dataset{}
	if err := yaml.Unmarshal(data, dataset); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrExemptionsMalformed, err)
	}
	for i, e := range dataset.Exemptions {
		if e.Path == "" {
			return nil, fmt.Errorf("%w: entry %d has no exempted_file_path", ErrExemptionsMalformed, i)
		}
	}
	return dataset, nil
}

// RequiresTestFile reports whether the file at p must have a test file.
func (r *Registry) RequiresTestFile(p string) bool {
	e, ok := r.entries[normalize(p)]
	return !ok || !e.TestFileNotRequired
}

// IsCoverageExempt reports whether coverage analysis must skip the file at p.
func (r *Registry) IsCoverageExempt(p string) bool {
	e, ok := r.entries[normalize(p)]
	return ok && e.IncompatibleWithCoverage
}

// Len returns the number of distinct exempted paths.
func (r *Registry) Len() int {
	return len(r.entries)
}

func normalize(p string) string {
	if p == "" {
		return p
	}
	return path.Clean(p)
}
