package testfile

import (
	"path"
	"sort"
	"strings"

	"github.com/Azure/filecover/pkg/config"
)

// TestTarget is one test suite file resolved for a source file.
type TestTarget struct {
	// Path of the test file, relative to the repository root.
	Path string
	// Root is the test root directory the file lives under, e.g. "test",
	// "sharedTest", "javatests", or "." when tests sit next to the source.
	Root string
	// Variant is the name suffix that matched, e.g. "Test" or "LocalTest".
	Variant string
}

// Name returns the test file name without extension, e.g. "AddNumsLocalTest".
func (t TestTarget) Name() string {
	base := path.Base(t.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Package returns the directory of the test file.
func (t TestTarget) Package() string {
	return path.Dir(t.Path)
}

// Label returns the build label of the test target, e.g. "//app/test/java/com/example:AddNumsTest".
func (t TestTarget) Label() string {
	dir := t.Package()
	if dir == "." {
		dir = ""
	}
	return "//" + dir + ":" + t.Name()
}

func (t TestTarget) String() string {
	return t.Path
}

// Conventions maps production source paths to test file paths and back.
// Layout rules are tried in order and the first matching rule decides.
type Conventions struct {
	layouts   []config.Layout
	extension string
}

// NewConventions creates conventions for files with the given extension.
func NewConventions(layouts []config.Layout, extension string) *Conventions {
	return &Conventions{
		layouts:   layouts,
		extension: extension,
	}
}

// Extension returns the source file extension, including the dot.
func (c *Conventions) Extension() string {
	return c.extension
}

// Candidates returns every plausible test target for sourcePath in priority order.
// Nothing is checked on disk.
func (c *Conventions) Candidates(sourcePath string) []TestTarget {
	sourcePath = path.Clean(sourcePath)
	if !strings.HasSuffix(sourcePath, c.extension) {
		return nil
	}

	layout, ok := c.match(sourcePath)
	if !ok {
		return nil
	}

	base := strings.TrimSuffix(path.Base(sourcePath), c.extension)
	testDirs := layout.TestDirs
	if layout.SourceDir == "" {
		testDirs = []string{""}
	}

	var result []TestTarget
	seen := make(map[string]bool)
	for _, testDir := range testDirs {
		dir := path.Dir(substitute(sourcePath, layout.SourceDir, testDir))
		for _, suffix := range layout.TestSuffixes {
			p := path.Join(dir, base+suffix+c.extension)
			if seen[p] {
				continue
			}
			seen[p] = true
			result = append(result, TestTarget{
				Path:    p,
				Root:    rootName(testDir),
				Variant: suffix,
			})
		}
	}
	return result
}

// SourceFor maps a test file path back to the production file it tests.
// It returns false if testPath does not look like a test file under any layout.
func (c *Conventions) SourceFor(testPath string) (string, bool) {
	testPath = path.Clean(testPath)
	if !strings.HasSuffix(testPath, c.extension) {
		return "", false
	}
	name := strings.TrimSuffix(path.Base(testPath), c.extension)

	for _, layout := range c.layouts {
		if !strings.HasPrefix(testPath, layout.Prefix) {
			continue
		}

		suffix, ok := longestSuffix(name, layout.TestSuffixes)
		if !ok {
			continue
		}
		base := strings.TrimSuffix(name, suffix) + c.extension

		if layout.SourceDir == "" {
			return path.Join(path.Dir(testPath), base), true
		}
		for _, testDir := range layout.TestDirs {
			if !strings.Contains("/"+testPath, testDir) {
				continue
			}
			dir := path.Dir(substitute(testPath, testDir, layout.SourceDir))
			return path.Join(dir, base), true
		}
	}
	return "", false
}

// IsTestFile reports whether p is a test file under the conventions.
func (c *Conventions) IsTestFile(p string) bool {
	_, ok := c.SourceFor(p)
	return ok
}

func (c *Conventions) match(sourcePath string) (config.Layout, bool) {
	for _, layout := range c.layouts {
		if !strings.HasPrefix(sourcePath, layout.Prefix) {
			continue
		}
		if layout.SourceDir != "" && !strings.Contains("/"+sourcePath, layout.SourceDir) {
			continue
		}
		return layout, true
	}
	return config.Layout{}, false
}

// substitute replaces the first occurrence of the from directory segment with to.
// The path is matched with a leading slash so that a segment at the very start matches too.
func substitute(p string, from string, to string) string {
	if from == "" {
		return p
	}
	rooted := "/" + p
	idx := strings.Index(rooted, from)
	if idx < 0 {
		return p
	}
	return strings.TrimPrefix(rooted[:idx]+to+rooted[idx+len(from):], "/")
}

// longestSuffix finds the longest suffix that name ends with and is not equal to.
func longestSuffix(name string, suffixes []string) (string, bool) {
	sorted := append([]string(nil), suffixes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i]) > len(sorted[j])
	})
	for _, s := range sorted {
		if len(name) > len(s) && strings.HasSuffix(name, s) {
			return s, true
		}
	}
	return "", false
}

func rootName(testDir string) string {
	if root := strings.Trim(testDir, "/"); root != "" {
		return root
	}
	return "."
}
