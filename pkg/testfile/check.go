package testfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"

	"github.com/Azure/filecover/pkg/gittool"
)

var ErrTestFileCheckFailed = errors.New("test file check failed")

// Checker ensures every production source file in the repository, or every
// source file changed against CompareBranch, has a test file.
type Checker struct {
	RepositoryPath string
	CompareBranch  string
	Conventions    *Conventions
	Exemptions     Exemptions
	GitClient      gittool.GitClient
	Writer         io.Writer
	logger         logrus.FieldLogger
}

// NewChecker creates a checker. A git client is only opened when compareBranch is set.
func NewChecker(
	repositoryPath string,
	compareBranch string,
	conventions *Conventions,
	exemptions Exemptions,
	writer io.Writer,
	logger logrus.FieldLogger,
) (*Checker, error) {
	if logger == nil {
		logger = logrus.New()
	}

	var gitClient gittool.GitClient
	if compareBranch != "" {
		var err error
		gitClient, err = gittool.NewGitClient(repositoryPath)
		if err != nil {
			return nil, fmt.Errorf("git repository: %w", err)
		}
	}

	return &Checker{
		RepositoryPath: repositoryPath,
		CompareBranch:  compareBranch,
		Conventions:    conventions,
		Exemptions:     exemptions,
		GitClient:      gitClient,
		Writer:         writer,
		logger:         logger.WithField("source", "checker"),
	}, nil
}

// Check prints every source file lacking a test file followed by the verdict.
// It returns the missing files and ErrTestFileCheckFailed if there are any.
func (c *Checker) Check() ([]string, error) {
	files, err := c.sourceFiles()
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, f := range files {
		if c.Conventions.IsTestFile(f) {
			continue
		}
		if !c.Exemptions.RequiresTestFile(f) || c.Exemptions.IsCoverageExempt(f) {
			c.logger.Debugf("skip exempted file %s", f)
			continue
		}
		if !c.hasTestFile(f) {
			missing = append(missing, f)
		}
	}
	sort.Strings(missing)

	for _, f := range missing {
		fmt.Fprintf(c.Writer, "File %s does not have a corresponding test file.\n", f)
	}
	if len(missing) > 0 {
		fmt.Fprintln(c.Writer, "TEST FILE CHECK FAILED")
		return missing, fmt.Errorf("%w: %d file(s) without test file", ErrTestFileCheckFailed, len(missing))
	}
	fmt.Fprintln(c.Writer, "TEST FILE CHECK PASSED")
	return nil, nil
}

func (c *Checker) hasTestFile(sourcePath string) bool {
	for _, candidate := range c.Conventions.Candidates(sourcePath) {
		if fileExists(c.RepositoryPath, candidate.Path) {
			return true
		}
	}
	return false
}

// sourceFiles lists the files to check, relative to the repository root.
func (c *Checker) sourceFiles() ([]string, error) {
	if c.CompareBranch == "" {
		return c.collect()
	}

	changes, err := c.GitClient.DiffChangesFromCommitted(c.CompareBranch)
	if err != nil {
		return nil, fmt.Errorf("git diff: %w", err)
	}

	var files []string
	for _, change := range changes {
		if change.Mode == gittool.DeleteMode {
			continue
		}
		if !strings.HasSuffix(change.FileName, c.Conventions.Extension()) || isExcluded(change.FileName) {
			c.logger.Debugf("skip checking for other file: %s", change.FileName)
			continue
		}
		files = append(files, change.FileName)
	}
	return files, nil
}

// collect globs every source file of the repository, skipping build output
// symlinks and the git directory at the top level.
func (c *Checker) collect() ([]string, error) {
	fsys := os.DirFS(c.RepositoryPath)
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read repository %s: %w", c.RepositoryPath, err)
	}

	pattern := "**/*" + c.Conventions.Extension()
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if isExcluded(name) {
			continue
		}

		if !entry.IsDir() {
			if strings.HasSuffix(name, c.Conventions.Extension()) {
				files = append(files, name)
			}
			continue
		}

		sub, err := fs.Sub(fsys, name)
		if err != nil {
			return nil, err
		}
		matches, err := doublestar.Glob(sub, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s in %s: %w", pattern, name, err)
		}
		for _, m := range matches {
			files = append(files, path.Join(name, m))
		}
	}
	return files, nil
}

func isExcluded(p string) bool {
	top := strings.SplitN(p, "/", 2)[0]
	return top == ".git" || strings.HasPrefix(top, "bazel-")
}
