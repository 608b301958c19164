package filecover

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Azure/filecover/pkg/config"
	"github.com/Azure/filecover/pkg/coverage"
	"github.com/Azure/filecover/pkg/metrics"
	"github.com/Azure/filecover/pkg/report"
	"github.com/Azure/filecover/pkg/runner"
	"github.com/Azure/filecover/pkg/testfile"
)

const (
	N = coverage.Nonexecutable
	U = coverage.NotCovered
	C = coverage.Covered
)

const (
	addNumsPath      = "app/main/java/com/example/AddNums.kt"
	addNumsTest      = "app/test/java/com/example/AddNumsTest.kt"
	addNumsLocalTest = "app/test/java/com/example/AddNumsLocalTest.kt"
	addNumsShared    = "app/sharedTest/java/com/example/AddNumsTest.kt"
)

const addNumsSource = `package com.example

class AddNums {
  companion object {
    fun sumNumbers(a: Int, b: Int): Any {
      return if (a == 0 && b == 0) {
          "Both numbers are zero"
      } else {
          a + b
      }
    }
  }
}
`

// fakeRunner returns canned records per test file, and a failure for test files without one.
type fakeRunner struct {
	records map[string]coverage.Record
	ran     []testfile.TestTarget
}

func (r *fakeRunner) Run(ctx context.Context, source *coverage.SourceFile, targets []testfile.TestTarget) (*runner.Outcome, error) {
	r.ran = append(r.ran, targets...)

	outcome := &runner.Outcome{}
	for _, target := range targets {
		record, ok := r.records[target.Path]
		if !ok {
			outcome.Failures = append(outcome.Failures, &runner.RunFailure{Target: target, Kind: runner.NonZeroExit, ExitCode: 1})
			continue
		}
		outcome.Results = append(outcome.Results, runner.Result{Target: target, Record: record})
	}
	if len(outcome.Results) == 0 {
		return outcome, runner.ErrCoverageAnalysisFailed
	}
	return outcome, nil
}

func writeRepoFile(t *testing.T, root string, name string, contents string) {
	filename := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(filename), 0755))
	require.NoError(t, os.WriteFile(filename, []byte(contents), 0644))
}

func newTestRepo(t *testing.T, testFiles ...string) string {
	root := t.TempDir()
	writeRepoFile(t, root, addNumsPath, addNumsSource)
	for _, f := range testFiles {
		writeRepoFile(t, root, f, "class Test")
	}
	return root
}

func newTestOption(root string, r runner.CoverageRunner, writer *bytes.Buffer) *RunOption {
	o := NewRunOption()
	o.RepositoryPath = root
	o.SourcePath = addNumsPath
	o.Runner = r
	o.Writer = writer
	o.Logger = logrus.New()
	return o
}

func run(t *testing.T, o *RunOption) error {
	fc, err := NewFileCover(o)
	require.NoError(t, err)
	return fc.Run(context.Background())
}

func TestRun(t *testing.T) {
	t.Run("single test", func(t *testing.T) {
		root := newTestRepo(t, addNumsTest)
		r := &fakeRunner{records: map[string]coverage.Record{
			addNumsTest: {N, N, U, N, N, C, C, N, C, N, N, N, N},
		}}

		var buf bytes.Buffer
		require.NoError(t, run(t, newTestOption(root, r, &buf)))

		reportPath := filepath.Join(root, "coverage_reports", "app", "main", "java", "com", "example", "AddNums", "coverage.md")
		contents, err := os.ReadFile(reportPath)
		require.NoError(t, err)
		assert.Equal(t, "## Coverage Report\n\n"+
			"- **Covered File:** app/main/java/com/example/AddNums.kt\n"+
			"- **Coverage percentage:** 75.00% covered\n"+
			"- **Line coverage:** 3 / 4 lines covered", string(contents))
		assert.Equal(t, "Generated report at: "+reportPath+"\nCOVERAGE ANALYSIS PASSED\n", buf.String())
	})

	t.Run("shared and local tests are merged", func(t *testing.T) {
		root := newTestRepo(t, addNumsLocalTest, addNumsShared)
		r := &fakeRunner{records: map[string]coverage.Record{
			addNumsShared:    {N, N, U, N, N, C, U, N, U, N, N, N, N},
			addNumsLocalTest: {N, N, U, N, N, C, U, N, C, N, N, N, N},
		}}

		o := newTestOption(root, r, &bytes.Buffer{})
		o.Format = report.HTML
		require.NoError(t, run(t, o))
		assert.Len(t, r.ran, 2)

		reportPath := filepath.Join(root, "coverage_reports", "app", "main", "java", "com", "example", "AddNums", "coverage.html")
		contents, err := os.ReadFile(reportPath)
		require.NoError(t, err)
		assert.Contains(t, string(contents), "<div><strong>Coverage percentage:</strong> 50.00%</div>")
		assert.Contains(t, string(contents), "<div><strong>Line coverage:</strong> 2 / 4 covered</div>")
	})

	t.Run("partial failure reports the successful subset", func(t *testing.T) {
		root := newTestRepo(t, addNumsLocalTest, addNumsShared)
		r := &fakeRunner{records: map[string]coverage.Record{
			addNumsLocalTest: {N, N, U, N, N, C, C, N, C, N, N, N, N},
		}}

		var buf bytes.Buffer
		require.NoError(t, run(t, newTestOption(root, r, &buf)))
		assert.Contains(t, buf.String(), "COVERAGE ANALYSIS PASSED")
	})

	t.Run("every run failed", func(t *testing.T) {
		root := newTestRepo(t, addNumsTest)
		var buf bytes.Buffer
		err := run(t, newTestOption(root, &fakeRunner{}, &buf))
		assert.ErrorIs(t, err, runner.ErrCoverageAnalysisFailed)
		assert.Equal(t, CoverageAnalysisFailedExitCode, ExitCodeOf(err))
		assert.Equal(t, "COVERAGE ANALYSIS FAILED\n", buf.String())
		assert.NoDirExists(t, filepath.Join(root, "coverage_reports"))
	})

	t.Run("source file does not exist", func(t *testing.T) {
		root := t.TempDir()
		r := &fakeRunner{}
		var buf bytes.Buffer
		err := run(t, newTestOption(root, r, &buf))
		assert.ErrorIs(t, err, testfile.ErrSourceFileNotFound)
		assert.Equal(t, SourceFileNotFoundExitCode, ExitCodeOf(err))
		assert.Empty(t, r.ran)
	})

	t.Run("missing test file", func(t *testing.T) {
		root := newTestRepo(t)
		r := &fakeRunner{}
		var buf bytes.Buffer
		err := run(t, newTestOption(root, r, &buf))
		assert.ErrorIs(t, err, testfile.ErrMissingTestFile)
		assert.Equal(t, MissingTestFileExitCode, ExitCodeOf(err))
		assert.Empty(t, r.ran)
		assert.NoDirExists(t, filepath.Join(root, "coverage_reports"))
	})

	t.Run("test file not required", func(t *testing.T) {
		root := newTestRepo(t)
		writeRepoFile(t, root, config.DefaultExemptions,
			"test_file_exemption:\n  - exempted_file_path: "+addNumsPath+"\n    test_file_not_required: true\n")

		var buf bytes.Buffer
		require.NoError(t, run(t, newTestOption(root, &fakeRunner{}, &buf)))
		assert.Equal(t, "This file is exempted from having a test file; skipping coverage check.\n", buf.String())
		assert.NoDirExists(t, filepath.Join(root, "coverage_reports"))
	})

	t.Run("coverage exempt", func(t *testing.T) {
		root := newTestRepo(t, addNumsTest)
		exemptions := filepath.Join(t.TempDir(), "exemptions.yaml")
		require.NoError(t, os.WriteFile(exemptions, []byte(
			"test_file_exemption:\n  - exempted_file_path: "+addNumsPath+"\n    source_file_is_incompatible_with_code_coverage: true\n"), 0644))

		r := &fakeRunner{}
		var buf bytes.Buffer
		o := newTestOption(root, r, &buf)
		o.ExemptionsPath = exemptions
		require.NoError(t, run(t, o))
		assert.Equal(t, "This file is exempted from code coverage analysis; skipping coverage check.\n", buf.String())
		assert.Empty(t, r.ran)
	})

	t.Run("uncovered lines and metrics", func(t *testing.T) {
		root := newTestRepo(t, addNumsTest)
		r := &fakeRunner{records: map[string]coverage.Record{
			addNumsTest: {N, N, U, N, N, C, C, N, C, N, N, N, N},
		}}
		metricsFile := filepath.Join(t.TempDir(), "filecover.prom")

		var buf bytes.Buffer
		o := newTestOption(root, r, &buf)
		o.ShowUncovered = true
		o.MetricsOption = &metrics.Option{Type: metrics.Textfile, TextfilePath: metricsFile}
		require.NoError(t, run(t, o))

		assert.Contains(t, buf.String(), "Uncovered lines in "+addNumsPath+":\n")
		assert.True(t, strings.HasSuffix(buf.String(), "COVERAGE ANALYSIS PASSED\n"))

		contents, err := os.ReadFile(metricsFile)
		require.NoError(t, err)
		assert.Contains(t, string(contents), "filecover_coverage_percent{")
		assert.Contains(t, string(contents), "} 75\n")
	})
}

func TestNewFileCover(t *testing.T) {
	t.Run("unsupported format", func(t *testing.T) {
		o := newTestOption(t.TempDir(), &fakeRunner{}, &bytes.Buffer{})
		o.Format = report.Format("PDF")
		_, err := NewFileCover(o)
		assert.ErrorIs(t, err, report.ErrUnsupportedFormat)
		assert.Equal(t, InvalidArgumentExitCode, ExitCodeOf(err))
	})

	t.Run("malformed exemptions", func(t *testing.T) {
		root := newTestRepo(t, addNumsTest)
		writeRepoFile(t, root, config.DefaultExemptions, "test_file_exemption: {oops")
		_, err := NewFileCover(newTestOption(root, &fakeRunner{}, &bytes.Buffer{}))
		assert.Error(t, err)
		assert.Equal(t, GeneralErrorExitCode, ExitCodeOf(err))
	})

	t.Run("explicit exemptions do not exist", func(t *testing.T) {
		o := newTestOption(newTestRepo(t, addNumsTest), &fakeRunner{}, &bytes.Buffer{})
		o.ExemptionsPath = filepath.Join(t.TempDir(), "exemptions.yaml")
		_, err := NewFileCover(o)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Equal(t, GeneralErrorExitCode, ExitCodeOf(err))
	})

	t.Run("runner from config", func(t *testing.T) {
		o := newTestOption(t.TempDir(), nil, &bytes.Buffer{})
		fc, err := NewFileCover(o)
		require.NoError(t, err)
		assert.NotNil(t, fc.(*fileCover).runner)
	})

	t.Run("negative process timeout", func(t *testing.T) {
		o := newTestOption(t.TempDir(), &fakeRunner{}, &bytes.Buffer{})
		o.ProcessTimeout = -1
		_, err := NewFileCover(o)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}
