package filecover

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Azure/filecover/pkg/report"
	"github.com/Azure/filecover/pkg/runner"
	"github.com/Azure/filecover/pkg/testfile"
)

func TestFileCoverError(t *testing.T) {
	assertion := assert.New(t)

	err := WrapError(assert.AnError, "execute failed")
	assertion.EqualErrorf(err, assert.AnError.Error(), "error string")
	assertion.Equalf(GeneralErrorExitCode, err.ExitCode, "general error exit code")
	assertion.Equalf("execute failed", err.ErrMessage, "error message")
	assertion.ErrorIs(err, assert.AnError)

	err = WrapErrorWithCode(assert.AnError, CoverageAnalysisFailedExitCode, "coverage analysis failed")
	assertion.EqualErrorf(err, assert.AnError.Error(), "error string")
	assertion.Equalf(CoverageAnalysisFailedExitCode, err.ExitCode, "coverage analysis failed exit code")
	assertion.Equalf("coverage analysis failed", err.ErrMessage, "error message")
}

func TestExitCodeOf(t *testing.T) {
	testSuites := []struct {
		err      error
		expected int
	}{
		{err: nil, expected: 0},
		{err: assert.AnError, expected: GeneralErrorExitCode},
		{err: fmt.Errorf("%w: pdf", report.ErrUnsupportedFormat), expected: InvalidArgumentExitCode},
		{err: fmt.Errorf("%w: foo", ErrInvalidArgument), expected: InvalidArgumentExitCode},
		{err: fmt.Errorf("%w: A.kt", testfile.ErrSourceFileNotFound), expected: SourceFileNotFoundExitCode},
		{err: fmt.Errorf("%w for A.kt", testfile.ErrMissingTestFile), expected: MissingTestFileExitCode},
		{err: testfile.ErrTestFileCheckFailed, expected: MissingTestFileExitCode},
		{err: fmt.Errorf("%w: timeout", runner.ErrCoverageAnalysisFailed), expected: CoverageAnalysisFailedExitCode},
		{err: fmt.Errorf("run: %w", WrapErrorWithCode(assert.AnError, 42, "")), expected: 42},
	}

	for _, testCase := range testSuites {
		assert.Equal(t, testCase.expected, ExitCodeOf(testCase.err), "%v", testCase.err)
	}
}
