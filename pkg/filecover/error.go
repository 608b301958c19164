package filecover

import (
	"errors"

	"github.com/Azure/filecover/pkg/report"
	"github.com/Azure/filecover/pkg/runner"
	"github.com/Azure/filecover/pkg/testfile"
)

const (
	GeneralErrorExitCode           = 1 // bash general error exit code
	InvalidArgumentExitCode        = 2 // bad command line argument or unsupported report format
	SourceFileNotFoundExitCode     = 3 // the source file to analyse does not exist
	MissingTestFileExitCode        = 4 // a source file has no test file and is not exempted
	CoverageAnalysisFailedExitCode = 5 // no test target produced coverage data
)

var ErrInvalidArgument = errors.New("invalid argument")

// FileCoverError carries the detail error information for filecover error
type FileCoverError struct {
	ExitCode   int
	Err        error
	ErrMessage string
}

func WrapErrorWithCode(err error, exitCode int, errMessage string) *FileCoverError {
	return &FileCoverError{
		ExitCode:   exitCode,
		Err:        err,
		ErrMessage: errMessage,
	}
}

func WrapError(err error, errMessage string) *FileCoverError {
	return WrapErrorWithCode(err, ExitCodeOf(err), errMessage)
}

func (e *FileCoverError) Error() string {
	return e.Err.Error()
}

func (e *FileCoverError) Unwrap() error {
	return e.Err
}

// ExitCodeOf maps an error to the process exit code.
func ExitCodeOf(err error) int {
	var fileCoverErr *FileCoverError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &fileCoverErr):
		return fileCoverErr.ExitCode
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, report.ErrUnsupportedFormat):
		return InvalidArgumentExitCode
	case errors.Is(err, testfile.ErrSourceFileNotFound):
		return SourceFileNotFoundExitCode
	case errors.Is(err, testfile.ErrMissingTestFile), errors.Is(err, testfile.ErrTestFileCheckFailed):
		return MissingTestFileExitCode
	case errors.Is(err, runner.ErrCoverageAnalysisFailed):
		return CoverageAnalysisFailedExitCode
	default:
		return GeneralErrorExitCode
	}
}
