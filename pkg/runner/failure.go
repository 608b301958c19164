package runner

import (
	"errors"
	"fmt"

	"github.com/Azure/filecover/pkg/testfile"
)

var ErrCoverageAnalysisFailed = errors.New("coverage analysis failed")

// FailureKind classifies why a single coverage run produced no record.
type FailureKind int

const (
	_ FailureKind = iota
	Timeout
	NonZeroExit
	StartFailed
	MissingArtifact
	Cancelled
)

func (k FailureKind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case NonZeroExit:
		return "non-zero exit"
	case StartFailed:
		return "start failed"
	case MissingArtifact:
		return "missing artifact"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// RunFailure is the failure of the coverage run of one test target.
type RunFailure struct {
	Target   testfile.TestTarget
	Kind     FailureKind
	ExitCode int
	// Output is the combined stdout and stderr of the command.
	Output string
	Err    error
}

func (f *RunFailure) Error() string {
	switch f.Kind {
	case NonZeroExit:
		return fmt.Sprintf("%s: %s (exit code %d)", f.Target.Label(), f.Kind, f.ExitCode)
	default:
		if f.Err != nil {
			return fmt.Sprintf("%s: %s: %s", f.Target.Label(), f.Kind, f.Err)
		}
		return fmt.Sprintf("%s: %s", f.Target.Label(), f.Kind)
	}
}

func (f *RunFailure) Unwrap() error {
	return f.Err
}
