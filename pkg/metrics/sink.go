package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type SinkType string

const (
	None     SinkType = "None"
	Textfile SinkType = "Textfile"
)

// Sink stores the metrics of a coverage run.
type Sink interface {
	Store(ctx context.Context, data *Data) error
}

// Data is the snapshot of one coverage run of a single source file.
type Data struct {
	PreciseTimestamp time.Time     // time the run finished
	RunID            string        // unique id of the invocation
	FilePath         string        // source file path, relative to the repository root
	ExecutableLines  int           // covered and not covered lines
	CoveredLines     int           // lines hit by at least one test
	Coverage         float64       // CoveredLines / ExecutableLines in percent
	TestTargets      int           // test targets that were run
	FailedTargets    int           // test targets without a coverage record
	Duration         time.Duration // wall time of the whole run
}

var (
	ErrUnsupportedSinkType = errors.New(`supported type is "Textfile", unsupported metrics sink type`)
	ErrMissingTextfilePath = errors.New("metrics textfile path is required")
)

type Option struct {
	Type         SinkType
	TextfilePath string
}

func (o *Option) Validate() error {
	switch o.Type {
	case None, "":
		return nil
	case Textfile:
		if o.TextfilePath == "" {
			return ErrMissingTextfilePath
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedSinkType, o.Type)
}

// GetSink returns the configured sink, nil when metrics are disabled.
func (o *Option) GetSink(logger logrus.FieldLogger) (Sink, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	switch o.Type {
	case Textfile:
		return NewTextfileSink(o.TextfilePath, logger), nil
	default:
		return nil, nil
	}
}
