package filecover

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Azure/filecover/pkg/coverage"
	"github.com/Azure/filecover/pkg/metrics"
	"github.com/Azure/filecover/pkg/runner"
)

const (
	passedBanner = "COVERAGE ANALYSIS PASSED"
	failedBanner = "COVERAGE ANALYSIS FAILED"
)

// store sends the coverage result of the run to the metrics sink.
func store(
	ctx context.Context,
	sink metrics.Sink,
	runID string,
	aggregated *coverage.Aggregated,
	outcome *runner.Outcome,
	duration time.Duration,
) error {
	if sink == nil {
		return nil
	}

	data := &metrics.Data{
		PreciseTimestamp: time.Now().UTC(),
		RunID:            runID,
		FilePath:         aggregated.File.Path,
		ExecutableLines:  aggregated.ExecutableCount(),
		CoveredLines:     aggregated.CoveredCount(),
		Coverage:         aggregated.Percentage(),
		TestTargets:      len(outcome.Results) + len(outcome.Failures),
		FailedTargets:    len(outcome.Failures),
		Duration:         duration,
	}
	if err := sink.Store(ctx, data); err != nil {
		return fmt.Errorf("store metrics: %w", err)
	}
	return nil
}

// dump outputs the coverage result per line
func dump(aggregated *coverage.Aggregated, logger logrus.FieldLogger) {
	logger.Debugf("Summary of coverage: %s %d/%d %.2f%%",
		aggregated.File.Path,
		aggregated.CoveredCount(),
		aggregated.ExecutableCount(),
		aggregated.Percentage(),
	)

	for i, state := range aggregated.LineStates {
		if state == coverage.Nonexecutable {
			continue
		}
		logger.Debugf("%4d %s", i+1, state)
	}
}
