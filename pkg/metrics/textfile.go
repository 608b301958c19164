package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var _ Sink = (*textfileSink)(nil)

// textfileSink writes run metrics in the prometheus text format, e.g. for the
// node exporter textfile collector. Every Store replaces the file.
type textfileSink struct {
	path   string
	logger logrus.FieldLogger
}

func NewTextfileSink(path string, logger logrus.FieldLogger) Sink {
	if logger == nil {
		logger = logrus.New()
	}
	return &textfileSink{
		path:   path,
		logger: logger.WithField("source", "metrics"),
	}
}

func (s *textfileSink) Store(ctx context.Context, data *Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"file": data.FilePath, "run": data.RunID}
	gauge := func(name string, help string, value float64) {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"file", "run"})
		registry.MustRegister(g)
		g.With(labels).Set(value)
	}

	gauge("filecover_lines_covered", "Executable lines hit by at least one test.", float64(data.CoveredLines))
	gauge("filecover_lines_executable", "Executable lines of the source file.", float64(data.ExecutableLines))
	gauge("filecover_coverage_percent", "Line coverage of the source file in percent.", data.Coverage)
	gauge("filecover_test_targets", "Test targets run for the source file.", float64(data.TestTargets))
	gauge("filecover_test_targets_failed", "Test targets that produced no coverage record.", float64(data.FailedTargets))
	gauge("filecover_run_duration_seconds", "Wall time of the coverage run.", data.Duration.Seconds())
	gauge("filecover_run_timestamp_seconds", "Unix time the coverage run finished.", float64(data.PreciseTimestamp.Unix()))

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(s.path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	s.logger.Debugf("metrics written to %s", s.path)
	return nil
}
