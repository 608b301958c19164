package filecover

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Azure/filecover/pkg/coverage"
	"github.com/Azure/filecover/pkg/metrics"
	"github.com/Azure/filecover/pkg/report"
	"github.com/Azure/filecover/pkg/runner"
	"github.com/Azure/filecover/pkg/testfile"
)

// NewFileCover wires the pipeline of one coverage run from the option.
func NewFileCover(o *RunOption) (FileCover, error) {
	if err := o.Validate(); err != nil {
		return nil, WrapError(err, "invalid option")
	}

	repositoryAbsPath, err := filepath.Abs(o.RepositoryPath)
	if err != nil {
		return nil, WrapError(fmt.Errorf("get absolute path of repo: %w", err), "invalid repository path")
	}

	writer := o.Writer
	if writer == nil {
		writer = os.Stdout
	}
	logger := o.Logger
	if logger == nil {
		logger = logrus.New()
	}
	runID := uuid.New().String()
	sourcePath := path.Clean(filepath.ToSlash(o.SourcePath))
	logger = logger.WithFields(logrus.Fields{
		"source": "filecover",
		"run":    runID,
		"file":   sourcePath,
	})

	format, _ := report.ParseFormat(string(o.Format))

	registry, err := LoadExemptions(repositoryAbsPath, o.ExemptionsPath, o.Config.Exemptions)
	if err != nil {
		return nil, WrapError(err, "load exemptions")
	}
	exemptionsPath, _ := ExemptionsFile(repositoryAbsPath, o.ExemptionsPath, o.Config.Exemptions)
	logger.Debugf("%d exemptions loaded from %s", registry.Len(), exemptionsPath)

	conventions := testfile.NewConventions(o.Config.Layouts, o.Config.SourceExtension)
	resolver := testfile.NewResolver(repositoryAbsPath, conventions, registry, logger)

	var sink metrics.Sink
	if o.MetricsOption != nil {
		sink, err = o.MetricsOption.GetSink(logger)
		if err != nil {
			return nil, WrapError(err, "metrics sink")
		}
	}

	coverageRunner := o.Runner
	if coverageRunner == nil {
		runnerConfig := o.Config.Runner
		if o.ProcessTimeout > 0 {
			runnerConfig.Timeout = o.ProcessTimeout
		}
		coverageRunner, err = runner.NewCommandRunner(&runner.Option{
			RepositoryPath: repositoryAbsPath,
			Runner:         runnerConfig,
			Logger:         logger,
		})
		if err != nil {
			return nil, WrapError(err, "coverage runner")
		}
	}

	return &fileCover{
		repositoryPath: repositoryAbsPath,
		sourcePath:     sourcePath,
		format:         format,
		reportDir:      inRepository(repositoryAbsPath, o.Config.ReportDir),
		resolver:       resolver,
		runner:         coverageRunner,
		sink:           sink,
		showUncovered:  o.ShowUncovered,
		style:          o.Style,
		runID:          runID,
		writer:         writer,
		logger:         logger,
	}, nil
}

var _ FileCover = (*fileCover)(nil)

type fileCover struct {
	repositoryPath string
	sourcePath     string
	format         report.Format
	reportDir      string
	resolver       *testfile.Resolver
	runner         runner.CoverageRunner
	sink           metrics.Sink
	showUncovered  bool
	style          string
	runID          string
	writer         io.Writer
	logger         logrus.FieldLogger
}

// Run resolves the test targets of the source file, runs them, merges their
// coverage and writes the report. A skipped file writes no report.
func (f *fileCover) Run(ctx context.Context) error {
	start := time.Now()

	resolution, err := f.resolver.Resolve(f.sourcePath)
	if err != nil {
		return f.fail(err, "resolve test files")
	}
	if resolution.Skipped() {
		f.logger.Info("coverage check skipped")
		fmt.Fprintln(f.writer, resolution.Skip)
		return nil
	}

	source, err := coverage.ReadSourceFile(
		filepath.Join(f.repositoryPath, filepath.FromSlash(f.sourcePath)),
		f.sourcePath,
	)
	if err != nil {
		return f.fail(err, "read source file")
	}

	f.logger.Infof("running coverage for %d test target(s)", len(resolution.Targets))
	outcome, err := f.runner.Run(ctx, source, resolution.Targets)
	if err != nil {
		return f.fail(err, "run coverage")
	}
	for _, failure := range outcome.Failures {
		f.logger.Warnf("coverage of %s left out: %s", failure.Target.Label(), failure)
	}

	aggregated, err := coverage.Merge(source, outcome.Records()...)
	if err != nil {
		return f.fail(err, "merge coverage")
	}
	dump(aggregated, f.logger)

	reportPath := report.ReportPath(f.reportDir, f.sourcePath, f.format)
	if err := report.WriteReport(reportPath, f.format, aggregated); err != nil {
		return f.fail(err, "write report")
	}

	if f.showUncovered {
		printer := report.NewSnippetPrinter(f.sourcePath, f.style)
		if err := printer.PrintUncovered(f.writer, aggregated); err != nil {
			f.logger.WithError(err).Warn("print uncovered lines")
		}
	}

	if err := store(ctx, f.sink, f.runID, aggregated, outcome, time.Since(start)); err != nil {
		f.logger.WithError(err).Warn("metrics are not stored")
	}

	fmt.Fprintf(f.writer, "Generated report at: %s\n", reportPath)
	fmt.Fprintln(f.writer, passedBanner)
	return nil
}

func (f *fileCover) fail(err error, errMessage string) error {
	f.logger.WithError(err).Error(errMessage)
	fmt.Fprintln(f.writer, failedBanner)
	return WrapError(fmt.Errorf("%s: %w", errMessage, err), errMessage)
}

// inRepository resolves p against the repository root unless it is absolute.
func inRepository(repositoryPath string, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(repositoryPath, filepath.FromSlash(strings.TrimPrefix(p, "./")))
}
