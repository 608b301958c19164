package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/Azure/filecover/pkg/config"
	"github.com/Azure/filecover/pkg/coverage"
	"github.com/Azure/filecover/pkg/parser"
	"github.com/Azure/filecover/pkg/testfile"
)

// waitDelay bounds how long Wait blocks on output pipes after the command was killed.
const waitDelay = 5 * time.Second

// CoverageRunner runs the coverage tool for test targets of a source file.
type CoverageRunner interface {
	Run(ctx context.Context, source *coverage.SourceFile, targets []testfile.TestTarget) (*Outcome, error)
}

// Result is the record one test target produced.
type Result struct {
	Target testfile.TestTarget
	Record coverage.Record
}

// Outcome holds the records of succeeded runs and the failures, both in target order.
type Outcome struct {
	Results  []Result
	Failures []*RunFailure
}

// Records returns the records of every succeeded run.
func (o *Outcome) Records() []coverage.Record {
	records := make([]coverage.Record, 0, len(o.Results))
	for _, r := range o.Results {
		records = append(records, r.Record)
	}
	return records
}

// Option configures a command runner.
type Option struct {
	RepositoryPath string
	Runner         config.Runner
	// Concurrency limits parallel runs, zero runs all targets at once.
	Concurrency int
	Logger      logrus.FieldLogger
}

// NewCommandRunner parses the command and artifact templates of the runner config.
func NewCommandRunner(o *Option) (CoverageRunner, error) {
	repositoryAbsPath, err := filepath.Abs(o.RepositoryPath)
	if err != nil {
		return nil, fmt.Errorf("get absolute path of repo: %w", err)
	}

	if len(o.Runner.Command) == 0 {
		return nil, errors.New("runner command is empty")
	}
	command := make([]*template.Template, 0, len(o.Runner.Command))
	for i, arg := range o.Runner.Command {
		tmpl, err := newTemplate(fmt.Sprintf("command[%d]", i), arg)
		if err != nil {
			return nil, err
		}
		command = append(command, tmpl)
	}

	artifact, err := newTemplate("artifact", o.Runner.Artifact)
	if err != nil {
		return nil, err
	}

	format, err := parser.ParseFormat(o.Runner.Format)
	if err != nil {
		return nil, err
	}

	timeout := o.Runner.Timeout
	if timeout <= 0 {
		timeout = config.DefaultRunnerTimeout
	}

	logger := o.Logger
	if logger == nil {
		logger = logrus.New()
	}

	return &commandRunner{
		repositoryPath: repositoryAbsPath,
		command:        command,
		artifact:       artifact,
		format:         format,
		timeout:        timeout,
		env:            o.Runner.Env,
		concurrency:    o.Concurrency,
		logger:         logger.WithField("source", "runner"),
	}, nil
}

func newTemplate(name string, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse runner template %s: %w", name, err)
	}
	return tmpl, nil
}

var _ CoverageRunner = (*commandRunner)(nil)

type commandRunner struct {
	repositoryPath string
	command        []*template.Template
	artifact       *template.Template
	format         parser.Format
	timeout        time.Duration
	env            []string
	concurrency    int
	logger         logrus.FieldLogger
}

// templateData is what runner templates can refer to.
type templateData struct {
	RepoRoot   string
	SourcePath string
	Label      string
	Package    string
	Name       string
	TestPath   string
	Artifact   string
}

// Run runs every target, concurrently, each under its own timeout.
// It fails with ErrCoverageAnalysisFailed only if no target produced a record.
func (r *commandRunner) Run(ctx context.Context, source *coverage.SourceFile, targets []testfile.TestTarget) (*Outcome, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no test targets for %s", ErrCoverageAnalysisFailed, source.Path)
	}

	concurrency := r.concurrency
	if concurrency <= 0 || concurrency > len(targets) {
		concurrency = len(targets)
	}

	records := make([]coverage.Record, len(targets))
	failures := make([]*RunFailure, len(targets))

	wg := new(sync.WaitGroup)
	semaphore := make(chan struct{}, concurrency)
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target testfile.TestTarget) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			records[i], failures[i] = r.runTarget(ctx, source, target)
		}(i, target)
	}
	wg.Wait()

	outcome := &Outcome{}
	var errs []error
	for i, target := range targets {
		if failures[i] != nil {
			outcome.Failures = append(outcome.Failures, failures[i])
			errs = append(errs, failures[i])
			continue
		}
		outcome.Results = append(outcome.Results, Result{Target: target, Record: records[i]})
	}

	if len(outcome.Results) == 0 {
		return outcome, fmt.Errorf("%w: %w", ErrCoverageAnalysisFailed, multierr.Combine(errs...))
	}
	return outcome, nil
}

func (r *commandRunner) runTarget(ctx context.Context, source *coverage.SourceFile, target testfile.TestTarget) (coverage.Record, *RunFailure) {
	logger := r.logger.WithField("target", target.Label())
	fail := func(kind FailureKind, err error) *RunFailure {
		failure := &RunFailure{Target: target, Kind: kind, Err: err}
		logger.WithError(err).Errorf("coverage run failed: %s", kind)
		return failure
	}

	data := templateData{
		RepoRoot:   r.repositoryPath,
		SourcePath: source.Path,
		Label:      target.Label(),
		Package:    target.Package(),
		Name:       target.Name(),
		TestPath:   target.Path,
	}
	artifact, err := render(r.artifact, data)
	if err != nil {
		return nil, fail(StartFailed, err)
	}
	if !filepath.IsAbs(artifact) {
		artifact = filepath.Join(r.repositoryPath, filepath.FromSlash(artifact))
	}
	data.Artifact = artifact

	argv := make([]string, 0, len(r.command))
	for _, tmpl := range r.command {
		arg, err := render(tmpl, data)
		if err != nil {
			return nil, fail(StartFailed, err)
		}
		argv = append(argv, arg)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var output bytes.Buffer
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = r.repositoryPath
	cmd.Env = append(os.Environ(), r.env...)
	cmd.Stdin = nil
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = waitDelay

	logger.Infof("run coverage: '%s'", strings.Join(argv, " "))
	start := time.Now()
	err = cmd.Run()
	logger.Debugf("coverage command finished in %s, output:\n%s", time.Since(start), output.String())

	switch {
	case ctx.Err() != nil:
		failure := fail(Cancelled, ctx.Err())
		failure.Output = output.String()
		return nil, failure
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		failure := fail(Timeout, fmt.Errorf("no result after %s", r.timeout))
		failure.Output = output.String()
		return nil, failure
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			failure := fail(NonZeroExit, err)
			failure.ExitCode = exitErr.ExitCode()
			failure.Output = output.String()
			return nil, failure
		}
		return nil, fail(StartFailed, err)
	}

	record, err := parser.ParseFile(r.format, artifact, source)
	if err != nil {
		failure := fail(MissingArtifact, fmt.Errorf("read %s: %w", artifact, err))
		failure.Output = output.String()
		return nil, failure
	}

	logger.Infof("coverage artifact: %s", artifact)
	return record, nil
}

func render(tmpl *template.Template, data templateData) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render runner template %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
