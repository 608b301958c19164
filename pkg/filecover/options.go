package filecover

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Azure/filecover/pkg/config"
	"github.com/Azure/filecover/pkg/metrics"
	"github.com/Azure/filecover/pkg/report"
	"github.com/Azure/filecover/pkg/runner"
)

// RunOption contains the input for the filecover run command.
type RunOption struct {
	RepositoryPath string
	// SourcePath is relative to the repository root.
	SourcePath string

	Format report.Format
	Config *config.Config
	// ExemptionsPath overrides the exemption dataset of the config and must exist.
	// A relative path is relative to the working directory.
	ExemptionsPath string
	// ProcessTimeout overrides the runner timeout of the config when positive.
	ProcessTimeout time.Duration
	ShowUncovered  bool
	Style          string

	MetricsOption *metrics.Option

	// Runner runs the coverage tool, built from Config when nil.
	Runner runner.CoverageRunner

	Writer io.Writer
	Logger logrus.FieldLogger
}

// NewRunOption returns a RunOption with default values.
func NewRunOption() *RunOption {
	return &RunOption{
		Format:        report.Markdown,
		Config:        config.Default(),
		Style:         report.DefaultCodeStyle,
		MetricsOption: &metrics.Option{Type: metrics.None},
	}
}

func (o *RunOption) Validate() error {
	if o.RepositoryPath == "" {
		return fmt.Errorf("%w: repository path is empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(o.SourcePath) == "" {
		return fmt.Errorf("%w: source file path is empty", ErrInvalidArgument)
	}
	if _, err := report.ParseFormat(string(o.Format)); err != nil {
		return err
	}
	if o.Config == nil {
		return errors.New("config is required")
	}
	if o.ProcessTimeout < 0 {
		return fmt.Errorf("%w: process timeout %s", ErrInvalidArgument, o.ProcessTimeout)
	}
	if o.MetricsOption != nil {
		return o.MetricsOption.Validate()
	}
	return nil
}
