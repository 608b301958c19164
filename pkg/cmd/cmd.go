package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Azure/filecover/pkg/config"
	"github.com/Azure/filecover/pkg/exemption"
	"github.com/Azure/filecover/pkg/filecover"
	"github.com/Azure/filecover/pkg/metrics"
	"github.com/Azure/filecover/pkg/report"
	"github.com/Azure/filecover/pkg/testfile"
)

var (
	runLong = `Generate the line coverage report of a single source file.

Use this tool to find the test files of a source file, run them with coverage,
and merge the coverage of every test file into one report. A file exempted from
having a test file, or from coverage analysis, is skipped.
`

	runExample = `# Generate the markdown coverage report of a source file
filecover run . app/src/main/java/org/example/AddNums.kt

# Generate the html coverage report, give every test run at most 10 minutes
filecover run . app/src/main/java/org/example/AddNums.kt format=HTML processTimeout=10

# Also print the uncovered lines and write prometheus metrics
filecover run . app/src/main/java/org/example/AddNums.kt --show-uncovered --metrics-file /var/lib/node_exporter/filecover.prom
`

	checkLong = `Check that every source file has a test file.

Source files exempted from having a test file or from coverage analysis are not checked.
`

	checkExample = `# Check the whole repository
filecover check .

# Check only the files changed since origin/develop
filecover check . --compare-branch origin/develop
`
)

const (
	FlagVerbose      = "verbose"
	FlagVerboseShort = "v"
	FlagConfig       = "config"
	FlagExemptions   = "exemptions"
)

func createLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	verbose, err := cmd.Flags().GetBool(FlagVerbose)
	if err != nil {
		// no verbose flag on the command, It's OK.
		verbose = false
	}
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// loadConfig loads the config of the repository, honoring the --config flag.
func loadConfig(cmd *cobra.Command, repositoryPath string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(FlagConfig)
	cfg, err := config.Load(repositoryPath, path)
	if err != nil {
		return nil, filecover.WrapError(err, "load config")
	}
	return cfg, nil
}

// NewFileCoverCommand creates the root command of filecover.
func NewFileCoverCommand(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "filecover",
		Short:        "per-file line coverage tool",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolP(FlagVerbose, FlagVerboseShort, false, "verbose output")
	cmd.PersistentFlags().String(FlagConfig, "", "config file, defaults to $FILECOVER_CONFIG or <repoRoot>/"+config.DefaultFileName)
	cmd.PersistentFlags().String(FlagExemptions, "", "exemption dataset, overrides the one in the config file")

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newExemptionsCommand())
	cmd.AddCommand(newVersionCommand(version, commit, date))
	return cmd
}

func newRunCommand() *cobra.Command {
	o := filecover.NewRunOption()
	var metricsFile string

	cmd := &cobra.Command{
		Use:     "run <repoRoot> <sourceFilePath> [format=Markdown|Html] [processTimeout=<minutes>]",
		Short:   "generate the coverage report of a source file",
		Long:    runLong,
		Example: runExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseRunArguments(args)
			if err != nil {
				return filecover.WrapError(err, "parse arguments")
			}

			cfg, err := loadConfig(cmd, parsed.RepositoryPath)
			if err != nil {
				return err
			}

			o.RepositoryPath = parsed.RepositoryPath
			o.SourcePath = parsed.SourcePath
			o.Format = parsed.Format
			o.ProcessTimeout = parsed.ProcessTimeout
			o.Config = cfg
			o.ExemptionsPath, _ = cmd.Flags().GetString(FlagExemptions)
			o.Writer = cmd.OutOrStdout()
			o.Logger = createLogger(cmd)
			if metricsFile != "" {
				o.MetricsOption = &metrics.Option{Type: metrics.Textfile, TextfilePath: metricsFile}
			}

			fc, err := filecover.NewFileCover(o)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return fc.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&o.ShowUncovered, "show-uncovered", false, "print the not covered lines of the file")
	cmd.Flags().StringVar(&o.Style, "style", report.DefaultCodeStyle, "code style of the printed lines, refer to https://pygments.org/docs/styles for more information")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write run metrics in prometheus text format to this file")
	return cmd
}

func newCheckCommand() *cobra.Command {
	var compareBranch string

	cmd := &cobra.Command{
		Use:     "check <repoRoot>",
		Short:   "check every source file has a test file",
		Long:    checkLong,
		Example: checkExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repositoryPath := args[0]
			logger := createLogger(cmd)

			cfg, err := loadConfig(cmd, repositoryPath)
			if err != nil {
				return err
			}
			explicitPath, _ := cmd.Flags().GetString(FlagExemptions)
			registry, err := filecover.LoadExemptions(repositoryPath, explicitPath, cfg.Exemptions)
			if err != nil {
				return filecover.WrapError(err, "load exemptions")
			}

			checker, err := testfile.NewChecker(
				repositoryPath,
				compareBranch,
				testfile.NewConventions(cfg.Layouts, cfg.SourceExtension),
				registry,
				cmd.OutOrStdout(),
				logger,
			)
			if err != nil {
				return filecover.WrapError(err, "new checker")
			}

			if _, err := checker.Check(); err != nil {
				return filecover.WrapError(err, "check test files")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&compareBranch, "compare-branch", "", "only check files changed since this branch")
	return cmd
}

func newExemptionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exemptions",
		Short: "manage the exemption dataset",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "regenerate <repoRoot>",
		Short: "print the exemption dataset with every entry marked as not requiring a test file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args[0])
			if err != nil {
				return err
			}
			explicitPath, _ := cmd.Flags().GetString(FlagExemptions)
			filename, _ := filecover.ExemptionsFile(args[0], explicitPath, cfg.Exemptions)
			if err := exemption.PrintRegenerated(cmd.OutOrStdout(), filename); err != nil {
				return filecover.WrapError(err, "regenerate exemptions")
			}
			return nil
		},
	})
	return cmd
}

// Execute runs the command and returns the process exit code.
func Execute(cmd *cobra.Command) int {
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		return filecover.ExitCodeOf(err)
	}
	return 0
}
