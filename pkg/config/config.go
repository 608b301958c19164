package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultFileName is looked up at the repository root when no config path is given.
	DefaultFileName = ".filecover.yaml"

	// ConfigEnvKey overrides the config file location.
	ConfigEnvKey = "FILECOVER_CONFIG"
	// TimeoutEnvKey overrides the runner timeout, e.g. "10m".
	TimeoutEnvKey = "FILECOVER_RUNNER_TIMEOUT"

	DefaultSourceExtension = ".kt"
	DefaultReportDir       = "coverage_reports"
	DefaultExemptions      = "scripts/assets/test_file_exemptions.yaml"
	DefaultRunnerFormat    = "lcov"
	DefaultRunnerTimeout   = 5 * time.Minute
)

var ErrInvalidConfig = errors.New("invalid config")

// Layout maps production sources of one module layout to their test files.
type Layout struct {
	Name         string   `yaml:"name"`
	Prefix       string   `yaml:"prefix"`
	SourceDir    string   `yaml:"source_dir"`
	TestDirs     []string `yaml:"test_dirs"`
	TestSuffixes []string `yaml:"test_suffixes"`
}

// Runner describes the external coverage command.
type Runner struct {
	Command  []string
	Artifact string
	Format   string
	Timeout  time.Duration
	Env      []string
}

// Config holds tool configuration loaded from YAML and env.
type Config struct {
	SourceExtension string
	ReportDir       string
	Exemptions      string
	Layouts         []Layout
	Runner          Runner
}

type fileConfig struct {
	SourceExtension string   `yaml:"source_extension"`
	ReportDir       string   `yaml:"report_dir"`
	Exemptions      string   `yaml:"exemptions"`
	Layouts         []Layout `yaml:"layouts"`

	Runner struct {
		Command  []string          `yaml:"command"`
		Artifact string            `yaml:"artifact"`
		Format   string            `yaml:"format"`
		Timeout  string            `yaml:"timeout"`
		Env      map[string]string `yaml:"env"`
	} `yaml:"runner"`
}

// DefaultLayouts are the module layouts of the repository, highest priority first.
func DefaultLayouts() []Layout {
	return []Layout{
		{
			Name:         "app",
			Prefix:       "app/",
			SourceDir:    "/main/",
			TestDirs:     []string{"/test/", "/sharedTest/"},
			TestSuffixes: []string{"Test", "LocalTest"},
		},
		{
			Name:         "scripts",
			Prefix:       "scripts/",
			SourceDir:    "/java/",
			TestDirs:     []string{"/javatests/"},
			TestSuffixes: []string{"Test"},
		},
		{
			Name:         "main-test",
			SourceDir:    "/main/",
			TestDirs:     []string{"/test/", "/sharedTest/"},
			TestSuffixes: []string{"Test"},
		},
		{
			Name:         "same-dir",
			TestSuffixes: []string{"Test"},
		},
	}
}

// DefaultRunner runs bazel coverage for a single test target and reads its lcov output.
func DefaultRunner() Runner {
	return Runner{
		Command:  []string{"bazel", "coverage", "--combined_report=lcov", "{{.Label}}"},
		Artifact: "bazel-testlogs/{{.Package}}/{{.Name}}/coverage.dat",
		Format:   DefaultRunnerFormat,
		Timeout:  DefaultRunnerTimeout,
	}
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		SourceExtension: DefaultSourceExtension,
		ReportDir:       DefaultReportDir,
		Exemptions:      DefaultExemptions,
		Layouts:         DefaultLayouts(),
		Runner:          DefaultRunner(),
	}
}

// Load reads the config for the repository at repoRoot.
// The path argument wins over FILECOVER_CONFIG, which wins over <repoRoot>/.filecover.yaml.
// A missing default file is not an error; a missing explicit file is.
func Load(repoRoot string, path string) (*Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv(ConfigEnvKey)
	}
	if path == "" {
		path = filepath.Join(repoRoot, DefaultFileName)
		explicit = false
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, applyEnv(cfg)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.SourceExtension != "" {
		cfg.SourceExtension = fc.SourceExtension
	}
	if fc.ReportDir != "" {
		cfg.ReportDir = fc.ReportDir
	}
	if fc.Exemptions != "" {
		cfg.Exemptions = fc.Exemptions
	}
	if len(fc.Layouts) > 0 {
		cfg.Layouts = fc.Layouts
	}

	if len(fc.Runner.Command) > 0 {
		cfg.Runner.Command = fc.Runner.Command
	}
	if fc.Runner.Artifact != "" {
		cfg.Runner.Artifact = fc.Runner.Artifact
	}
	if fc.Runner.Format != "" {
		cfg.Runner.Format = strings.ToLower(strings.TrimSpace(fc.Runner.Format))
	}
	if fc.Runner.Timeout != "" {
		d, err := parseDuration(fc.Runner.Timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: runner.timeout %q", ErrInvalidConfig, fc.Runner.Timeout)
		}
		cfg.Runner.Timeout = d
	}
	for k, v := range fc.Runner.Env {
		cfg.Runner.Env = append(cfg.Runner.Env, k+"="+v)
	}
	sort.Strings(cfg.Runner.Env)

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	v := strings.TrimSpace(os.Getenv(TimeoutEnvKey))
	if v == "" {
		return nil
	}
	d, err := parseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, TimeoutEnvKey, v)
	}
	cfg.Runner.Timeout = d
	return nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.SourceExtension, ".") {
		return fmt.Errorf("%w: source_extension %q must start with '.'", ErrInvalidConfig, c.SourceExtension)
	}
	if len(c.Runner.Command) == 0 {
		return fmt.Errorf("%w: runner.command is empty", ErrInvalidConfig)
	}
	if c.Runner.Artifact == "" {
		return fmt.Errorf("%w: runner.artifact is empty", ErrInvalidConfig)
	}
	for i, l := range c.Layouts {
		if len(l.TestSuffixes) == 0 {
			return fmt.Errorf("%w: layout %d (%s) has no test_suffixes", ErrInvalidConfig, i, l.Name)
		}
		if l.SourceDir != "" && len(l.TestDirs) == 0 {
			return fmt.Errorf("%w: layout %d (%s) has source_dir but no test_dirs", ErrInvalidConfig, i, l.Name)
		}
	}
	return nil
}

// parseDuration parses a positive duration such as "90s" or "10m".
func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %s is not positive", d)
	}
	return d, nil
}
