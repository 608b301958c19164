package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/Azure/filecover/pkg/coverage"
)

var ErrUnsupportedFormat = errors.New("unsupported report format")

// Format is the output format of a coverage report.
type Format string

const (
	Markdown Format = "MARKDOWN"
	HTML     Format = "HTML"
)

// ParseFormat parses a report format name, case insensitive.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToUpper(strings.TrimSpace(s))); f {
	case Markdown, HTML:
		return f, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
}

// Extension returns the file extension of reports in this format, without dot.
func (f Format) Extension() string {
	switch f {
	case HTML:
		return "html"
	default:
		return "md"
	}
}

// ReportGenerator renders the coverage report of a single source file.
// Output depends on nothing but the aggregated coverage.
type ReportGenerator interface {
	GenerateReport(w io.Writer, aggregated *coverage.Aggregated) error
}

// NewReportGenerator returns the generator for format.
func NewReportGenerator(format Format) (ReportGenerator, error) {
	switch format {
	case Markdown:
		return &markdownReportGenerator{}, nil
	case HTML:
		return &htmlReportGenerator{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

var _ ReportGenerator = (*markdownReportGenerator)(nil)
var _ ReportGenerator = (*htmlReportGenerator)(nil)

type markdownReportGenerator struct{}

func (g *markdownReportGenerator) GenerateReport(w io.Writer, aggregated *coverage.Aggregated) error {
	if err := markdownReportTemplate.Execute(w, newReportData(aggregated)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

type htmlReportGenerator struct{}

func (g *htmlReportGenerator) GenerateReport(w io.Writer, aggregated *coverage.Aggregated) error {
	if err := htmlReportTemplate.Execute(w, newReportData(aggregated)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Generate renders the report of aggregated as a string.
func Generate(format Format, aggregated *coverage.Aggregated) (string, error) {
	g, err := NewReportGenerator(format)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if err := g.GenerateReport(&buf, aggregated); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ReportPath returns where the report of sourcePath is stored:
// <reportDir>/<source path without extension>/coverage.<ext>.
func ReportPath(reportDir string, sourcePath string, format Format) string {
	dir := strings.TrimSuffix(sourcePath, path.Ext(sourcePath))
	return filepath.Join(reportDir, filepath.FromSlash(dir), "coverage."+format.Extension())
}

// WriteReport writes the report of aggregated to filename, creating parent directories.
func WriteReport(filename string, format Format, aggregated *coverage.Aggregated) error {
	text, err := Generate(format, aggregated)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(filename, []byte(text), 0644); err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	return nil
}

var (
	markdownReportTemplate = template.Must(template.New("markdownReport").Parse(markdownReport))
	htmlReportTemplate     = template.Must(template.New("htmlReport").Parse(htmlReport))
)

type reportData struct {
	Path       string
	Percentage string
	Covered    int
	Executable int
	Lines      []lineData
}

type lineData struct {
	Number string
	Class  string
	Text   string
}

// newReportData fills the templates. Source text goes into the html rows as is.
func newReportData(aggregated *coverage.Aggregated) *reportData {
	data := &reportData{
		Path:       aggregated.File.Path,
		Percentage: fmt.Sprintf("%.2f", aggregated.Percentage()),
		Covered:    aggregated.CoveredCount(),
		Executable: aggregated.ExecutableCount(),
	}
	data.Lines = make([]lineData, len(aggregated.File.Lines))
	for i, line := range aggregated.File.Lines {
		data.Lines[i] = lineData{
			Number: fmt.Sprintf("%4d", i+1),
			Class:  aggregated.LineStates[i].String() + "-line",
			Text:   line,
		}
	}
	return data
}
