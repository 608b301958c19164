package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/Azure/filecover/pkg/coverage"
)

// DefaultCodeStyle is the chroma style of console snippets,
// refer to https://pygments.org/docs/styles for the others.
const DefaultCodeStyle = "colorful"

// SnippetPrinter prints the not covered lines of a source file with syntax highlighting.
type SnippetPrinter struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

// NewSnippetPrinter picks the lexer by the file name of sourcePath.
func NewSnippetPrinter(sourcePath string, codeStyle string) *SnippetPrinter {
	style := styles.Get(codeStyle)
	if style == nil {
		style = styles.Fallback
	}

	lexer := lexers.Match(sourcePath)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	return &SnippetPrinter{
		lexer:     chroma.Coalesce(lexer),
		style:     style,
		formatter: formatter,
	}
}

// PrintUncovered writes every not covered line prefixed by its line number.
// Nothing is written if no line is left uncovered.
func (p *SnippetPrinter) PrintUncovered(w io.Writer, aggregated *coverage.Aggregated) error {
	if aggregated.NotCoveredCount() == 0 {
		return nil
	}

	// the whole file is tokenised so that multi-line tokens keep their type.
	iter, err := p.lexer.Tokenise(nil, strings.Join(aggregated.File.Lines, "\n"))
	if err != nil {
		return fmt.Errorf("tokenise failed: %w", err)
	}
	lines := chroma.SplitTokensIntoLines(iter.Tokens())

	fmt.Fprintf(w, "Uncovered lines in %s:\n", aggregated.File.Path)
	for i, state := range aggregated.LineStates {
		if state != coverage.NotCovered {
			continue
		}

		var tokens []chroma.Token
		if i < len(lines) {
			tokens = trimNewline(lines[i])
		}

		fmt.Fprintf(w, "%4d | ", i+1)
		if err := p.formatter.Format(w, p.style, chroma.Literator(tokens...)); err != nil {
			return fmt.Errorf("format code snippet: %w", err)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func trimNewline(tokens []chroma.Token) []chroma.Token {
	out := make([]chroma.Token, 0, len(tokens))
	for _, t := range tokens {
		t.Value = strings.TrimRight(t.Value, "\n")
		if t.Value != "" {
			out = append(out, t)
		}
	}
	return out
}
