package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/filecover/pkg/filecover"
	"github.com/Azure/filecover/pkg/report"
)

const (
	argFormat         = "format"
	argProcessTimeout = "processtimeout"
)

// runArguments are the positional arguments of the run command.
type runArguments struct {
	RepositoryPath string
	SourcePath     string
	Format         report.Format
	ProcessTimeout time.Duration
}

// parseRunArguments parses "<repoRoot> <sourceFilePath> [format=<fmt>] [processTimeout=<minutes>]".
// Keys and the format value are case insensitive and key=value tokens may come in any order.
func parseRunArguments(args []string) (*runArguments, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: expected <repoRoot> <sourceFilePath>, got %d argument(s)", filecover.ErrInvalidArgument, len(args))
	}

	parsed := &runArguments{
		RepositoryPath: args[0],
		SourcePath:     args[1],
		Format:         report.Markdown,
	}

	seen := make(map[string]bool)
	for _, arg := range args[2:] {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q is not a key=value pair", filecover.ErrInvalidArgument, arg)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if seen[key] {
			return nil, fmt.Errorf("%w: %s is given more than once", filecover.ErrInvalidArgument, key)
		}
		seen[key] = true

		switch key {
		case argFormat:
			format, err := report.ParseFormat(value)
			if err != nil {
				return nil, err
			}
			parsed.Format = format
		case argProcessTimeout:
			minutes, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || minutes <= 0 {
				return nil, fmt.Errorf("%w: processTimeout must be a positive number of minutes, got %q", filecover.ErrInvalidArgument, value)
			}
			parsed.ProcessTimeout = time.Duration(minutes) * time.Minute
		default:
			return nil, fmt.Errorf("%w: unknown argument %q", filecover.ErrInvalidArgument, arg)
		}
	}
	return parsed, nil
}
