package filecover

import "context"

// FileCover interface to generate the coverage report of a single source file.
type FileCover interface {
	Run(ctx context.Context) error
}
