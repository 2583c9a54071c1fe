package source

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// File reads a ledger from the local filesystem.
type File struct {
	path   string
	opts   Options
	logger zerolog.Logger
}

// NewFile constructs a file-backed ledger source.
func NewFile(path string, opts Options, logger zerolog.Logger) *File {
	return &File{
		path:   path,
		opts:   opts,
		logger: logger.With().Str("component", "file_source").Logger(),
	}
}

// Name returns the file path.
func (f *File) Name() string {
	return f.path
}

// ReadLines loads every ledger line from the file.
func (f *File) ReadLines(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer file.Close()

	lines, err := decodeLines(file, f.opts.HasHeader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}

	f.logger.Debug().Str("path", f.path).Int("lines", len(lines)).Msg("ledger read")
	return lines, nil
}

var _ LedgerSource = (*File)(nil)
