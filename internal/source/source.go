package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LedgerSource yields raw ledger lines, one record per element.
type LedgerSource interface {
	ReadLines(ctx context.Context) ([]string, error)
	Name() string
}

// Options parameterise ledger sources.
type Options struct {
	HasHeader bool
	Timeout   time.Duration
	UserAgent string
}

// New picks a source for location: http(s) URLs are fetched, anything else is a file path.
func New(location string, opts Options, logger zerolog.Logger) (LedgerSource, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("ledger location is required")
	}

	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return NewHTTP(location, opts, logger), nil
	}
	return NewFile(location, opts, logger), nil
}

// decodeLines reads a single-column CSV stream. A row the CSV reader split on
// commas is joined back so the ledger parser sees the original line.
func decodeLines(r io.Reader, hasHeader bool) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	var lines []string
	first := true
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ledger: %w", err)
		}
		if first {
			first = false
			if hasHeader {
				continue
			}
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return lines, nil
}
