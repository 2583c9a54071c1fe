package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"
)

// CSVWriter emits the suspicious transactions and suspicious entities tables.
type CSVWriter struct {
	transactionsPath string
	entitiesPath     string
	logger           zerolog.Logger
}

// NewCSVWriter constructs a writer for the two CSV tables. An empty path skips that table.
func NewCSVWriter(transactionsPath, entitiesPath string, logger zerolog.Logger) *CSVWriter {
	return &CSVWriter{
		transactionsPath: transactionsPath,
		entitiesPath:     entitiesPath,
		logger:           logger.With().Str("component", "csv_report").Logger(),
	}
}

// Name identifies the sink in logs.
func (w *CSVWriter) Name() string {
	return "csv"
}

// Write renders both tables, header included even when empty.
func (w *CSVWriter) Write(tables Tables) error {
	if w.transactionsPath != "" {
		if err := writeAtomic(w.transactionsPath, func(out io.Writer) error {
			return WriteTransactionsCSV(out, tables)
		}); err != nil {
			return fmt.Errorf("write transactions csv: %w", err)
		}
		w.logger.Info().Str("path", w.transactionsPath).Int("rows", len(tables.Flagged)).Msg("suspicious transactions written")
	}

	if w.entitiesPath != "" {
		if err := writeAtomic(w.entitiesPath, func(out io.Writer) error {
			return WriteEntitiesCSV(out, tables)
		}); err != nil {
			return fmt.Errorf("write entities csv: %w", err)
		}
		w.logger.Info().Str("path", w.entitiesPath).Int("rows", len(tables.Entities)).Msg("suspicious entities written")
	}
	return nil
}

// WriteTransactionsCSV writes the flagged transactions table to out.
func WriteTransactionsCSV(out io.Writer, tables Tables) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(TransactionsHeader); err != nil {
		return err
	}
	for _, rec := range tables.Flagged {
		if err := writer.Write(transactionRow(rec)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteEntitiesCSV writes the entity totals table to out.
func WriteEntitiesCSV(out io.Writer, tables Tables) error {
	writer := csv.NewWriter(out)
	if err := writer.Write(EntitiesHeader); err != nil {
		return err
	}
	for _, e := range tables.Entities {
		if err := writer.Write([]string{e.Entity, strconv.Itoa(e.Total)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

var _ Sink = (*CSVWriter)(nil)
