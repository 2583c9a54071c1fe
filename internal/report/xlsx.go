package report

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	transactionsSheet = "Transactions"
	entitiesSheet     = "Entities"
)

// XLSXWriter bundles both tables into one workbook for analysts.
type XLSXWriter struct {
	path   string
	logger zerolog.Logger
}

// NewXLSXWriter constructs a workbook sink writing to path.
func NewXLSXWriter(path string, logger zerolog.Logger) *XLSXWriter {
	return &XLSXWriter{
		path:   path,
		logger: logger.With().Str("component", "xlsx_report").Logger(),
	}
}

// Name identifies the sink in logs.
func (w *XLSXWriter) Name() string {
	return "xlsx"
}

// Write renders the workbook to the configured path.
func (w *XLSXWriter) Write(tables Tables) error {
	if err := writeAtomic(w.path, func(out io.Writer) error {
		return WriteWorkbook(out, tables)
	}); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	w.logger.Info().Str("path", w.path).
		Int("transactions", len(tables.Flagged)).
		Int("entities", len(tables.Entities)).
		Msg("workbook written")
	return nil
}

// WriteWorkbook encodes tables as an XLSX workbook with one sheet per table.
func WriteWorkbook(out io.Writer, tables Tables) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(entitiesSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}

	if err := writeHeader(f, transactionsSheet, TransactionsHeader, headerStyle); err != nil {
		return err
	}
	for i, rec := range tables.Flagged {
		row := i + 2
		values := []any{rec.ID, rec.Date(), rec.Amount.InexactFloat64(), rec.Sender, rec.Receiver}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(transactionsSheet, cell, v); err != nil {
				return err
			}
		}
		amountCell, err := excelize.CoordinatesToCellName(3, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(transactionsSheet, amountCell, amountCell, amountStyle); err != nil {
			return err
		}
	}

	if err := writeHeader(f, entitiesSheet, EntitiesHeader, headerStyle); err != nil {
		return err
	}
	for i, e := range tables.Entities {
		row := i + 2
		entityCell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		totalCell, err := excelize.CoordinatesToCellName(2, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(entitiesSheet, entityCell, e.Entity); err != nil {
			return err
		}
		if err := f.SetCellValue(entitiesSheet, totalCell, e.Total); err != nil {
			return err
		}
	}

	for _, w := range []struct {
		sheet, from, to string
		width           float64
	}{
		{transactionsSheet, "A", "A", 68}, // hash
		{transactionsSheet, "B", "C", 14},
		{transactionsSheet, "D", "E", 20},
		{entitiesSheet, "A", "A", 20},
	} {
		if err := f.SetColWidth(w.sheet, w.from, w.to, w.width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	idx, err := f.GetSheetIndex(transactionsSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	_, err = out.Write(buf.Bytes())
	return err
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

var _ Sink = (*XLSXWriter)(nil)
