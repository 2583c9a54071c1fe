package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"flowscreen/internal/ledger"
	"flowscreen/internal/tally"
)

func sampleTables() Tables {
	day := time.Date(2017, 11, 3, 0, 0, 0, 0, time.UTC)
	flagged := []ledger.Record{
		{ID: fmt.Sprintf("%064x", 1), Timestamp: day, Amount: decimal.RequireFromString("1000.00"), Sender: "ID00000000000001", Receiver: "ID00000000000002"},
		{ID: fmt.Sprintf("%064x", 2), Timestamp: day, Amount: decimal.RequireFromString("950.5"), Sender: "ID00000000000002", Receiver: "ID00000000000003"},
	}
	return Tables{Flagged: flagged, Entities: tally.Aggregate(flagged)}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriterWritesBothTables(t *testing.T) {
	dir := t.TempDir()
	txPath := filepath.Join(dir, "out", "suspicious_transactions.csv")
	entPath := filepath.Join(dir, "out", "suspicious_entities.csv")

	require.NoError(t, NewCSVWriter(txPath, entPath, zerolog.Nop()).Write(sampleTables()))

	tx := readCSV(t, txPath)
	require.Equal(t, TransactionsHeader, tx[0])
	require.Len(t, tx, 3)
	require.Equal(t, []string{fmt.Sprintf("%064x", 2), "2017-11-03", "950.50", "ID00000000000002", "ID00000000000003"}, tx[2])

	ent := readCSV(t, entPath)
	require.Equal(t, [][]string{
		{"Entity", "Total"},
		{"ID00000000000002", "2"},
		{"ID00000000000001", "1"},
		{"ID00000000000003", "1"},
	}, ent)

	leftovers, err := filepath.Glob(filepath.Join(dir, "out", ".*.tmp"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

func TestCSVWriterEmptyTablesKeepHeaders(t *testing.T) {
	dir := t.TempDir()
	txPath := filepath.Join(dir, "tx.csv")
	entPath := filepath.Join(dir, "ent.csv")

	require.NoError(t, NewCSVWriter(txPath, entPath, zerolog.Nop()).Write(Tables{}))
	require.Equal(t, [][]string{TransactionsHeader}, readCSV(t, txPath))
	require.Equal(t, [][]string{EntitiesHeader}, readCSV(t, entPath))
}

func TestCSVOutputIsByteIdentical(t *testing.T) {
	var first, second bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&first, sampleTables()))
	require.NoError(t, WriteTransactionsCSV(&second, sampleTables()))
	require.Equal(t, first.Bytes(), second.Bytes())

	first.Reset()
	second.Reset()
	require.NoError(t, WriteEntitiesCSV(&first, sampleTables()))
	require.NoError(t, WriteEntitiesCSV(&second, sampleTables()))
	require.Equal(t, first.Bytes(), second.Bytes())
}

func TestCSVWriterFailureLeavesPreviousFile(t *testing.T) {
	dir := t.TempDir()
	txPath := filepath.Join(dir, "tx.csv")
	require.NoError(t, os.WriteFile(txPath, []byte("previous\n"), 0o644))

	err := writeAtomic(txPath, func(out io.Writer) error {
		_, _ = out.Write([]byte("partial"))
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	content, err := os.ReadFile(txPath)
	require.NoError(t, err)
	require.Equal(t, "previous\n", string(content))
}

func TestXLSXWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, NewXLSXWriter(path, zerolog.Nop()).Write(sampleTables()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{transactionsSheet, entitiesSheet}, f.GetSheetList())

	rows, err := f.GetRows(transactionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, TransactionsHeader, rows[0])
	require.Equal(t, "ID00000000000001", rows[1][3])

	ents, err := f.GetRows(entitiesSheet)
	require.NoError(t, err)
	require.Equal(t, []string{"ID00000000000002", "2"}, ents[1])

	width, err := f.GetColWidth(transactionsSheet, "A")
	require.NoError(t, err)
	require.Equal(t, 68.0, width)
	width, err = f.GetColWidth(entitiesSheet, "A")
	require.NoError(t, err)
	require.Equal(t, 20.0, width)
}

func TestWriteHeaderReportsBadCoordinates(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.Error(t, writeHeader(f, "Sheet1", nil, 0))
}

func TestChartWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.png")
	require.NoError(t, NewChartWriter(path, 2, zerolog.Nop()).Write(sampleTables()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(content, []byte("\x89PNG")), "chart should be a PNG")
}

func TestChartWriterSkipsWithoutEntities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.png")
	require.NoError(t, NewChartWriter(path, 0, zerolog.Nop()).Write(Tables{}))

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
