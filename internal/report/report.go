package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"flowscreen/internal/ledger"
	"flowscreen/internal/tally"
)

// Column headers of the two output tables.
var (
	TransactionsHeader = []string{"Transaction", "TimeStamp", "Amount", "Sender", "Receiver"}
	EntitiesHeader     = []string{"Entity", "Total"}
)

// Tables are the two artifacts of a screening run.
type Tables struct {
	Flagged  []ledger.Record
	Entities []tally.EntityTally
}

// Sink persists report tables somewhere.
type Sink interface {
	Write(tables Tables) error
	Name() string
}

func transactionRow(rec ledger.Record) []string {
	return []string{rec.ID, rec.Date(), rec.Amount.StringFixed(2), rec.Sender, rec.Receiver}
}

// writeAtomic streams into a temp file beside path and renames it into place,
// so a failed write never leaves a truncated artifact under the final name.
func writeAtomic(path string, write func(io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if err := write(tmp); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
