package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"flowscreen/internal/ledger"
	"flowscreen/internal/tally"
)

// RunRecord summarises one archived screening run.
type RunRecord struct {
	ID         string
	Source     string
	Lines      int
	Valid      int
	Malformed  int
	Duplicates int
	Buckets    int
	Batches    int
	Flagged    int
	Entities   int
	CreatedAt  time.Time
}

// FlaggedTransaction is a suspicious transaction as archived for a run.
type FlaggedTransaction struct {
	RunID    string
	TxHash   string
	Day      time.Time
	Amount   decimal.Decimal
	Sender   string
	Receiver string
}

// EntityTotal is an entity's involvement count within a run.
type EntityTotal struct {
	RunID    string
	Entity   string
	Sent     int
	Received int
	Total    int
}

// FlaggedFromRecords converts flagged ledger records into archive rows.
func FlaggedFromRecords(runID string, records []ledger.Record) []FlaggedTransaction {
	out := make([]FlaggedTransaction, 0, len(records))
	for _, rec := range records {
		out = append(out, FlaggedTransaction{
			RunID:    runID,
			TxHash:   rec.ID,
			Day:      rec.Timestamp,
			Amount:   rec.Amount,
			Sender:   rec.Sender,
			Receiver: rec.Receiver,
		})
	}
	return out
}

// TotalsFromTallies converts entity tallies into archive rows.
func TotalsFromTallies(runID string, tallies []tally.EntityTally) []EntityTotal {
	out := make([]EntityTotal, 0, len(tallies))
	for _, t := range tallies {
		out = append(out, EntityTotal{
			RunID:    runID,
			Entity:   t.Entity,
			Sent:     t.Sent,
			Received: t.Received,
			Total:    t.Total,
		})
	}
	return out
}
