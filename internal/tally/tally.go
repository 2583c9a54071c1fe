package tally

import (
	"sort"

	"flowscreen/internal/ledger"
)

// EntityTally counts how often an entity appears in flagged transactions.
type EntityTally struct {
	Entity   string
	Sent     int
	Received int
	Total    int
}

// Aggregate tallies senders and receivers across records. The result is
// ordered by Total descending, then Entity ascending.
func Aggregate(records []ledger.Record) []EntityTally {
	counts := make(map[string]*EntityTally)
	get := func(id string) *EntityTally {
		t, ok := counts[id]
		if !ok {
			t = &EntityTally{Entity: id}
			counts[id] = t
		}
		return t
	}

	for _, rec := range records {
		get(rec.Sender).Sent++
		get(rec.Receiver).Received++
	}

	out := make([]EntityTally, 0, len(counts))
	for _, t := range counts {
		t.Total = t.Sent + t.Received
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Entity < out[j].Entity
	})
	return out
}

// Top returns at most n leading tallies; n <= 0 returns all of them.
func Top(tallies []EntityTally, n int) []EntityTally {
	if n <= 0 || n >= len(tallies) {
		return tallies
	}
	return tallies[:n]
}
