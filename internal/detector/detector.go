package detector

import (
	"github.com/shopspring/decimal"

	"flowscreen/internal/ledger"
)

// DefaultRatio is the smallest share of the incoming amount that still counts
// as passed through.
var DefaultRatio = decimal.RequireFromString("0.9")

// Detector flags pass-through pairs inside one time bucket.
//
// An ordered pair (first, second) is suspicious when the receiver of first is
// the sender of second, the receiver of second is not the sender of first, and
// first.Amount*ratio <= second.Amount <= first.Amount.
type Detector struct {
	ratio decimal.Decimal
}

// New constructs a detector. A non-positive ratio falls back to DefaultRatio.
func New(ratio decimal.Decimal) *Detector {
	if !ratio.IsPositive() {
		ratio = DefaultRatio
	}
	return &Detector{ratio: ratio}
}

// Ratio returns the configured pass-through ratio.
func (d *Detector) Ratio() decimal.Decimal {
	return d.ratio
}

// Matches applies the pair rule to (first, second) in that order.
func (d *Detector) Matches(first, second ledger.Record) bool {
	if first.Receiver != second.Sender {
		return false
	}
	if second.Receiver == first.Sender {
		return false
	}
	floor := first.Amount.Mul(d.ratio)
	return second.Amount.GreaterThanOrEqual(floor) && second.Amount.LessThanOrEqual(first.Amount)
}

// Detect scans every ordered pair of distinct records in bucket and returns a
// fresh set with the ids of both sides of each match.
func (d *Detector) Detect(bucket ledger.Bucket) SuspectSet {
	suspects := NewSuspectSet()
	records := bucket.Records
	if len(records) < 2 {
		return suspects
	}

	for i, first := range records {
		for j, second := range records {
			if i == j {
				continue
			}
			if d.Matches(first, second) {
				suspects.Add(first.ID, second.ID)
			}
		}
	}
	return suspects
}
