package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical rendering of a record timestamp.
const DateLayout = "2006-01-02"

const invalidID = "0"

// Record is one validated ledger transaction.
type Record struct {
	ID        string
	Timestamp time.Time
	Amount    decimal.Decimal
	Sender    string
	Receiver  string
}

// InvalidRecord replaces any line that fails structural validation.
var InvalidRecord = Record{ID: invalidID}

// Valid reports whether r is a real record rather than the invalid sentinel.
func (r Record) Valid() bool {
	return r.ID != "" && r.ID != invalidID
}

// Date renders the timestamp with DateLayout. It is also the bucket key.
func (r Record) Date() string {
	return r.Timestamp.Format(DateLayout)
}

// Bucket holds the records sharing one timestamp, in store order.
type Bucket struct {
	Timestamp time.Time
	Records   []Record
}

// Date renders the bucket timestamp with DateLayout.
func (b Bucket) Date() string {
	return b.Timestamp.Format(DateLayout)
}

// BucketSource yields time buckets in timestamp order, one at a time.
type BucketSource interface {
	EachBucket(fn func(Bucket) error) error
}

// Buckets is a run of buckets that is already materialized.
type Buckets []Bucket

// EachBucket hands each bucket to fn in slice order.
func (bs Buckets) EachBucket(fn func(Bucket) error) error {
	for _, b := range bs {
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

// IDSet is satisfied by anything that can answer membership by transaction id.
type IDSet interface {
	Has(id string) bool
}
