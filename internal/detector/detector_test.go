package detector

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"flowscreen/internal/ledger"
)

var day = time.Date(2017, time.November, 3, 0, 0, 0, 0, time.UTC)

func rec(n int, amount, sender, receiver string) ledger.Record {
	return ledger.Record{
		ID:        fmt.Sprintf("%064x", n),
		Timestamp: day,
		Amount:    decimal.RequireFromString(amount),
		Sender:    sender,
		Receiver:  receiver,
	}
}

func bucket(records ...ledger.Record) ledger.Bucket {
	return ledger.Bucket{Timestamp: day, Records: records}
}

const (
	alice = "ID00000000000001"
	bob   = "ID00000000000002"
	carol = "ID00000000000003"
	dave  = "ID00000000000004"
)

func TestDetectPassThrough(t *testing.T) {
	d := New(DefaultRatio)
	r1 := rec(1, "1000.00", alice, bob)
	r2 := rec(2, "950.00", bob, carol)

	got := d.Detect(bucket(r1, r2))
	require.Equal(t, []string{r1.ID, r2.ID}, got.IDs())

	// Arrival order inside the bucket does not matter.
	got = d.Detect(bucket(r2, r1))
	require.Equal(t, []string{r1.ID, r2.ID}, got.IDs())
}

func TestDetectRatioBelowThreshold(t *testing.T) {
	d := New(DefaultRatio)
	got := d.Detect(bucket(rec(1, "1000.00", alice, bob), rec(2, "500.00", bob, carol)))
	require.Zero(t, got.Len())
}

func TestDetectReciprocalIsNeverFlagged(t *testing.T) {
	d := New(DefaultRatio)
	for _, amount := range []string{"950.00", "1000.00", "900.00", "10.00", "5000.00"} {
		got := d.Detect(bucket(rec(1, "1000.00", alice, bob), rec(2, amount, bob, alice)))
		require.Zero(t, got.Len(), "amount %s", amount)
	}
}

func TestDetectBoundaries(t *testing.T) {
	d := New(DefaultRatio)
	tests := []struct {
		forwarded string
		want      bool
	}{
		{"900.00", true},
		{"899.99", false},
		{"1000.00", true},
		{"1000.01", false},
		{"950.50", true},
	}
	for _, tt := range tests {
		t.Run(tt.forwarded, func(t *testing.T) {
			got := d.Detect(bucket(rec(1, "1000.00", alice, bob), rec(2, tt.forwarded, bob, carol)))
			require.Equal(t, tt.want, got.Len() == 2)
		})
	}
}

func TestDetectUsesNumericComparison(t *testing.T) {
	d := New(DefaultRatio)
	// "95.00" > "100.00" as strings, but not as numbers.
	got := d.Detect(bucket(rec(1, "100.00", alice, bob), rec(2, "95.00", bob, carol)))
	require.Equal(t, 2, got.Len())
}

func TestDetectSmallBuckets(t *testing.T) {
	d := New(DefaultRatio)
	require.Zero(t, d.Detect(bucket()).Len())
	require.Zero(t, d.Detect(bucket(rec(1, "1000.00", alice, bob))).Len())
}

func TestDetectSingleDirectionMatch(t *testing.T) {
	d := New(DefaultRatio)
	r1 := rec(1, "1000.00", alice, bob)
	r2 := rec(2, "950.00", bob, carol)

	require.True(t, d.Matches(r1, r2))
	require.False(t, d.Matches(r2, r1))
	require.Equal(t, 2, d.Detect(bucket(r1, r2)).Len())
}

func TestDetectLeavesReciprocalLegOut(t *testing.T) {
	d := New(DefaultRatio)
	out := rec(1, "1000.00", alice, bob)
	back := rec(2, "950.00", bob, alice)
	onward := rec(3, "950.00", bob, carol)

	got := d.Detect(bucket(out, back, onward))
	require.True(t, got.Has(out.ID))
	require.True(t, got.Has(onward.ID))
	require.False(t, got.Has(back.ID))
}

func TestDetectUnrelatedRecordsIgnored(t *testing.T) {
	d := New(DefaultRatio)
	got := d.Detect(bucket(
		rec(1, "1000.00", alice, bob),
		rec(2, "950.00", carol, dave),
		rec(3, "950.00", dave, bob),
	))
	// dave forwards carol's 950 to bob: (2,3) matches, nothing pairs with 1.
	require.Equal(t, []string{fmt.Sprintf("%064x", 2), fmt.Sprintf("%064x", 3)}, got.IDs())
}

func TestDetectCustomRatio(t *testing.T) {
	d := New(decimal.RequireFromString("0.5"))
	got := d.Detect(bucket(rec(1, "1000.00", alice, bob), rec(2, "500.00", bob, carol)))
	require.Equal(t, 2, got.Len())

	require.True(t, New(decimal.Zero).Ratio().Equal(DefaultRatio))
}

func TestSuspectSetMerge(t *testing.T) {
	acc := NewSuspectSet("a")
	batch := NewSuspectSet("b", "a")

	acc.Merge(batch)
	require.Equal(t, []string{"a", "b"}, acc.IDs())
	require.Equal(t, 2, batch.Len(), "merge must not touch the merged-in set")

	acc.Merge(NewSuspectSet())
	require.Equal(t, 2, acc.Len())
}
