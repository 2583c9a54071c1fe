package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type idSet map[string]bool

func (s idSet) Has(id string) bool { return s[id] }

func mustParse(t *testing.T, raw string) Record {
	t.Helper()
	rec, err := NewParser(DefaultDelimiter).Check(raw)
	require.NoError(t, err)
	return rec
}

func TestStoreRejectsDuplicates(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(mustParse(t, line(txID(1), "2017-11-03", "10.00", entity(1), entity(2)))))

	err := s.Add(mustParse(t, line(txID(1), "2017-11-04", "99.00", entity(3), entity(4))))
	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	require.Equal(t, txID(1), dup.ID)
	require.Equal(t, 1, s.Len())

	got, ok := s.Get(txID(1))
	require.True(t, ok)
	require.Equal(t, "2017-11-03", got.Date(), "first seen record must be kept")
}

func TestStoreRejectsInvalidSentinel(t *testing.T) {
	s := NewStore()
	var malformed *MalformedRecordError
	require.True(t, errors.As(s.Add(InvalidRecord), &malformed))
	require.Equal(t, 0, s.Len())
}

func TestStoreSortIsStable(t *testing.T) {
	s := NewStore()
	for _, raw := range []string{
		line(txID(1), "2017-11-05", "1.00", entity(1), entity(2)),
		line(txID(2), "2017-11-03", "1.00", entity(1), entity(2)),
		line(txID(3), "2017-11-05", "1.00", entity(1), entity(2)),
		line(txID(4), "2017-11-03", "1.00", entity(1), entity(2)),
	} {
		require.NoError(t, s.Add(mustParse(t, raw)))
	}

	s.SortByTimestamp()

	ids := make([]string, 0, s.Len())
	for _, rec := range s.Records() {
		ids = append(ids, rec.ID)
	}
	require.Equal(t, []string{txID(2), txID(4), txID(1), txID(3)}, ids)

	got, ok := s.Get(txID(3))
	require.True(t, ok)
	require.Equal(t, txID(3), got.ID)
}

func collectBuckets(t *testing.T, s *Store) []Bucket {
	t.Helper()
	var out []Bucket
	require.NoError(t, s.EachBucket(func(b Bucket) error {
		out = append(out, b)
		return nil
	}))
	return out
}

func TestStoreEachBucket(t *testing.T) {
	s := NewStore()
	for _, raw := range []string{
		line(txID(1), "2017-11-05", "1.00", entity(1), entity(2)),
		line(txID(2), "11/03/2017", "1.00", entity(1), entity(2)),
		line(txID(3), "2017-11-05", "1.00", entity(1), entity(2)),
		line(txID(4), "2017-11-03", "1.00", entity(1), entity(2)),
		line(txID(5), "2017-11-04", "1.00", entity(1), entity(2)),
	} {
		require.NoError(t, s.Add(mustParse(t, raw)))
	}

	buckets := collectBuckets(t, s)
	require.Len(t, buckets, 3)
	require.Equal(t, "2017-11-03", buckets[0].Date())
	require.Equal(t, "2017-11-04", buckets[1].Date())
	require.Equal(t, "2017-11-05", buckets[2].Date())

	require.Len(t, buckets[0].Records, 2, "differently formatted dates share a bucket")
	require.Equal(t, txID(2), buckets[0].Records[0].ID)
	require.Equal(t, txID(4), buckets[0].Records[1].ID)
	require.Equal(t, txID(1), buckets[2].Records[0].ID)
	require.Equal(t, txID(3), buckets[2].Records[1].ID)
}

func TestStoreEachBucketAliasesRows(t *testing.T) {
	s := NewStore()
	for _, raw := range []string{
		line(txID(1), "2017-11-03", "1.00", entity(1), entity(2)),
		line(txID(2), "2017-11-03", "1.00", entity(1), entity(2)),
		line(txID(3), "2017-11-04", "1.00", entity(1), entity(2)),
	} {
		require.NoError(t, s.Add(mustParse(t, raw)))
	}

	buckets := collectBuckets(t, s)
	require.Len(t, buckets, 2)
	require.Same(t, &s.rows[0], &buckets[0].Records[0], "bucket records must not be copied")
	require.Same(t, &s.rows[2], &buckets[1].Records[0])
	require.Equal(t, 2, cap(buckets[0].Records), "appending to a bucket must not clobber the next one")
}

func TestStoreEachBucketStopsOnError(t *testing.T) {
	s := NewStore()
	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Add(mustParse(t, line(txID(i), fmt.Sprintf("2017-11-0%d", i), "1.00", entity(1), entity(2)))))
	}

	boom := errors.New("boom")
	calls := 0
	err := s.EachBucket(func(Bucket) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)
}

func TestStoreEachBucketEmpty(t *testing.T) {
	require.Empty(t, collectBuckets(t, NewStore()))
}

func TestStoreSelectPreservesOrder(t *testing.T) {
	s := NewStore()
	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Add(mustParse(t, line(txID(i), "2017-11-03", "1.00", entity(1), entity(2)))))
	}

	got := s.Select(idSet{txID(4): true, txID(2): true, txID(9): true})
	require.Len(t, got, 2)
	require.Equal(t, txID(2), got[0].ID)
	require.Equal(t, txID(4), got[1].ID)

	require.Empty(t, s.Select(idSet{}))
}
