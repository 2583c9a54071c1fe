package ledger

import (
	"sort"
)

// Store holds validated records keyed by transaction id, in row order.
type Store struct {
	rows   []Record
	index  map[string]int
	sorted bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int), sorted: true}
}

// Add appends rec. It rejects the invalid sentinel and repeated identifiers.
func (s *Store) Add(rec Record) error {
	if !rec.Valid() {
		return &MalformedRecordError{Field: "transaction", Value: rec.ID, Reason: "invalid record cannot be stored"}
	}
	if _, ok := s.index[rec.ID]; ok {
		return &DuplicateKeyError{ID: rec.ID}
	}
	if n := len(s.rows); n > 0 && rec.Timestamp.Before(s.rows[n-1].Timestamp) {
		s.sorted = false
	}
	s.index[rec.ID] = len(s.rows)
	s.rows = append(s.rows, rec)
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.rows)
}

// Get looks a record up by transaction id.
func (s *Store) Get(id string) (Record, bool) {
	i, ok := s.index[id]
	if !ok {
		return Record{}, false
	}
	return s.rows[i], true
}

// Records returns a copy of the rows in current store order.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.rows))
	copy(out, s.rows)
	return out
}

// SortByTimestamp orders rows by timestamp; equal timestamps keep arrival order.
func (s *Store) SortByTimestamp() {
	sort.SliceStable(s.rows, func(i, j int) bool {
		return s.rows[i].Timestamp.Before(s.rows[j].Timestamp)
	})
	for i, rec := range s.rows {
		s.index[rec.ID] = i
	}
	s.sorted = true
}

// EachBucket hands fn one bucket per timestamp, in timestamp order, sorting
// the rows first if needed. Bucket records are sub-slices of the store rows
// and must not be modified; records inside a bucket keep store order.
func (s *Store) EachBucket(fn func(Bucket) error) error {
	if !s.sorted {
		s.SortByTimestamp()
	}
	for start := 0; start < len(s.rows); {
		key := s.rows[start].Date()
		end := start + 1
		for end < len(s.rows) && s.rows[end].Date() == key {
			end++
		}
		if err := fn(Bucket{Timestamp: s.rows[start].Timestamp, Records: s.rows[start:end:end]}); err != nil {
			return err
		}
		start = end
	}
	return nil
}

// Select returns the rows whose id is in ids, preserving store order.
func (s *Store) Select(ids IDSet) []Record {
	out := make([]Record, 0)
	for _, rec := range s.rows {
		if ids.Has(rec.ID) {
			out = append(out, rec)
		}
	}
	return out
}
