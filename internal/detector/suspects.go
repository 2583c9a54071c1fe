package detector

import "sort"

// SuspectSet is a set of flagged transaction ids.
type SuspectSet map[string]struct{}

// NewSuspectSet builds a set holding ids.
func NewSuspectSet(ids ...string) SuspectSet {
	s := make(SuspectSet, len(ids))
	s.Add(ids...)
	return s
}

// Add inserts ids.
func (s SuspectSet) Add(ids ...string) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Has reports membership.
func (s SuspectSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids.
func (s SuspectSet) Len() int {
	return len(s)
}

// Merge folds other into s and returns s. other is left untouched.
func (s SuspectSet) Merge(other SuspectSet) SuspectSet {
	for id := range other {
		s[id] = struct{}{}
	}
	return s
}

// IDs returns the members in ascending order.
func (s SuspectSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
