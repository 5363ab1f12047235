// Package population holds the fetched record set, grouped for sampling.
package population

import (
	"sort"

	"github.com/EBB2675/curator/internal/domain/model"
)

// Store indexes an immutable record slice by stratification group.
// It is built once after the fetch completes and never mutated, so all
// accessors are safe for concurrent readers.
type Store struct {
	records []model.Record
	groups  map[string][]model.Record
	keys    []string // group keys, ascending
	authors map[string]struct{}
}

// New ingests the cleaned record sequence. Records keep their fetch order
// inside each group; group keys are exposed in ascending order so every
// traversal of the population is deterministic.
func New(records []model.Record) *Store {
	s := &Store{
		records: records,
		groups:  make(map[string][]model.Record),
		authors: make(map[string]struct{}),
	}
	for _, r := range records {
		s.groups[r.System] = append(s.groups[r.System], r)
		s.authors[r.MainAuthor] = struct{}{}
	}
	s.keys = make([]string, 0, len(s.groups))
	for key := range s.groups {
		s.keys = append(s.keys, key)
	}
	sort.Strings(s.keys)
	return s
}

// Size returns the number of records in the population.
func (s *Store) Size() int {
	return len(s.records)
}

// Records returns the full population in fetch order.
// Callers must not mutate the returned slice.
func (s *Store) Records() []model.Record {
	return s.records
}

// GroupKeys returns all group keys in ascending order.
func (s *Store) GroupKeys() []string {
	return s.keys
}

// Group returns the records of one group in fetch order.
// Callers must not mutate the returned slice.
func (s *Store) Group(key string) []model.Record {
	return s.groups[key]
}

// GroupSizes returns the record count per group.
func (s *Store) GroupSizes() map[string]int {
	sizes := make(map[string]int, len(s.groups))
	for key, records := range s.groups {
		sizes[key] = len(records)
	}
	return sizes
}

// DistinctAuthors returns the number of distinct author identities.
func (s *Store) DistinctAuthors() int {
	return len(s.authors)
}
