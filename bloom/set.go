// Package bloom provides the crawl's visited-route set.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Set is an exact string set with a Bloom filter in front of it. The map
// decides membership; the filter tier is tracked so FilterMisses and
// EstimatedCount can report how it behaves on large crawls.
type Set struct {
	filter *bloom.BloomFilter
	items  map[string]struct{}
	misses int
}

// NewSet creates a Set sized for n expected routes with the given
// false positive rate for the filter tier.
func NewSet(n uint, fpRate float64) *Set {
	return &Set{
		filter: bloom.NewWithEstimates(n, fpRate),
		items:  make(map[string]struct{}),
	}
}

// Add inserts route and reports whether it was not already present.
func (s *Set) Add(route string) bool {
	if s.Has(route) {
		return false
	}
	s.filter.AddString(route)
	s.items[route] = struct{}{}
	return true
}

// Has reports whether route is in the set. It never returns a false positive.
func (s *Set) Has(route string) bool {
	if !s.filter.TestString(route) {
		return false
	}
	_, ok := s.items[route]
	if !ok {
		s.misses++
	}
	return ok
}

// Len returns the exact number of routes in the set.
func (s *Set) Len() int {
	return len(s.items)
}

// FilterMisses returns how many lookups passed the filter but were absent
// from the set.
func (s *Set) FilterMisses() int {
	return s.misses
}

// EstimatedCount returns the filter's approximation of the set size.
func (s *Set) EstimatedCount() uint {
	return uint(s.filter.ApproximatedSize())
}
