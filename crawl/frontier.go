package crawl

import (
	"github.com/fwojciec/sitexport"
	"github.com/fwojciec/sitexport/bloom"
)

// Frontier configuration.
const (
	// frontierExpectedRoutes is the expected number of routes for Bloom filter sizing.
	frontierExpectedRoutes = 10000
	// frontierFalsePositiveRate is the false positive rate of the filter tier.
	frontierFalsePositiveRate = 0.01
)

// Compile-time interface verification.
var _ sitexport.RouteFrontier = (*Frontier)(nil)

// Frontier is a FIFO route queue with an exact visited set.
// It is owned by a single crawl loop and is not safe for concurrent use.
type Frontier struct {
	queue   []string
	visited *bloom.Set
}

// NewFrontier creates a new Frontier sized for n expected routes.
func NewFrontier(n uint) *Frontier {
	if n == 0 {
		n = frontierExpectedRoutes
	}
	return &Frontier{
		visited: bloom.NewSet(n, frontierFalsePositiveRate),
	}
}

// Push appends route to the queue unless it has been visited.
// Routes already waiting in the queue may be pushed again; Next drops
// the duplicates.
func (f *Frontier) Push(route string) bool {
	if f.visited.Has(route) {
		return false
	}
	f.queue = append(f.queue, route)
	return true
}

// Next dequeues the next unvisited route and marks it visited.
func (f *Frontier) Next() (string, bool) {
	for len(f.queue) > 0 {
		route := f.queue[0]
		f.queue[0] = ""
		f.queue = f.queue[1:]
		if f.visited.Add(route) {
			return route, true
		}
	}
	return "", false
}

// Visited reports whether route has been dequeued.
func (f *Frontier) Visited(route string) bool {
	return f.visited.Has(route)
}

// Len returns the number of queued entries.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// VisitedCount returns the number of distinct visited routes.
func (f *Frontier) VisitedCount() int {
	return f.visited.Len()
}

// FilterMisses returns how many visited-set lookups the Bloom tier could
// not rule out for routes that were never visited.
func (f *Frontier) FilterMisses() int {
	return f.visited.FilterMisses()
}
