package sitexport

// RouteFrontier is a FIFO crawl queue paired with a visited set.
// A route is handed out by Next at most once; duplicate Pushes of a queued
// route are tolerated and dropped on dequeue.
type RouteFrontier interface {
	// Push enqueues a route unless it has already been visited.
	// Returns false if the route was not enqueued.
	Push(route string) bool

	// Next dequeues routes until it finds one not yet visited, marks it
	// visited and returns it. Returns false once the queue is empty.
	Next() (string, bool)

	// Visited reports whether the route has been dequeued.
	Visited(route string) bool

	// Len returns the number of queued entries, including duplicates.
	Len() int

	// VisitedCount returns the number of distinct visited routes.
	VisitedCount() int
}
