package crawl_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/sitexport/crawl"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestFrontier(t *testing.T) {
	t.Parallel()

	t.Run("dequeues in FIFO order", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(100)
		f.Push("/a")
		f.Push("/b")
		f.Push("/c")

		var got []string
		for route, ok := f.Next(); ok; route, ok = f.Next() {
			got = append(got, route)
		}

		assert.Equal(t, []string{"/a", "/b", "/c"}, got)
	})

	t.Run("drops queued duplicates on dequeue", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(100)
		assert.True(t, f.Push("/about"))
		assert.True(t, f.Push("/about"))
		assert.Equal(t, 2, f.Len())

		route, ok := f.Next()
		assert.True(t, ok)
		assert.Equal(t, "/about", route)

		_, ok = f.Next()
		assert.False(t, ok)
		assert.Equal(t, 1, f.VisitedCount())
	})

	t.Run("rejects visited routes", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(100)
		f.Push("/")
		_, _ = f.Next()

		assert.True(t, f.Visited("/"))
		assert.False(t, f.Push("/"))
		assert.Equal(t, 0, f.Len())
	})

	t.Run("uses default size when zero", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(0)
		for i := range 50 {
			f.Push(fmt.Sprintf("/p/%d", i))
		}
		for _, ok := f.Next(); ok; _, ok = f.Next() {
		}
		assert.Equal(t, 50, f.VisitedCount())
	})
}

func TestFrontier_Property(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("each distinct route is dequeued exactly once", prop.ForAll(
		func(routes []string) bool {
			f := crawl.NewFrontier(uint(len(routes) + 1))
			distinct := make(map[string]bool)
			for _, r := range routes {
				f.Push("/" + r)
				distinct["/"+r] = true
			}

			seen := make(map[string]int)
			for route, ok := f.Next(); ok; route, ok = f.Next() {
				seen[route]++
				// Re-pushing a visited route must be refused.
				if f.Push(route) {
					return false
				}
			}

			for _, n := range seen {
				if n != 1 {
					return false
				}
			}
			return len(seen) == len(distinct) && f.VisitedCount() == len(distinct)
		},
		gen.SliceOf(gen.OneConstOf("a", "b", "c", "d", "docs/x", "docs/y")),
	))

	properties.TestingRun(t)
}
