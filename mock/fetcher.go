package mock

import (
	"context"

	"github.com/fwojciec/sitexport"
)

var _ sitexport.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of sitexport.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*sitexport.Response, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*sitexport.Response, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ sitexport.ReadinessProber = (*ReadinessProber)(nil)

// ReadinessProber is a mock implementation of sitexport.ReadinessProber.
type ReadinessProber struct {
	ProbeFn func(ctx context.Context, url string) error
}

func (p *ReadinessProber) Probe(ctx context.Context, url string) error {
	return p.ProbeFn(ctx, url)
}
