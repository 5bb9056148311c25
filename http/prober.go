package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/sitexport"
)

// DefaultProbeTimeout bounds a single readiness probe.
const DefaultProbeTimeout = 2 * time.Second

// Ensure Prober implements sitexport.ReadinessProber at compile time.
var _ sitexport.ReadinessProber = (*Prober)(nil)

// Prober checks application readiness with plain GET requests.
type Prober struct {
	client *http.Client
}

// NewProber returns a Prober whose probes time out after timeout.
// A zero timeout uses DefaultProbeTimeout.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Prober{
		client: &http.Client{
			Timeout: timeout,
			// Any response counts, including redirects to login pages.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Probe returns nil once the server produces any HTTP response, whatever
// its status code. Connection and transport errors are returned as is.
func (p *Prober) Probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}
