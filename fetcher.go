package sitexport

import "context"

// Response is the raw result of fetching a route.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports whether the response has a 2xx status code.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher retrieves raw responses from URLs.
type Fetcher interface {
	// Fetch performs a GET request and returns the response regardless of
	// its status code. Transport failures return an error.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*Response, error)

	// Close releases resources.
	Close() error
}
