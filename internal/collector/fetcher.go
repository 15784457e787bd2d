package collector

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// ErrNoData is returned by a Fetcher when the source answered but has
// nothing to report yet. It is a valid outcome, not a failure: callers must
// not retry on it and must leave their snapshot untouched.
var ErrNoData = errors.New("no data")

// Fetcher returns the full current result set of one data source.
type Fetcher[T any] interface {
	Fetch(ctx context.Context) ([]T, error)
	Name() string
}

// newHTTPClient builds a client with a fixed timeout and optional proxy.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
