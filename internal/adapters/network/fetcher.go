// Package network implements ports.Fetcher over an HTTP/2-capable client.
package network

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/net/http2"
)

// MaxBodySize bounds the response bodies captured into snapshots. Larger
// responses fail the fetch rather than produce a truncated snapshot.
const MaxBodySize = 64 << 20

const (
	dialTimeout         = 30 * time.Second
	idleConnTimeout     = 90 * time.Second
	tlsHandshakeTimeout = 10 * time.Second
	maxIdleConns        = 100
)

// hopHeaders are meaningful only for a single connection and are never forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

var _ ports.Fetcher = (*Fetcher)(nil)

// Fetcher captures upstream responses into snapshots.
type Fetcher struct {
	client  *http.Client
	maxBody int64
}

// NewFetcher creates a Fetcher whose transport negotiates HTTP/2 over TLS and whose
// requests give up after timeout. Redirects are returned to the caller rather than followed.
func NewFetcher(timeout time.Duration) (*Fetcher, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: dialTimeout,
		}).DialContext,
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ExpectContinueTimeout: time.Second,
	}
	if _, err := http2.ConfigureTransports(transport); err != nil {
		return nil, zerr.Wrap(err, "failed to configure HTTP/2 transport")
	}

	return NewFetcherWithClient(&http.Client{
		Transport: transport,
		Timeout:   timeout,
	}), nil
}

// NewFetcherWithClient creates a Fetcher over client. Redirect following is disabled.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	c := *client
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Fetcher{client: &c, maxBody: MaxBodySize}
}

// WithMaxBodySize replaces MaxBodySize as the largest body f captures.
func (f *Fetcher) WithMaxBodySize(n int64) *Fetcher {
	f.maxBody = n
	return f
}

// Client returns the underlying client.
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// Fetch sends r upstream and captures the full response.
// Any status code is a response; only transport failures are errors.
func (f *Fetcher) Fetch(ctx context.Context, r *http.Request) (*domain.Response, error) {
	target := r.URL.String()

	out := r.Clone(ctx)
	out.RequestURI = ""
	removeHopHeaders(out.Header)

	resp, err := f.client.Do(out)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "url", target)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "url", target)
	}
	if int64(len(body)) > f.maxBody {
		return nil, zerr.With(zerr.With(domain.ErrResponseTooLarge, "url", target), "limit", f.maxBody)
	}

	header := resp.Header.Clone()
	removeHopHeaders(header)
	header.Del("Content-Length")

	return &domain.Response{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       body,
		URL:        target,
	}, nil
}

func removeHopHeaders(h http.Header) {
	for _, name := range hopHeaders {
		h.Del(name)
	}
}
