package domain

import (
	"mime"
	"net/http"
	"strings"
	"time"
)

// CacheKey identifies a cache entry: the request method and its absolute URL.
// Only GET requests are ever cached, so in practice every key starts with "GET ".
type CacheKey string

// NewCacheKey builds the key for a method and absolute URL.
func NewCacheKey(method, rawURL string) CacheKey {
	return CacheKey(strings.ToUpper(method) + " " + rawURL)
}

// KeyFor builds the cache key of an intercepted request.
func KeyFor(r *http.Request) CacheKey {
	return NewCacheKey(r.Method, r.URL.String())
}

// URL returns the URL part of the key.
func (k CacheKey) URL() string {
	_, u, _ := strings.Cut(string(k), " ")
	return u
}

// Response is a captured response snapshot: status, headers and the full body.
type Response struct {
	StatusCode int         `json:"status"`
	Header     http.Header `json:"header,omitempty"`
	Body       []byte      `json:"body,omitempty"`
	URL        string      `json:"url,omitempty"`
	StoredAt   time.Time   `json:"stored_at,omitzero"`
}

// OK reports whether the status is in the 2xx range.
// Opaque responses carry status 0 and are never OK.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode <= 299
}

// Clone returns a deep copy so a stored snapshot never aliases the one being served.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := *r
	c.Header = r.Header.Clone()
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	return &c
}

// IsNavigation reports whether the request loads a top-level document.
// Browsers mark these with Sec-Fetch-Mode; older clients are recognized by
// an Accept header that lists text/html.
func IsNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if mode := r.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "text/html" {
			return true
		}
	}
	return false
}
