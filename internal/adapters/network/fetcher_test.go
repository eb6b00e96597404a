package network_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elkincvco/crwsh/internal/adapters/network"
	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedFetcher(t *testing.T) (*network.Fetcher, *httpmock.MockTransport) {
	t.Helper()

	transport := httpmock.NewMockTransport()
	return network.NewFetcherWithClient(&http.Client{Transport: transport}), transport
}

func TestFetch_CapturesResponse(t *testing.T) {
	t.Parallel()

	fetcher, transport := newMockedFetcher(t)
	transport.RegisterResponder(http.MethodGet, "http://localhost:5173/index.html",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(http.StatusOK, "<html></html>")
			resp.Header.Set("Content-Type", "text/html")
			resp.Header.Set("Connection", "keep-alive")
			resp.Header.Set("X-Echo-Accept", req.Header.Get("Accept"))
			return resp, nil
		})

	req := httptest.NewRequest(http.MethodGet, "http://localhost:5173/index.html", http.NoBody)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Proxy-Connection", "keep-alive")

	resp, err := fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<html></html>", string(resp.Body))
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	assert.Equal(t, "text/html", resp.Header.Get("X-Echo-Accept"))
	assert.Empty(t, resp.Header.Get("Connection"))
	assert.Equal(t, "http://localhost:5173/index.html", resp.URL)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestFetch_NonSuccessIsAResponse(t *testing.T) {
	t.Parallel()

	fetcher, transport := newMockedFetcher(t)
	transport.RegisterResponder(http.MethodGet, "https://abcd.supabase.co/rest/v1/appointments",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, `{"message":"down"}`))

	req := httptest.NewRequest(http.MethodGet, "https://abcd.supabase.co/rest/v1/appointments", http.NoBody)

	resp, err := fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.False(t, resp.OK())
}

func TestFetch_TransportFailure(t *testing.T) {
	t.Parallel()

	fetcher, transport := newMockedFetcher(t)
	errRefused := errors.New("connection refused")
	transport.RegisterResponder(http.MethodGet, "http://localhost:5173/api/appointments",
		httpmock.NewErrorResponder(errRefused))

	req := httptest.NewRequest(http.MethodGet, "http://localhost:5173/api/appointments", http.NoBody)

	resp, err := fetcher.Fetch(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, errRefused)
	assert.ErrorContains(t, err, domain.ErrFetchFailed.Error())
}

func TestFetch_ForwardsRequestBody(t *testing.T) {
	t.Parallel()

	fetcher, transport := newMockedFetcher(t)
	transport.RegisterResponder(http.MethodPost, "http://localhost:5173/api/appointments",
		func(req *http.Request) (*http.Response, error) {
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}
			return httpmock.NewStringResponse(http.StatusCreated, string(body)), nil
		})

	req := httptest.NewRequest(http.MethodPost, "http://localhost:5173/api/appointments",
		strings.NewReader(`{"service":"lavado"}`))

	resp, err := fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"service":"lavado"}`, string(resp.Body))
}

func TestFetch_DoesNotFollowRedirects(t *testing.T) {
	t.Parallel()

	fetcher, transport := newMockedFetcher(t)
	transport.RegisterResponder(http.MethodGet, "http://localhost:5173/login",
		func(*http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(http.StatusFound, "")
			resp.Header.Set("Location", "/dashboard")
			return resp, nil
		})

	req := httptest.NewRequest(http.MethodGet, "http://localhost:5173/login", http.NoBody)

	resp, err := fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestNewFetcher_ConfiguresHTTP2(t *testing.T) {
	t.Parallel()

	fetcher, err := network.NewFetcher(5 * time.Second)
	require.NoError(t, err)

	client := fetcher.Client()
	assert.Equal(t, 5*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Contains(t, transport.TLSNextProto, "h2")
}

func TestNewFetcher_AgainstServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	fetcher, err := network.NewFetcher(time.Second)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, srv.URL+"/manifest.json", http.NoBody)
	resp, err := fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Empty(t, resp.Header.Get("Content-Length"))
}

func TestFetch_RejectsOversizedBody(t *testing.T) {
	t.Parallel()

	fetcher, transport := newMockedFetcher(t)
	fetcher.WithMaxBodySize(16)
	transport.RegisterResponder(http.MethodGet, "http://localhost:5173/exact.js",
		httpmock.NewStringResponder(http.StatusOK, strings.Repeat("a", 16)))
	transport.RegisterResponder(http.MethodGet, "http://localhost:5173/huge.js",
		httpmock.NewStringResponder(http.StatusOK, strings.Repeat("a", 26)))

	resp, err := fetcher.Fetch(context.Background(), httptest.NewRequest(http.MethodGet, "http://localhost:5173/exact.js", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Body, 16)

	resp, err = fetcher.Fetch(context.Background(), httptest.NewRequest(http.MethodGet, "http://localhost:5173/huge.js", nil))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorContains(t, err, domain.ErrResponseTooLarge.Error())
}
