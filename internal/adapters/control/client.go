// Package control is the CLI-side client of a running server's control API.
package control

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"go.trai.ch/zerr"
)

const defaultTimeout = 5 * time.Second

// Client talks to the control API of a running server.
type Client struct {
	base *url.URL
	http *http.Client
}

// Dial creates a client for the server listening on listen ("host:port" or a URL).
// No connection is made until the first call.
func Dial(listen string) (*Client, error) {
	raw := listen
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil || base.Host == "" {
		return nil, zerr.With(zerr.New("invalid server address"), "listen", listen)
	}
	return &Client{base: base, http: &http.Client{Timeout: defaultTimeout}}, nil
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// Status reports the state of the running server.
func (c *Client) Status(ctx context.Context) (*domain.Status, error) {
	var status domain.Status
	if err := c.call(ctx, http.MethodGet, domain.RouteStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SkipWaiting sends the skip-waiting command and reports whether a waiting version took over.
func (c *Client) SkipWaiting(ctx context.Context) (bool, error) {
	var reply struct {
		Handled bool `json:"handled"`
	}
	cmd := domain.Command{Type: domain.CommandSkipWaiting}
	if err := c.call(ctx, http.MethodPost, domain.RouteMessage, cmd, &reply); err != nil {
		return false, err
	}
	return reply.Handled, nil
}

// Notifications lists the notifications currently displayed by the server.
func (c *Client) Notifications(ctx context.Context) ([]domain.Notification, error) {
	var out []domain.Notification
	if err := c.call(ctx, http.MethodGet, domain.RouteNotifications, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, method, route string, in, out any) error {
	target := c.base.JoinPath(route).String()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return zerr.Wrap(err, domain.ErrControlRequestFailed.Error())
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrControlRequestFailed.Error()), "url", target)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrControlRequestFailed.Error()), "url", target)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		err := zerr.With(zerr.With(domain.ErrControlRequestFailed, "url", target), "status", resp.StatusCode)
		if apiErr.Message != "" {
			err = zerr.With(err, "reason", apiErr.Message)
		}
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrControlRequestFailed.Error()), "url", target)
	}
	return nil
}
