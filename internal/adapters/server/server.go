// Package server hosts the interception layer on an echo HTTP server.
//
// Every request outside the control prefix is turned into a fetch event and answered
// by the worker. Platform events arrive on the control prefix.
package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"github.com/elkincvco/crwsh/internal/engine/worker"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.trai.ch/zerr"
)

const (
	// HeaderStrategy reports the strategy that answered an intercepted request.
	HeaderStrategy = "X-Crwsh-Strategy"
	// HeaderOutcome reports where the answer came from.
	HeaderOutcome = "X-Crwsh-Outcome"

	// DefaultShutdownTimeout bounds graceful shutdown and the drain of pending work.
	DefaultShutdownTimeout = 10 * time.Second

	controlBodyLimit = "1M"
)

// Dispatcher handles platform events.
type Dispatcher interface {
	Handle(ctx context.Context, ev worker.Event) (worker.Reply, error)
	Drain(ctx context.Context) error
}

// StatusReporter describes the running server.
type StatusReporter interface {
	Status(ctx context.Context) (*domain.Status, error)
}

// WindowRegistry tracks the application windows.
type WindowRegistry interface {
	Register(ctx context.Context, url string) domain.Window
	Remove(ctx context.Context, id string) bool
	Windows(ctx context.Context) ([]domain.Window, error)
}

// NotificationTray lists displayed notifications.
type NotificationTray interface {
	List(ctx context.Context) []domain.Notification
}

// Options configure the server.
type Options struct {
	Listen          string
	Origin          *url.URL
	ShutdownTimeout time.Duration
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Dispatcher Dispatcher
	Status     StatusReporter
	Windows    WindowRegistry
	Tray       NotificationTray
	Metrics    http.Handler
	Logger     ports.Logger
}

// Server is the host runtime of the interception layer.
type Server struct {
	echo   *echo.Echo
	opts   Options
	deps   Deps
	origin url.URL
}

// New creates a Server and registers its routes.
func New(opts Options, deps Deps) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, opts: opts, deps: deps, origin: *opts.Origin}
	s.routes()
	return s
}

func (s *Server) routes() {
	control := s.echo.Group(domain.ControlPrefix, middleware.BodyLimit(controlBodyLimit))
	control.GET(strings.TrimPrefix(domain.RouteStatus, domain.ControlPrefix), s.handleStatus)
	control.POST(strings.TrimPrefix(domain.RouteMessage, domain.ControlPrefix), s.handleMessage)
	control.POST(strings.TrimPrefix(domain.RoutePush, domain.ControlPrefix), s.handlePush)
	control.GET(strings.TrimPrefix(domain.RouteNotifications, domain.ControlPrefix), s.handleNotifications)
	control.POST(strings.TrimPrefix(domain.RouteClick, domain.ControlPrefix), s.handleClick)
	control.POST(strings.TrimPrefix(domain.RouteSync, domain.ControlPrefix), s.handleSync)
	control.GET(strings.TrimPrefix(domain.RouteClients, domain.ControlPrefix), s.handleListClients)
	control.POST(strings.TrimPrefix(domain.RouteClients, domain.ControlPrefix), s.handleRegisterClient)
	control.DELETE(strings.TrimPrefix(domain.RouteClients, domain.ControlPrefix)+"/:id", s.handleRemoveClient)
	if s.deps.Metrics != nil {
		control.GET(strings.TrimPrefix(domain.RouteMetrics, domain.ControlPrefix), echo.WrapHandler(s.deps.Metrics))
	}

	control.Any("/*", func(echo.Context) error { return echo.ErrNotFound })

	s.echo.Any("/*", s.intercept)
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is done, then shuts down gracefully and waits for
// pending work such as background revalidations.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(s.opts.Listen)
	}()
	s.deps.Logger.Info("intercepting " + s.origin.String() + " on " + s.opts.Listen)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrServerFailed.Error()), "listen", s.opts.Listen)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return zerr.Wrap(err, domain.ErrServerFailed.Error())
	}
	if err := s.deps.Dispatcher.Drain(shutdownCtx); err != nil {
		return zerr.Wrap(err, "pending work did not finish before shutdown")
	}
	return nil
}

// intercept answers every request outside the control prefix.
func (s *Server) intercept(c echo.Context) error {
	req := s.outbound(c.Request())

	reply, err := s.deps.Dispatcher.Handle(req.Context(), worker.FetchEvent{Request: req})
	if err != nil {
		s.deps.Logger.Warn(req.Method + " " + req.URL.String() + ": " + err.Error())
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	if reply.Result == nil || reply.Result.Response == nil || reply.Result.Response.StatusCode == 0 {
		return echo.NewHTTPError(http.StatusBadGateway, domain.ErrFetchFailed.Error())
	}

	resp := reply.Result.Response
	header := c.Response().Header()
	for k, values := range resp.Header {
		for _, v := range values {
			header.Add(k, v)
		}
	}
	header.Set(HeaderStrategy, string(reply.Strategy))
	header.Set(HeaderOutcome, string(reply.Result.Outcome))

	c.Response().WriteHeader(resp.StatusCode)
	_, err = c.Response().Write(resp.Body)
	return err
}

// outbound turns an incoming request into one addressed to its real destination.
// Absolute-form requests (the server used as a forward proxy) keep their URL;
// origin-form requests are resolved against the configured origin.
func (s *Server) outbound(in *http.Request) *http.Request {
	out := in.Clone(in.Context())
	out.RequestURI = ""

	if !in.URL.IsAbs() {
		u := s.origin
		u.Path = strings.TrimSuffix(s.origin.Path, "/") + in.URL.Path
		if in.URL.RawPath != "" {
			u.RawPath = strings.TrimSuffix(s.origin.EscapedPath(), "/") + in.URL.RawPath
		}
		u.RawQuery = in.URL.RawQuery
		out.URL = &u
	}
	out.Host = out.URL.Host
	return out
}
