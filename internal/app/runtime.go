package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/elkincvco/crwsh/internal/adapters/cas"
	"github.com/elkincvco/crwsh/internal/adapters/memory"
	"github.com/elkincvco/crwsh/internal/adapters/network"
	"github.com/elkincvco/crwsh/internal/adapters/server"
	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"github.com/elkincvco/crwsh/internal/engine/bridge"
	"github.com/elkincvco/crwsh/internal/engine/classifier"
	"github.com/elkincvco/crwsh/internal/engine/lifecycle"
	"github.com/elkincvco/crwsh/internal/engine/lifetime"
	"github.com/elkincvco/crwsh/internal/engine/strategy"
	"github.com/elkincvco/crwsh/internal/engine/worker"
	"go.trai.ch/zerr"
)

// Install retry delays. The delay doubles after every failed attempt.
const (
	DefaultInstallRetry    = 5 * time.Second
	DefaultMaxInstallRetry = 5 * time.Minute
)

// Windows is the window registry shared by the lifecycle, the notification bridge
// and the control API.
type Windows interface {
	ports.Clients
	server.WindowRegistry
}

// RuntimeDeps are the long-lived collaborators of a Runtime.
type RuntimeDeps struct {
	// Storage and Fetcher are built from the configuration when nil.
	Storage ports.CacheStorage
	Fetcher ports.Fetcher

	Windows    Windows
	Notifier   ports.Notifier
	Tray       server.NotificationTray
	Reconciler ports.Reconciler
	Tracer     ports.Tracer
	Metrics    ports.Metrics
	MetricsAPI http.Handler
	Logger     ports.Logger

	// InstallRetry is the first delay before a failed install is attempted again.
	// DefaultInstallRetry is used when zero.
	InstallRetry time.Duration
}

// Runtime is one assembled interception layer: storage, lifecycle, strategies,
// bridges, the worker and the server hosting them.
type Runtime struct {
	cfg       *domain.Config
	origin    *url.URL
	storage   ports.CacheStorage
	lifecycle *lifecycle.Controller
	worker    *worker.Worker
	server    *server.Server
	windows   Windows
	logger    ports.Logger
	startedAt time.Time

	retry    time.Duration
	maxRetry time.Duration

	mu         sync.RWMutex
	app        string
	configured string
	// cancelInstall stops the retries of the install in flight, if any.
	cancelInstall context.CancelFunc
}

// NewStorage returns the partition store selected by cfg.
func NewStorage(cfg domain.CacheConfig) ports.CacheStorage {
	if cfg.Driver == domain.CacheDriverMemory {
		return memory.NewStorage()
	}
	return cas.NewStore(cfg.Dir)
}

// NewRuntime assembles a Runtime for cfg.
func NewRuntime(cfg *domain.Config, deps RuntimeDeps) (*Runtime, error) {
	origin, err := url.Parse(cfg.Origin)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigInvalid.Error()), "origin", cfg.Origin)
	}

	storage := deps.Storage
	if storage == nil {
		storage = NewStorage(cfg.Cache)
	}
	fetcher := deps.Fetcher
	if fetcher == nil {
		f, err := network.NewFetcher(cfg.FetchTimeout)
		if err != nil {
			return nil, err
		}
		fetcher = f
	}

	lc := lifecycle.New(storage, fetcher, deps.Windows, deps.Logger, lifecycle.Options{
		Origin:               origin,
		Manifest:             cfg.Manifest,
		SkipWaitingOnInstall: cfg.SkipWaitingOnInstall,
	})

	w := worker.New(worker.Components{
		Classifier: classifier.New(classifier.DefaultRules(classifier.Options{
			APIPath:         cfg.APIPath,
			DataServiceHost: cfg.DataServiceHost,
			Manifest:        cfg.Manifest,
		})),
		Engine: strategy.New(storage, lc, fetcher, deps.Logger, strategy.Options{
			Origin:          origin,
			OfflineDocument: cfg.OfflineDocument,
		}),
		Lifecycle:     lc,
		Notifications: bridge.NewNotifications(deps.Notifier, deps.Windows, deps.Logger, cfg.Notifications),
		Sync:          bridge.NewSync(deps.Reconciler, deps.Logger, cfg.SyncTag),
		Control:       bridge.NewControl(lc),
	}, deps.Tracer, deps.Metrics, deps.Logger)

	rt := &Runtime{
		cfg:        cfg,
		origin:     origin,
		storage:    storage,
		lifecycle:  lc,
		worker:     w,
		windows:    deps.Windows,
		logger:     deps.Logger,
		startedAt:  time.Now().UTC(),
		retry:      DefaultInstallRetry,
		maxRetry:   DefaultMaxInstallRetry,
		app:        cfg.App,
		configured: cfg.Version,
	}
	if deps.InstallRetry > 0 {
		rt.retry = deps.InstallRetry
		rt.maxRetry = max(DefaultMaxInstallRetry, deps.InstallRetry)
	}
	rt.server = server.New(server.Options{Listen: cfg.Listen, Origin: origin}, server.Deps{
		Dispatcher: w,
		Status:     rt,
		Windows:    deps.Windows,
		Tray:       deps.Tray,
		Metrics:    deps.MetricsAPI,
		Logger:     deps.Logger,
	})
	return rt, nil
}

// Start brings the configured version into service. Partitions left by a previous
// run are reused when complete; otherwise installation starts in the background and
// requests pass through to the network until it finishes. A failed installation is
// attempted again with backoff until it succeeds or ctx is done.
func (r *Runtime) Start(ctx context.Context) error {
	resumed, err := r.lifecycle.Resume(ctx, r.cfg.App, r.cfg.Version)
	if err != nil {
		r.logger.Error(err)
	}
	if resumed {
		return nil
	}
	return r.install(ctx, r.cfg.App, r.cfg.Version)
}

// Reconfigure installs the version named by cfg if it differs from the configured one.
// It reports whether an installation started. The install of the previously
// configured version stops retrying.
func (r *Runtime) Reconfigure(ctx context.Context, cfg *domain.Config) (bool, error) {
	r.mu.Lock()
	if cfg.App == r.app && cfg.Version == r.configured {
		r.mu.Unlock()
		return false, nil
	}
	r.app, r.configured = cfg.App, cfg.Version
	r.mu.Unlock()

	r.logger.Info("configured version changed to " + cfg.Version + ", installing")
	return true, r.install(ctx, cfg.App, cfg.Version)
}

// install dispatches the first install attempt and keeps retrying in the background.
func (r *Runtime) install(ctx context.Context, app, version string) error {
	rctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if r.cancelInstall != nil {
		r.cancelInstall()
	}
	r.cancelInstall = cancel
	r.mu.Unlock()

	reply, err := r.worker.Handle(ctx, worker.InstallEvent{App: app, Version: version})
	if err != nil {
		cancel()
		return err
	}
	go r.retryInstall(rctx, app, version, reply.Pending)
	return nil
}

func (r *Runtime) retryInstall(ctx context.Context, app, version string, pending *lifetime.Pending) {
	delay := r.retry
	for {
		select {
		case <-pending.Finished():
		case <-ctx.Done():
			return
		}
		if pending.Err() == nil || r.serves(app, version) {
			return
		}

		r.logger.Warn(fmt.Sprintf("install of version %s failed, retrying in %s", version, delay))
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
		delay = min(2*delay, r.maxRetry)

		reply, err := r.worker.Handle(ctx, worker.InstallEvent{App: app, Version: version})
		if err != nil {
			r.logger.Error(err)
			return
		}
		pending = reply.Pending
	}
}

func (r *Runtime) serves(app, version string) bool {
	active := r.lifecycle.Active()
	return active != nil && active.App == app && active.Version == version
}

// Handle dispatches ev to the worker.
func (r *Runtime) Handle(ctx context.Context, ev worker.Event) (worker.Reply, error) {
	return r.worker.Handle(ctx, ev)
}

// Drain waits for pending background work.
func (r *Runtime) Drain(ctx context.Context) error {
	return r.worker.Drain(ctx)
}

// Handler returns the HTTP handler of the hosted server.
func (r *Runtime) Handler() http.Handler {
	return r.server.Handler()
}

// Run serves until ctx is done.
func (r *Runtime) Run(ctx context.Context) error {
	return r.server.Run(ctx)
}

// Status implements server.StatusReporter.
func (r *Runtime) Status(ctx context.Context) (*domain.Status, error) {
	names, err := r.storage.Names(ctx)
	if err != nil {
		return nil, err
	}
	windows, err := r.windows.Windows(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	app, configured := r.app, r.configured
	r.mu.RUnlock()

	return &domain.Status{
		PID:        os.Getpid(),
		StartedAt:  r.startedAt,
		App:        app,
		Configured: configured,
		Origin:     r.origin.String(),
		Lifecycle:  r.lifecycle.Snapshot(),
		Partitions: names,
		Windows:    len(windows),
		Pending:    r.worker.Pending(),
	}, nil
}
