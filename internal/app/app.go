// Package app implements the application layer for crwsh.
package app

import (
	"context"
	"fmt"

	"github.com/elkincvco/crwsh/internal/adapters/clients"
	"github.com/elkincvco/crwsh/internal/adapters/control"
	"github.com/elkincvco/crwsh/internal/adapters/metrics"
	"github.com/elkincvco/crwsh/internal/adapters/notifier"
	"github.com/elkincvco/crwsh/internal/adapters/telemetry"
	"github.com/elkincvco/crwsh/internal/adapters/watcher"
	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	tracer       ports.Tracer
	metrics      *metrics.Collector
	watcher      ports.Watcher
	reconciler   ports.Reconciler
	fetcher      ports.Fetcher
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	tracer ports.Tracer,
	collector *metrics.Collector,
	w ports.Watcher,
	reconciler ports.Reconciler,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		tracer:       tracer,
		metrics:      collector,
		watcher:      w,
		reconciler:   reconciler,
	}
}

// WithFetcher replaces the network fetcher built from configuration.
// This is primarily used for testing.
func (a *App) WithFetcher(f ports.Fetcher) *App {
	a.fetcher = f
	return a
}

// ServeOptions configuration for the Serve method.
type ServeOptions struct {
	ConfigPath string
	// Listen overrides the configured listen address when set.
	Listen string
	// Watch reinstalls when the version in the config file changes.
	Watch bool
}

// Serve runs the interception server until ctx is done.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := a.load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}

	tp := telemetry.Setup(telemetry.NewBridge(a.metrics))
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()

	rt, err := a.Runtime(cfg)
	if err != nil {
		return err
	}
	if err := rt.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rt.Run(gctx)
	})

	if opts.Watch && opts.ConfigPath != "" {
		if err := a.watcher.Start(gctx, opts.ConfigPath); err != nil {
			a.logger.Warn("config watch disabled: " + err.Error())
		} else {
			defer func() { _ = a.watcher.Stop() }()
			g.Go(func() error {
				a.watchConfig(gctx, opts.ConfigPath, rt)
				return nil
			})
		}
	}

	return g.Wait()
}

// Runtime assembles the interception layer for cfg with fresh in-process registries.
func (a *App) Runtime(cfg *domain.Config) (*Runtime, error) {
	tray := notifier.NewTray()
	return NewRuntime(cfg, RuntimeDeps{
		Fetcher:    a.fetcher,
		Windows:    clients.NewRegistry(),
		Notifier:   tray,
		Tray:       tray,
		Reconciler: a.reconciler,
		Tracer:     a.tracer,
		Metrics:    a.metrics,
		MetricsAPI: a.metrics.Handler(),
		Logger:     a.logger,
	})
}

func (a *App) watchConfig(ctx context.Context, path string, rt *Runtime) {
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func([]string) {
		cfg, err := a.configLoader.Load(path)
		if err != nil {
			a.logger.Error(zerr.Wrap(err, "config reload failed"))
			return
		}
		if _, err := rt.Reconfigure(ctx, cfg); err != nil {
			a.logger.Error(err)
		}
	})
	defer debouncer.Stop()

	for ev := range a.watcher.Events() {
		if ev.Operation == ports.OpRemove {
			continue
		}
		debouncer.Add(ev.Path)
	}
}

// Status asks the running server for its status.
func (a *App) Status(ctx context.Context, configPath string) (*domain.Status, error) {
	c, err := a.dial(configPath)
	if err != nil {
		return nil, err
	}
	return c.Status(ctx)
}

// SkipWaiting asks the running server to promote its waiting version.
func (a *App) SkipWaiting(ctx context.Context, configPath string) (bool, error) {
	c, err := a.dial(configPath)
	if err != nil {
		return false, err
	}
	return c.SkipWaiting(ctx)
}

// Notifications lists the notifications displayed by the running server.
func (a *App) Notifications(ctx context.Context, configPath string) ([]domain.Notification, error) {
	c, err := a.dial(configPath)
	if err != nil {
		return nil, err
	}
	return c.Notifications(ctx)
}

// PartitionInfo describes a partition found in the store.
type PartitionInfo struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
	// Current reports whether the partition belongs to the configured version.
	Current bool `json:"current"`
}

// Partitions lists the partitions persisted in the configured store.
func (a *App) Partitions(ctx context.Context, configPath string) ([]PartitionInfo, error) {
	cfg, err := a.load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Driver == domain.CacheDriverMemory {
		a.logger.Warn("the memory cache driver keeps partitions inside the running server; use status")
		return nil, nil
	}

	storage := NewStorage(cfg.Cache)
	names, err := storage.Names(ctx)
	if err != nil {
		return nil, err
	}

	epoch := cfg.Epoch()
	out := make([]PartitionInfo, 0, len(names))
	for _, name := range names {
		p, err := storage.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		keys, err := p.Keys(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, PartitionInfo{Name: name, Entries: len(keys), Current: epoch.Owns(name)})
	}
	return out, nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// All removes the partitions of the configured version too.
	All bool
}

// Clean deletes partitions from the configured store and returns their names.
// By default only partitions not owned by the configured version are removed.
func (a *App) Clean(ctx context.Context, configPath string, opts CleanOptions) ([]string, error) {
	cfg, err := a.load(configPath)
	if err != nil {
		return nil, err
	}

	storage := NewStorage(cfg.Cache)
	names, err := storage.Names(ctx)
	if err != nil {
		return nil, err
	}

	epoch := cfg.Epoch()
	removed := make([]string, 0, len(names))
	for _, name := range names {
		if !opts.All && epoch.Owns(name) {
			continue
		}
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if _, err := storage.Delete(ctx, name); err != nil {
			return removed, err
		}
		removed = append(removed, name)
	}
	return removed, nil
}

func (a *App) load(configPath string) (*domain.Config, error) {
	cfg, err := a.configLoader.Load(configPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return cfg, nil
}

func (a *App) dial(configPath string) (*control.Client, error) {
	cfg, err := a.load(configPath)
	if err != nil {
		return nil, err
	}
	return control.Dial(cfg.Listen)
}
