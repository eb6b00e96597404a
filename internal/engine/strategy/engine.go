// Package strategy implements the serving policies applied to intercepted requests.
package strategy

import (
	"context"
	"net/http"
	"net/url"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"github.com/elkincvco/crwsh/internal/engine/lifetime"
	"go.trai.ch/zerr"
)

// Partitions exposes the epoch whose partitions serve intercepted requests.
type Partitions interface {
	// Serving returns the active epoch, or false when no version is active yet.
	Serving() (domain.Epoch, bool)
	// Use runs fn while epoch still serves and reports whether it ran.
	Use(epoch domain.Epoch, fn func()) bool
}

// Result is the outcome of serving one request.
type Result struct {
	Response *domain.Response
	Outcome  ports.Outcome
	// Pending is background work the host must await before recycling the handler.
	// It is nil when the strategy finished all of its work.
	Pending *lifetime.Pending
}

// Options configures an Engine.
type Options struct {
	// Origin resolves the offline document to its cache key.
	Origin *url.URL
	// OfflineDocument is the path of the fallback document served when the network is unreachable.
	OfflineDocument string
}

// Engine serves requests according to their strategy.
type Engine struct {
	storage    ports.CacheStorage
	partitions Partitions
	fetcher    ports.Fetcher
	logger     ports.Logger
	offlineKey domain.CacheKey
}

// New creates an Engine.
func New(
	storage ports.CacheStorage,
	partitions Partitions,
	fetcher ports.Fetcher,
	logger ports.Logger,
	opts Options,
) *Engine {
	var offlineKey domain.CacheKey
	if opts.Origin != nil && opts.OfflineDocument != "" {
		ref := opts.Origin.ResolveReference(&url.URL{Path: opts.OfflineDocument})
		offlineKey = domain.NewCacheKey(http.MethodGet, ref.String())
	}

	return &Engine{
		storage:    storage,
		partitions: partitions,
		fetcher:    fetcher,
		logger:     logger,
		offlineKey: offlineKey,
	}
}

// Serve dispatches r to the policy named by s.
func (e *Engine) Serve(ctx context.Context, s domain.Strategy, r *http.Request) (*Result, error) {
	epoch, ok := e.partitions.Serving()
	if !ok || !s.Intercepted() {
		return e.Passthrough(ctx, r)
	}

	switch s {
	case domain.StrategyCacheFirst:
		return e.cacheFirst(ctx, epoch, r)
	case domain.StrategyNetworkFirst:
		return e.networkFirst(ctx, epoch, r)
	case domain.StrategyStaleWhileRevalidate:
		return e.staleWhileRevalidate(ctx, epoch, r)
	default:
		return e.Passthrough(ctx, r)
	}
}

// Passthrough forwards r to the network without touching any partition.
func (e *Engine) Passthrough(ctx context.Context, r *http.Request) (*Result, error) {
	resp, err := e.fetcher.Fetch(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Result{Response: resp, Outcome: ports.OutcomeNetwork}, nil
}

// cacheFirst returns the cached entry if present. On a miss it fetches once and
// stores a successful response in the static partition. When the network is
// unreachable the offline document is served instead.
func (e *Engine) cacheFirst(ctx context.Context, epoch domain.Epoch, r *http.Request) (*Result, error) {
	key := domain.KeyFor(r)

	if cached := e.lookup(ctx, epoch, key, epoch.StaticPartition(), epoch.DynamicPartition()); cached != nil {
		return &Result{Response: cached, Outcome: ports.OutcomeCache}, nil
	}

	resp, err := e.fetcher.Fetch(ctx, r)
	if err != nil {
		if offline := e.offline(ctx, epoch); offline != nil {
			return &Result{Response: offline, Outcome: ports.OutcomeOffline}, nil
		}
		return nil, err
	}

	e.store(ctx, epoch, epoch.StaticPartition(), key, resp)
	return &Result{Response: resp, Outcome: ports.OutcomeNetwork}, nil
}

// networkFirst always tries the network. A successful response refreshes the dynamic
// partition. On failure it serves the cached entry, then the offline document for
// navigations, and otherwise returns the fetch error.
func (e *Engine) networkFirst(ctx context.Context, epoch domain.Epoch, r *http.Request) (*Result, error) {
	key := domain.KeyFor(r)

	resp, err := e.fetcher.Fetch(ctx, r)
	if err == nil {
		e.store(ctx, epoch, epoch.DynamicPartition(), key, resp)
		return &Result{Response: resp, Outcome: ports.OutcomeNetwork}, nil
	}

	e.logger.Warn("network failed, trying cache: " + key.URL())

	if cached := e.lookup(ctx, epoch, key, epoch.StaticPartition(), epoch.DynamicPartition()); cached != nil {
		return &Result{Response: cached, Outcome: ports.OutcomeCache}, nil
	}

	if domain.IsNavigation(r) {
		if offline := e.offline(ctx, epoch); offline != nil {
			return &Result{Response: offline, Outcome: ports.OutcomeOffline}, nil
		}
	}

	return nil, err
}

// staleWhileRevalidate answers from the dynamic partition when it can and refreshes the
// entry in the background. Without a cached entry the caller waits for the network.
func (e *Engine) staleWhileRevalidate(ctx context.Context, epoch domain.Epoch, r *http.Request) (*Result, error) {
	key := domain.KeyFor(r)
	partition := epoch.DynamicPartition()

	cached := e.lookup(ctx, epoch, key, partition)
	if cached == nil {
		resp, err := e.fetcher.Fetch(ctx, r)
		if err != nil {
			return nil, err
		}
		e.store(ctx, epoch, partition, key, resp)
		return &Result{Response: resp, Outcome: ports.OutcomeNetwork}, nil
	}

	bctx := context.WithoutCancel(ctx)
	req := r.Clone(bctx)
	pending := lifetime.Go("revalidate "+key.URL(), func() error {
		resp, err := e.fetcher.Fetch(bctx, req)
		if err != nil {
			return err
		}
		e.store(bctx, epoch, partition, key, resp)
		return nil
	})

	return &Result{Response: cached, Outcome: ports.OutcomeCache, Pending: pending}, nil
}

// lookup searches the named partitions of epoch in order. Read failures are logged
// and treated as a miss, as is an epoch that no longer serves.
func (e *Engine) lookup(ctx context.Context, epoch domain.Epoch, key domain.CacheKey, names ...string) *domain.Response {
	var found *domain.Response
	e.partitions.Use(epoch, func() {
		for _, name := range names {
			p, err := e.storage.Open(ctx, name)
			if err != nil {
				e.logger.Error(err)
				continue
			}
			resp, err := p.Match(ctx, key)
			if err != nil {
				e.logger.Error(err)
				continue
			}
			if resp != nil {
				found = resp
				return
			}
		}
	})
	return found
}

// store writes a clone of resp into a partition of epoch when it is cacheable.
// Write failures are logged. Nothing is written once another epoch serves.
func (e *Engine) store(ctx context.Context, epoch domain.Epoch, name string, key domain.CacheKey, resp *domain.Response) {
	if !resp.OK() {
		return
	}
	ran := e.partitions.Use(epoch, func() {
		p, err := e.storage.Open(ctx, name)
		if err != nil {
			e.logger.Error(err)
			return
		}
		if err := p.Put(ctx, key, resp.Clone()); err != nil {
			e.logger.Error(zerr.With(err, "partition", name))
		}
	})
	if !ran {
		e.logger.Info("version " + epoch.Version + " no longer serves, not caching " + key.URL())
	}
}

func (e *Engine) offline(ctx context.Context, epoch domain.Epoch) *domain.Response {
	if e.offlineKey == "" {
		return nil
	}
	return e.lookup(ctx, epoch, e.offlineKey, epoch.StaticPartition(), epoch.DynamicPartition())
}
