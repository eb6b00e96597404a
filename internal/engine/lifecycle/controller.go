// Package lifecycle drives the install, waiting, activating and active transitions of
// versioned epochs and owns the decision of which partitions survive.
package lifecycle

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"sync"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const reapConcurrency = 4

// Options configures a Controller.
type Options struct {
	// Origin resolves manifest paths to absolute URLs.
	Origin *url.URL
	// Manifest lists the paths every epoch must cache before leaving install.
	Manifest []string
	// SkipWaitingOnInstall activates a freshly installed epoch right away.
	SkipWaitingOnInstall bool
}

// Controller is the single owner of the lifecycle state.
// Transitions are serialized; reads of the serving epoch never wait on network I/O.
type Controller struct {
	storage ports.CacheStorage
	fetcher ports.Fetcher
	clients ports.Clients
	logger  ports.Logger
	opts    Options

	transition sync.Mutex
	// partitions is held for reading while a partition of the serving epoch is in
	// use, and for writing while activation reaps and swaps the serving epoch.
	partitions sync.RWMutex

	mu      sync.RWMutex
	active  *domain.Epoch
	waiting *domain.Epoch
}

// New creates a Controller with no active epoch.
func New(
	storage ports.CacheStorage,
	fetcher ports.Fetcher,
	clients ports.Clients,
	logger ports.Logger,
	opts Options,
) *Controller {
	opts.Manifest = slices.Clone(opts.Manifest)
	return &Controller{
		storage: storage,
		fetcher: fetcher,
		clients: clients,
		logger:  logger,
		opts:    opts,
	}
}

// Serving returns the active epoch.
func (c *Controller) Serving() (domain.Epoch, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active == nil {
		return domain.Epoch{}, false
	}
	return *c.active, true
}

// Use runs fn while epoch is still the serving epoch and reports whether it ran.
// Activation waits for fn to return, and once another epoch serves fn is skipped,
// so work started under an older epoch cannot recreate a reaped partition.
func (c *Controller) Use(epoch domain.Epoch, fn func()) bool {
	c.partitions.RLock()
	defer c.partitions.RUnlock()

	serving, ok := c.Serving()
	if !ok || serving.App != epoch.App || serving.Version != epoch.Version {
		return false
	}
	fn()
	return true
}

// Active returns a copy of the active epoch, or nil.
func (c *Controller) Active() *domain.Epoch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneEpoch(c.active)
}

// Waiting returns a copy of the installed epoch waiting to take over, or nil.
func (c *Controller) Waiting() *domain.Epoch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneEpoch(c.waiting)
}

// Snapshot returns the active and waiting epochs.
func (c *Controller) Snapshot() domain.LifecycleSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.LifecycleSnapshot{
		Active:  cloneEpoch(c.active),
		Waiting: cloneEpoch(c.waiting),
	}
}

// ManifestKeys returns the cache keys of the manifest entries.
func (c *Controller) ManifestKeys() []domain.CacheKey {
	keys := make([]domain.CacheKey, 0, len(c.opts.Manifest))
	for _, u := range c.manifestURLs() {
		keys = append(keys, domain.NewCacheKey(http.MethodGet, u))
	}
	return keys
}

// Resume makes epoch active without a network round-trip when its static partition
// already holds every manifest entry from a previous run. It reports whether the
// epoch was resumed.
func (c *Controller) Resume(ctx context.Context, app, version string) (bool, error) {
	c.transition.Lock()
	defer c.transition.Unlock()

	epoch := domain.Epoch{App: app, Version: version, State: domain.StateActive}

	names, err := c.storage.Names(ctx)
	if err != nil {
		return false, err
	}
	if !slices.Contains(names, epoch.StaticPartition()) {
		return false, nil
	}

	static, err := c.storage.Open(ctx, epoch.StaticPartition())
	if err != nil {
		return false, err
	}
	for _, key := range c.ManifestKeys() {
		resp, err := static.Match(ctx, key)
		if err != nil {
			return false, err
		}
		if resp == nil {
			return false, nil
		}
	}

	c.mu.Lock()
	c.active = &epoch
	c.mu.Unlock()

	c.logger.Info("resumed version " + version + " from " + epoch.StaticPartition())
	return true, nil
}

// Install seeds the static partition of a new epoch with every manifest entry.
// The entries are stored only when all of them were fetched successfully; on any
// failure the epoch is redundant and the active epoch keeps serving.
// When SkipWaitingOnInstall is set the new epoch is activated before Install returns.
func (c *Controller) Install(ctx context.Context, app, version string) (domain.Epoch, error) {
	c.transition.Lock()
	defer c.transition.Unlock()

	epoch := domain.Epoch{App: app, Version: version, State: domain.StateInstalling}

	c.mu.RLock()
	current := c.active
	c.mu.RUnlock()
	if current != nil && current.App == app && current.Version == version {
		return *current, zerr.With(zerr.With(domain.ErrInvalidTransition, "version", version), "state", string(current.State))
	}

	c.logger.Info("installing version " + version)

	if err := c.seed(ctx, epoch); err != nil {
		epoch.State = domain.StateRedundant
		return epoch, zerr.With(zerr.Wrap(err, domain.ErrInstallFailed.Error()), "version", version)
	}

	epoch.State = domain.StateWaiting
	c.mu.Lock()
	if c.waiting != nil {
		c.logger.Info("version " + c.waiting.Version + " superseded before activation")
	}
	c.waiting = &epoch
	c.mu.Unlock()

	c.logger.Info("installed version " + version + ", static files cached")

	if !c.opts.SkipWaitingOnInstall {
		return epoch, nil
	}
	return c.activate(ctx)
}

// Activate promotes the waiting epoch, reaps every partition it does not own and
// claims the open windows.
func (c *Controller) Activate(ctx context.Context) (domain.Epoch, error) {
	c.transition.Lock()
	defer c.transition.Unlock()
	return c.activate(ctx)
}

// SkipWaiting activates the waiting epoch immediately. It reports false when no
// epoch is waiting.
func (c *Controller) SkipWaiting(ctx context.Context) (bool, error) {
	c.transition.Lock()
	defer c.transition.Unlock()

	c.mu.RLock()
	waiting := c.waiting
	c.mu.RUnlock()
	if waiting == nil {
		return false, nil
	}

	if _, err := c.activate(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Controller) activate(ctx context.Context) (domain.Epoch, error) {
	c.mu.Lock()
	if c.waiting == nil {
		c.mu.Unlock()
		return domain.Epoch{}, zerr.With(domain.ErrInvalidTransition, "state", "no waiting version")
	}
	next := *c.waiting
	next.State = domain.StateActivating
	c.waiting = nil
	c.mu.Unlock()

	c.logger.Info("activating version " + next.Version)

	c.partitions.Lock()
	c.reap(ctx, next)

	next.State = domain.StateActive
	c.mu.Lock()
	previous := c.active
	c.active = &next
	c.mu.Unlock()
	c.partitions.Unlock()

	if previous != nil {
		c.logger.Info("version " + previous.Version + " is redundant")
	}

	if err := c.clients.Claim(ctx, next.Version); err != nil {
		c.logger.Error(zerr.With(zerr.Wrap(err, "failed to claim clients"), "version", next.Version))
	}

	c.logger.Info("activated version " + next.Version)
	return next, nil
}

// reap deletes every partition the epoch does not own. Failures are logged and
// never block activation.
func (c *Controller) reap(ctx context.Context, epoch domain.Epoch) {
	names, err := c.storage.Names(ctx)
	if err != nil {
		c.logger.Error(err)
		return
	}

	var g errgroup.Group
	g.SetLimit(reapConcurrency)
	for _, name := range names {
		if epoch.Owns(name) {
			continue
		}
		g.Go(func() error {
			if _, err := c.storage.Delete(ctx, name); err != nil {
				c.logger.Error(zerr.With(err, "partition", name))
				return nil
			}
			c.logger.Info("deleted old cache: " + name)
			return nil
		})
	}
	_ = g.Wait()
}

// seed fetches every manifest entry concurrently and stores them only if all succeeded.
func (c *Controller) seed(ctx context.Context, epoch domain.Epoch) error {
	urls := c.manifestURLs()
	responses := make([]*domain.Response, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(gctx, http.MethodGet, u, http.NoBody)
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrFetchFailed.Error()), "url", u)
			}
			resp, err := c.fetcher.Fetch(gctx, req)
			if err != nil {
				return err
			}
			if !resp.OK() {
				return zerr.With(zerr.With(domain.ErrFetchNotOK, "url", u), "status", resp.StatusCode)
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	static, err := c.storage.Open(ctx, epoch.StaticPartition())
	if err != nil {
		return err
	}
	for i, u := range urls {
		if err := static.Put(ctx, domain.NewCacheKey(http.MethodGet, u), responses[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) manifestURLs() []string {
	urls := make([]string, 0, len(c.opts.Manifest))
	for _, path := range c.opts.Manifest {
		ref, err := url.Parse(path)
		if err != nil || c.opts.Origin == nil {
			urls = append(urls, path)
			continue
		}
		urls = append(urls, c.opts.Origin.ResolveReference(ref).String())
	}
	return urls
}

func cloneEpoch(e *domain.Epoch) *domain.Epoch {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
