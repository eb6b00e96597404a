// Package memory implements cache partitions held in process memory.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	gocache "github.com/patrickmn/go-cache"
	"go.trai.ch/zerr"
)

var (
	_ ports.CacheStorage = (*Storage)(nil)
	_ ports.Partition    = (*Partition)(nil)
)

// Storage implements ports.CacheStorage with one go-cache instance per partition.
// Entries never expire; they live exactly as long as their partition.
type Storage struct {
	mu         sync.RWMutex
	partitions map[string]*Partition
}

// NewStorage creates an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{
		partitions: make(map[string]*Partition),
	}
}

// Open returns the named partition, creating it if needed.
func (s *Storage) Open(_ context.Context, name string) (ports.Partition, error) {
	if !domain.ValidPartitionName(name) {
		return nil, zerr.With(domain.ErrInvalidPartitionName, "partition", name)
	}

	s.mu.RLock()
	p, ok := s.partitions[name]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.partitions[name]; ok {
		return p, nil
	}
	p = &Partition{
		name:  name,
		items: gocache.New(gocache.NoExpiration, 0),
	}
	s.partitions[name] = p
	return p, nil
}

// Delete removes the named partition.
func (s *Storage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.partitions[name]
	if !ok {
		return false, nil
	}
	p.items.Flush()
	delete(s.partitions, name)
	return true, nil
}

// Names lists the partition names, sorted.
func (s *Storage) Names(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.partitions))
	for name := range s.partitions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Partition is a single in-memory partition.
type Partition struct {
	name  string
	items *gocache.Cache
}

// Name returns the partition name.
func (p *Partition) Name() string {
	return p.name
}

// Match returns a copy of the entry stored under key, or nil if absent.
func (p *Partition) Match(_ context.Context, key domain.CacheKey) (*domain.Response, error) {
	v, ok := p.items.Get(string(key))
	if !ok {
		return nil, nil
	}
	resp, ok := v.(*domain.Response)
	if !ok {
		return nil, zerr.With(domain.ErrEntryUnmarshalFailed, "key", string(key))
	}
	return resp.Clone(), nil
}

// Put stores a copy of resp under key.
func (p *Partition) Put(_ context.Context, key domain.CacheKey, resp *domain.Response) error {
	if !resp.OK() {
		return zerr.With(domain.ErrUncacheableResponse, "key", string(key))
	}
	stored := resp.Clone()
	if stored.StoredAt.IsZero() {
		stored.StoredAt = time.Now().UTC()
	}
	p.items.Set(string(key), stored, gocache.NoExpiration)
	return nil
}

// Keys lists the stored keys, sorted.
func (p *Partition) Keys(_ context.Context) ([]domain.CacheKey, error) {
	items := p.items.Items()
	keys := make([]domain.CacheKey, 0, len(items))
	for k := range items {
		keys = append(keys, domain.CacheKey(k))
	}
	slices.Sort(keys)
	return keys, nil
}
