// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"github.com/elkincvco/crwsh/internal/core/domain"
)

// CacheStorage manages the named cache partitions.
// Absence is never an error: a missing partition or entry is a normal result.
//
//go:generate go run go.uber.org/mock/mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type CacheStorage interface {
	// Open returns the partition with the given name, creating it if needed.
	Open(ctx context.Context, name string) (Partition, error)

	// Delete removes a partition and all of its entries.
	// It reports whether the partition existed.
	Delete(ctx context.Context, name string) (bool, error)

	// Names lists the names of all existing partitions, sorted.
	Names(ctx context.Context) ([]string, error)
}

// Partition is a named key to response mapping.
type Partition interface {
	// Name returns the partition name.
	Name() string

	// Match returns the entry stored under key.
	// Returns nil, nil if not found.
	Match(ctx context.Context, key domain.CacheKey) (*domain.Response, error)

	// Put stores resp under key, silently replacing any previous entry.
	// Only successful responses are accepted.
	Put(ctx context.Context, key domain.CacheKey, resp *domain.Response) error

	// Keys lists the keys currently stored, sorted.
	Keys(ctx context.Context) ([]domain.CacheKey, error)
}
