package ports

import (
	"context"

	"github.com/elkincvco/crwsh/internal/core/domain"
)

// Clients gives access to the open application windows.
//
//go:generate go run go.uber.org/mock/mockgen -source=clients.go -destination=mocks/mock_clients.go -package=mocks
type Clients interface {
	// Windows lists every open window, including ones not yet controlled by the active version.
	Windows(ctx context.Context) ([]domain.Window, error)

	// Focus brings the window with the given id to the foreground.
	Focus(ctx context.Context, id string) error

	// Open opens a new window at url.
	Open(ctx context.Context, url string) (*domain.Window, error)

	// Claim makes version the controller of every open window.
	Claim(ctx context.Context, version string) error
}
