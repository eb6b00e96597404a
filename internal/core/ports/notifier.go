package ports

import (
	"context"

	"github.com/elkincvco/crwsh/internal/core/domain"
)

// Notifier displays and closes system notifications.
//
//go:generate go run go.uber.org/mock/mockgen -source=notifier.go -destination=mocks/mock_notifier.go -package=mocks
type Notifier interface {
	// Show displays n. A notification with the same tag replaces the previous one.
	Show(ctx context.Context, n *domain.Notification) error

	// Lookup returns the displayed notification with the given tag.
	// Returns nil, nil if not found.
	Lookup(ctx context.Context, tag string) (*domain.Notification, error)

	// Close removes the notification with the given tag. Closing an unknown tag is not an error.
	Close(ctx context.Context, tag string) error
}
