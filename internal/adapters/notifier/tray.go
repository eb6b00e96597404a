// Package notifier models the system notification tray.
package notifier

import (
	"context"
	"slices"
	"time"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.trai.ch/zerr"
)

var _ ports.Notifier = (*Tray)(nil)

// Tray implements ports.Notifier. A notification replaces any displayed one with the same tag.
type Tray struct {
	items *gocache.Cache
	now   func() time.Time
}

// NewTray creates an empty tray.
func NewTray() *Tray {
	return &Tray{
		items: gocache.New(gocache.NoExpiration, 0),
		now:   time.Now,
	}
}

// Show displays n. It assigns n an ID and a display time.
func (t *Tray) Show(_ context.Context, n *domain.Notification) error {
	if n == nil {
		return zerr.With(domain.ErrNotificationShowFailed, "reason", "nil notification")
	}
	n.ID = uuid.NewString()
	n.ShownAt = t.now().UTC()
	t.items.Set(n.Tag, clone(n), gocache.NoExpiration)
	return nil
}

// Lookup returns the notification displayed under tag, or nil.
func (t *Tray) Lookup(_ context.Context, tag string) (*domain.Notification, error) {
	v, ok := t.items.Get(tag)
	if !ok {
		return nil, nil
	}
	n, ok := v.(*domain.Notification)
	if !ok {
		return nil, nil
	}
	return clone(n), nil
}

// Close removes the notification displayed under tag, if any.
func (t *Tray) Close(_ context.Context, tag string) error {
	t.items.Delete(tag)
	return nil
}

// List returns the displayed notifications, oldest first.
func (t *Tray) List(_ context.Context) []domain.Notification {
	items := t.items.Items()
	out := make([]domain.Notification, 0, len(items))
	for _, item := range items {
		if n, ok := item.Object.(*domain.Notification); ok {
			out = append(out, *clone(n))
		}
	}
	slices.SortFunc(out, func(a, b domain.Notification) int {
		if c := a.ShownAt.Compare(b.ShownAt); c != 0 {
			return c
		}
		if a.Tag < b.Tag {
			return -1
		}
		if a.Tag > b.Tag {
			return 1
		}
		return 0
	})
	return out
}

func clone(n *domain.Notification) *domain.Notification {
	c := *n
	c.Actions = slices.Clone(n.Actions)
	return &c
}
