// Package clients models the application windows controlled by the interception layer.
package clients

import (
	"context"
	"slices"
	"sync"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"github.com/google/uuid"
	"go.trai.ch/zerr"
)

var _ ports.Clients = (*Registry)(nil)

// Registry implements ports.Clients. Windows are kept in the order they appeared.
type Registry struct {
	mu      sync.RWMutex
	windows []domain.Window
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register records a window opened by the user at url.
func (r *Registry) Register(_ context.Context, url string) domain.Window {
	w := domain.Window{ID: uuid.NewString(), URL: url}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = append(r.windows, w)
	return w
}

// Remove forgets a closed window and reports whether it was known.
func (r *Registry) Remove(_ context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.windows)
	r.windows = slices.DeleteFunc(r.windows, func(w domain.Window) bool { return w.ID == id })
	return len(r.windows) != before
}

// Windows returns a snapshot of the open windows.
func (r *Registry) Windows(_ context.Context) ([]domain.Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.windows), nil
}

// Focus brings the window with the given id to the front.
func (r *Registry) Focus(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.IndexFunc(r.windows, func(w domain.Window) bool { return w.ID == id })
	if idx < 0 {
		return zerr.With(domain.ErrWindowNotFound, "window", id)
	}
	for i := range r.windows {
		r.windows[i].Focused = i == idx
	}
	return nil
}

// Open opens a new focused window at url.
func (r *Registry) Open(_ context.Context, url string) (*domain.Window, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.windows {
		r.windows[i].Focused = false
	}
	w := domain.Window{ID: uuid.NewString(), URL: url, Focused: true}
	r.windows = append(r.windows, w)
	return &w, nil
}

// Claim makes version the controller of every open window.
func (r *Registry) Claim(_ context.Context, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.windows {
		r.windows[i].Version = version
	}
	return nil
}
