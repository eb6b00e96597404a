package app

import "github.com/elkincvco/crwsh/internal/core/ports"

// Components holds what the CLI needs from the dependency graph.
type Components struct {
	App          *App
	Logger       ports.Logger
	ConfigLoader ports.ConfigLoader
}

// NewComponents creates a Components value.
func NewComponents(a *App, log ports.Logger, loader ports.ConfigLoader) *Components {
	return &Components{
		App:          a,
		Logger:       log,
		ConfigLoader: loader,
	}
}
