package ports

import "github.com/elkincvco/crwsh/internal/core/domain"

// ConfigLoader defines the interface for loading the layer configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration file at path and returns it with defaults applied.
	Load(path string) (*domain.Config, error)
}
