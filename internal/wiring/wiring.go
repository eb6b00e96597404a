// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/elkincvco/crwsh/internal/adapters/clients"
	_ "github.com/elkincvco/crwsh/internal/adapters/config"
	_ "github.com/elkincvco/crwsh/internal/adapters/logger"
	_ "github.com/elkincvco/crwsh/internal/adapters/metrics"
	_ "github.com/elkincvco/crwsh/internal/adapters/notifier"
	_ "github.com/elkincvco/crwsh/internal/adapters/reconcile"
	_ "github.com/elkincvco/crwsh/internal/adapters/telemetry"
	_ "github.com/elkincvco/crwsh/internal/adapters/watcher"
	// Register app nodes.
	_ "github.com/elkincvco/crwsh/internal/app"
)
