package domain

import "path/filepath"

const (
	// StateDirName is the name of the internal working directory.
	StateDirName = ".crwsh"

	// CacheDirName is the name of the partition store directory.
	CacheDirName = "cache"

	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "crwsh.yaml"

	// ControlPrefix is the reserved path prefix for platform events and status.
	ControlPrefix = "/_crwsh"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultCachePath returns the default path for the partition store.
// It joins .crwsh and cache.
func DefaultCachePath() string {
	return filepath.Join(StateDirName, CacheDirName)
}

// Control API routes, relative to the server root.
const (
	RouteStatus        = ControlPrefix + "/status"
	RouteMessage       = ControlPrefix + "/message"
	RoutePush          = ControlPrefix + "/push"
	RouteClick         = ControlPrefix + "/notifications/click"
	RouteNotifications = ControlPrefix + "/notifications"
	RouteSync          = ControlPrefix + "/sync"
	RouteClients       = ControlPrefix + "/clients"
	RouteMetrics       = ControlPrefix + "/metrics"
)
