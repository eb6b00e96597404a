package domain

import "time"

// Default configuration values, matching the car-wash application build.
const (
	DefaultApp             = "carwash-pro"
	DefaultVersion         = "1"
	DefaultListen          = "127.0.0.1:8080"
	DefaultOrigin          = "http://localhost:5173"
	DefaultDataServiceHost = "supabase.co"
	DefaultAPIPath         = "/api/"
	DefaultOfflineDocument = "/offline.html"
	DefaultFetchTimeout    = 30 * time.Second

	DefaultNotificationTitle = "CarWash Pro"
	DefaultNotificationBody  = "Nueva notificación"
	DefaultNotificationIcon  = "/icons/icon-192x192.png"
	DefaultNotificationBadge = "/icons/icon-72x72.png"

	// CacheDriverFile stores partitions on disk.
	CacheDriverFile = "file"
	// CacheDriverMemory keeps partitions in process memory.
	CacheDriverMemory = "memory"
)

// DefaultManifest returns the application shell that must be cached before install completes.
func DefaultManifest() []string {
	return []string{
		"/",
		"/index.html",
		"/src/main.tsx",
		"/src/index.css",
		"/manifest.json",
		"/offline.html",
	}
}

// Config is the resolved configuration of the interception layer.
type Config struct {
	App                  string
	Version              string
	Listen               string
	Origin               string
	DataServiceHost      string
	APIPath              string
	OfflineDocument      string
	SkipWaitingOnInstall bool
	FetchTimeout         time.Duration
	Manifest             []string
	Cache                CacheConfig
	Notifications        NotificationDefaults
	SyncTag              string
}

// CacheConfig selects and configures the partition store.
type CacheConfig struct {
	Driver string
	Dir    string
}

// NotificationDefaults fill in fields missing from push payloads.
type NotificationDefaults struct {
	Title string
	Body  string
	Icon  string
	Badge string
}

// Epoch returns the epoch configured by this file, in the installing state.
func (c *Config) Epoch() Epoch {
	return Epoch{App: c.App, Version: c.Version, State: StateInstalling}
}
