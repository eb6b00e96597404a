package config

import (
	"time"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// File represents the structure of the crwsh.yaml configuration file.
type File struct {
	App                  string               `yaml:"app"`
	Version              string               `yaml:"version"`
	Listen               string               `yaml:"listen"`
	Origin               string               `yaml:"origin"`
	DataServiceHost      string               `yaml:"data_service_host"`
	APIPath              string               `yaml:"api_path"`
	OfflineDocument      string               `yaml:"offline_document"`
	SkipWaitingOnInstall *bool                `yaml:"skip_waiting_on_install"`
	FetchTimeout         Duration             `yaml:"fetch_timeout"`
	Manifest             []string             `yaml:"manifest"`
	Cache                CacheDTO             `yaml:"cache"`
	Notifications        NotificationDefaults `yaml:"notifications"`
	Sync                 SyncDTO              `yaml:"sync"`
}

// CacheDTO selects the partition store.
type CacheDTO struct {
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
}

// NotificationDefaults fill in fields missing from push payloads.
type NotificationDefaults struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
	Icon  string `yaml:"icon"`
	Badge string `yaml:"badge"`
}

// SyncDTO configures background sync.
type SyncDTO struct {
	Tag string `yaml:"tag"`
}

// Duration is a time.Duration written as a Go duration string ("30s", "1m30s").
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "invalid duration"), "line", node.Line)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
