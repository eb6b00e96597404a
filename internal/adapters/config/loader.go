// Package config loads the crwsh.yaml configuration file.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the file at path and returns the configuration with defaults applied.
// An empty path, or a missing file, yields the defaults.
func (l *Loader) Load(path string) (*domain.Config, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the user
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("no " + path + " found, using defaults")
		return Defaults(), nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return cfg, nil
}

// Parse decodes a configuration document, applies defaults and validates it.
// Unknown fields are rejected.
func Parse(data []byte) (*domain.Config, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}

	cfg := file.resolve()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when no file is present.
func Defaults() *domain.Config {
	return (&File{}).resolve()
}

func (f *File) resolve() *domain.Config {
	cfg := &domain.Config{
		App:                  orDefault(f.App, domain.DefaultApp),
		Version:              orDefault(f.Version, domain.DefaultVersion),
		Listen:               orDefault(f.Listen, domain.DefaultListen),
		Origin:               strings.TrimRight(orDefault(f.Origin, domain.DefaultOrigin), "/"),
		DataServiceHost:      orDefault(f.DataServiceHost, domain.DefaultDataServiceHost),
		APIPath:              orDefault(f.APIPath, domain.DefaultAPIPath),
		OfflineDocument:      orDefault(f.OfflineDocument, domain.DefaultOfflineDocument),
		SkipWaitingOnInstall: true,
		FetchTimeout:         f.FetchTimeout.Std(),
		Manifest:             slices.Clone(f.Manifest),
		Cache: domain.CacheConfig{
			Driver: orDefault(f.Cache.Driver, domain.CacheDriverFile),
			Dir:    orDefault(f.Cache.Dir, domain.DefaultCachePath()),
		},
		Notifications: domain.NotificationDefaults{
			Title: orDefault(f.Notifications.Title, domain.DefaultNotificationTitle),
			Body:  orDefault(f.Notifications.Body, domain.DefaultNotificationBody),
			Icon:  orDefault(f.Notifications.Icon, domain.DefaultNotificationIcon),
			Badge: orDefault(f.Notifications.Badge, domain.DefaultNotificationBadge),
		},
		SyncTag: orDefault(f.Sync.Tag, domain.DefaultSyncTag),
	}
	if f.SkipWaitingOnInstall != nil {
		cfg.SkipWaitingOnInstall = *f.SkipWaitingOnInstall
	}
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = domain.DefaultFetchTimeout
	}
	if len(cfg.Manifest) == 0 {
		cfg.Manifest = domain.DefaultManifest()
	}
	return cfg
}

// Validate checks a resolved configuration.
func Validate(cfg *domain.Config) error {
	invalid := func(field string, value any) error {
		return zerr.With(zerr.With(domain.ErrConfigInvalid, "field", field), "value", value)
	}

	for _, kind := range []domain.PartitionKind{domain.PartitionStatic, domain.PartitionDynamic} {
		if !domain.ValidPartitionName(domain.PartitionName(cfg.App, kind, cfg.Version)) {
			return invalid("app/version", cfg.App+"@"+cfg.Version)
		}
	}

	origin, err := url.Parse(cfg.Origin)
	if err != nil || (origin.Scheme != "http" && origin.Scheme != "https") || origin.Host == "" {
		return invalid("origin", cfg.Origin)
	}
	if cfg.Listen == "" {
		return invalid("listen", cfg.Listen)
	}
	if cfg.FetchTimeout < 0 {
		return invalid("fetch_timeout", cfg.FetchTimeout.String())
	}
	if !strings.HasPrefix(cfg.OfflineDocument, "/") {
		return invalid("offline_document", cfg.OfflineDocument)
	}
	if !strings.HasPrefix(cfg.APIPath, "/") {
		return invalid("api_path", cfg.APIPath)
	}
	for _, entry := range cfg.Manifest {
		if !strings.HasPrefix(entry, "/") {
			return invalid("manifest", entry)
		}
	}
	switch cfg.Cache.Driver {
	case domain.CacheDriverFile, domain.CacheDriverMemory:
	default:
		return invalid("cache.driver", cfg.Cache.Driver)
	}
	return nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
