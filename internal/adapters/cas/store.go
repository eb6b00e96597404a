// Package cas implements durable cache partitions on the local filesystem.
// Each partition is a directory; each entry is a JSON file named by the xxhash of its key.
package cas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.CacheStorage = (*Store)(nil)
	_ ports.Partition    = (*Partition)(nil)
)

const entryExt = ".json"

// Store implements ports.CacheStorage using a directory per partition.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir. The directory is created lazily.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the directory holding the partitions.
func (s *Store) Root() string {
	return s.root
}

// Open returns the named partition, creating its directory if needed.
func (s *Store) Open(_ context.Context, name string) (ports.Partition, error) {
	if !domain.ValidPartitionName(name) {
		return nil, zerr.With(domain.ErrInvalidPartitionName, "partition", name)
	}

	dir := filepath.Join(s.root, name)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPartitionOpenFailed.Error()), "partition", name)
	}

	return &Partition{name: name, dir: dir}, nil
}

// Delete removes the named partition and all of its entries.
// It reports false when no such partition exists.
func (s *Store) Delete(_ context.Context, name string) (bool, error) {
	if !domain.ValidPartitionName(name) {
		return false, zerr.With(domain.ErrInvalidPartitionName, "partition", name)
	}

	dir := filepath.Join(s.root, name)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, domain.ErrPartitionDeleteFailed.Error()), "partition", name)
	}

	if err := os.RemoveAll(dir); err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrPartitionDeleteFailed.Error()), "partition", name)
	}
	return true, nil
}

// Names lists the partitions present on disk, sorted.
func (s *Store) Names(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPartitionListFailed.Error()), "path", s.root)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && domain.ValidPartitionName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Partition is a single on-disk partition.
type Partition struct {
	name string
	dir  string
}

// record is the on-disk form of an entry. The key is kept to detect hash collisions.
type record struct {
	Key      domain.CacheKey  `json:"key"`
	Response *domain.Response `json:"response"`
}

// Name returns the partition name.
func (p *Partition) Name() string {
	return p.name
}

// Match returns the entry stored under key, or nil if absent.
func (p *Partition) Match(_ context.Context, key domain.CacheKey) (*domain.Response, error) {
	filename := p.filename(key)
	//nolint:gosec // Path is constructed from a validated partition name and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrEntryReadFailed.Error()), "key", string(key))
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrEntryUnmarshalFailed.Error()), "key", string(key))
	}
	if rec.Key != key || rec.Response == nil {
		return nil, nil
	}

	return rec.Response, nil
}

// Put writes resp under key, replacing any previous entry.
// The file is written to a temporary name first and renamed into place.
func (p *Partition) Put(_ context.Context, key domain.CacheKey, resp *domain.Response) error {
	if !resp.OK() {
		return zerr.With(domain.ErrUncacheableResponse, "key", string(key))
	}

	stored := resp.Clone()
	if stored.StoredAt.IsZero() {
		stored.StoredAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(record{Key: key, Response: stored}, "", "  ")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrEntryMarshalFailed.Error()), "key", string(key))
	}

	if err := os.MkdirAll(p.dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrEntryWriteFailed.Error()), "partition", p.name)
	}

	filename := p.filename(key)
	tmp, err := os.CreateTemp(p.dir, ".entry-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrEntryWriteFailed.Error()), "key", string(key))
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrEntryWriteFailed.Error()), "key", string(key))
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrEntryWriteFailed.Error()), "key", string(key))
	}
	if err := os.Rename(tmpName, filename); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrEntryWriteFailed.Error()), "key", string(key))
	}

	return nil
}

// Keys lists the keys stored in the partition, sorted.
func (p *Partition) Keys(_ context.Context) ([]domain.CacheKey, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.CacheKey{}, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrEntryReadFailed.Error()), "partition", p.name)
	}

	keys := make([]domain.CacheKey, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), entryExt) {
			continue
		}
		//nolint:gosec // Path is constructed from a trusted directory listing
		data, err := os.ReadFile(filepath.Join(p.dir, e.Name()))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrEntryReadFailed.Error()), "file", e.Name())
		}
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrEntryUnmarshalFailed.Error()), "file", e.Name())
		}
		keys = append(keys, rec.Key)
	}
	slices.Sort(keys)
	return keys, nil
}

func (p *Partition) filename(key domain.CacheKey) string {
	return filepath.Join(p.dir, fmt.Sprintf("%016x", xxhash.Sum64String(string(key)))+entryExt)
}
