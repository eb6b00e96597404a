// Package cachetest holds the behavior every ports.CacheStorage implementation must share.
package cachetest

import (
	"context"
	"net/http"
	"testing"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh storage returned by newStorage.
func Run(t *testing.T, newStorage func(t *testing.T) ports.CacheStorage) {
	t.Helper()

	key := domain.NewCacheKey(http.MethodGet, "http://localhost:5173/index.html")
	ok := &domain.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/html"}},
		Body:       []byte("<html></html>"),
		URL:        "http://localhost:5173/index.html",
	}

	t.Run("open creates and lists", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)

		names, err := s.Names(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		for _, name := range []string{"carwash-pro-static-v2", "carwash-pro-dynamic-v2"} {
			p, err := s.Open(ctx, name)
			require.NoError(t, err)
			assert.Equal(t, name, p.Name())
		}

		names, err = s.Names(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"carwash-pro-dynamic-v2", "carwash-pro-static-v2"}, names)
	})

	t.Run("invalid names are rejected", func(t *testing.T) {
		_, err := newStorage(t).Open(context.Background(), "../escape")
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrInvalidPartitionName.Error())
	})

	t.Run("match returns nil for missing entries", func(t *testing.T) {
		ctx := context.Background()
		p, err := newStorage(t).Open(ctx, "carwash-pro-static-v1")
		require.NoError(t, err)

		got, err := p.Match(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("put then match round trips", func(t *testing.T) {
		ctx := context.Background()
		p, err := newStorage(t).Open(ctx, "carwash-pro-static-v1")
		require.NoError(t, err)

		require.NoError(t, p.Put(ctx, key, ok))

		got, err := p.Match(ctx, key)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, http.StatusOK, got.StatusCode)
		assert.Equal(t, "text/html", got.Header.Get("Content-Type"))
		assert.Equal(t, ok.Body, got.Body)
		assert.False(t, got.StoredAt.IsZero())

		keys, err := p.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.CacheKey{key}, keys)
	})

	t.Run("put overwrites silently", func(t *testing.T) {
		ctx := context.Background()
		p, err := newStorage(t).Open(ctx, "carwash-pro-dynamic-v1")
		require.NoError(t, err)

		require.NoError(t, p.Put(ctx, key, ok))
		newer := ok.Clone()
		newer.Body = []byte("<html>v2</html>")
		require.NoError(t, p.Put(ctx, key, newer))

		got, err := p.Match(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, newer.Body, got.Body)
	})

	t.Run("stored entries do not alias the caller", func(t *testing.T) {
		ctx := context.Background()
		p, err := newStorage(t).Open(ctx, "carwash-pro-dynamic-v1")
		require.NoError(t, err)

		resp := ok.Clone()
		require.NoError(t, p.Put(ctx, key, resp))
		resp.Body[0] = 'X'

		got, err := p.Match(ctx, key)
		require.NoError(t, err)
		got.Header.Set("Content-Type", "mutated")

		again, err := p.Match(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, ok.Body, again.Body)
		assert.Equal(t, "text/html", again.Header.Get("Content-Type"))
	})

	t.Run("non-success responses are never stored", func(t *testing.T) {
		ctx := context.Background()
		p, err := newStorage(t).Open(ctx, "carwash-pro-dynamic-v1")
		require.NoError(t, err)

		for _, status := range []int{0, http.StatusNotFound, http.StatusInternalServerError} {
			err := p.Put(ctx, key, &domain.Response{StatusCode: status})
			require.Error(t, err)
			assert.ErrorContains(t, err, domain.ErrUncacheableResponse.Error())
		}

		got, err := p.Match(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete removes the partition and its entries", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)

		p, err := s.Open(ctx, "carwash-pro-static-v1")
		require.NoError(t, err)
		require.NoError(t, p.Put(ctx, key, ok))

		deleted, err := s.Delete(ctx, "carwash-pro-static-v1")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = s.Delete(ctx, "carwash-pro-static-v1")
		require.NoError(t, err)
		assert.False(t, deleted)

		names, err := s.Names(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		p, err = s.Open(ctx, "carwash-pro-static-v1")
		require.NoError(t, err)
		got, err := p.Match(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
