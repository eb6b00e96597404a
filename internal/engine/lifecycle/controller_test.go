package lifecycle_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/elkincvco/crwsh/internal/adapters/memory"
	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports/mocks"
	"github.com/elkincvco/crwsh/internal/engine/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const app = "carwash-pro"

type fixture struct {
	ctrl    *lifecycle.Controller
	storage *memory.Storage
	fetcher *mocks.MockFetcher
	clients *mocks.MockClients
}

func newFixture(t *testing.T, skipWaiting bool) *fixture {
	t.Helper()

	mc := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(mc)
	clients := mocks.NewMockClients(mc)
	logger := mocks.NewMockLogger(mc)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	origin, err := url.Parse("http://localhost:5173")
	require.NoError(t, err)

	storage := memory.NewStorage()
	return &fixture{
		ctrl: lifecycle.New(storage, fetcher, clients, logger, lifecycle.Options{
			Origin:               origin,
			Manifest:             domain.DefaultManifest(),
			SkipWaitingOnInstall: skipWaiting,
		}),
		storage: storage,
		fetcher: fetcher,
		clients: clients,
	}
}

func serveManifest(f *fixture) *atomic.Int32 {
	var calls atomic.Int32
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *http.Request) (*domain.Response, error) {
			calls.Add(1)
			return &domain.Response{StatusCode: http.StatusOK, Body: []byte(r.URL.Path), URL: r.URL.String()}, nil
		}).AnyTimes()
	return &calls
}

func partitionNames(t *testing.T, f *fixture) []string {
	t.Helper()
	names, err := f.storage.Names(context.Background())
	require.NoError(t, err)
	return names
}

func TestInstall_CachesEveryManifestEntry(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	calls := serveManifest(f)

	epoch, err := f.ctrl.Install(context.Background(), app, "1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateWaiting, epoch.State)
	assert.Equal(t, int32(len(domain.DefaultManifest())), calls.Load())

	static, err := f.storage.Open(context.Background(), epoch.StaticPartition())
	require.NoError(t, err)
	for _, key := range f.ctrl.ManifestKeys() {
		resp, err := static.Match(context.Background(), key)
		require.NoError(t, err)
		require.NotNil(t, resp, "missing %s", key)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	assert.Nil(t, f.ctrl.Active())
	require.NotNil(t, f.ctrl.Waiting())
	assert.Equal(t, "1", f.ctrl.Waiting().Version)
}

func TestInstall_ManifestKeysAreAbsolute(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	keys := f.ctrl.ManifestKeys()

	require.Len(t, keys, len(domain.DefaultManifest()))
	assert.Equal(t, domain.CacheKey("GET http://localhost:5173/"), keys[0])
	assert.Equal(t, domain.CacheKey("GET http://localhost:5173/offline.html"), keys[5])
}

func TestInstall_FailureKeepsActiveVersion(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.clients.EXPECT().Claim(gomock.Any(), "1").Return(nil)

	var fail atomic.Bool
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *http.Request) (*domain.Response, error) {
			if fail.Load() && r.URL.Path == "/src/main.tsx" {
				return nil, errors.New("connection reset")
			}
			return &domain.Response{StatusCode: http.StatusOK, URL: r.URL.String()}, nil
		}).AnyTimes()

	_, err := f.ctrl.Install(context.Background(), app, "1")
	require.NoError(t, err)

	fail.Store(true)
	epoch, err := f.ctrl.Install(context.Background(), app, "2")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrInstallFailed.Error())
	assert.Equal(t, domain.StateRedundant, epoch.State)

	active := f.ctrl.Active()
	require.NotNil(t, active)
	assert.Equal(t, "1", active.Version)
	assert.Nil(t, f.ctrl.Waiting())
	assert.NotContains(t, partitionNames(t, f), domain.PartitionName(app, domain.PartitionStatic, "2"))
}

func TestInstall_NonSuccessStatusFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *http.Request) (*domain.Response, error) {
			if r.URL.Path == "/manifest.json" {
				return &domain.Response{StatusCode: http.StatusNotFound}, nil
			}
			return &domain.Response{StatusCode: http.StatusOK}, nil
		}).AnyTimes()

	_, err := f.ctrl.Install(context.Background(), app, "1")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrFetchNotOK.Error())
	assert.Nil(t, f.ctrl.Waiting())
	assert.Empty(t, partitionNames(t, f))
}

func TestInstall_SameVersionIsInvalid(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	serveManifest(f)
	f.clients.EXPECT().Claim(gomock.Any(), "1").Return(nil)

	_, err := f.ctrl.Install(context.Background(), app, "1")
	require.NoError(t, err)

	_, err = f.ctrl.Install(context.Background(), app, "1")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrInvalidTransition.Error())
}

func TestActivate_ReapsEveryOtherPartition(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	serveManifest(f)
	ctx := context.Background()

	for _, name := range []string{
		domain.PartitionName(app, domain.PartitionStatic, "1"),
		domain.PartitionName(app, domain.PartitionDynamic, "1"),
		"carwash-pro-v1",
		"unrelated",
		domain.PartitionName(app, domain.PartitionDynamic, "2"),
	} {
		_, err := f.storage.Open(ctx, name)
		require.NoError(t, err)
	}

	_, err := f.ctrl.Install(ctx, app, "2")
	require.NoError(t, err)

	f.clients.EXPECT().Claim(gomock.Any(), "2").Return(nil)
	epoch, err := f.ctrl.Activate(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, epoch.State)

	assert.Equal(t, []string{
		domain.PartitionName(app, domain.PartitionDynamic, "2"),
		domain.PartitionName(app, domain.PartitionStatic, "2"),
	}, partitionNames(t, f))

	serving, ok := f.ctrl.Serving()
	require.True(t, ok)
	assert.Equal(t, "2", serving.Version)
}

func TestActivate_DeleteFailureDoesNotBlock(t *testing.T) {
	t.Parallel()

	mc := gomock.NewController(t)
	storage := mocks.NewMockCacheStorage(mc)
	partition := mocks.NewMockPartition(mc)
	fetcher := mocks.NewMockFetcher(mc)
	clients := mocks.NewMockClients(mc)
	logger := mocks.NewMockLogger(mc)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()

	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		Return(&domain.Response{StatusCode: http.StatusOK}, nil)
	storage.EXPECT().Open(gomock.Any(), "carwash-pro-static-v3").Return(partition, nil)
	partition.EXPECT().Put(gomock.Any(), domain.CacheKey("GET /"), gomock.Any()).Return(nil)

	storage.EXPECT().Names(gomock.Any()).Return([]string{"carwash-pro-static-v2", "carwash-pro-static-v3"}, nil)
	storage.EXPECT().Delete(gomock.Any(), "carwash-pro-static-v2").Return(false, errors.New("permission denied"))
	logger.EXPECT().Error(gomock.Any()).Times(1)
	clients.EXPECT().Claim(gomock.Any(), "3").Return(nil)

	ctrl := lifecycle.New(storage, fetcher, clients, logger, lifecycle.Options{
		Manifest:             []string{"/"},
		SkipWaitingOnInstall: true,
	})

	epoch, err := ctrl.Install(context.Background(), app, "3")
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, epoch.State)
}

func TestActivate_NothingWaiting(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)

	_, err := f.ctrl.Activate(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrInvalidTransition.Error())
}

func TestSkipWaiting(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	serveManifest(f)
	ctx := context.Background()

	skipped, err := f.ctrl.SkipWaiting(ctx)
	require.NoError(t, err)
	assert.False(t, skipped)

	_, err = f.ctrl.Install(ctx, app, "1")
	require.NoError(t, err)
	_, ok := f.ctrl.Serving()
	assert.False(t, ok)

	f.clients.EXPECT().Claim(gomock.Any(), "1").Return(nil)
	skipped, err = f.ctrl.SkipWaiting(ctx)
	require.NoError(t, err)
	assert.True(t, skipped)

	snap := f.ctrl.Snapshot()
	require.NotNil(t, snap.Active)
	assert.Equal(t, "1", snap.Active.Version)
	assert.Equal(t, domain.StateActive, snap.Active.State)
	assert.Nil(t, snap.Waiting)
}

func TestInstall_SkipWaitingOnInstallClaimsClients(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	serveManifest(f)
	f.clients.EXPECT().Claim(gomock.Any(), "1").Return(errors.New("no windows"))

	epoch, err := f.ctrl.Install(context.Background(), app, "1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateActive, epoch.State)
	assert.Nil(t, f.ctrl.Waiting())
}

func TestResume(t *testing.T) {
	t.Parallel()

	t.Run("resumes a fully cached epoch", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, false)
		serveManifest(f)
		ctx := context.Background()

		_, err := f.ctrl.Install(ctx, app, "4")
		require.NoError(t, err)

		// A fresh controller over the same storage, with a network that is down.
		mc := gomock.NewController(t)
		logger := mocks.NewMockLogger(mc)
		logger.EXPECT().Info(gomock.Any()).AnyTimes()
		origin, err := url.Parse("http://localhost:5173")
		require.NoError(t, err)
		restarted := lifecycle.New(f.storage, mocks.NewMockFetcher(mc), mocks.NewMockClients(mc), logger, lifecycle.Options{
			Origin:   origin,
			Manifest: domain.DefaultManifest(),
		})

		resumed, err := restarted.Resume(ctx, app, "4")
		require.NoError(t, err)
		assert.True(t, resumed)

		serving, ok := restarted.Serving()
		require.True(t, ok)
		assert.Equal(t, "4", serving.Version)
	})

	t.Run("refuses a partial epoch", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, false)
		ctx := context.Background()
		_, err := f.storage.Open(ctx, domain.PartitionName(app, domain.PartitionStatic, "4"))
		require.NoError(t, err)

		resumed, err := f.ctrl.Resume(ctx, app, "4")
		require.NoError(t, err)
		assert.False(t, resumed)
		assert.Nil(t, f.ctrl.Active())
	})
}
