package worker_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/elkincvco/crwsh/internal/adapters/memory"
	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"github.com/elkincvco/crwsh/internal/core/ports/mocks"
	"github.com/elkincvco/crwsh/internal/engine/bridge"
	"github.com/elkincvco/crwsh/internal/engine/classifier"
	"github.com/elkincvco/crwsh/internal/engine/lifecycle"
	"github.com/elkincvco/crwsh/internal/engine/strategy"
	"github.com/elkincvco/crwsh/internal/engine/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const origin = "http://localhost:5173"

type fixture struct {
	worker     *worker.Worker
	lifecycle  *lifecycle.Controller
	storage    *memory.Storage
	fetcher    *mocks.MockFetcher
	notifier   *mocks.MockNotifier
	clients    *mocks.MockClients
	reconciler *mocks.MockReconciler
	metrics    *mocks.MockMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	notifier := mocks.NewMockNotifier(ctrl)
	clients := mocks.NewMockClients(ctrl)
	reconciler := mocks.NewMockReconciler(ctrl)
	metrics := mocks.NewMockMetrics(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, span
		}).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().End().AnyTimes()

	u, err := url.Parse(origin)
	require.NoError(t, err)

	storage := memory.NewStorage()
	manifest := []string{"/", "/offline.html"}
	lc := lifecycle.New(storage, fetcher, clients, logger, lifecycle.Options{
		Origin:               u,
		Manifest:             manifest,
		SkipWaitingOnInstall: true,
	})
	engine := strategy.New(storage, lc, fetcher, logger, strategy.Options{Origin: u, OfflineDocument: "/offline.html"})

	w := worker.New(worker.Components{
		Classifier: classifier.New(classifier.DefaultRules(classifier.Options{
			APIPath:         "/api/",
			DataServiceHost: "supabase.co",
			Manifest:        manifest,
		})),
		Engine:        engine,
		Lifecycle:     lc,
		Notifications: bridge.NewNotifications(notifier, clients, logger, domain.NotificationDefaults{}),
		Sync:          bridge.NewSync(reconciler, logger, domain.DefaultSyncTag),
		Control:       bridge.NewControl(lc),
	}, tracer, metrics, logger)

	return &fixture{
		worker:     w,
		lifecycle:  lc,
		storage:    storage,
		fetcher:    fetcher,
		notifier:   notifier,
		clients:    clients,
		reconciler: reconciler,
		metrics:    metrics,
	}
}

func (f *fixture) install(t *testing.T, version string) {
	t.Helper()

	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *http.Request) (*domain.Response, error) {
			return &domain.Response{StatusCode: http.StatusOK, Body: []byte("shell " + r.URL.Path)}, nil
		}).Times(2)
	f.clients.EXPECT().Claim(gomock.Any(), version).Return(nil)
	f.metrics.EXPECT().ObserveEvent(worker.KindInstall, nil)

	reply, err := f.worker.Handle(context.Background(), worker.InstallEvent{App: "carwash-pro", Version: version})
	require.NoError(t, err)
	require.NotNil(t, reply.Pending)
	require.NoError(t, reply.Pending.Wait(context.Background()))
}

func TestHandle_InstallThenServe(t *testing.T) {
	f := newFixture(t)
	f.install(t, "1")

	active := f.lifecycle.Active()
	require.NotNil(t, active)
	assert.Equal(t, "1", active.Version)

	f.metrics.EXPECT().ObserveFetch(domain.StrategyCacheFirst, ports.OutcomeCache)
	f.metrics.EXPECT().ObserveEvent(worker.KindFetch, nil)

	req := httptest.NewRequest(http.MethodGet, origin+"/", http.NoBody)
	reply, err := f.worker.Handle(context.Background(), worker.FetchEvent{Request: req})
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyCacheFirst, reply.Strategy)
	assert.Equal(t, "shell /", string(reply.Result.Response.Body))
}

func TestHandle_RevalidationIsDrained(t *testing.T) {
	f := newFixture(t)
	f.install(t, "1")

	target := origin + "/assets/logo.png"
	dynamic, err := f.storage.Open(context.Background(), "carwash-pro-dynamic-v1")
	require.NoError(t, err)
	require.NoError(t, dynamic.Put(context.Background(), domain.NewCacheKey(http.MethodGet, target),
		&domain.Response{StatusCode: http.StatusOK, Body: []byte("old")}))

	release := make(chan struct{})
	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *http.Request) (*domain.Response, error) {
			<-release
			return &domain.Response{StatusCode: http.StatusOK, Body: []byte("new")}, nil
		})
	f.metrics.EXPECT().ObserveFetch(domain.StrategyStaleWhileRevalidate, ports.OutcomeCache)
	f.metrics.EXPECT().ObserveEvent(worker.KindFetch, nil)

	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	reply, err := f.worker.Handle(context.Background(), worker.FetchEvent{Request: req})
	require.NoError(t, err)
	assert.Equal(t, "old", string(reply.Result.Response.Body))
	assert.Equal(t, 1, f.worker.Pending())

	close(release)
	require.NoError(t, f.worker.Drain(context.Background()))
	assert.Equal(t, 0, f.worker.Pending())

	resp, err := dynamic.Match(context.Background(), domain.NewCacheKey(http.MethodGet, target))
	require.NoError(t, err)
	assert.Equal(t, "new", string(resp.Body))
}

func TestHandle_FetchErrorIsObserved(t *testing.T) {
	f := newFixture(t)
	f.install(t, "1")

	f.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, domain.ErrFetchFailed)
	f.metrics.EXPECT().ObserveFetch(domain.StrategyNetworkFirst, ports.OutcomeError)
	f.metrics.EXPECT().ObserveEvent(worker.KindFetch, domain.ErrFetchFailed)

	req := httptest.NewRequest(http.MethodGet, origin+"/api/appointments", http.NoBody)
	reply, err := f.worker.Handle(context.Background(), worker.FetchEvent{Request: req})
	require.ErrorIs(t, err, domain.ErrFetchFailed)
	assert.Equal(t, domain.StrategyNetworkFirst, reply.Strategy)
	assert.Nil(t, reply.Result)
}

func TestHandle_PostPassesThrough(t *testing.T) {
	f := newFixture(t)
	f.install(t, "1")

	req := httptest.NewRequest(http.MethodPost, origin+"/api/appointments", http.NoBody)
	f.fetcher.EXPECT().Fetch(gomock.Any(), req).Return(&domain.Response{StatusCode: http.StatusCreated}, nil)
	f.metrics.EXPECT().ObserveFetch(domain.StrategyPassthrough, ports.OutcomeNetwork)
	f.metrics.EXPECT().ObserveEvent(worker.KindFetch, nil)

	reply, err := f.worker.Handle(context.Background(), worker.FetchEvent{Request: req})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, reply.Result.Response.StatusCode)

	names, err := f.storage.Names(context.Background())
	require.NoError(t, err)
	for _, name := range names {
		p, err := f.storage.Open(context.Background(), name)
		require.NoError(t, err)
		resp, err := p.Match(context.Background(), domain.KeyFor(req))
		require.NoError(t, err)
		assert.Nil(t, resp)
	}
}

func TestHandle_Push(t *testing.T) {
	f := newFixture(t)

	f.notifier.EXPECT().Show(gomock.Any(), gomock.Any()).Return(nil)
	f.metrics.EXPECT().ObserveEvent(worker.KindPush, nil).Times(2)

	reply, err := f.worker.Handle(context.Background(), worker.PushEvent{Payload: []byte(`{"title":"Cita"}`)})
	require.NoError(t, err)
	require.NotNil(t, reply.Notification)
	assert.Equal(t, "Cita", reply.Notification.Title)

	reply, err = f.worker.Handle(context.Background(), worker.PushEvent{})
	require.NoError(t, err)
	assert.Nil(t, reply.Notification)
}

func TestHandle_NotificationClickDismiss(t *testing.T) {
	f := newFixture(t)

	f.notifier.EXPECT().Lookup(gomock.Any(), "general").Return(&domain.Notification{Tag: "general"}, nil)
	f.notifier.EXPECT().Close(gomock.Any(), "general").Return(nil)
	f.metrics.EXPECT().ObserveEvent(worker.KindNotificationClick, nil)

	reply, err := f.worker.Handle(context.Background(), worker.NotificationClickEvent{
		Click: domain.NotificationClick{Tag: "general", Action: domain.ActionDismiss},
	})
	require.NoError(t, err)
	assert.Nil(t, reply.Window)
}

func TestHandle_SyncRunsInBackground(t *testing.T) {
	f := newFixture(t)

	f.reconciler.EXPECT().Reconcile(gomock.Any()).Return(nil)
	f.metrics.EXPECT().ObserveEvent(worker.KindSync, nil).Times(2)

	reply, err := f.worker.Handle(context.Background(), worker.SyncEvent{Request: domain.SyncRequest{Tag: domain.DefaultSyncTag}})
	require.NoError(t, err)
	assert.True(t, reply.Handled)
	require.NoError(t, f.worker.Drain(context.Background()))

	reply, err = f.worker.Handle(context.Background(), worker.SyncEvent{Request: domain.SyncRequest{Tag: "other"}})
	require.NoError(t, err)
	assert.False(t, reply.Handled)
	assert.Nil(t, reply.Pending)
}

func TestHandle_SkipWaitingMessage(t *testing.T) {
	f := newFixture(t)

	f.metrics.EXPECT().ObserveEvent(worker.KindMessage, nil).Times(2)

	reply, err := f.worker.Handle(context.Background(), worker.MessageEvent{Data: []byte(`{"type":"SKIP_WAITING"}`)})
	require.NoError(t, err)
	assert.True(t, reply.Handled)

	reply, err = f.worker.Handle(context.Background(), worker.MessageEvent{Data: []byte(`{"type":"PING"}`)})
	require.NoError(t, err)
	assert.False(t, reply.Handled)
}

func TestHandle_ActivateWithoutWaitingVersion(t *testing.T) {
	f := newFixture(t)

	f.metrics.EXPECT().ObserveEvent(worker.KindActivate, gomock.Not(gomock.Nil()))

	_, err := f.worker.Handle(context.Background(), worker.ActivateEvent{})
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrInvalidTransition.Error())
}
