package notifier_test

import (
	"context"
	"testing"

	"github.com/elkincvco/crwsh/internal/adapters/notifier"
	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTray_ShowLookupClose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tray := notifier.NewTray()

	n := &domain.Notification{
		Title:   "Cita",
		Tag:     "general",
		Actions: []domain.NotificationAction{{Action: domain.ActionView, Title: "Ver"}},
		Data:    domain.NotificationData{URL: "/track/123"},
	}
	require.NoError(t, tray.Show(ctx, n))
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.ShownAt.IsZero())

	got, err := tray.Lookup(ctx, "general")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, "/track/123", got.Data.URL)

	got.Actions[0].Title = "mutated"
	again, err := tray.Lookup(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, "Ver", again.Actions[0].Title)

	require.NoError(t, tray.Close(ctx, "general"))
	got, err = tray.Lookup(ctx, "general")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, tray.Close(ctx, "general"))
}

func TestTray_SameTagReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tray := notifier.NewTray()

	require.NoError(t, tray.Show(ctx, &domain.Notification{Title: "first", Tag: "appointment"}))
	require.NoError(t, tray.Show(ctx, &domain.Notification{Title: "second", Tag: "appointment"}))
	require.NoError(t, tray.Show(ctx, &domain.Notification{Title: "other", Tag: "general"}))

	list := tray.List(ctx)
	require.Len(t, list, 2)

	titles := map[string]string{}
	for _, n := range list {
		titles[n.Tag] = n.Title
	}
	assert.Equal(t, map[string]string{"appointment": "second", "general": "other"}, titles)
}

func TestTray_ShowNil(t *testing.T) {
	t.Parallel()

	err := notifier.NewTray().Show(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrNotificationShowFailed.Error())
}
