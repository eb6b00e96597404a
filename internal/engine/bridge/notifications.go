// Package bridge turns asynchronous platform events into application behavior:
// push deliveries, notification clicks, background sync and foreground control messages.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"go.trai.ch/zerr"
)

// Notifications handles push deliveries and notification interactions.
type Notifications struct {
	notifier ports.Notifier
	clients  ports.Clients
	logger   ports.Logger
	defaults domain.NotificationDefaults
}

// NewNotifications creates a notification bridge. Empty fields of defaults fall back
// to the built-in defaults.
func NewNotifications(
	notifier ports.Notifier,
	clients ports.Clients,
	logger ports.Logger,
	defaults domain.NotificationDefaults,
) *Notifications {
	return &Notifications{
		notifier: notifier,
		clients:  clients,
		logger:   logger,
		defaults: fillDefaults(defaults),
	}
}

func fillDefaults(d domain.NotificationDefaults) domain.NotificationDefaults {
	if d.Title == "" {
		d.Title = domain.DefaultNotificationTitle
	}
	if d.Body == "" {
		d.Body = domain.DefaultNotificationBody
	}
	if d.Icon == "" {
		d.Icon = domain.DefaultNotificationIcon
	}
	if d.Badge == "" {
		d.Badge = domain.DefaultNotificationBadge
	}
	return d
}

// Describe builds the notification displayed for a push payload.
func (n *Notifications) Describe(p domain.PushPayload) *domain.Notification {
	title := p.Title
	if title == "" {
		title = n.defaults.Title
	}
	body := p.Message
	if body == "" {
		body = n.defaults.Body
	}
	tag := p.Type
	if tag == "" {
		tag = domain.DefaultNotificationTag
	}
	target := p.URL
	if target == "" {
		target = domain.DefaultNotificationURL
	}

	return &domain.Notification{
		Title: title,
		Body:  body,
		Icon:  n.defaults.Icon,
		Badge: n.defaults.Badge,
		Tag:   tag,
		Actions: []domain.NotificationAction{
			{Action: domain.ActionView, Title: "Ver", Icon: n.defaults.Badge},
			{Action: domain.ActionDismiss, Title: "Cerrar"},
		},
		Data: domain.NotificationData{
			URL:           target,
			AppointmentID: p.AppointmentID,
			Type:          p.Type,
		},
		RequireInteraction: true,
		Silent:             false,
	}
}

// Push displays the notification carried by payload.
// An empty payload displays nothing. A payload that is not a JSON object is treated
// the same way and only logged.
func (n *Notifications) Push(ctx context.Context, payload []byte) (*domain.Notification, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, nil
	}

	if payload[0] != '{' {
		n.logger.Warn("ignoring push whose payload is not a JSON object")
		return nil, nil
	}

	var p domain.PushPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		n.logger.Warn("ignoring push with unreadable payload: " + err.Error())
		return nil, nil
	}

	notification := n.Describe(p)
	if err := n.notifier.Show(ctx, notification); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrNotificationShowFailed.Error()), "tag", notification.Tag)
	}

	n.logger.Info("push notification shown: " + notification.Tag)
	return notification, nil
}

// Click handles an interaction with a displayed notification. The notification is
// always closed. Unless the dismiss action was chosen, the first window already
// showing the target URL is focused, or a new window is opened there. The focused or
// opened window is returned; it is nil when no window action occurred.
func (n *Notifications) Click(ctx context.Context, click domain.NotificationClick) (*domain.Window, error) {
	target := domain.DefaultNotificationURL

	shown, lookupErr := n.notifier.Lookup(ctx, click.Tag)
	if err := n.notifier.Close(ctx, click.Tag); err != nil {
		n.logger.Error(zerr.With(err, "tag", click.Tag))
	}
	if lookupErr != nil {
		return nil, lookupErr
	}
	if shown != nil && shown.Data.URL != "" {
		target = shown.Data.URL
	}

	if click.Action == domain.ActionDismiss {
		return nil, nil
	}

	windows, err := n.clients.Windows(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range windows {
		if strings.Contains(w.URL, target) {
			if err := n.clients.Focus(ctx, w.ID); err != nil {
				return nil, err
			}
			w.Focused = true
			return &w, nil
		}
	}

	return n.clients.Open(ctx, target)
}
