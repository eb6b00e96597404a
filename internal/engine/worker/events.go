package worker

import (
	"net/http"

	"github.com/elkincvco/crwsh/internal/core/domain"
)

// Event kinds, as reported to metrics and traces.
const (
	KindInstall           = "install"
	KindActivate          = "activate"
	KindFetch             = "fetch"
	KindPush              = "push"
	KindNotificationClick = "notificationclick"
	KindSync              = "sync"
	KindMessage           = "message"
)

// Event is one of the platform events handled by the worker.
type Event interface {
	Kind() string
}

// InstallEvent asks for a new version to be installed.
type InstallEvent struct {
	App     string
	Version string
}

// ActivateEvent asks for the waiting version to be activated.
type ActivateEvent struct{}

// FetchEvent carries an intercepted request. The request URL must be absolute.
type FetchEvent struct {
	Request *http.Request
}

// PushEvent carries a push delivery. Payload may be empty.
type PushEvent struct {
	Payload []byte
}

// NotificationClickEvent carries an interaction with a displayed notification.
type NotificationClickEvent struct {
	Click domain.NotificationClick
}

// SyncEvent signals that connectivity was restored for a registered tag.
type SyncEvent struct {
	Request domain.SyncRequest
}

// MessageEvent carries a raw message from the foreground context.
type MessageEvent struct {
	Data []byte
}

// Kind implements Event.
func (InstallEvent) Kind() string { return KindInstall }

// Kind implements Event.
func (ActivateEvent) Kind() string { return KindActivate }

// Kind implements Event.
func (FetchEvent) Kind() string { return KindFetch }

// Kind implements Event.
func (PushEvent) Kind() string { return KindPush }

// Kind implements Event.
func (NotificationClickEvent) Kind() string { return KindNotificationClick }

// Kind implements Event.
func (SyncEvent) Kind() string { return KindSync }

// Kind implements Event.
func (MessageEvent) Kind() string { return KindMessage }
