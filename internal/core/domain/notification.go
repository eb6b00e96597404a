package domain

import "time"

const (
	// ActionView opens or focuses the notification's target URL.
	ActionView = "view"
	// ActionDismiss closes the notification without any window action.
	ActionDismiss = "dismiss"

	// DefaultNotificationTag groups notifications whose payload carries no type.
	DefaultNotificationTag = "general"
	// DefaultNotificationURL is the target of notifications whose payload carries no url.
	DefaultNotificationURL = "/"
)

// PushPayload is the JSON body delivered by the push service. Every field is optional.
type PushPayload struct {
	Title         string `json:"title,omitempty"`
	Message       string `json:"message,omitempty"`
	URL           string `json:"url,omitempty"`
	AppointmentID string `json:"appointmentId,omitempty"`
	Type          string `json:"type,omitempty"`
}

// NotificationAction is a button offered on a notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// NotificationData is the opaque bag carried by a notification.
// Only URL is interpreted, when the notification is clicked.
type NotificationData struct {
	URL           string `json:"url"`
	AppointmentID string `json:"appointmentId,omitempty"`
	Type          string `json:"type,omitempty"`
}

// Notification describes a system notification to display.
type Notification struct {
	ID                 string               `json:"id,omitempty"`
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Icon               string               `json:"icon"`
	Badge              string               `json:"badge"`
	Tag                string               `json:"tag"`
	Actions            []NotificationAction `json:"actions"`
	Data               NotificationData     `json:"data"`
	RequireInteraction bool                 `json:"requireInteraction"`
	Silent             bool                 `json:"silent"`
	ShownAt            time.Time            `json:"shownAt,omitzero"`
}

// NotificationClick is a user interaction with a displayed notification.
type NotificationClick struct {
	Tag    string `json:"tag"`
	Action string `json:"action,omitempty"`
}

// Window is an open application window (a browser tab controlled by the layer).
type Window struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Focused bool   `json:"focused"`
	Version string `json:"version,omitempty"`
}
