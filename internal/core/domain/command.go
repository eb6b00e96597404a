package domain

const (
	// CommandSkipWaiting asks the waiting version to take over immediately.
	CommandSkipWaiting = "SKIP_WAITING"

	// DefaultSyncTag is the background-sync tag that triggers appointment reconciliation.
	DefaultSyncTag = "background-sync-appointments"
)

// Command is a message sent by the foreground context over the control channel.
type Command struct {
	Type string `json:"type"`
}

// SyncRequest is a connectivity-restoration event.
type SyncRequest struct {
	Tag string `json:"tag"`
}
