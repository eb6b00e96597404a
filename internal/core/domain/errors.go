package domain

import "go.trai.ch/zerr"

var (
	// ErrFetchFailed is returned when the network could not produce a response for a request.
	ErrFetchFailed = zerr.New("network fetch failed")

	// ErrFetchNotOK is returned when a fetch that must succeed answered with a non-success status.
	ErrFetchNotOK = zerr.New("network fetch returned a non-success status")

	// ErrResponseTooLarge is returned when a response body exceeds the size captured into snapshots.
	ErrResponseTooLarge = zerr.New("network response body too large")

	// ErrInstallFailed is returned when a version could not seed its static partition.
	ErrInstallFailed = zerr.New("install failed")

	// ErrActivateFailed is returned when a waiting version could not become active.
	ErrActivateFailed = zerr.New("activate failed")

	// ErrInvalidTransition is returned when a lifecycle transition is not allowed from the current state.
	ErrInvalidTransition = zerr.New("invalid lifecycle transition")

	// ErrNoActiveVersion is returned when an operation requires an active version and none exists.
	ErrNoActiveVersion = zerr.New("no active version")

	// ErrInvalidPartitionName is returned when a partition name contains characters outside [a-zA-Z0-9._-].
	ErrInvalidPartitionName = zerr.New("invalid partition name")

	// ErrPartitionOpenFailed is returned when a partition cannot be opened or created.
	ErrPartitionOpenFailed = zerr.New("failed to open cache partition")

	// ErrPartitionDeleteFailed is returned when a partition cannot be removed.
	ErrPartitionDeleteFailed = zerr.New("failed to delete cache partition")

	// ErrPartitionListFailed is returned when the partition names cannot be enumerated.
	ErrPartitionListFailed = zerr.New("failed to list cache partitions")

	// ErrEntryReadFailed is returned when a cache entry cannot be read.
	ErrEntryReadFailed = zerr.New("failed to read cache entry")

	// ErrEntryWriteFailed is returned when a cache entry cannot be written.
	ErrEntryWriteFailed = zerr.New("failed to write cache entry")

	// ErrEntryMarshalFailed is returned when a cache entry cannot be encoded.
	ErrEntryMarshalFailed = zerr.New("failed to marshal cache entry")

	// ErrEntryUnmarshalFailed is returned when a cache entry cannot be decoded.
	ErrEntryUnmarshalFailed = zerr.New("failed to unmarshal cache entry")

	// ErrUncacheableResponse is returned when a non-success or opaque response is offered to a partition.
	ErrUncacheableResponse = zerr.New("response is not cacheable")

	// ErrNotificationShowFailed is returned when a notification cannot be displayed.
	ErrNotificationShowFailed = zerr.New("failed to show notification")

	// ErrNotificationNotFound is returned when an interaction references an unknown notification.
	ErrNotificationNotFound = zerr.New("notification not found")

	// ErrWindowNotFound is returned when a window client id is unknown.
	ErrWindowNotFound = zerr.New("window not found")

	// ErrReconcileFailed is returned when the appointment reconciliation job fails.
	ErrReconcileFailed = zerr.New("appointment reconciliation failed")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when the config file parses but holds invalid values.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrServerFailed is returned when the interception server stops with an error.
	ErrServerFailed = zerr.New("interception server failed")

	// ErrControlRequestFailed is returned when the control API of a running server cannot be reached.
	ErrControlRequestFailed = zerr.New("control request failed")
)
