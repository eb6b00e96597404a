package domain

import (
	"fmt"
	"regexp"
)

// State is the lifecycle state of a version epoch.
type State string

const (
	// StateInstalling means the static partition is being seeded.
	StateInstalling State = "installing"
	// StateWaiting means the epoch installed and waits to take over.
	StateWaiting State = "waiting"
	// StateActivating means stale partitions are being reaped.
	StateActivating State = "activating"
	// StateActive means the epoch serves every intercepted request.
	StateActive State = "active"
	// StateRedundant means the epoch failed to install or was superseded.
	StateRedundant State = "redundant"
)

// PartitionKind distinguishes the two partitions owned by a version.
type PartitionKind string

const (
	// PartitionStatic holds the application shell seeded at install.
	PartitionStatic PartitionKind = "static"
	// PartitionDynamic holds content fetched at runtime.
	PartitionDynamic PartitionKind = "dynamic"
)

var validPartitionNameRegex = regexp.MustCompile("^[a-zA-Z0-9._-]+$")

// PartitionName returns "<app>-<kind>-v<version>".
func PartitionName(app string, kind PartitionKind, version string) string {
	return fmt.Sprintf("%s-%s-v%s", app, kind, version)
}

// ValidPartitionName reports whether name is safe to use as a partition name.
func ValidPartitionName(name string) bool {
	return validPartitionNameRegex.MatchString(name)
}

// Epoch is one version of the interception layer and where it is in its lifecycle.
type Epoch struct {
	App     string `json:"app"`
	Version string `json:"version"`
	State   State  `json:"state"`
}

// StaticPartition returns the name of the epoch's static partition.
func (e Epoch) StaticPartition() string {
	return PartitionName(e.App, PartitionStatic, e.Version)
}

// DynamicPartition returns the name of the epoch's dynamic partition.
func (e Epoch) DynamicPartition() string {
	return PartitionName(e.App, PartitionDynamic, e.Version)
}

// Owns reports whether the partition name belongs to this epoch.
func (e Epoch) Owns(name string) bool {
	return name == e.StaticPartition() || name == e.DynamicPartition()
}

// LifecycleSnapshot is a point-in-time view of the controller.
type LifecycleSnapshot struct {
	Active  *Epoch `json:"active,omitempty"`
	Waiting *Epoch `json:"waiting,omitempty"`
}
