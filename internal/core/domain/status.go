package domain

import "time"

// Status is a point-in-time report of a running server.
type Status struct {
	PID        int               `json:"pid"`
	StartedAt  time.Time         `json:"started_at"`
	App        string            `json:"app"`
	Configured string            `json:"configured_version"`
	Origin     string            `json:"origin"`
	Lifecycle  LifecycleSnapshot `json:"lifecycle"`
	Partitions []string          `json:"partitions"`
	Windows    int               `json:"windows"`
	Pending    int               `json:"pending"`
}

// Uptime returns how long the server has been running at now.
func (s *Status) Uptime(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt).Truncate(time.Second)
}
