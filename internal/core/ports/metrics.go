package ports

import "github.com/elkincvco/crwsh/internal/core/domain"

// Outcome describes how a strategy answered a request.
type Outcome string

const (
	// OutcomeCache means the answer came from a partition.
	OutcomeCache Outcome = "cache"
	// OutcomeNetwork means the answer came from the network.
	OutcomeNetwork Outcome = "network"
	// OutcomeOffline means the offline document was served.
	OutcomeOffline Outcome = "offline"
	// OutcomeError means the failure was propagated to the caller.
	OutcomeError Outcome = "error"
)

// Metrics records what the layer does.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveFetch records how a classified request was answered.
	ObserveFetch(strategy domain.Strategy, outcome Outcome)

	// ObserveEvent records a handled platform event by name.
	ObserveEvent(event string, err error)
}
