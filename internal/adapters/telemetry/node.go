package telemetry

import (
	"context"

	"github.com/elkincvco/crwsh/internal/core/ports"
	"github.com/grindlemire/graft"
)

// TracerNodeID is the unique identifier for the Telemetry adapter Graft node.
const TracerNodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return NewOTelTracer("crwsh"), nil
		},
	})
}
