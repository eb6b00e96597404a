package reconcile

import (
	"context"

	"github.com/elkincvco/crwsh/internal/adapters/logger"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the reconciler Graft node.
const NodeID graft.ID = "adapter.reconciler"

func init() {
	graft.Register(graft.Node[ports.Reconciler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Reconciler, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewStub(log), nil
		},
	})
}
