package clients

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the window registry Graft node.
const NodeID graft.ID = "adapter.clients"

func init() {
	graft.Register(graft.Node[*Registry]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Registry, error) {
			return NewRegistry(), nil
		},
	})
}
