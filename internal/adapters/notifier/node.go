package notifier

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the notification tray Graft node.
const NodeID graft.ID = "adapter.notifier"

func init() {
	graft.Register(graft.Node[*Tray]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Tray, error) {
			return NewTray(), nil
		},
	})
}
