package app

import (
	"context"

	"github.com/elkincvco/crwsh/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"github.com/elkincvco/crwsh/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"github.com/elkincvco/crwsh/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"github.com/elkincvco/crwsh/internal/adapters/reconcile" //nolint:depguard // Wired in app layer
	"github.com/elkincvco/crwsh/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"github.com/elkincvco/crwsh/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"github.com/elkincvco/crwsh/internal/core/ports"
	"github.com/grindlemire/graft"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
			watcher.NodeID,
			reconcile.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}
	collector, err := graft.Dep[*metrics.Collector](ctx)
	if err != nil {
		return nil, err
	}
	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}
	reconciler, err := graft.Dep[ports.Reconciler](ctx)
	if err != nil {
		return nil, err
	}
	return New(loader, log, tracer, collector, w, reconciler), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}
	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}
	return NewComponents(a, log, loader), nil
}
