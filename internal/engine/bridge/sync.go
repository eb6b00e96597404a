package bridge

import (
	"context"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/core/ports"
	"go.trai.ch/zerr"
)

// Sync runs the reconciliation job when connectivity is restored.
type Sync struct {
	reconciler ports.Reconciler
	logger     ports.Logger
	tag        string
}

// NewSync creates a sync bridge listening for tag.
func NewSync(reconciler ports.Reconciler, logger ports.Logger, tag string) *Sync {
	if tag == "" {
		tag = domain.DefaultSyncTag
	}
	return &Sync{reconciler: reconciler, logger: logger, tag: tag}
}

// Tag returns the sync tag this bridge reacts to.
func (s *Sync) Tag() string {
	return s.tag
}

// Handle runs the reconciliation job for a matching sync request and reports whether
// the tag matched. A failing job is logged and not retried here; retries belong to
// whoever registered the sync.
func (s *Sync) Handle(ctx context.Context, req domain.SyncRequest) bool {
	if req.Tag != s.tag {
		return false
	}

	s.logger.Info("syncing appointments")
	if err := s.reconciler.Reconcile(ctx); err != nil {
		s.logger.Error(zerr.With(zerr.Wrap(err, domain.ErrReconcileFailed.Error()), "tag", req.Tag))
		return true
	}
	s.logger.Info("appointments synced")
	return true
}
