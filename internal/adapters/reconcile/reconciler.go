// Package reconcile holds the appointment reconciliation job run on background sync.
package reconcile

import (
	"context"

	"github.com/elkincvco/crwsh/internal/core/ports"
)

var _ ports.Reconciler = (*Stub)(nil)

// Stub is the reconciliation job. It only records that a sync happened.
//
// TODO: replay queued appointment writes once the data-access layer defines
// what a sync must achieve and how it stays idempotent.
type Stub struct {
	logger ports.Logger
}

// NewStub creates the stub job.
func NewStub(logger ports.Logger) *Stub {
	return &Stub{logger: logger}
}

// Reconcile logs the sync and returns ctx's error if it is already done.
func (s *Stub) Reconcile(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("appointment reconciliation requested; no pending writes to replay")
	return nil
}
