package ports

import "context"

// Reconciler replays work queued while the application was offline.
//
//go:generate go run go.uber.org/mock/mockgen -source=reconciler.go -destination=mocks/mock_reconciler.go -package=mocks
type Reconciler interface {
	// Reconcile runs one reconciliation pass.
	Reconcile(ctx context.Context) error
}
