package bridge

import (
	"context"
	"encoding/json"

	"github.com/elkincvco/crwsh/internal/core/domain"
)

// Activator promotes a waiting version.
type Activator interface {
	SkipWaiting(ctx context.Context) (bool, error)
}

// Control listens for commands sent by the foreground context.
type Control struct {
	activator Activator
}

// NewControl creates a control-channel listener.
func NewControl(activator Activator) *Control {
	return &Control{activator: activator}
}

// Message handles a raw command message and reports whether it was recognized.
// Unrecognized and malformed messages are ignored.
func (c *Control) Message(ctx context.Context, raw []byte) (bool, error) {
	var cmd domain.Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return false, nil
	}

	switch cmd.Type {
	case domain.CommandSkipWaiting:
		if _, err := c.activator.SkipWaiting(ctx); err != nil {
			return true, err
		}
		return true, nil
	default:
		return false, nil
	}
}
