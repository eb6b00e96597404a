package style_test

import (
	"testing"

	"github.com/elkincvco/crwsh/internal/core/domain"
	"github.com/elkincvco/crwsh/internal/ui/style"
	"github.com/stretchr/testify/assert"
)

func TestStateColor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, style.Green, style.StateColor(domain.StateActive))
	assert.Equal(t, style.Yellow, style.StateColor(domain.StateWaiting))
	assert.Equal(t, style.Red, style.StateColor(domain.StateRedundant))
	assert.Equal(t, style.Slate, style.StateColor(""))
}

func TestState_ContainsIconAndName(t *testing.T) {
	t.Parallel()

	out := style.State(domain.StateActive)
	assert.Contains(t, out, style.Dot)
	assert.Contains(t, out, "active")
}
