package watcher_test

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/elkincvco/crwsh/internal/adapters/watcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls [][]string
		d := watcher.NewDebouncer(100*time.Millisecond, func(paths []string) {
			calls = append(calls, paths)
		})

		d.Add("/srv/crwsh.yaml")
		time.Sleep(50 * time.Millisecond)
		d.Add("/srv/crwsh.yaml")
		d.Add("/srv/other.yaml")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		require.Len(t, calls, 1)
		assert.Equal(t, []string{"/srv/crwsh.yaml", "/srv/other.yaml"}, calls[0])
	})
}

func TestDebouncer_SeparateWindows(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls int
		d := watcher.NewDebouncer(100*time.Millisecond, func([]string) { calls++ })

		d.Add("/srv/crwsh.yaml")
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		d.Add("/srv/crwsh.yaml")
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, 2, calls)
	})
}

func TestDebouncer_StopDiscardsPending(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var calls int
		d := watcher.NewDebouncer(100*time.Millisecond, func([]string) { calls++ })

		d.Add("/srv/crwsh.yaml")
		d.Stop()
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		d.Add("/srv/crwsh.yaml")
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		assert.Zero(t, calls)
	})
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := watcher.NewDebouncer(10*time.Millisecond, nil)
		d.Add("/srv/crwsh.yaml")
		time.Sleep(20 * time.Millisecond)
		synctest.Wait()
		d.Stop()
	})
}
