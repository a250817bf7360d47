package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartResetsAndCounts(t *testing.T) {
	c := New(nil)
	c.seconds.Store(41)

	c.Start()
	defer c.Stop()
	require.Equal(t, 0, c.Elapsed())

	require.Eventually(t, func() bool {
		return c.Elapsed() >= 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestStopPreservesCountAndIsIdempotent(t *testing.T) {
	c := New(nil)
	c.Start()

	require.Eventually(t, func() bool {
		return c.Elapsed() >= 1
	}, 3*time.Second, 20*time.Millisecond)

	c.Stop()
	elapsed := c.Elapsed()
	require.GreaterOrEqual(t, elapsed, 1)

	c.Stop()
	require.Equal(t, elapsed, c.Elapsed())
}

func TestClearZeroesCount(t *testing.T) {
	c := New(nil)
	c.Start()
	c.Clear()
	require.Equal(t, 0, c.Elapsed())

	// Clear on an idle counter is safe.
	c.Clear()
}

func TestRestartReplacesInterval(t *testing.T) {
	ticks := make(chan int, 16)
	c := New(func(s int) {
		select {
		case ticks <- s:
		default:
		}
	})

	c.Start()
	c.Start()
	defer c.Stop()

	select {
	case s := <-ticks:
		require.Equal(t, 1, s)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a tick after restart")
	}
}
