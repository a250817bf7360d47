// Package timer tracks elapsed seconds for the question currently being answered.
package timer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counter counts whole seconds from Start until Stop. Each question gets a
// fresh count; Start always resets to zero and replaces any running interval
// so the tick goroutine is never leaked across question transitions.
type Counter struct {
	mu      sync.Mutex
	done    chan struct{}
	seconds atomic.Int64
	onTick  func(seconds int)
}

// New builds a counter. onTick may be nil; when set it receives every tick.
func New(onTick func(seconds int)) *Counter {
	return &Counter{onTick: onTick}
}

// Start resets elapsed seconds to zero and begins ticking once per second.
func (c *Counter) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.seconds.Store(0)

	done := make(chan struct{})
	c.done = done

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				elapsed := c.seconds.Add(1)
				if c.onTick != nil {
					c.onTick(int(elapsed))
				}
			}
		}
	}()
}

// Stop halts ticking while preserving the current count. Safe when idle.
func (c *Counter) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Clear halts ticking and resets the count to zero.
func (c *Counter) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.seconds.Store(0)
}

// Elapsed returns whole seconds counted since the last Start.
func (c *Counter) Elapsed() int {
	return int(c.seconds.Load())
}

func (c *Counter) stopLocked() {
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}
