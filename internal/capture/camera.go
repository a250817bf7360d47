package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

// ErrCameraInactive indicates a frame grab on a released or never-acquired camera.
var ErrCameraInactive = errors.New("camera is not acquired")

const frameGrabTimeout = 4 * time.Second

// Camera grabs single webcam frames through a configured command. Acquire
// probes the device once; Release is idempotent and must run on every path
// that ends a session attempt so the device is never left held.
type Camera struct {
	argv   []string
	logger *slog.Logger

	mu     sync.Mutex
	active bool
}

// NewCamera builds a camera around a frame-grab argv (stdout = one image).
func NewCamera(argv []string, logger *slog.Logger) *Camera {
	return &Camera{argv: argv, logger: logger}
}

// Acquire verifies the camera by grabbing one frame. On failure the camera
// stays inactive and the session must not proceed to narration.
func (c *Camera) Acquire(ctx context.Context) error {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if len(c.argv) == 0 {
		return errors.New("camera command is not configured")
	}

	frame, err := c.grab(ctx)
	if err != nil {
		return fmt.Errorf("acquire camera: %w", err)
	}
	if len(frame) == 0 {
		return errors.New("acquire camera: frame grab produced no image data")
	}

	c.mu.Lock()
	c.active = true
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("camera acquired", "command", c.argv[0], "probe_bytes", len(frame))
	}
	return nil
}

// Grab returns one frame, or ErrCameraInactive after Release.
func (c *Camera) Grab(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if !active {
		return nil, ErrCameraInactive
	}
	return c.grab(ctx)
}

// Release marks the camera inactive. Safe to call repeatedly and when nothing
// was ever acquired.
func (c *Camera) Release() {
	c.mu.Lock()
	wasActive := c.active
	c.active = false
	c.mu.Unlock()

	if wasActive && c.logger != nil {
		c.logger.Info("camera released")
	}
}

// Active reports whether the camera is currently acquired.
func (c *Camera) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Camera) grab(ctx context.Context) ([]byte, error) {
	grabCtx, cancel := context.WithTimeout(ctx, frameGrabTimeout)
	defer cancel()

	cmd := exec.CommandContext(grabCtx, c.argv[0], c.argv[1:]...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run %s: %w", c.argv[0], err)
	}
	return stdout.Bytes(), nil
}
