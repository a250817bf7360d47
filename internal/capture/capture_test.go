package capture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectFromPrefersUsablePrimary(t *testing.T) {
	devices := []Device{
		{ID: "webcam-mic", Description: "Webcam Microphone", Available: true, Default: true},
		{ID: "headset", Description: "USB Headset", Available: true},
	}

	selection, err := selectFrom(devices, "default", "default")
	require.NoError(t, err)
	require.Equal(t, "webcam-mic", selection.Device.ID)
	require.Empty(t, selection.Warning)
	require.False(t, selection.Fallback)
}

func TestSelectFromMutedPrimaryUsesFallback(t *testing.T) {
	devices := []Device{
		{ID: "webcam-mic", Description: "Webcam Microphone", Available: true, Muted: true, Default: true},
		{ID: "headset", Description: "USB Headset", Available: true},
	}

	selection, err := selectFrom(devices, "webcam", "headset")
	require.NoError(t, err)
	require.Equal(t, "headset", selection.Device.ID)
	require.Contains(t, selection.Warning, "muted")
	require.True(t, selection.Fallback)
}

func TestSelectFromFailsWhenNothingUsable(t *testing.T) {
	devices := []Device{
		{ID: "webcam-mic", Description: "Webcam Microphone", Available: true, Muted: true, Default: true},
	}

	_, err := selectFrom(devices, "default", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "muted")
}

func TestSelectFromUnknownInput(t *testing.T) {
	devices := []Device{{ID: "webcam-mic", Description: "Webcam Microphone", Available: true, Default: true}}

	_, err := selectFrom(devices, "missing", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "did not match")
}

func TestSelectFromNoDevices(t *testing.T) {
	_, err := selectFrom(nil, "default", "default")
	require.Error(t, err)
}

func TestDeviceMatchesByIDAndDescription(t *testing.T) {
	dev := Device{ID: "alsa_input.usb-logitech", Description: "Logitech BRIO Mono"}
	require.True(t, deviceMatches(dev, "logitech"))
	require.True(t, deviceMatches(dev, "brio mono"))
	require.False(t, deviceMatches(dev, "missing"))
}

func TestDescribeDevice(t *testing.T) {
	require.Equal(t, "Logitech BRIO (usb-1)", DescribeDevice(Device{ID: "usb-1", Description: "Logitech BRIO"}))
	require.Equal(t, "usb-1", DescribeDevice(Device{ID: "usb-1"}))
	require.Equal(t, "Logitech BRIO", DescribeDevice(Device{Description: "Logitech BRIO"}))
}

func TestCameraAcquireGrabRelease(t *testing.T) {
	// Use a shell as a stand-in frame grabber.
	cam := NewCamera([]string{"/bin/sh", "-c", "printf frame-bytes"}, nil)

	require.NoError(t, cam.Acquire(context.Background()))
	require.True(t, cam.Active())

	frame, err := cam.Grab(context.Background())
	require.NoError(t, err)
	require.Equal(t, "frame-bytes", string(frame))

	cam.Release()
	require.False(t, cam.Active())

	_, err = cam.Grab(context.Background())
	require.ErrorIs(t, err, ErrCameraInactive)

	// Release is idempotent.
	cam.Release()
}

func TestCameraReacquireAfterRelease(t *testing.T) {
	cam := NewCamera([]string{"/bin/sh", "-c", "printf frame"}, nil)

	require.NoError(t, cam.Acquire(context.Background()))
	cam.Release()
	require.NoError(t, cam.Acquire(context.Background()))
	require.True(t, cam.Active())
	cam.Release()
}

func TestCameraAcquireFailsOnCommandError(t *testing.T) {
	cam := NewCamera([]string{"/bin/sh", "-c", "exit 3"}, nil)
	err := cam.Acquire(context.Background())
	require.Error(t, err)
	require.False(t, cam.Active())
}

func TestCameraAcquireFailsOnEmptyFrame(t *testing.T) {
	cam := NewCamera([]string{"/bin/sh", "-c", "true"}, nil)
	err := cam.Acquire(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no image data")
}

func TestCameraAcquireFailsWhenUnconfigured(t *testing.T) {
	cam := NewCamera(nil, nil)
	require.Error(t, cam.Acquire(context.Background()))
}

func TestSourceStateString(t *testing.T) {
	require.Equal(t, "running", sourceStateString(0))
	require.Equal(t, "idle", sourceStateString(1))
	require.Equal(t, "suspended", sourceStateString(2))
	require.Equal(t, "unknown(99)", sourceStateString(99))
}
