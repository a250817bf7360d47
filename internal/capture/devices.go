// Package capture owns microphone and camera acquisition and release.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Device describes one Pulse input source surfaced to greenroom.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Selection is the resolved capture source plus optional fallback warning context.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// ListDevices returns available Pulse input sources with default/availability metadata.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("greenroom"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}
	defaultID := defaultSource.ID()

	var sourceInfos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &sourceInfos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(sourceInfos))
	for _, source := range sourceInfos {
		if source == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          source.SourceName,
			Description: source.Device,
			State:       sourceStateString(source.State),
			Available:   sourceAvailable(source),
			Muted:       source.Mute,
			Default:     source.SourceName == defaultID,
		})
	}
	return devices, nil
}

// SelectDevice resolves audio.input/audio.fallback preferences against live devices.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectFrom(devices, input, fallback)
}

// selectFrom applies selection policy to a pre-fetched device list: the
// preferred input when usable, otherwise the named fallback, otherwise the
// server default. A device is usable when available and not muted.
func selectFrom(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	input = strings.TrimSpace(strings.ToLower(input))
	fallback = strings.TrimSpace(strings.ToLower(fallback))

	primary, err := resolve(devices, input)
	if err != nil {
		return Selection{}, err
	}
	if usable(primary) {
		return Selection{Device: primary}, nil
	}
	reason := unusableReason(primary)

	secondary, err := resolve(devices, fallback)
	if err != nil {
		return Selection{}, fmt.Errorf("primary input %q is %s and no usable fallback: %w", primary.ID, reason, err)
	}
	if !usable(secondary) {
		return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q is %s",
			primary.ID, reason, secondary.ID, unusableReason(secondary))
	}

	return Selection{
		Device:   secondary,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, secondary.ID),
		Fallback: primary.ID != secondary.ID,
	}, nil
}

// resolve maps a config term to a device: "default"/empty means the server
// default, anything else substring-matches id or description.
func resolve(devices []Device, term string) (Device, error) {
	if term == "" || term == "default" {
		for _, dev := range devices {
			if dev.Default {
				return dev, nil
			}
		}
		return Device{}, errors.New("default audio source is unavailable")
	}

	for _, dev := range devices {
		if deviceMatches(dev, term) {
			return dev, nil
		}
	}
	return Device{}, fmt.Errorf("audio input %q did not match any device", term)
}

func usable(dev Device) bool {
	return dev.Available && !dev.Muted
}

func unusableReason(dev Device) string {
	if dev.Muted {
		return "muted"
	}
	return "unavailable"
}

// deviceMatches reports whether a search term matches a device id or description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	id := strings.ToLower(device.ID)
	desc := strings.ToLower(device.Description)
	return strings.Contains(id, term) || strings.Contains(desc, term)
}

// DescribeDevice formats device metadata for logs and session results.
func DescribeDevice(device Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}

// sourceStateString maps Pulse source state constants to human-readable values.
func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sourceAvailable maps Pulse source port availability to a simple boolean.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	if len(source.Ports) == 0 {
		return true
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}
