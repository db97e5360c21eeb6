package entities

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// DeviceDirection tells whether an audio device records the microphone or
// loops back the machine's output.
type DeviceDirection string

const (
	DeviceDirectionInput  DeviceDirection = "input"
	DeviceDirectionOutput DeviceDirection = "output"
)

// AudioDevice identifies one capturable audio device.
type AudioDevice struct {
	Name      string          `json:"name"`
	Direction DeviceDirection `json:"direction"`
	IsDefault bool            `json:"is_default"`
}

func (d AudioDevice) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.Direction)
}

// ParseAudioDevice parses the "name (input)" / "name (output)" form used on
// the command line and in the API.
func ParseAudioDevice(s string) (AudioDevice, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasSuffix(s, "(input)"):
		name := strings.TrimSpace(strings.TrimSuffix(s, "(input)"))
		if name == "" {
			return AudioDevice{}, fmt.Errorf("empty device name in %q", s)
		}
		return AudioDevice{Name: name, Direction: DeviceDirectionInput}, nil
	case strings.HasSuffix(s, "(output)"):
		name := strings.TrimSpace(strings.TrimSuffix(s, "(output)"))
		if name == "" {
			return AudioDevice{}, fmt.Errorf("empty device name in %q", s)
		}
		return AudioDevice{Name: name, Direction: DeviceDirectionOutput}, nil
	default:
		return AudioDevice{}, fmt.Errorf("device %q must end with (input) or (output)", s)
	}
}

// Monitor describes one attached display.
type Monitor struct {
	ID        uint32 `json:"id"`
	Name      string `json:"name"`
	Width     uint32 `json:"width"`
	Height    uint32 `json:"height"`
	IsDefault bool   `json:"is_default"`
}

// DeviceState is the liveness/control state of a capture stream.
type DeviceState int32

const (
	DeviceStateRunning DeviceState = iota
	DeviceStatePaused
	DeviceStateStopped
)

func (s DeviceState) String() string {
	switch s {
	case DeviceStateRunning:
		return "running"
	case DeviceStatePaused:
		return "paused"
	case DeviceStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ControlState is a shared mutable control flag with a narrow read/write
// contract. Capture loops read it on every iteration; the registry and the
// API are the only writers.
type ControlState struct {
	state atomic.Int32
}

func NewControlState() *ControlState {
	cs := &ControlState{}
	cs.state.Store(int32(DeviceStateRunning))
	return cs
}

func (c *ControlState) Get() DeviceState {
	return DeviceState(c.state.Load())
}

func (c *ControlState) Set(s DeviceState) {
	c.state.Store(int32(s))
}

// IsRunning is the fast-path check used inside capture loops.
func (c *ControlState) IsRunning() bool {
	return c.Get() == DeviceStateRunning
}
