package capture

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/retrace-app/retrace/errors"
	"github.com/retrace-app/retrace/internal/domain/entities"
	"github.com/retrace-app/retrace/internal/infrastructure/media"
)

// DeviceRegistry resolves configured device names and monitor ids against
// what the machine actually has, and owns the shared control state the
// capture loops read. State changes go through here; no other component
// touches a loop's control state directly.
type DeviceRegistry struct {
	enumerator    media.Enumerator
	logger        *zap.Logger
	VisionControl *entities.ControlState
	AudioControl  *entities.ControlState
}

func NewDeviceRegistry(enumerator media.Enumerator, logger *zap.Logger) *DeviceRegistry {
	return &DeviceRegistry{
		enumerator:    enumerator,
		logger:        logger,
		VisionControl: entities.NewControlState(),
		AudioControl:  entities.NewControlState(),
	}
}

// SetVisionState pauses, resumes, or stops the vision loops. Takes effect
// on the next capture tick.
func (r *DeviceRegistry) SetVisionState(s entities.DeviceState) {
	r.VisionControl.Set(s)
	r.logger.Info("vision capture state changed", zap.Stringer("state", s))
}

// SetAudioState pauses, resumes, or stops the audio loops. Blocks read
// while paused are discarded, not buffered.
func (r *DeviceRegistry) SetAudioState(s entities.DeviceState) {
	r.AudioControl.Set(s)
	r.logger.Info("audio capture state changed", zap.Stringer("state", s))
}

// ListAudioDevices enumerates the machine's capturable audio devices.
func (r *DeviceRegistry) ListAudioDevices(ctx context.Context) ([]entities.AudioDevice, error) {
	return r.enumerator.ListAudioDevices(ctx)
}

// ListMonitors enumerates the attached displays.
func (r *DeviceRegistry) ListMonitors(ctx context.Context) ([]entities.Monitor, error) {
	return r.enumerator.ListMonitors(ctx)
}

// ResolveAudioDevices maps configured "name (direction)" specs to real
// devices. With no specs configured it falls back to the default input and
// default output device. No device at all is not an error; recording then
// proceeds audio-less.
func (r *DeviceRegistry) ResolveAudioDevices(ctx context.Context, specs []string) ([]entities.AudioDevice, error) {
	available, err := r.enumerator.ListAudioDevices(ctx)
	if err != nil {
		return nil, apperrors.ErrDeviceUnavailable("enumeration", err)
	}

	if len(specs) == 0 {
		var devices []entities.AudioDevice
		for _, d := range available {
			if d.IsDefault {
				devices = append(devices, d)
			}
		}
		if len(devices) == 0 {
			r.logger.Warn("no default audio devices found, recording without audio")
		}
		return devices, nil
	}

	var devices []entities.AudioDevice
	for _, spec := range specs {
		want, err := entities.ParseAudioDevice(spec)
		if err != nil {
			return nil, apperrors.ErrConfiguration(err.Error())
		}
		found := false
		for _, d := range available {
			if d.Name == want.Name && d.Direction == want.Direction {
				devices = append(devices, d)
				found = true
				break
			}
		}
		if !found {
			return nil, apperrors.ErrConfiguration(fmt.Sprintf("audio device %q not found", spec))
		}
	}
	return devices, nil
}

// ResolveMonitors maps configured monitor ids to attached displays. With
// no ids configured it picks the default monitor. An unknown id is a
// configuration error; capture must not start against a guess.
func (r *DeviceRegistry) ResolveMonitors(ctx context.Context, ids []uint32) ([]entities.Monitor, error) {
	available, err := r.enumerator.ListMonitors(ctx)
	if err != nil {
		return nil, apperrors.ErrMonitorUnavailable("enumeration")
	}
	if len(available) == 0 {
		return nil, apperrors.ErrConfiguration("no monitors detected")
	}

	if len(ids) == 0 {
		for _, m := range available {
			if m.IsDefault {
				return []entities.Monitor{m}, nil
			}
		}
		return available[:1], nil
	}

	var monitors []entities.Monitor
	for _, id := range ids {
		found := false
		for _, m := range available {
			if m.ID == id {
				monitors = append(monitors, m)
				found = true
				break
			}
		}
		if !found {
			return nil, apperrors.ErrConfiguration(fmt.Sprintf("monitor %d not found", id))
		}
	}
	return monitors, nil
}
