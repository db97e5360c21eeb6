// Package media provides the OS-facing capture primitives: screen grabs,
// audio device streams, and device/monitor/window enumeration. Everything
// here shells out to ffmpeg and friends; the capture loops only see the
// interfaces.
package media

import (
	"context"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

// SampleRate is the PCM sample rate of every audio stream (16 kHz mono
// s16le), chosen to match what the transcription engines expect.
const SampleRate = 16000

// BlockSize is the fixed number of bytes per audio read: 512 samples at
// two bytes each, 32 ms of audio.
const BlockSize = 1024

// Enumerator lists the capturable devices of the machine.
type Enumerator interface {
	ListAudioDevices(ctx context.Context) ([]entities.AudioDevice, error)
	ListMonitors(ctx context.Context) ([]entities.Monitor, error)
}

// ScreenGrabber captures one full-screen image per call.
type ScreenGrabber interface {
	// Grab returns an encoded PNG of the monitor's current contents.
	Grab(ctx context.Context, monitor entities.Monitor) ([]byte, error)
}

// Window is one visible window with its on-screen geometry.
type Window struct {
	AppName string
	Title   string
	X       int
	Y       int
	Width   int
	Height  int
}

// WindowLister enumerates visible windows. Platforms without window
// metadata return an empty list; the vision loop then treats the whole
// screen as a single unnamed window.
type WindowLister interface {
	ListWindows(ctx context.Context) ([]Window, error)
}

// AudioSource is an open PCM stream for one device. ReadBlock blocks until
// a full block is available or the stream dies; cancelling the context the
// source was opened with tears the stream down.
type AudioSource interface {
	Device() entities.AudioDevice
	ReadBlock() ([]byte, error)
	Close() error
}

// AudioOpener turns a resolved device into a live PCM stream.
type AudioOpener interface {
	OpenAudio(ctx context.Context, device entities.AudioDevice) (AudioSource, error)
}
