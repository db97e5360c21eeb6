package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

// FFmpeg implements ScreenGrabber and AudioOpener by shelling out to
// ffmpeg. One short-lived process per screen grab; one long-running
// process per audio stream.
type FFmpeg struct {
	bin string
}

// NewFFmpeg verifies ffmpeg is on PATH and returns the capture backend.
func NewFFmpeg() (*FFmpeg, error) {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return &FFmpeg{bin: bin}, nil
}

// Grab captures one PNG frame of the given monitor.
func (f *FFmpeg) Grab(ctx context.Context, monitor entities.Monitor) ([]byte, error) {
	var args []string
	switch runtime.GOOS {
	case "darwin":
		// avfoundation screen devices are "Capture screen N"; the video
		// input index is the monitor id resolved by the enumerator.
		args = []string{
			"-f", "avfoundation",
			"-capture_cursor", "1",
			"-i", fmt.Sprintf("%d:none", monitor.ID),
		}
	default:
		display := os.Getenv("DISPLAY")
		if display == "" {
			display = ":0"
		}
		args = []string{
			"-f", "x11grab",
			"-i", fmt.Sprintf("%s.%d", display, monitor.ID),
		}
	}
	args = append(args,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "png",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, f.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("screen grab failed for monitor %d: %w: %s",
			monitor.ID, err, truncate(stderr.String(), 256))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("screen grab produced no data for monitor %d", monitor.ID)
	}
	return stdout.Bytes(), nil
}

// ffmpegAudioSource streams raw PCM from a long-running ffmpeg process.
type ffmpegAudioSource struct {
	device entities.AudioDevice
	cmd    *exec.Cmd
	stdout io.ReadCloser
	cancel context.CancelFunc
}

// OpenAudio starts an ffmpeg process streaming 16 kHz mono s16le PCM from
// the device to stdout. The process dies with the passed context.
func (f *FFmpeg) OpenAudio(ctx context.Context, device entities.AudioDevice) (AudioSource, error) {
	ctx, cancel := context.WithCancel(ctx)

	var args []string
	switch runtime.GOOS {
	case "darwin":
		args = []string{
			"-f", "avfoundation",
			"-i", fmt.Sprintf(":%s", device.Name),
		}
	default:
		args = []string{
			"-f", "pulse",
			"-i", device.Name,
		}
	}
	args = append(args,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-f", "s16le",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, f.bin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start audio capture for %s: %w", device, err)
	}

	return &ffmpegAudioSource{
		device: device,
		cmd:    cmd,
		stdout: stdout,
		cancel: cancel,
	}, nil
}

func (s *ffmpegAudioSource) Device() entities.AudioDevice {
	return s.device
}

// ReadBlock reads exactly one fixed-size PCM block. Returns an error once
// the underlying process exits (device gone, context cancelled).
func (s *ffmpegAudioSource) ReadBlock() ([]byte, error) {
	block := make([]byte, BlockSize)
	if _, err := io.ReadFull(s.stdout, block); err != nil {
		return nil, fmt.Errorf("audio stream %s ended: %w", s.device, err)
	}
	return block, nil
}

func (s *ffmpegAudioSource) Close() error {
	s.cancel()
	// Reap the process; the error is the expected kill signal.
	_ = s.cmd.Wait()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
