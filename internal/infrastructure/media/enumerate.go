package media

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

// FFmpegEnumerator lists audio devices and monitors using platform tools:
// avfoundation device listing on macOS, pactl/xrandr on Linux.
type FFmpegEnumerator struct {
	bin string
}

func NewFFmpegEnumerator() (*FFmpegEnumerator, error) {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return &FFmpegEnumerator{bin: bin}, nil
}

func (e *FFmpegEnumerator) ListAudioDevices(ctx context.Context) ([]entities.AudioDevice, error) {
	if runtime.GOOS == "darwin" {
		out := e.listDevicesOutput(ctx)
		_, audio := ParseAVFoundationDevices(out)
		devices := make([]entities.AudioDevice, 0, len(audio))
		for i, name := range audio {
			devices = append(devices, entities.AudioDevice{
				Name:      name,
				Direction: entities.DeviceDirectionInput,
				IsDefault: i == 0,
			})
		}
		return devices, nil
	}

	cmd := exec.CommandContext(ctx, "pactl", "list", "short", "sources")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list audio sources: %w", err)
	}
	return ParsePactlSources(string(out)), nil
}

func (e *FFmpegEnumerator) ListMonitors(ctx context.Context) ([]entities.Monitor, error) {
	if runtime.GOOS == "darwin" {
		out := e.listDevicesOutput(ctx)
		screens, _ := ParseAVFoundationDevices(out)
		monitors := make([]entities.Monitor, 0, len(screens))
		for i, name := range screens {
			monitors = append(monitors, entities.Monitor{
				ID:        uint32(i),
				Name:      name,
				IsDefault: i == 0,
			})
		}
		return monitors, nil
	}

	cmd := exec.CommandContext(ctx, "xrandr", "--listmonitors")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list monitors: %w", err)
	}
	return ParseXrandrMonitors(string(out)), nil
}

// listDevicesOutput runs the avfoundation device listing. ffmpeg always
// exits non-zero for it, so only the stderr text matters.
func (e *FFmpegEnumerator) listDevicesOutput(ctx context.Context) string {
	cmd := exec.CommandContext(ctx, e.bin,
		"-f", "avfoundation", "-list_devices", "true", "-i", "")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()
	return stderr.String()
}

var avDeviceLine = regexp.MustCompile(`\[\d+\]\s+(.+)$`)

// ParseAVFoundationDevices splits ffmpeg's avfoundation device listing
// into screen capture devices and audio devices.
func ParseAVFoundationDevices(out string) (screens []string, audio []string) {
	section := ""
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.Contains(line, "AVFoundation video devices"):
			section = "video"
			continue
		case strings.Contains(line, "AVFoundation audio devices"):
			section = "audio"
			continue
		}
		m := avDeviceLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		switch section {
		case "video":
			if strings.HasPrefix(name, "Capture screen") {
				screens = append(screens, name)
			}
		case "audio":
			audio = append(audio, name)
		}
	}
	return screens, audio
}

// ParsePactlSources parses `pactl list short sources` output. Monitor
// sources (loopback of an output) map to output-direction devices.
func ParsePactlSources(out string) []entities.AudioDevice {
	var devices []entities.AudioDevice
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		name := fields[1]
		direction := entities.DeviceDirectionInput
		if strings.HasSuffix(name, ".monitor") {
			direction = entities.DeviceDirectionOutput
		}
		devices = append(devices, entities.AudioDevice{
			Name:      name,
			Direction: direction,
			IsDefault: len(devices) == 0,
		})
	}
	return devices
}

var xrandrMonitorLine = regexp.MustCompile(`^\s*(\d+):\s+\+?\*?(\S+)\s+(\d+)/\d+x(\d+)/\d+`)

// ParseXrandrMonitors parses `xrandr --listmonitors` output.
func ParseXrandrMonitors(out string) []entities.Monitor {
	var monitors []entities.Monitor
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		m := xrandrMonitorLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		id, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			continue
		}
		width, _ := strconv.ParseUint(m[3], 10, 32)
		height, _ := strconv.ParseUint(m[4], 10, 32)
		monitors = append(monitors, entities.Monitor{
			ID:        uint32(id),
			Name:      m[2],
			Width:     uint32(width),
			Height:    uint32(height),
			IsDefault: len(monitors) == 0,
		})
	}
	return monitors
}
