package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/retrace-app/retrace/errors"
	"github.com/retrace-app/retrace/internal/domain/entities"
	"github.com/retrace-app/retrace/internal/infrastructure/media"
)

// VisionLoop captures one monitor: on every tick it grabs a full-screen
// image, runs OCR per visible window, and emits the frame downstream. A
// failed tick is logged and skipped; only a sustained run with no
// successful frame at all escalates to the orchestrator, and only for
// this monitor.
type VisionLoop struct {
	monitor       entities.Monitor
	grabber       media.ScreenGrabber
	windows       media.WindowLister
	engine        OcrEngine
	control       *entities.ControlState
	logger        *zap.Logger
	interval      time.Duration
	failureWindow time.Duration

	ignored  []string
	included []string
	dedupe   bool

	// lastText remembers the previous OCR text per window for the optional
	// dedupe policy. Keyed by app name + title, process-lifetime only.
	lastText map[string]string
}

type VisionLoopConfig struct {
	Interval        time.Duration
	FailureWindow   time.Duration
	IgnoredWindows  []string
	IncludedWindows []string
	DedupeOCR       bool
}

func NewVisionLoop(
	monitor entities.Monitor,
	grabber media.ScreenGrabber,
	windows media.WindowLister,
	engine OcrEngine,
	control *entities.ControlState,
	cfg VisionLoopConfig,
	logger *zap.Logger,
) *VisionLoop {
	return &VisionLoop{
		monitor:       monitor,
		grabber:       grabber,
		windows:       windows,
		engine:        engine,
		control:       control,
		logger:        logger.With(zap.Uint32("monitor_id", monitor.ID)),
		interval:      cfg.Interval,
		failureWindow: cfg.FailureWindow,
		ignored:       cfg.IgnoredWindows,
		included:      cfg.IncludedWindows,
		dedupe:        cfg.DedupeOCR,
		lastText:      make(map[string]string),
	}
}

// Run captures until the context is cancelled. It returns nil on
// cancellation and an error only when the monitor produced no successful
// frame for the whole failure window.
func (l *VisionLoop) Run(ctx context.Context, out chan<- entities.CaptureFrame) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	lastSuccess := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if !l.control.IsRunning() {
			continue
		}

		frame, err := l.captureOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Warn("frame capture failed", zap.Error(err))
			if time.Since(lastSuccess) > l.failureWindow {
				return apperrors.ErrMonitorUnavailable(fmt.Sprintf("%d", l.monitor.ID)).
					WithDetail("reason", "no successful frame within failure window")
			}
			continue
		}
		lastSuccess = time.Now()

		select {
		case out <- frame:
		case <-ctx.Done():
			return nil
		}
	}
}

func (l *VisionLoop) captureOnce(ctx context.Context) (entities.CaptureFrame, error) {
	captured := time.Now().UTC()
	img, err := l.grabber.Grab(ctx, l.monitor)
	if err != nil {
		return entities.CaptureFrame{}, err
	}

	windows, err := l.windows.ListWindows(ctx)
	if err != nil {
		l.logger.Warn("window listing failed, using whole screen", zap.Error(err))
		windows = nil
	}

	frame := entities.CaptureFrame{
		MonitorID: l.monitor.ID,
		Timestamp: captured,
		Image:     img,
	}

	if len(windows) == 0 {
		text, err := l.recognize(ctx, img, media.Window{})
		if err != nil {
			l.logger.Warn("ocr failed for whole screen", zap.Error(err))
			return frame, nil
		}
		if text != "" && !l.dedupeHit(media.Window{}, text) {
			frame.Windows = append(frame.Windows, entities.WindowOCR{Text: text})
		}
		return frame, nil
	}

	for _, w := range windows {
		if !l.windowAllowed(w) {
			continue
		}
		text, err := l.recognize(ctx, img, w)
		if err != nil {
			l.logger.Warn("ocr failed for window",
				zap.String("app_name", w.AppName),
				zap.String("window_name", w.Title),
				zap.Error(err))
			continue
		}
		if text == "" {
			continue
		}
		if l.dedupeHit(w, text) {
			continue
		}
		frame.Windows = append(frame.Windows, entities.WindowOCR{
			AppName:    w.AppName,
			WindowName: w.Title,
			Text:       text,
		})
	}
	return frame, nil
}

// dedupeHit reports whether the text repeats the previous OCR for the
// same window and records it otherwise. The zero window keys the
// whole-screen fallback. No-op when the policy is off.
func (l *VisionLoop) dedupeHit(w media.Window, text string) bool {
	if !l.dedupe {
		return false
	}
	key := w.AppName + "\x00" + w.Title
	if l.lastText[key] == text {
		return true
	}
	l.lastText[key] = text
	return false
}

// windowAllowed applies the include/ignore lists; ignore wins when both
// match. Matching is a case-insensitive substring test against both the
// app name and the title.
func (l *VisionLoop) windowAllowed(w media.Window) bool {
	for _, pattern := range l.ignored {
		if windowMatches(w, pattern) {
			return false
		}
	}
	if len(l.included) == 0 {
		return true
	}
	for _, pattern := range l.included {
		if windowMatches(w, pattern) {
			return true
		}
	}
	return false
}

func windowMatches(w media.Window, pattern string) bool {
	p := strings.ToLower(pattern)
	return strings.Contains(strings.ToLower(w.AppName), p) ||
		strings.Contains(strings.ToLower(w.Title), p)
}

// recognize crops the window's region out of the screen image and runs the
// OCR engine on it. A zero-geometry window means the whole screen.
func (l *VisionLoop) recognize(ctx context.Context, screen []byte, w media.Window) (string, error) {
	region := screen
	if w.Width > 0 && w.Height > 0 {
		cropped, err := cropPNG(screen, w)
		if err != nil {
			return "", err
		}
		region = cropped
	}
	text, err := l.engine.Recognize(ctx, region)
	if err != nil {
		return "", apperrors.ErrEngine(l.engine.Name(), err)
	}
	return text, nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func cropPNG(data []byte, w media.Window) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screen image: %w", err)
	}
	rect := image.Rect(w.X, w.Y, w.X+w.Width, w.Y+w.Height).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("window region outside screen bounds")
	}
	si, ok := img.(subImager)
	if !ok {
		return nil, fmt.Errorf("screen image does not support cropping")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, si.SubImage(rect)); err != nil {
		return nil, fmt.Errorf("failed to encode window region: %w", err)
	}
	return buf.Bytes(), nil
}
