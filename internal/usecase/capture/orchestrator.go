package capture

import (
	"context"
	"os"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/retrace-app/retrace/errors"
	"github.com/retrace-app/retrace/internal/domain/entities"
	"github.com/retrace-app/retrace/internal/domain/repositories"
	"github.com/retrace-app/retrace/internal/infrastructure/media"
	"github.com/retrace-app/retrace/pkg/config"
)

// Orchestrator supervises recording cycles. Audio and vision run on
// independent goroutine trees so one modality cannot starve the other; a
// persistence error tears the whole cycle down and a new one starts from
// scratch. That restart loop is the top-level resilience mechanism:
// intermittent device or OS failures self-heal by full-cycle restart.
type Orchestrator struct {
	cfg      *config.Config
	registry *DeviceRegistry
	grabber  media.ScreenGrabber
	windows  media.WindowLister
	opener   media.AudioOpener
	ocr      OcrEngine
	stt      TranscriptionEngine
	vad      VoiceActivityDetector
	frames   repositories.FrameArchive
	audio    repositories.AudioArchive
	mirror   Mirror
	logger   *zap.Logger
}

func NewOrchestrator(
	cfg *config.Config,
	registry *DeviceRegistry,
	grabber media.ScreenGrabber,
	windows media.WindowLister,
	opener media.AudioOpener,
	ocr OcrEngine,
	stt TranscriptionEngine,
	vad VoiceActivityDetector,
	frames repositories.FrameArchive,
	audio repositories.AudioArchive,
	mirror Mirror,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		registry: registry,
		grabber:  grabber,
		windows:  windows,
		opener:   opener,
		ocr:      ocr,
		stt:      stt,
		vad:      vad,
		frames:   frames,
		audio:    audio,
		mirror:   mirror,
		logger:   logger,
	}
}

// Run records until the context is cancelled, restarting the recording
// cycle on capture errors. It returns early only on a configuration error,
// which no restart can fix.
func (o *Orchestrator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if pid := o.cfg.Capture.WatchPID; pid > 0 {
		go o.watchPID(ctx, pid, cancel)
	}

	for {
		err := o.runCycle(ctx)
		if ctx.Err() != nil {
			o.logger.Info("recording stopped")
			return nil
		}
		if err != nil && apperrors.IsCode(err, apperrors.ErrorCode_CONFIGURATION) {
			return err
		}
		if err != nil {
			o.logger.Error("recording cycle failed, restarting", zap.Error(err))
		} else {
			o.logger.Warn("recording cycle ended unexpectedly, restarting")
		}
		select {
		case <-time.After(o.cfg.Capture.RestartPause):
		case <-ctx.Done():
			return nil
		}
	}
}

// runCycle is one Starting -> Running -> (Draining | Restarting) pass.
func (o *Orchestrator) runCycle(ctx context.Context) error {
	monitors, devices, err := o.resolve(ctx)
	if err != nil {
		return err
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Cancelling the cycle stops capture, not persistence: consumers keep
	// writing queued work through persistCtx during the drain, which is cut
	// only when the grace period runs out.
	persistCtx, stopPersist := context.WithCancel(context.Background())
	defer stopPersist()

	fatal := make(chan error, 1)
	reportFatal := func(err error) {
		select {
		case fatal <- err:
		default:
		}
		cancel()
	}

	writer := NewChunkWriter(
		o.cfg.Capture.DataDir,
		o.cfg.Capture.VideoChunkDuration,
		o.cfg.Capture.AudioChunkDuration,
		o.frames, o.audio, o.mirror, o.logger,
	)
	frames := make(chan entities.CaptureFrame, o.cfg.Capture.FrameQueueCapacity)
	segments := make(chan entities.AudioSegment, 16)

	var visionProducers sync.WaitGroup
	var audioProducers sync.WaitGroup

	for _, monitor := range monitors {
		loop := NewVisionLoop(monitor, o.grabber, o.windows, o.ocr, o.registry.VisionControl, VisionLoopConfig{
			Interval:        o.cfg.FrameInterval(),
			FailureWindow:   o.cfg.Capture.MonitorFailureWindow,
			IgnoredWindows:  o.cfg.Capture.IgnoredWindows,
			IncludedWindows: o.cfg.Capture.IncludedWindows,
			DedupeOCR:       o.cfg.Capture.DedupeOCR,
		}, o.logger)
		visionProducers.Add(1)
		go func() {
			defer visionProducers.Done()
			if err := loop.Run(cycleCtx, frames); err != nil {
				// Fatal for this monitor only; siblings keep running.
				o.logger.Error("vision loop terminated", zap.Error(err))
			}
		}()
	}

	for _, device := range devices {
		loop := NewAudioLoop(device, o.opener, o.vad, o.registry.AudioControl,
			o.cfg.Capture.AudioChunkDuration, o.logger)
		audioProducers.Add(1)
		go func() {
			defer audioProducers.Done()
			if err := loop.Run(cycleCtx, segments); err != nil {
				// Device-local failure; other devices and vision continue.
				o.logger.Error("audio loop terminated", zap.Error(err))
			}
		}()
	}

	go func() {
		visionProducers.Wait()
		close(frames)
	}()
	go func() {
		audioProducers.Wait()
		close(segments)
	}()
	// All capture loops gone means nothing records anymore; end the cycle
	// so the restart loop can bring capture back.
	go func() {
		visionProducers.Wait()
		audioProducers.Wait()
		cancel()
	}()

	transcriber := NewTranscriber(o.stt, o.logger)
	var consumers sync.WaitGroup
	consumers.Add(2)
	go func() {
		defer consumers.Done()
		broken := false
		for frame := range frames {
			if broken {
				continue
			}
			if err := writer.AppendFrame(persistCtx, frame); err != nil {
				broken = true
				reportFatal(err)
			}
		}
	}()
	go func() {
		defer consumers.Done()
		broken := false
		for segment := range segments {
			if broken {
				continue
			}
			text, err := transcriber.Transcribe(persistCtx, segment)
			if err != nil {
				continue
			}
			if err := writer.AppendAudio(persistCtx, segment, text); err != nil {
				broken = true
				reportFatal(err)
			}
		}
	}()

	o.logger.Info("recording cycle started",
		zap.Int("monitors", len(monitors)),
		zap.Int("audio_devices", len(devices)))

	<-cycleCtx.Done()
	o.drain(&consumers)
	// Past the grace period any in-flight write is cut off; either way the
	// consumers must be gone before the open chunks are finalized.
	stopPersist()
	consumers.Wait()
	writer.FinalizeAll(context.Background())

	select {
	case err := <-fatal:
		return err
	default:
		return nil
	}
}

func (o *Orchestrator) resolve(ctx context.Context) ([]entities.Monitor, []entities.AudioDevice, error) {
	var monitors []entities.Monitor
	if !o.cfg.Capture.DisableVision {
		var err error
		monitors, err = o.registry.ResolveMonitors(ctx, o.cfg.Capture.MonitorIDs)
		if err != nil {
			return nil, nil, err
		}
	}
	var devices []entities.AudioDevice
	if !o.cfg.Capture.DisableAudio {
		var err error
		devices, err = o.registry.ResolveAudioDevices(ctx, o.cfg.Capture.AudioDevices)
		if err != nil {
			return nil, nil, err
		}
	}
	return monitors, devices, nil
}

// drain waits for in-flight work to land, up to the grace period. Open
// chunks are finalized afterwards either way.
func (o *Orchestrator) drain(consumers *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		consumers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(o.cfg.Capture.DrainGracePeriod):
		o.logger.Warn("drain grace period elapsed with work still in flight")
	}
}

// watchPID cancels recording when an externally monitored process exits,
// so the daemon follows the lifetime of the app that launched it.
func (o *Orchestrator) watchPID(ctx context.Context, pid int, cancel context.CancelFunc) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			proc, err := os.FindProcess(pid)
			if err == nil {
				err = proc.Signal(syscall.Signal(0))
			}
			if err != nil {
				o.logger.Info("watched process exited, shutting down", zap.Int("pid", pid))
				cancel()
				return
			}
		}
	}
}
