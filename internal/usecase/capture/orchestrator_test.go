package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/retrace-app/retrace/errors"
	"github.com/retrace-app/retrace/internal/domain/entities"
	"github.com/retrace-app/retrace/pkg/config"
)

func testCaptureConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Capture: config.CaptureConfig{
			DataDir:              t.TempDir(),
			FPS:                  200,
			AudioChunkDuration:   time.Minute,
			VideoChunkDuration:   time.Minute,
			DisableAudio:         true,
			FrameQueueCapacity:   16,
			MonitorFailureWindow: time.Minute,
			RestartPause:         5 * time.Millisecond,
			DrainGracePeriod:     200 * time.Millisecond,
		},
	}
}

func newTestRegistryMonitors() []entities.Monitor {
	return []entities.Monitor{{ID: 0, Name: "eDP-1", Width: 40, Height: 40, IsDefault: true}}
}

func TestRunCyclePersistenceErrorRestartsCycle(t *testing.T) {
	cfg := testCaptureConfig(t)
	frames := &fakeFrameArchive{insertErr: errors.New("disk full")}
	registry := NewDeviceRegistry(&fakeEnumerator{
		monitors: newTestRegistryMonitors(),
	}, zap.NewNop())
	o := NewOrchestrator(cfg, registry,
		&fakeGrabber{img: testPNG(t, 40, 40)}, &fakeLister{}, &fakeOpener{},
		&fakeOCR{text: "tick"}, &flakyEngine{}, fakeVAD{},
		frames, &fakeAudioArchive{}, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := o.runCycle(ctx)
	if !apperrors.IsCode(err, apperrors.ErrorCode_PERSISTENCE_FAILED) {
		t.Fatalf("expected persistence error to surface, got %v", err)
	}
}

func TestRunCycleShutdownDrainsCleanly(t *testing.T) {
	cfg := testCaptureConfig(t)
	frames := &fakeFrameArchive{}
	registry := NewDeviceRegistry(&fakeEnumerator{
		monitors: newTestRegistryMonitors(),
	}, zap.NewNop())
	o := NewOrchestrator(cfg, registry,
		&fakeGrabber{img: testPNG(t, 40, 40)}, &fakeLister{}, &fakeOpener{},
		&fakeOCR{text: "tick"}, &flakyEngine{}, fakeVAD{},
		frames, &fakeAudioArchive{}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	if err := o.runCycle(ctx); err != nil {
		t.Fatalf("shutdown must not report an error, got %v", err)
	}
	if len(frames.frames) == 0 {
		t.Fatal("expected frames to be persisted before shutdown")
	}
	if len(frames.chunks) == 0 {
		t.Fatal("expected an open chunk to have been registered")
	}
}

// ctxFrameArchive honors context cancellation the way a real database
// client does: a cancelled context rejects the write.
type ctxFrameArchive struct {
	fakeFrameArchive
}

func (a *ctxFrameArchive) InsertVideoChunk(ctx context.Context, filePath string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return a.fakeFrameArchive.InsertVideoChunk(ctx, filePath)
}

func (a *ctxFrameArchive) InsertFrame(ctx context.Context, chunkID, offsetIndex int64, timestamp time.Time, monitorID uint32) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return a.fakeFrameArchive.InsertFrame(ctx, chunkID, offsetIndex, timestamp, monitorID)
}

func TestRunCycleDrainPersistsQueuedFrames(t *testing.T) {
	cfg := testCaptureConfig(t)
	frames := &ctxFrameArchive{}
	registry := NewDeviceRegistry(&fakeEnumerator{
		monitors: newTestRegistryMonitors(),
	}, zap.NewNop())
	o := NewOrchestrator(cfg, registry,
		&fakeGrabber{img: testPNG(t, 40, 40)}, &fakeLister{}, &fakeOpener{},
		&fakeOCR{text: "tick"}, &flakyEngine{}, fakeVAD{},
		frames, &fakeAudioArchive{}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	if err := o.runCycle(ctx); err != nil {
		t.Fatalf("queued frames must persist through the drain, got %v", err)
	}
	if len(frames.frames) == 0 {
		t.Fatal("expected queued frames to land after cancellation")
	}
}

// blockingFrameArchive wedges every frame insert until its context dies,
// simulating a stuck database during shutdown.
type blockingFrameArchive struct {
	fakeFrameArchive
}

func (a *blockingFrameArchive) InsertFrame(ctx context.Context, _, _ int64, _ time.Time, _ uint32) (int64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestRunCycleForcedStopAfterDrainTimeout(t *testing.T) {
	cfg := testCaptureConfig(t)
	cfg.Capture.DrainGracePeriod = 50 * time.Millisecond
	registry := NewDeviceRegistry(&fakeEnumerator{
		monitors: newTestRegistryMonitors(),
	}, zap.NewNop())
	o := NewOrchestrator(cfg, registry,
		&fakeGrabber{img: testPNG(t, 40, 40)}, &fakeLister{}, &fakeOpener{},
		&fakeOCR{text: "tick"}, &flakyEngine{}, fakeVAD{},
		&blockingFrameArchive{}, &fakeAudioArchive{}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.runCycle(ctx) }()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("runCycle must return once the drain grace period cuts off persistence")
	}
}

func TestRunReturnsOnConfigurationError(t *testing.T) {
	cfg := testCaptureConfig(t)
	cfg.Capture.MonitorIDs = []uint32{42}
	registry := NewDeviceRegistry(&fakeEnumerator{
		monitors: newTestRegistryMonitors(),
	}, zap.NewNop())
	o := NewOrchestrator(cfg, registry,
		&fakeGrabber{}, &fakeLister{}, &fakeOpener{},
		&fakeOCR{}, &flakyEngine{}, fakeVAD{},
		&fakeFrameArchive{}, &fakeAudioArchive{}, nil, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := o.Run(ctx)
	if !apperrors.IsCode(err, apperrors.ErrorCode_CONFIGURATION) {
		t.Fatalf("expected configuration error to end recording, got %v", err)
	}
}
