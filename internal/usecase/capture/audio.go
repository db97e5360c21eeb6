package capture

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/retrace-app/retrace/errors"
	"github.com/retrace-app/retrace/internal/domain/entities"
	"github.com/retrace-app/retrace/internal/infrastructure/media"
)

// silenceHangoverBlocks is how many consecutive silent blocks after speech
// close the current segment. 16 blocks is roughly half a second, enough to
// ride out pauses between words.
const silenceHangoverBlocks = 16

// AudioLoop captures one device: it reads fixed-size PCM blocks, gates
// them through the voice activity detector, and emits speech segments
// bounded by the chunk duration or by a speech-to-silence transition.
// A device failure terminates only this loop; siblings are unaffected.
type AudioLoop struct {
	device        entities.AudioDevice
	opener        media.AudioOpener
	vad           VoiceActivityDetector
	control       *entities.ControlState
	logger        *zap.Logger
	chunkDuration time.Duration
}

func NewAudioLoop(
	device entities.AudioDevice,
	opener media.AudioOpener,
	vad VoiceActivityDetector,
	control *entities.ControlState,
	chunkDuration time.Duration,
	logger *zap.Logger,
) *AudioLoop {
	return &AudioLoop{
		device:        device,
		opener:        opener,
		vad:           vad,
		control:       control,
		logger:        logger.With(zap.String("device", device.String())),
		chunkDuration: chunkDuration,
	}
}

// Run reads the device until the context is cancelled or the device dies.
// The segment in flight when cancellation arrives is emitted if it holds
// speech, then the loop returns nil.
func (l *AudioLoop) Run(ctx context.Context, out chan<- entities.AudioSegment) error {
	source, err := l.opener.OpenAudio(ctx, l.device)
	if err != nil {
		return apperrors.ErrDeviceUnavailable(l.device.String(), err)
	}
	defer source.Close()

	var (
		segment       entities.AudioSegment
		silentStreak  int
		blockDuration = time.Duration(media.BlockSize/2) * time.Second / media.SampleRate
	)
	resetSegment := func(start time.Time) {
		segment = entities.AudioSegment{Device: l.device, Start: start, End: start}
	}
	resetSegment(time.Now().UTC())

	emit := func() bool {
		if !segment.HasSpeech || len(segment.PCM) == 0 {
			resetSegment(segment.End)
			return true
		}
		select {
		case out <- segment:
			resetSegment(segment.End)
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		if ctx.Err() != nil {
			emit()
			return nil
		}
		block, err := source.ReadBlock()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				emit()
				return nil
			}
			return apperrors.ErrDeviceRead(l.device.String(), err)
		}
		if !l.control.IsRunning() {
			continue
		}

		segment.PCM = append(segment.PCM, block...)
		segment.End = segment.End.Add(blockDuration)

		if l.vad.IsSpeech(block) {
			segment.HasSpeech = true
			silentStreak = 0
		} else {
			silentStreak++
		}

		// Close on a speech-to-silence transition or on the duration bound,
		// whichever comes first.
		transition := segment.HasSpeech && silentStreak >= silenceHangoverBlocks
		if transition || segment.Duration() >= l.chunkDuration {
			if !emit() {
				return nil
			}
			silentStreak = 0
		}
	}
}
