package capture

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/retrace-app/retrace/errors"
	"github.com/retrace-app/retrace/internal/domain/entities"
	"github.com/retrace-app/retrace/internal/infrastructure/media"
)

const transcribeMaxRetries = 3

// Transcriber runs speech segments through the configured engine with
// bounded retries. A segment whose transcription permanently fails is
// still persisted, with empty text, so its chunk timing stays queryable.
type Transcriber struct {
	engine TranscriptionEngine
	logger *zap.Logger
}

func NewTranscriber(engine TranscriptionEngine, logger *zap.Logger) *Transcriber {
	return &Transcriber{engine: engine, logger: logger}
}

// Transcribe returns the segment's text. It errors only on context
// cancellation; engine failures after all retries yield empty text.
func (t *Transcriber) Transcribe(ctx context.Context, segment entities.AudioSegment) (string, error) {
	if !segment.HasSpeech {
		return "", nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newEngineBackoff(), transcribeMaxRetries), ctx)
	var text string
	err := backoff.Retry(func() error {
		var engineErr error
		text, engineErr = t.engine.Transcribe(ctx, segment.PCM, media.SampleRate)
		return engineErr
	}, policy)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		t.logger.Warn("transcription failed permanently, persisting empty text",
			zap.String("device", segment.Device.String()),
			zap.Time("segment_start", segment.Start),
			zap.Error(apperrors.ErrTranscription(err)))
		return "", nil
	}
	return text, nil
}

func newEngineBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = time.Minute
	return b
}
