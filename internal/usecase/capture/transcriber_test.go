package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/retrace-app/retrace/internal/domain/entities"
)

type flakyEngine struct {
	failures int
	calls    int
}

func (e *flakyEngine) Name() string { return "flaky" }

func (e *flakyEngine) Transcribe(context.Context, []byte, int) (string, error) {
	e.calls++
	if e.calls <= e.failures {
		return "", errors.New("engine timeout")
	}
	return "transcribed text", nil
}

func speechSegment() entities.AudioSegment {
	return entities.AudioSegment{
		Device:    entities.AudioDevice{Name: "mic", Direction: entities.DeviceDirectionInput},
		Start:     time.Now().UTC(),
		PCM:       []byte{1, 2, 3, 4},
		HasSpeech: true,
	}
}

func TestTranscribeRetriesTransientFailures(t *testing.T) {
	engine := &flakyEngine{failures: 2}
	tr := NewTranscriber(engine, zap.NewNop())

	text, err := tr.Transcribe(context.Background(), speechSegment())
	if err != nil {
		t.Fatal(err)
	}
	if text != "transcribed text" {
		t.Fatalf("unexpected text %q", text)
	}
	if engine.calls != 3 {
		t.Fatalf("expected 3 attempts got %d", engine.calls)
	}
}

func TestTranscribePermanentFailureYieldsEmptyText(t *testing.T) {
	engine := &flakyEngine{failures: 100}
	tr := NewTranscriber(engine, zap.NewNop())

	text, err := tr.Transcribe(context.Background(), speechSegment())
	if err != nil {
		t.Fatalf("permanent failure must not error, got %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text got %q", text)
	}
	if engine.calls != transcribeMaxRetries+1 {
		t.Fatalf("expected %d attempts got %d", transcribeMaxRetries+1, engine.calls)
	}
}

func TestTranscribeSkipsSilentSegments(t *testing.T) {
	engine := &flakyEngine{}
	tr := NewTranscriber(engine, zap.NewNop())

	segment := speechSegment()
	segment.HasSpeech = false
	text, err := tr.Transcribe(context.Background(), segment)
	if err != nil || text != "" {
		t.Fatalf("unexpected result %q %v", text, err)
	}
	if engine.calls != 0 {
		t.Fatal("engine must not run for silent segments")
	}
}
