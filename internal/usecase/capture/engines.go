// Package capture holds the recording pipeline: device registry, per-device
// and per-monitor capture loops, chunk writing, transcription, and the
// orchestrator that supervises a recording cycle.
package capture

import "context"

// OcrEngine recognizes text in an encoded image. Selected once at startup
// and injected; the pipeline never branches on the concrete engine.
type OcrEngine interface {
	Name() string
	Recognize(ctx context.Context, png []byte) (string, error)
}

// TranscriptionEngine turns a PCM segment into text.
type TranscriptionEngine interface {
	Name() string
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error)
}

// VoiceActivityDetector classifies PCM blocks as speech or silence.
// SetSensitivity takes effect for all subsequently processed blocks.
type VoiceActivityDetector interface {
	IsSpeech(block []byte) bool
	SetSensitivity(level string) error
}
