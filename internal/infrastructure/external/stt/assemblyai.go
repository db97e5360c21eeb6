package stt

import (
	"bytes"
	"context"
	"fmt"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
)

// AssemblyAI transcribes PCM segments through the hosted AssemblyAI API.
// Each segment is wrapped in a WAV header and uploaded synchronously.
type AssemblyAI struct {
	client *aai.Client
}

func NewAssemblyAI(apiKey string) (*AssemblyAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("assemblyai api key is required")
	}
	return &AssemblyAI{client: aai.NewClient(apiKey)}, nil
}

func (a *AssemblyAI) Name() string {
	return "assemblyai"
}

func (a *AssemblyAI) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error) {
	wav := EncodeWAV(pcm, sampleRate)
	transcript, err := a.client.Transcripts.TranscribeFromReader(ctx, bytes.NewReader(wav), nil)
	if err != nil {
		return "", fmt.Errorf("assemblyai transcription failed: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		if transcript.Error != nil {
			return "", fmt.Errorf("assemblyai transcription failed: %s", *transcript.Error)
		}
		return "", fmt.Errorf("assemblyai transcription failed")
	}
	if transcript.Text == nil {
		return "", nil
	}
	return *transcript.Text, nil
}
