// Package stt provides the transcription engine implementations consumed
// by the transcription stage: a local whisper.cpp CLI and the AssemblyAI
// cloud API.
package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Whisper transcribes PCM segments with the whisper.cpp CLI. Fully local;
// no audio leaves the machine.
type Whisper struct {
	bin   string
	model string
}

func NewWhisper(bin, model string) (*Whisper, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("whisper binary not found (%s): %w", bin, err)
	}
	return &Whisper{bin: path, model: model}, nil
}

func (w *Whisper) Name() string {
	return "whisper"
}

// Transcribe writes the segment to a temp WAV and runs the CLI on it.
func (w *Whisper) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error) {
	wavPath := filepath.Join(os.TempDir(), fmt.Sprintf("retrace-%s.wav", uuid.New().String()))
	if err := os.WriteFile(wavPath, EncodeWAV(pcm, sampleRate), 0o600); err != nil {
		return "", fmt.Errorf("failed to write temp wav: %w", err)
	}
	defer os.Remove(wavPath)

	args := []string{"-f", wavPath, "-nt"}
	if w.model != "" {
		args = append(args, "-m", w.model)
	}
	cmd := exec.CommandContext(ctx, w.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper failed: %w: %s", err, truncate(stderr.String(), 256))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
