// Package ocr provides the OCR engine implementations consumed by the
// vision capture loop.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Tesseract runs the tesseract CLI over an encoded image and returns the
// recognized text. One short-lived process per region keeps the engine
// crash-isolated from the capture loop.
type Tesseract struct {
	bin string
}

// NewTesseract verifies the binary exists before the capture loops start.
func NewTesseract(bin string) (*Tesseract, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("tesseract not found (%s): %w", bin, err)
	}
	return &Tesseract{bin: path}, nil
}

// Name identifies the engine in logs and errors.
func (t *Tesseract) Name() string {
	return "tesseract"
}

// Recognize feeds a PNG through tesseract and returns the plain text.
func (t *Tesseract) Recognize(ctx context.Context, png []byte) (string, error) {
	cmd := exec.CommandContext(ctx, t.bin, "stdin", "stdout", "--psm", "3")
	cmd.Stdin = bytes.NewReader(png)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
