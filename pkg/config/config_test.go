package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RETRACE_DATA_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "3030" {
		t.Fatalf("unexpected default port %q", cfg.Server.Port)
	}
	if cfg.Capture.FPS != 1.0 {
		t.Fatalf("unexpected default fps %v", cfg.Capture.FPS)
	}
	if cfg.Capture.AudioChunkDuration != 30*time.Second {
		t.Fatalf("unexpected audio chunk duration %v", cfg.Capture.AudioChunkDuration)
	}
	if cfg.Capture.VideoChunkDuration != 60*time.Second {
		t.Fatalf("unexpected video chunk duration %v", cfg.Capture.VideoChunkDuration)
	}
	if cfg.Engine.TranscriptionEngine != "whisper" {
		t.Fatalf("unexpected transcription engine %q", cfg.Engine.TranscriptionEngine)
	}
	if cfg.Retrieval.FramePolicy != "omit" {
		t.Fatalf("unexpected frame policy %q", cfg.Retrieval.FramePolicy)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RETRACE_DATA_DIR", t.TempDir())
	t.Setenv("RETRACE_FPS", "0.5")
	t.Setenv("RETRACE_AUDIO_DEVICES", "Built-in Microphone (input),Loopback (output)")
	t.Setenv("RETRACE_MONITOR_IDS", "1,2")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Capture.FPS != 0.5 {
		t.Fatalf("unexpected fps %v", cfg.Capture.FPS)
	}
	if len(cfg.Capture.AudioDevices) != 2 {
		t.Fatalf("unexpected audio devices %v", cfg.Capture.AudioDevices)
	}
	if len(cfg.Capture.MonitorIDs) != 2 || cfg.Capture.MonitorIDs[1] != 2 {
		t.Fatalf("unexpected monitor ids %v", cfg.Capture.MonitorIDs)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"zero fps", "RETRACE_FPS", "0", "RETRACE_FPS"},
		{"negative chunk", "RETRACE_AUDIO_CHUNK_DURATION", "-1s", "RETRACE_AUDIO_CHUNK_DURATION"},
		{"unknown ocr engine", "RETRACE_OCR_ENGINE", "easyocr", "OCR engine"},
		{"unknown transcription engine", "RETRACE_TRANSCRIPTION_ENGINE", "deepgram", "transcription engine"},
		{"unknown vad sensitivity", "RETRACE_VAD_SENSITIVITY", "extreme", "sensitivity"},
		{"unknown frame policy", "RETRACE_FRAME_POLICY", "retry", "frame policy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("RETRACE_DATA_DIR", t.TempDir())
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestAssemblyAIRequiresKey(t *testing.T) {
	t.Setenv("RETRACE_DATA_DIR", t.TempDir())
	t.Setenv("RETRACE_TRANSCRIPTION_ENGINE", "assemblyai")
	if _, err := Load(); err == nil {
		t.Fatal("assemblyai without an API key must fail validation")
	}

	t.Setenv("RETRACE_ASSEMBLYAI_API_KEY", "test-key")
	if _, err := Load(); err != nil {
		t.Fatal(err)
	}
}

func TestFrameInterval(t *testing.T) {
	cfg := &Config{}
	cfg.Capture.FPS = 2.0
	if got := cfg.FrameInterval(); got != 500*time.Millisecond {
		t.Fatalf("unexpected interval %v", got)
	}
	cfg.Capture.FPS = 0.2
	if got := cfg.FrameInterval(); got != 5*time.Second {
		t.Fatalf("unexpected interval %v", got)
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{}
	cfg.Database = DatabaseConfig{
		Host: "db", Port: "5433", User: "u", Password: "p", Name: "retrace", SSLMode: "disable",
	}
	want := "host=db port=5433 user=u password=p dbname=retrace sslmode=disable"
	if got := cfg.GetDatabaseDSN(); got != want {
		t.Fatalf("unexpected dsn %q", got)
	}
}
