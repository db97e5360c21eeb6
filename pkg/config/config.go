package config

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Capture   CaptureConfig
	Engine    EngineConfig
	Retrieval RetrievalConfig
	Redis     RedisConfig
	Storage   StorageConfig
}

// ServerConfig holds the API server configuration
type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"127.0.0.1"`
	Port            string        `envconfig:"PORT" default:"3030"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"development"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// DatabaseConfig holds the archive database configuration
type DatabaseConfig struct {
	Host          string `envconfig:"DB_HOST" default:"localhost"`
	Port          string `envconfig:"DB_PORT" default:"5432"`
	User          string `envconfig:"DB_USER" default:"postgres"`
	Password      string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name          string `envconfig:"DB_NAME" default:"retrace"`
	SSLMode       string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns      int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns      int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate   bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	MigrationsDir string `envconfig:"DB_MIGRATIONS_DIR" default:"migrations"`
}

// CaptureConfig holds the capture pipeline configuration
type CaptureConfig struct {
	DataDir              string        `envconfig:"DATA_DIR"`
	FPS                  float64       `envconfig:"FPS" default:"1.0"`
	AudioChunkDuration   time.Duration `envconfig:"AUDIO_CHUNK_DURATION" default:"30s"`
	VideoChunkDuration   time.Duration `envconfig:"VIDEO_CHUNK_DURATION" default:"60s"`
	DisableAudio         bool          `envconfig:"DISABLE_AUDIO" default:"false"`
	DisableVision        bool          `envconfig:"DISABLE_VISION" default:"false"`
	AudioDevices         []string      `envconfig:"AUDIO_DEVICES"`
	MonitorIDs           []uint32      `envconfig:"MONITOR_IDS"`
	IgnoredWindows       []string      `envconfig:"IGNORED_WINDOWS"`
	IncludedWindows      []string      `envconfig:"INCLUDED_WINDOWS"`
	DedupeOCR            bool          `envconfig:"DEDUPE_OCR" default:"false"`
	FrameQueueCapacity   int           `envconfig:"FRAME_QUEUE_CAPACITY" default:"128"`
	MonitorFailureWindow time.Duration `envconfig:"MONITOR_FAILURE_WINDOW" default:"60s"`
	RestartPause         time.Duration `envconfig:"RESTART_PAUSE" default:"2s"`
	DrainGracePeriod     time.Duration `envconfig:"DRAIN_GRACE_PERIOD" default:"5s"`
	WatchPID             int           `envconfig:"WATCH_PID" default:"0"`
}

// EngineConfig selects the pluggable OCR/transcription/VAD engines
type EngineConfig struct {
	OCREngine           string `envconfig:"OCR_ENGINE" default:"tesseract"`
	TesseractBin        string `envconfig:"TESSERACT_BIN" default:"tesseract"`
	TranscriptionEngine string `envconfig:"TRANSCRIPTION_ENGINE" default:"whisper"`
	WhisperBin          string `envconfig:"WHISPER_BIN" default:"whisper-cli"`
	WhisperModel        string `envconfig:"WHISPER_MODEL"`
	AssemblyAIAPIKey    string `envconfig:"ASSEMBLYAI_API_KEY"`
	VADSensitivity      string `envconfig:"VAD_SENSITIVITY" default:"medium"`
}

// RetrievalConfig holds the retrieval/search layer configuration
type RetrievalConfig struct {
	// FramePolicy decides what a frame decode failure does to a search
	// batch: "omit" drops the frame from that row, "fail" fails the batch.
	FramePolicy        string        `envconfig:"FRAME_POLICY" default:"omit"`
	CountCacheTTL      time.Duration `envconfig:"COUNT_CACHE_TTL" default:"30s"`
	FreshnessThreshold time.Duration `envconfig:"FRESHNESS_THRESHOLD" default:"60s"`
	StartupGrace       time.Duration `envconfig:"STARTUP_GRACE" default:"120s"`
}

// RedisConfig holds the optional search-count cache configuration
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StorageConfig holds the optional chunk mirror configuration
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"false"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"retrace-chunks"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	// Each section is processed on its own so the variable names stay flat
	// (RETRACE_FPS, RETRACE_DB_HOST) instead of embedding the struct path.
	var cfg Config
	sections := []interface{}{
		&cfg.Server,
		&cfg.Database,
		&cfg.Capture,
		&cfg.Engine,
		&cfg.Retrieval,
		&cfg.Redis,
		&cfg.Storage,
	}
	for _, section := range sections {
		if err := envconfig.Process("RETRACE", section); err != nil {
			return nil, fmt.Errorf("failed to process environment: %w", err)
		}
	}

	if cfg.Capture.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.Capture.DataDir = filepath.Join(home, ".retrace", "data")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate fails fast on configuration errors before any capture loop runs.
func (c *Config) Validate() error {
	if math.IsNaN(c.Capture.FPS) || math.IsInf(c.Capture.FPS, 0) || c.Capture.FPS <= 0 {
		return fmt.Errorf("RETRACE_FPS must be a finite positive number, got %v", c.Capture.FPS)
	}
	if c.Capture.AudioChunkDuration <= 0 {
		return fmt.Errorf("RETRACE_AUDIO_CHUNK_DURATION must be positive")
	}
	if c.Capture.VideoChunkDuration <= 0 {
		return fmt.Errorf("RETRACE_VIDEO_CHUNK_DURATION must be positive")
	}
	if c.Capture.FrameQueueCapacity <= 0 {
		return fmt.Errorf("RETRACE_FRAME_QUEUE_CAPACITY must be positive")
	}
	switch c.Engine.OCREngine {
	case "tesseract":
	default:
		return fmt.Errorf("unknown OCR engine %q", c.Engine.OCREngine)
	}
	switch c.Engine.TranscriptionEngine {
	case "whisper":
	case "assemblyai":
		if c.Engine.AssemblyAIAPIKey == "" {
			return fmt.Errorf("RETRACE_ASSEMBLYAI_API_KEY is required for the assemblyai engine")
		}
	default:
		return fmt.Errorf("unknown transcription engine %q", c.Engine.TranscriptionEngine)
	}
	switch c.Engine.VADSensitivity {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("unknown VAD sensitivity %q", c.Engine.VADSensitivity)
	}
	switch c.Retrieval.FramePolicy {
	case "omit", "fail":
	default:
		return fmt.Errorf("unknown frame policy %q", c.Retrieval.FramePolicy)
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// FrameInterval is the vision capture tick derived from the target FPS.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Capture.FPS)
}
