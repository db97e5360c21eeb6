package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/retrace-app/retrace/pkg/validator"

	"github.com/retrace-app/retrace/internal/adapter/handler"
	"github.com/retrace-app/retrace/internal/adapter/repository"
	"github.com/retrace-app/retrace/internal/infrastructure/cache"
	"github.com/retrace-app/retrace/internal/infrastructure/database"
	"github.com/retrace-app/retrace/internal/infrastructure/external/ocr"
	"github.com/retrace-app/retrace/internal/infrastructure/external/stt"
	"github.com/retrace-app/retrace/internal/infrastructure/external/vad"
	"github.com/retrace-app/retrace/internal/infrastructure/media"
	"github.com/retrace-app/retrace/internal/infrastructure/storage"
	"github.com/retrace-app/retrace/internal/usecase/capture"
	"github.com/retrace-app/retrace/internal/usecase/retrieval"
	"github.com/retrace-app/retrace/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logSettings(logger, cfg)

	if err := os.MkdirAll(cfg.Capture.DataDir, 0o755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())

	// Initialize Database
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	// AutoMigrate is a development convenience; production schemas are
	// managed with sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			logger.Fatal("AutoMigrate is enabled in production. Disable RETRACE_DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		if err := database.AutoMigrate(db); err != nil {
			logger.Fatal("Failed to run AutoMigrate", zap.Error(err))
		}
	} else {
		if err := database.Migrate(db, cfg.Database.MigrationsDir); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Count cache: redis when enabled, in-process otherwise.
	var counts cache.Store = cache.NewMemoryStore()
	if cfg.Redis.Enabled {
		redisStore, err := cache.NewRedisStore(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisStore.Close()
		counts = redisStore
	}

	// Optional chunk mirror.
	var mirror capture.Mirror
	if cfg.Storage.Enabled {
		chunkMirror, err := storage.NewChunkMirror(&cfg.Storage)
		if err != nil {
			logger.Fatal("Failed to initialize chunk mirror", zap.Error(err))
		}
		mirror = chunkMirror
	}

	// Capture engines and OS-facing media primitives.
	ffmpeg, err := media.NewFFmpeg()
	if err != nil {
		logger.Fatal("Failed to locate ffmpeg", zap.Error(err))
	}
	enumerator, err := media.NewFFmpegEnumerator()
	if err != nil {
		logger.Fatal("Failed to initialize device enumeration", zap.Error(err))
	}
	windows := media.NewWmctrlLister()

	ocrEngine, err := ocr.NewTesseract(cfg.Engine.TesseractBin)
	if err != nil {
		logger.Fatal("Failed to initialize OCR engine", zap.Error(err))
	}

	var sttEngine capture.TranscriptionEngine
	switch cfg.Engine.TranscriptionEngine {
	case "assemblyai":
		sttEngine, err = stt.NewAssemblyAI(cfg.Engine.AssemblyAIAPIKey)
	default:
		sttEngine, err = stt.NewWhisper(cfg.Engine.WhisperBin, cfg.Engine.WhisperModel)
	}
	if err != nil {
		logger.Fatal("Failed to initialize transcription engine", zap.Error(err))
	}

	detector, err := vad.NewEnergyVAD(cfg.Engine.VADSensitivity)
	if err != nil {
		logger.Fatal("Failed to initialize voice activity detection", zap.Error(err))
	}

	// Repositories
	frameRepo := repository.NewFrameRepository(db)
	audioRepo := repository.NewAudioRepository(db)
	tagRepo := repository.NewTagRepository(db)
	searchRepo := repository.NewSearchRepository(db)

	// Capture pipeline
	registry := capture.NewDeviceRegistry(enumerator, logger)
	orchestrator := capture.NewOrchestrator(cfg, registry, ffmpeg, windows, ffmpeg,
		ocrEngine, sttEngine, detector, frameRepo, audioRepo, mirror, logger)

	// Retrieval layer
	searchService := retrieval.NewService(searchRepo, counts, &cfg.Retrieval, logger)
	healthService := retrieval.NewHealthService(frameRepo, audioRepo, &cfg.Retrieval,
		!cfg.Capture.DisableVision, !cfg.Capture.DisableAudio, logger)

	// Handlers and routes
	router := handler.NewRouter(
		handler.NewSearchHandler(searchService, logger),
		handler.NewDevicesHandler(registry, logger),
		handler.NewTagsHandler(tagRepo, logger),
		handler.NewHealthHandler(healthService),
		handler.NewControlHandler(registry, logger),
	)
	router.Setup(e)

	// Recording runs until shutdown, restarting its cycle on capture errors.
	recordingCtx, stopRecording := context.WithCancel(context.Background())
	recordingDone := make(chan error, 1)
	go func() {
		recordingDone <- orchestrator.Run(recordingCtx)
	}()

	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("Starting server", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutdown signal received")
	case err := <-recordingDone:
		// Only a configuration error ends recording on its own.
		logger.Error("Recording terminated", zap.Error(err))
	}

	stopRecording()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	select {
	case <-recordingDone:
	case <-ctx.Done():
	}
	logger.Info("Stopped gracefully")
}

// logSettings prints the effective recording settings once at startup, so
// a log capture is enough to reconstruct how the daemon was configured.
func logSettings(logger *zap.Logger, cfg *config.Config) {
	logger.Info("Starting with settings",
		zap.String("data_dir", cfg.Capture.DataDir),
		zap.Float64("fps", cfg.Capture.FPS),
		zap.Duration("audio_chunk_duration", cfg.Capture.AudioChunkDuration),
		zap.Duration("video_chunk_duration", cfg.Capture.VideoChunkDuration),
		zap.Bool("audio_disabled", cfg.Capture.DisableAudio),
		zap.Bool("vision_disabled", cfg.Capture.DisableVision),
		zap.Strings("audio_devices", cfg.Capture.AudioDevices),
		zap.String("ocr_engine", cfg.Engine.OCREngine),
		zap.String("transcription_engine", cfg.Engine.TranscriptionEngine),
		zap.String("vad_sensitivity", cfg.Engine.VADSensitivity),
		zap.String("port", cfg.Server.Port),
		zap.Int("watch_pid", cfg.Capture.WatchPID),
	)
}
