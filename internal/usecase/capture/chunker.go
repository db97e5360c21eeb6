package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	apperrors "github.com/retrace-app/retrace/errors"
	"github.com/retrace-app/retrace/internal/domain/entities"
	"github.com/retrace-app/retrace/internal/domain/repositories"
	"github.com/retrace-app/retrace/pkg/chunkio"
)

// Mirror uploads finalized chunk files to off-box storage. Optional and
// strictly best effort.
type Mirror interface {
	UploadChunk(ctx context.Context, objectName, filePath string) error
}

// ChunkWriter owns the open chunk files: one for the vision stream and one
// per audio device. A unit is acknowledged only after it has a durable
// (path, offset) and its archive rows are committed; any write failure is
// surfaced as a persistence error so the orchestrator restarts the cycle
// instead of risking partial offsets.
//
// Vision and audio appends run on separate goroutines but touch disjoint
// stream state; FinalizeAll runs only after both consumers have stopped.
type ChunkWriter struct {
	dataDir       string
	videoDuration time.Duration
	audioDuration time.Duration
	frames        repositories.FrameArchive
	audio         repositories.AudioArchive
	mirror        Mirror
	logger        *zap.Logger
	now           func() time.Time

	vision       *chunkStream
	audioStreams map[string]*chunkStream
}

// chunkStream is one open chunk file plus its archive row.
type chunkStream struct {
	writer   *chunkio.Writer
	chunkID  int64
	openedAt time.Time
}

func NewChunkWriter(
	dataDir string,
	videoDuration, audioDuration time.Duration,
	frames repositories.FrameArchive,
	audio repositories.AudioArchive,
	mirror Mirror,
	logger *zap.Logger,
) *ChunkWriter {
	return &ChunkWriter{
		dataDir:       dataDir,
		videoDuration: videoDuration,
		audioDuration: audioDuration,
		frames:        frames,
		audio:         audio,
		mirror:        mirror,
		logger:        logger,
		now:           time.Now,
		audioStreams:  make(map[string]*chunkStream),
	}
}

// AppendFrame persists one captured frame: the image goes into the open
// vision chunk, then the frame row and one OCR row per window are written.
func (c *ChunkWriter) AppendFrame(ctx context.Context, frame entities.CaptureFrame) error {
	stream, err := c.visionStream(ctx)
	if err != nil {
		return err
	}
	offset, err := stream.writer.Append(frame.Image)
	if err != nil {
		return apperrors.ErrPersistence("vision", err)
	}
	frameID, err := c.frames.InsertFrame(ctx, stream.chunkID, offset, frame.Timestamp, frame.MonitorID)
	if err != nil {
		return apperrors.ErrPersistence("vision", err)
	}
	for _, w := range frame.Windows {
		raw, err := json.Marshal(w)
		if err != nil {
			return apperrors.ErrPersistence("vision", err)
		}
		ocr := entities.OCRText{
			FrameID:    frameID,
			Text:       w.Text,
			TextJSON:   datatypes.JSON(raw),
			AppName:    w.AppName,
			WindowName: w.WindowName,
		}
		if err := c.frames.InsertOCR(ctx, &ocr); err != nil {
			return apperrors.ErrPersistence("vision", err)
		}
	}
	return nil
}

// AppendAudio persists one transcribed segment: PCM into the device's open
// chunk, then the transcription row. An empty transcript is persisted too,
// so the segment's timing stays queryable.
func (c *ChunkWriter) AppendAudio(ctx context.Context, segment entities.AudioSegment, transcript string) error {
	stream, err := c.audioStream(ctx, segment.Device.Name)
	if err != nil {
		return err
	}
	offset, err := stream.writer.Append(segment.PCM)
	if err != nil {
		return apperrors.ErrPersistence("audio", err)
	}
	row := entities.AudioTranscription{
		AudioChunkID:  stream.chunkID,
		OffsetIndex:   offset,
		Timestamp:     segment.Start,
		Transcription: transcript,
		DeviceName:    segment.Device.Name,
	}
	if err := c.audio.InsertTranscription(ctx, &row); err != nil {
		return apperrors.ErrPersistence("audio", err)
	}
	return nil
}

// FinalizeAll closes every open chunk. Called on drain; after this the
// writer must not be reused.
func (c *ChunkWriter) FinalizeAll(ctx context.Context) {
	if c.vision != nil {
		c.finalize(ctx, c.vision)
		c.vision = nil
	}
	for name, stream := range c.audioStreams {
		c.finalize(ctx, stream)
		delete(c.audioStreams, name)
	}
}

func (c *ChunkWriter) visionStream(ctx context.Context) (*chunkStream, error) {
	if c.vision != nil && c.now().Sub(c.vision.openedAt) < c.videoDuration {
		return c.vision, nil
	}
	if c.vision != nil {
		c.finalize(ctx, c.vision)
		c.vision = nil
	}
	opened := c.now()
	path := filepath.Join(c.dataDir, fmt.Sprintf("vision_%s.rtc", opened.UTC().Format("20060102T150405.000")))
	writer, err := chunkio.Create(path)
	if err != nil {
		return nil, apperrors.ErrPersistence("vision", err)
	}
	chunkID, err := c.frames.InsertVideoChunk(ctx, path)
	if err != nil {
		writer.Finalize()
		return nil, apperrors.ErrPersistence("vision", err)
	}
	c.vision = &chunkStream{writer: writer, chunkID: chunkID, openedAt: opened}
	return c.vision, nil
}

func (c *ChunkWriter) audioStream(ctx context.Context, deviceName string) (*chunkStream, error) {
	stream := c.audioStreams[deviceName]
	if stream != nil && c.now().Sub(stream.openedAt) < c.audioDuration {
		return stream, nil
	}
	if stream != nil {
		c.finalize(ctx, stream)
		delete(c.audioStreams, deviceName)
	}
	opened := c.now()
	path := filepath.Join(c.dataDir, fmt.Sprintf("audio_%s_%s.rtc",
		sanitizeName(deviceName), opened.UTC().Format("20060102T150405.000")))
	writer, err := chunkio.Create(path)
	if err != nil {
		return nil, apperrors.ErrPersistence("audio", err)
	}
	chunkID, err := c.audio.InsertAudioChunk(ctx, path, deviceName)
	if err != nil {
		writer.Finalize()
		return nil, apperrors.ErrPersistence("audio", err)
	}
	stream = &chunkStream{writer: writer, chunkID: chunkID, openedAt: opened}
	c.audioStreams[deviceName] = stream
	return stream, nil
}

func (c *ChunkWriter) finalize(ctx context.Context, stream *chunkStream) {
	path := stream.writer.Path()
	records := stream.writer.NextOffset()
	if err := stream.writer.Finalize(); err != nil {
		c.logger.Error("failed to finalize chunk", zap.String("path", path), zap.Error(err))
		return
	}
	// Every persisted offset must resolve against the finalized file; a
	// chunk that fails verification is kept on disk but never mirrored.
	if n, err := chunkio.Count(path); err != nil {
		c.logger.Error("chunk verification failed", zap.String("path", path), zap.Error(err))
		return
	} else if n != records {
		c.logger.Error("chunk record count mismatch",
			zap.String("path", path),
			zap.Int64("expected", records),
			zap.Int64("found", n))
		return
	}
	if c.mirror == nil {
		return
	}
	go func() {
		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
		err := backoff.Retry(func() error {
			return c.mirror.UploadChunk(ctx, filepath.Base(path), path)
		}, policy)
		if err != nil {
			c.logger.Warn("chunk mirror upload failed", zap.String("path", path), zap.Error(err))
		}
	}()
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}
