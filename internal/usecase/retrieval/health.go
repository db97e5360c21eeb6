package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/retrace-app/retrace/pkg/config"
)

// FrameFreshness reports the newest frame capture timestamp.
type FrameFreshness interface {
	LatestFrameTimestamp(ctx context.Context) (time.Time, error)
}

// AudioFreshness reports the newest audio capture timestamp.
type AudioFreshness interface {
	LatestAudioTimestamp(ctx context.Context) (time.Time, error)
}

// Modality freshness statuses.
const (
	StatusOK       = "ok"
	StatusStale    = "stale"
	StatusLoading  = "loading"
	StatusNoData   = "no data"
	StatusDisabled = "disabled"
)

// HealthStatus reports capture freshness per modality plus an overall
// verdict. A degraded modality never takes the process down; it only shows
// up here.
type HealthStatus struct {
	Status             string     `json:"status"`
	FrameStatus        string     `json:"frame_status"`
	AudioStatus        string     `json:"audio_status"`
	LastFrameTimestamp *time.Time `json:"last_frame_timestamp"`
	LastAudioTimestamp *time.Time `json:"last_audio_timestamp"`
	Message            string     `json:"message"`
}

// HealthService derives capture health from the freshness of the newest
// frame and audio rows.
type HealthService struct {
	frames        FrameFreshness
	audio         AudioFreshness
	cfg           *config.RetrievalConfig
	visionEnabled bool
	audioEnabled  bool
	logger        *zap.Logger
	startedAt     time.Time
	now           func() time.Time
}

func NewHealthService(
	frames FrameFreshness,
	audio AudioFreshness,
	cfg *config.RetrievalConfig,
	visionEnabled, audioEnabled bool,
	logger *zap.Logger,
) *HealthService {
	return &HealthService{
		frames:        frames,
		audio:         audio,
		cfg:           cfg,
		visionEnabled: visionEnabled,
		audioEnabled:  audioEnabled,
		logger:        logger,
		startedAt:     time.Now(),
		now:           time.Now,
	}
}

// Check computes current health. Archive read errors degrade the report
// rather than failing it; health must stay answerable while the database
// is struggling.
func (h *HealthService) Check(ctx context.Context) HealthStatus {
	var status HealthStatus

	lastFrame := h.latest(ctx, h.frames.LatestFrameTimestamp, "frame")
	lastAudio := h.latest(ctx, h.audio.LatestAudioTimestamp, "audio")
	if lastFrame != nil {
		status.LastFrameTimestamp = lastFrame
	}
	if lastAudio != nil {
		status.LastAudioTimestamp = lastAudio
	}

	status.FrameStatus = h.modalityStatus(lastFrame, h.visionEnabled)
	status.AudioStatus = h.modalityStatus(lastAudio, h.audioEnabled)

	healthy := func(s string) bool { return s == StatusOK || s == StatusDisabled }
	switch {
	case healthy(status.FrameStatus) && healthy(status.AudioStatus):
		status.Status = "healthy"
		status.Message = "all systems are functioning normally"
	case status.FrameStatus == StatusLoading || status.AudioStatus == StatusLoading:
		status.Status = "loading"
		status.Message = "the application is still starting up"
	default:
		status.Status = "unhealthy"
		status.Message = "some systems are not functioning properly"
	}
	return status
}

func (h *HealthService) latest(ctx context.Context, fetch func(context.Context) (time.Time, error), modality string) *time.Time {
	ts, err := fetch(ctx)
	if err != nil {
		h.logger.Warn("failed to read latest capture timestamp",
			zap.String("modality", modality), zap.Error(err))
		return nil
	}
	if ts.IsZero() {
		return nil
	}
	return &ts
}

func (h *HealthService) modalityStatus(last *time.Time, enabled bool) string {
	if !enabled {
		return StatusDisabled
	}
	now := h.now()
	if last == nil {
		if now.Sub(h.startedAt) < h.cfg.StartupGrace {
			return StatusLoading
		}
		return StatusNoData
	}
	if now.Sub(*last) > h.cfg.FreshnessThreshold {
		return StatusStale
	}
	return StatusOK
}
