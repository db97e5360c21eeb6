package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/retrace-app/retrace/internal/adapter/dto/common"
	"github.com/retrace-app/retrace/internal/domain/entities"
)

// CaptureController flips the shared control state the capture loops poll.
type CaptureController interface {
	SetVisionState(s entities.DeviceState)
	SetAudioState(s entities.DeviceState)
}

// Control handles POST /vision/pause|resume and /audio/pause|resume.
type Control struct {
	controller CaptureController
	logger     *zap.Logger
}

func NewControlHandler(controller CaptureController, logger *zap.Logger) *Control {
	return &Control{controller: controller, logger: logger}
}

func (h *Control) PauseVision(c echo.Context) error {
	h.controller.SetVisionState(entities.DeviceStatePaused)
	return stateResponse(c, entities.DeviceStatePaused)
}

func (h *Control) ResumeVision(c echo.Context) error {
	h.controller.SetVisionState(entities.DeviceStateRunning)
	return stateResponse(c, entities.DeviceStateRunning)
}

func (h *Control) PauseAudio(c echo.Context) error {
	h.controller.SetAudioState(entities.DeviceStatePaused)
	return stateResponse(c, entities.DeviceStatePaused)
}

func (h *Control) ResumeAudio(c echo.Context) error {
	h.controller.SetAudioState(entities.DeviceStateRunning)
	return stateResponse(c, entities.DeviceStateRunning)
}

func stateResponse(c echo.Context, s entities.DeviceState) error {
	return c.JSON(http.StatusOK, common.StateResponse{Success: true, State: s.String()})
}
