package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/retrace-app/retrace/errors"
	"github.com/retrace-app/retrace/internal/domain/entities"
)

// DeviceLister enumerates capturable devices.
type DeviceLister interface {
	ListAudioDevices(ctx context.Context) ([]entities.AudioDevice, error)
	ListMonitors(ctx context.Context) ([]entities.Monitor, error)
}

// Devices handles GET /audio/list and GET /vision/list.
type Devices struct {
	registry DeviceLister
	logger   *zap.Logger
}

func NewDevicesHandler(registry DeviceLister, logger *zap.Logger) *Devices {
	return &Devices{registry: registry, logger: logger}
}

func (h *Devices) ListAudioDevices(c echo.Context) error {
	devices, err := h.registry.ListAudioDevices(c.Request().Context())
	if err != nil {
		return HandleError(c, h.logger, apperrors.ErrDeviceUnavailable("enumeration", err))
	}
	if devices == nil {
		devices = []entities.AudioDevice{}
	}
	return c.JSON(http.StatusOK, devices)
}

func (h *Devices) ListMonitors(c echo.Context) error {
	monitors, err := h.registry.ListMonitors(c.Request().Context())
	if err != nil {
		return HandleError(c, h.logger, apperrors.ErrMonitorUnavailable("enumeration"))
	}
	if monitors == nil {
		monitors = []entities.Monitor{}
	}
	return c.JSON(http.StatusOK, monitors)
}
