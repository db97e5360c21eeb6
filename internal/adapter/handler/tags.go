package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/retrace-app/retrace/errors"
	tagsdto "github.com/retrace-app/retrace/internal/adapter/dto/tags"
	"github.com/retrace-app/retrace/internal/domain/entities"
	"github.com/retrace-app/retrace/internal/domain/repositories"
)

// Tags handles POST and DELETE /tags/:content_type/:id.
type Tags struct {
	store  repositories.TagStore
	logger *zap.Logger
}

func NewTagsHandler(store repositories.TagStore, logger *zap.Logger) *Tags {
	return &Tags{store: store, logger: logger}
}

func (h *Tags) AddTags(c echo.Context) error {
	contentType, id, req, err := h.bind(c)
	if err != nil {
		return HandleError(c, h.logger, err)
	}
	if err := h.store.AddTags(c.Request().Context(), contentType, id, req.Tags); err != nil {
		return HandleError(c, h.logger, apperrors.ErrTagging(err))
	}
	return c.JSON(http.StatusOK, tagsdto.Response{Success: true})
}

func (h *Tags) RemoveTags(c echo.Context) error {
	contentType, id, req, err := h.bind(c)
	if err != nil {
		return HandleError(c, h.logger, err)
	}
	if err := h.store.RemoveTags(c.Request().Context(), contentType, id, req.Tags); err != nil {
		return HandleError(c, h.logger, apperrors.ErrTagging(err))
	}
	return c.JSON(http.StatusOK, tagsdto.Response{Success: true})
}

func (h *Tags) bind(c echo.Context) (entities.TagContentType, int64, tagsdto.Request, error) {
	var req tagsdto.Request

	contentType := entities.TagContentType(c.Param("content_type"))
	switch contentType {
	case entities.TagContentTypeVision, entities.TagContentTypeAudio:
	default:
		return "", 0, req, apperrors.ErrInvalidArgument("content_type must be vision or audio")
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return "", 0, req, apperrors.ErrInvalidArgument("id must be a positive integer")
	}

	if err := BindAndValidate(c, &req); err != nil {
		return "", 0, req, err
	}
	return contentType, id, req, nil
}
