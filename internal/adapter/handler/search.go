package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/retrace-app/retrace/internal/adapter/dto/common"
	searchdto "github.com/retrace-app/retrace/internal/adapter/dto/search"
	"github.com/retrace-app/retrace/internal/domain/entities"
	"github.com/retrace-app/retrace/internal/usecase/retrieval"
)

// SearchService answers search requests.
type SearchService interface {
	Search(ctx context.Context, req retrieval.SearchRequest) ([]entities.SearchResult, int64, error)
}

// Search handles GET /search.
type Search struct {
	service SearchService
	logger  *zap.Logger
}

func NewSearchHandler(service SearchService, logger *zap.Logger) *Search {
	return &Search{service: service, logger: logger}
}

func (h *Search) Search(c echo.Context) error {
	var req searchdto.Request
	if err := BindAndValidate(c, &req); err != nil {
		return HandleError(c, h.logger, err)
	}
	start, end := req.ParseTimeRange()

	results, total, err := h.service.Search(c.Request().Context(), retrieval.SearchRequest{
		Query:         req.Query,
		ContentType:   req.ContentType,
		Limit:         req.Limit,
		Offset:        req.Offset,
		StartTime:     start,
		EndTime:       end,
		AppName:       req.AppName,
		WindowName:    req.WindowName,
		IncludeFrames: req.IncludeFrames,
	})
	if err != nil {
		return HandleError(c, h.logger, err)
	}

	items := make([]searchdto.ContentItem, 0, len(results))
	for _, r := range results {
		items = append(items, searchdto.FromResult(r))
	}
	limit := req.Limit
	if limit <= 0 {
		limit = retrieval.DefaultSearchLimit
	}
	return c.JSON(http.StatusOK, common.ListResponse{
		Data: items,
		Pagination: common.PaginationResponse{
			Limit:  limit,
			Offset: req.Offset,
			Total:  total,
		},
	})
}
