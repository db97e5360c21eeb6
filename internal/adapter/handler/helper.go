package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/retrace-app/retrace/errors"
	"github.com/retrace-app/retrace/internal/adapter/dto/common"
)

// HandleError maps an application error onto the wire. Unknown errors are
// logged and surfaced as a plain internal error.
func HandleError(c echo.Context, logger *zap.Logger, err error) error {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("request failed", zap.Error(err))
		}
		return c.JSON(appErr.HTTPCode, common.ErrorResponse{
			Error:   appErr.Code.String(),
			Message: appErr.Message,
			Details: appErr.Details,
		})
	}
	logger.Error("request failed", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, common.ErrorResponse{
		Error:   errors.ErrorCode_INTERNAL.String(),
		Message: "Internal server error",
	})
}

// BindAndValidate binds a request and runs struct validation on it.
func BindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.ErrInvalidArgument(err.Error())
	}
	if err := c.Validate(req); err != nil {
		return errors.ErrInvalidArgument(err.Error())
	}
	return nil
}
