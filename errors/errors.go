package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// AppError is the custom error type for the application.
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped error to errors.Is/As.
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var ae AppError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// General errors

func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

// Capture errors

func ErrDeviceUnavailable(device string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DEVICE_UNAVAILABLE,
		Message:  "Audio device unavailable",
	}.WithDetail("device", device)
}

func ErrDeviceRead(device string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DEVICE_READ_FAILED,
		Message:  "Device read failed",
	}.WithDetail("device", device)
}

func ErrMonitorUnavailable(monitorID string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_MONITOR_UNAVAILABLE,
		Message:  "Monitor unavailable",
	}.WithDetail("monitor_id", monitorID)
}

func ErrEngine(engine string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_ENGINE_FAILED,
		Message:  fmt.Sprintf("%s engine failed", engine),
	}
}

func ErrTranscription(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_TRANSCRIPTION_FAILED,
		Message:  "Transcription failed",
	}
}

// ErrPersistence marks a failure after which local data integrity can no
// longer be guaranteed. The orchestrator restarts the whole capture cycle
// when it sees this code.
func ErrPersistence(stream string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_PERSISTENCE_FAILED,
		Message:  "Persistence failed",
	}.WithDetail("stream", stream)
}

func ErrConfiguration(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_CONFIGURATION,
		Message:  message,
	}
}

// Query errors

func ErrInvalidQuery(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_QUERY,
		Message:  message,
	}
}

func ErrSearchFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_SEARCH_FAILED,
		Message:  "Failed to search for content",
	}
}

func ErrFrameDecode(filePath string, offset int64, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_FRAME_DECODE,
		Message:  "Failed to decode frame",
	}.WithDetail("file_path", filePath).
		WithDetail("offset_index", fmt.Sprintf("%d", offset))
}

func ErrTagging(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_TAGGING_FAILED,
		Message:  "Failed to update tags",
	}
}
