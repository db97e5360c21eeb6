package errors

// ErrorCode identifies an error class across the API surface and logs.
type ErrorCode string

const (
	ErrorCode_INTERNAL         ErrorCode = "INTERNAL"
	ErrorCode_INVALID_ARGUMENT ErrorCode = "INVALID_ARGUMENT"
	ErrorCode_NOT_FOUND        ErrorCode = "NOT_FOUND"
	ErrorCode_ALREADY_EXISTS   ErrorCode = "ALREADY_EXISTS"

	// Capture-side taxonomy. Device and engine errors stay local to their
	// stream; persistence and configuration errors are process-visible.
	ErrorCode_DEVICE_UNAVAILABLE   ErrorCode = "DEVICE_UNAVAILABLE"
	ErrorCode_DEVICE_READ_FAILED   ErrorCode = "DEVICE_READ_FAILED"
	ErrorCode_ENGINE_FAILED        ErrorCode = "ENGINE_FAILED"
	ErrorCode_PERSISTENCE_FAILED   ErrorCode = "PERSISTENCE_FAILED"
	ErrorCode_CONFIGURATION        ErrorCode = "CONFIGURATION"
	ErrorCode_MONITOR_UNAVAILABLE  ErrorCode = "MONITOR_UNAVAILABLE"
	ErrorCode_TRANSCRIPTION_FAILED ErrorCode = "TRANSCRIPTION_FAILED"

	// Query-side taxonomy.
	ErrorCode_INVALID_QUERY  ErrorCode = "INVALID_QUERY"
	ErrorCode_SEARCH_FAILED  ErrorCode = "SEARCH_FAILED"
	ErrorCode_FRAME_DECODE   ErrorCode = "FRAME_DECODE"
	ErrorCode_TAGGING_FAILED ErrorCode = "TAGGING_FAILED"
)

func (c ErrorCode) String() string {
	return string(c)
}
