package models

// Stable machine-readable validation codes surfaced to HTTP callers.
const (
	CodeUserIDRequired     = "USER_ID_REQUIRED"
	CodeContentIDRequired  = "CONTENT_ID_REQUIRED"
	CodeTitleRequired      = "TITLE_REQUIRED"
	CodeInvalidContentType = "INVALID_CONTENT_TYPE"
	CodeInvalidProgress    = "INVALID_PROGRESS"
	CodeInvalidDuration    = "INVALID_DURATION"
	CodeProgressExceeds    = "PROGRESS_EXCEEDS_DURATION"
	CodeInvalidIntroWindow = "INVALID_INTRO_WINDOW"
	CodeInvalidOutroWindow = "INVALID_OUTRO_WINDOW"
	CodeNegativeBound      = "NEGATIVE_WINDOW_BOUND"
	CodeProgressNotFound   = "PROGRESS_NOT_FOUND"
	CodeTimestampsNotFound = "TIMESTAMPS_NOT_FOUND"
)

// ValidationError reports a rejected write with a stable reason code. It is
// never retried automatically; the caller decides what to do with it.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a coded validation failure.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}
