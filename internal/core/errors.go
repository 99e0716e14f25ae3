package core

// Error codes for domain errors.
const (
	// ErrCodeBadRequest marks a validation failure in a client event.
	ErrCodeBadRequest = "bad_request"
	// ErrCodeStorage marks a persistence or history-load failure. It is
	// surfaced distinctly from validation errors so clients can tell a
	// rejected event from a store outage.
	ErrCodeStorage = "storage_error"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
