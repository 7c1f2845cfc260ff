package translator

import (
	"errors"
	"fmt"
)

type ErrorType int

const (
	// ErrValidation covers bad or empty input; recoverable at the
	// request boundary.
	ErrValidation ErrorType = iota
	// ErrParse covers malformed subtitle input; fatal for that file only.
	ErrParse
	// ErrService covers external translation failures after retries are
	// exhausted; fatal for that file only.
	ErrService
	// ErrWrite covers output persistence failures; surfaced, not retried.
	ErrWrite
	// ErrCache covers cache storage trouble; treated as a forced miss,
	// never fatal to a job.
	ErrCache
	ErrUnknown
)

func (t ErrorType) String() string {
	switch t {
	case ErrValidation:
		return "Validation"
	case ErrParse:
		return "Parse"
	case ErrService:
		return "Service"
	case ErrWrite:
		return "Write"
	case ErrCache:
		return "Cache"
	default:
		return "Unknown"
	}
}

// TransError carries the failure taxonomy the orchestrator converts into
// per-file results.
type TransError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func NewError(errorType ErrorType, message string) *TransError {
	return &TransError{
		Type:    errorType,
		Message: message,
	}
}

func WrapError(err error, errorType ErrorType, message string) *TransError {
	return &TransError{
		Type:    errorType,
		Message: message,
		Cause:   err,
	}
}

func (e *TransError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *TransError) Unwrap() error {
	return e.Cause
}

// IsErrorType reports whether err is a TransError of the given type.
func IsErrorType(err error, errorType ErrorType) bool {
	var transErr *TransError
	if errors.As(err, &transErr) {
		return transErr.Type == errorType
	}
	return false
}

// UserMessage extracts a human-readable reason from err for result rows.
func UserMessage(err error) string {
	var transErr *TransError
	if errors.As(err, &transErr) {
		if transErr.Cause != nil {
			return fmt.Sprintf("%s: %v", transErr.Message, transErr.Cause)
		}
		return transErr.Message
	}
	return err.Error()
}
