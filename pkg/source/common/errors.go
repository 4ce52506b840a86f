package common

import "errors"

var (
	// ErrPermissionDenied means the platform or user refused sensor access
	ErrPermissionDenied = errors.New("permission denied")

	// ErrCapabilityUnavailable means the source does not exist at all
	ErrCapabilityUnavailable = errors.New("capability unavailable")
)

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// SourceError represents sample-source errors
type SourceError struct {
	Type    SourceType `json:"type"`
	Locator string     `json:"locator"`
	Code    string     `json:"code"`
	Message string     `json:"message"`
	Cause   error      `json:"-"`
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match the sentinel for the error code
func (e *SourceError) Is(target error) bool {
	switch e.Code {
	case ErrCodePermissionDenied:
		return target == ErrPermissionDenied
	case ErrCodeCapabilityUnavailable:
		return target == ErrCapabilityUnavailable
	}
	return false
}

// Common error codes
const (
	ErrCodePermissionDenied      = "PERMISSION_DENIED"
	ErrCodeCapabilityUnavailable = "CAPABILITY_UNAVAILABLE"
	ErrCodeInvalidFormat         = "INVALID_FORMAT"
	ErrCodeUnsupported           = "UNSUPPORTED_SOURCE"
)

// NewSourceError creates a new source error
func NewSourceError(sourceType SourceType, locator, code, message string, cause error) *SourceError {
	return &SourceError{
		Type:    sourceType,
		Locator: locator,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
