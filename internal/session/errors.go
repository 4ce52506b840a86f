package session

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/tremor-analyzer/pkg/source/common"
)

var (
	// ErrBusy means a manual sample arrived while the window was being
	// analysed or replaced
	ErrBusy = errors.New("session transition in progress")

	// ErrNoSession means there is no active or previous session to inject into
	ErrNoSession = errors.New("no session")

	// ErrNoSource means Start was called on a controller without a source
	ErrNoSource = errors.New("no sample source configured")
)

// StartErrorKind classifies why Start was refused
type StartErrorKind int

const (
	StartErrorOther StartErrorKind = iota
	StartErrorPermissionDenied
	StartErrorCapabilityUnavailable
)

func (k StartErrorKind) String() string {
	switch k {
	case StartErrorPermissionDenied:
		return "permission_denied"
	case StartErrorCapabilityUnavailable:
		return "capability_unavailable"
	default:
		return "other"
	}
}

// StartError is returned by Start when the sample source refuses the
// session. The controller is Idle whenever a StartError is returned.
type StartError struct {
	Kind StartErrorKind
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start session: %s: %v", e.Kind, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

func newStartError(err error) *StartError {
	kind := StartErrorOther
	switch {
	case errors.Is(err, common.ErrPermissionDenied):
		kind = StartErrorPermissionDenied
	case errors.Is(err, common.ErrCapabilityUnavailable):
		kind = StartErrorCapabilityUnavailable
	}
	return &StartError{Kind: kind, Err: err}
}
