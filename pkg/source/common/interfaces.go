package common

import (
	"context"
	"time"

	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
)

// SourceType identifies a kind of sample source
type SourceType string

const (
	SourceTypeSynthetic   SourceType = "synthetic"
	SourceTypeReplay      SourceType = "replay"
	SourceTypeUnsupported SourceType = "unsupported"
)

// Capability is the result of probing a source once before a session starts
type Capability struct {
	Type          SourceType `json:"type"`
	Locator       string     `json:"locator"`
	Description   string     `json:"description,omitempty"`
	NominalRateHz float64    `json:"nominal_rate_hz,omitempty"`

	// Origin is the session start time, set by the caller before Open.
	// Sources that carry their own timestamps anchor them here.
	Origin time.Time `json:"-"`
}

// Sink receives readings from an open source. Implementations must return
// quickly; sources call it from their own goroutine.
type Sink func(motion.Reading)

// Subscription is the handle to an open source. Close stops delivery and
// is safe to call more than once.
type Subscription interface {
	Close() error
	// Done is closed once the source will deliver no more readings
	Done() <-chan struct{}
}

// Source produces timestamped triaxial readings for a session
type Source interface {
	Type() SourceType

	// Probe checks that the source exists without starting delivery.
	// Returns an error matching ErrCapabilityUnavailable when it does not.
	Probe(ctx context.Context) (*Capability, error)

	// Open starts delivering readings to sink. Returns an error matching
	// ErrPermissionDenied when access is refused.
	Open(ctx context.Context, capability *Capability, sink Sink) (Subscription, error)
}

// SourceDetector maps a locator string to a source type
type SourceDetector interface {
	DetectType(ctx context.Context, locator string) (SourceType, error)
}
