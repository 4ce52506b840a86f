package analysis

import "errors"

var (
	// ErrInsufficientData means the window holds fewer than the minimum samples
	ErrInsufficientData = errors.New("insufficient data")

	// ErrDegenerateWindow means every sample shares the same timestamp
	ErrDegenerateWindow = errors.New("degenerate window: zero duration")

	// ErrEmptyWindow means there are no samples at all
	ErrEmptyWindow = errors.New("empty window")
)
