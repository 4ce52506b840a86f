package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
)

// AmplitudeEstimator computes the mean magnitude of a window
type AmplitudeEstimator struct {
	precision int
}

func NewAmplitudeEstimator(precision int) *AmplitudeEstimator {
	if precision < 0 {
		precision = 3
	}
	return &AmplitudeEstimator{precision: precision}
}

// Estimate returns the rounded arithmetic mean of magnitude. Any non-empty
// window is accepted.
func (ae *AmplitudeEstimator) Estimate(samples []motion.Sample) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrEmptyWindow
	}
	return Round(stat.Mean(motion.Magnitudes(samples), nil), ae.precision), nil
}
