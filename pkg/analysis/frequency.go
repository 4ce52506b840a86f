package analysis

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
)

// DefaultMinSamples is the smallest window that yields a frequency
const DefaultMinSamples = 10

// FrequencyEstimate is the outcome of peak counting over a window
type FrequencyEstimate struct {
	Hz            float64 `json:"hz"`  // rounded for display
	Raw           float64 `json:"raw"` // unrounded, used for classification
	Peaks         int     `json:"peaks"`
	WindowSeconds float64 `json:"window_seconds"`
}

// FrequencyEstimator estimates the dominant oscillation frequency by counting
// strict interior local maxima of magnitude and dividing by window duration
type FrequencyEstimator struct {
	minSamples int
	precision  int
}

// NewFrequencyEstimator creates an estimator. minSamples below 3 falls back to
// DefaultMinSamples since a peak needs two neighbours.
func NewFrequencyEstimator(minSamples, precision int) *FrequencyEstimator {
	if minSamples < 3 {
		minSamples = DefaultMinSamples
	}
	if precision < 0 {
		precision = 2
	}
	return &FrequencyEstimator{minSamples: minSamples, precision: precision}
}

// MinSamples returns the gate below which Estimate reports insufficient data
func (fe *FrequencyEstimator) MinSamples() int {
	return fe.minSamples
}

// Estimate counts peaks and converts them to Hz.
// Returns ErrInsufficientData for short windows and ErrDegenerateWindow when
// the window spans no time.
func (fe *FrequencyEstimator) Estimate(samples []motion.Sample) (*FrequencyEstimate, error) {
	n := len(samples)
	if n < fe.minSamples {
		return nil, fmt.Errorf("%w: %d samples, need %d", ErrInsufficientData, n, fe.minSamples)
	}

	seconds := WindowSeconds(samples)
	if seconds <= 0 {
		return nil, fmt.Errorf("%w: %d samples at t=%dms", ErrDegenerateWindow, n, samples[0].TimeMs)
	}

	peaks := CountPeaks(samples)
	raw := float64(peaks) / seconds

	return &FrequencyEstimate{
		Hz:            Round(raw, fe.precision),
		Raw:           raw,
		Peaks:         peaks,
		WindowSeconds: seconds,
	}, nil
}

// CountPeaks counts samples whose magnitude strictly exceeds both neighbours.
// The first and last samples are never peaks and plateaus never count.
func CountPeaks(samples []motion.Sample) int {
	peaks := 0
	for i := 1; i < len(samples)-1; i++ {
		m := samples[i].Magnitude
		if m > samples[i-1].Magnitude && m > samples[i+1].Magnitude {
			peaks++
		}
	}
	return peaks
}

// WindowSeconds is the elapsed time between the first and last sample
func WindowSeconds(samples []motion.Sample) float64 {
	if len(samples) < 2 {
		return 0
	}
	return float64(samples[len(samples)-1].TimeMs-samples[0].TimeMs) / 1000
}

// Round rounds half away from zero to the given number of decimals
func Round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
