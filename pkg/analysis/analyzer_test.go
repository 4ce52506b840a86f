package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/tremor-analyzer/pkg/logging"
	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
)

// magnitudeSeries builds samples with the given magnitudes at a fixed spacing
func magnitudeSeries(spacingMs int64, magnitudes ...float64) []motion.Sample {
	out := make([]motion.Sample, len(magnitudes))
	for i, m := range magnitudes {
		out[i] = motion.NewSample(m, 0, 0, int64(i)*spacingMs)
	}
	return out
}

func TestCountPeaks(t *testing.T) {
	tests := []struct {
		name       string
		magnitudes []float64
		want       int
	}{
		{"two interior peaks", []float64{1, 3, 2, 3, 1}, 2},
		{"plateau is not a peak", []float64{1, 3, 3, 1}, 0},
		{"edges never count", []float64{5, 1, 5}, 0},
		{"monotonic", []float64{1, 2, 3, 4, 5}, 0},
		{"single", []float64{1}, 0},
		{"empty", nil, 0},
		{"alternating", []float64{0, 1, 0, 1, 0, 1, 0}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountPeaks(magnitudeSeries(100, tt.magnitudes...)))
		})
	}
}

func TestCountPeaksIsOrderSensitive(t *testing.T) {
	forward := magnitudeSeries(100, 1, 3, 2, 3, 1)
	shuffled := magnitudeSeries(100, 3, 3, 2, 1, 1)
	assert.Equal(t, 2, CountPeaks(forward))
	assert.Equal(t, 0, CountPeaks(shuffled))
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		hz   float64
		want Classification
	}{
		{6.0, Parkinsonian},
		{6.01, Essential},
		{4.0, Parkinsonian},
		{12.0, Essential},
		{12.01, Normal},
		{3.99, Normal},
		{5.0, Parkinsonian},
		{9.0, Essential},
		{0, Normal},
	}

	for _, tt := range tests {
		if got := Classify(tt.hz); got != tt.want {
			t.Errorf("Classify(%v): want %v, got %v", tt.hz, tt.want, got)
		}
	}
}

func TestParseClassification(t *testing.T) {
	c, err := ParseClassification(" Essential ")
	require.NoError(t, err)
	assert.Equal(t, Essential, c)

	_, err = ParseClassification("tremendous")
	assert.Error(t, err)
}

func TestAmplitudeConstantMagnitude(t *testing.T) {
	samples := make([]motion.Sample, 300)
	for i := range samples {
		samples[i] = motion.NewSample(9.8, 0, 0, int64(i)*33)
	}

	amp, err := NewAmplitudeEstimator(3).Estimate(samples)
	require.NoError(t, err)
	assert.Equal(t, 9.8, amp)

	amp, err = NewAmplitudeEstimator(3).Estimate(samples[:1])
	require.NoError(t, err)
	assert.Equal(t, 9.8, amp)
}

func TestAmplitudeRoundsToThreeDecimals(t *testing.T) {
	amp, err := NewAmplitudeEstimator(3).Estimate(magnitudeSeries(10, 1, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, 1.667, amp)
}

func TestAmplitudeEmpty(t *testing.T) {
	_, err := NewAmplitudeEstimator(3).Estimate(nil)
	assert.ErrorIs(t, err, ErrEmptyWindow)
}

func TestFrequencyEstimate(t *testing.T) {
	// 1,3,1,3,... over 10 samples at 100ms: peaks at 1,3,5,7 -> 4 peaks over 0.9s
	samples := magnitudeSeries(100, 1, 3, 1, 3, 1, 3, 1, 3, 1, 1)

	est, err := NewFrequencyEstimator(DefaultMinSamples, 2).Estimate(samples)
	require.NoError(t, err)
	assert.Equal(t, 4, est.Peaks)
	assert.Equal(t, 0.9, est.WindowSeconds)
	assert.Equal(t, 4.44, est.Hz)
	assert.InDelta(t, 4.4444, est.Raw, 1e-4)
}

func TestFrequencyInsufficientData(t *testing.T) {
	_, err := NewFrequencyEstimator(DefaultMinSamples, 2).Estimate(magnitudeSeries(100, 1, 3, 1, 3, 1))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestFrequencyDegenerateWindow(t *testing.T) {
	samples := magnitudeSeries(0, 1, 3, 1, 3, 1, 3, 1, 3, 1, 3, 1)
	_, err := NewFrequencyEstimator(DefaultMinSamples, 2).Estimate(samples)
	assert.ErrorIs(t, err, ErrDegenerateWindow)
}

func TestNewFrequencyEstimatorFallsBack(t *testing.T) {
	assert.Equal(t, DefaultMinSamples, NewFrequencyEstimator(2, 2).MinSamples())
	assert.Equal(t, 20, NewFrequencyEstimator(20, 2).MinSamples())
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.01, Round(10.0/9.9, 2))
	assert.Equal(t, 0.13, Round(0.125, 2))
	assert.Equal(t, -2.0, Round(-1.5, 0))
	assert.Equal(t, 3.0, Round(2.5, 0))
}

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultConfig(), logging.NewNopLogger())
}

func TestAnalyzeInsufficient(t *testing.T) {
	result := newTestAnalyzer().Analyze(magnitudeSeries(100, 9.8, 10, 9.8, 10, 9.8))

	assert.Equal(t, Insufficient, result.Classification)
	assert.Equal(t, ReasonInsufficientData, result.Reason)
	assert.Nil(t, result.DominantFrequencyHz)
	assert.False(t, result.HasFrequency())
	assert.Equal(t, 5, result.SampleCount)
	require.NotNil(t, result.AverageAmplitude)
	assert.Equal(t, 9.88, *result.AverageAmplitude)
}

func TestAnalyzeDegenerate(t *testing.T) {
	magnitudes := make([]float64, 20)
	for i := range magnitudes {
		magnitudes[i] = float64(i % 3)
	}
	result := newTestAnalyzer().Analyze(magnitudeSeries(0, magnitudes...))

	assert.Equal(t, Insufficient, result.Classification)
	assert.Equal(t, ReasonDegenerateWindow, result.Reason)
	assert.Nil(t, result.DominantFrequencyHz)
}

func TestAnalyzeEmpty(t *testing.T) {
	result := newTestAnalyzer().Analyze(nil)
	assert.Equal(t, Insufficient, result.Classification)
	assert.Nil(t, result.AverageAmplitude)
	assert.Equal(t, 0, result.SampleCount)
}

// TestAnalyzeClassifiesUnrounded checks that a raw frequency just above 6 Hz
// is Essential even though it displays as 6.0.
func TestAnalyzeClassifiesUnrounded(t *testing.T) {
	// 601 peaks over 100.0s: raw 6.01 -> Essential
	// alternating 0,1 gives one peak per two samples
	n := 1204
	magnitudes := make([]float64, n)
	for i := range magnitudes {
		magnitudes[i] = float64(i % 2)
	}
	samples := magnitudeSeries(1, magnitudes...)
	// stretch the window so that duration is exactly 100s
	samples[n-1].TimeMs = 100000

	result := newTestAnalyzer().Analyze(samples)
	require.True(t, result.HasFrequency())
	assert.Equal(t, 601, result.PeakCount)
	assert.Equal(t, 6.01, *result.DominantFrequencyHz)
	assert.Equal(t, Essential, result.Classification)

	// 6004 peaks over 1000s: raw 6.004, rounds to 6.0 but still above the
	// Parkinsonian upper bound
	n = 12010
	magnitudes = make([]float64, n)
	for i := range magnitudes {
		magnitudes[i] = float64(i % 2)
	}
	samples = magnitudeSeries(1, magnitudes...)
	samples[n-1].TimeMs = 1000000

	result = newTestAnalyzer().Analyze(samples)
	require.True(t, result.HasFrequency())
	assert.Equal(t, 6004, result.PeakCount)
	assert.Equal(t, 6.0, *result.DominantFrequencyHz)
	assert.Equal(t, Essential, result.Classification)
}

func TestAnalyzeWrapsSentinels(t *testing.T) {
	_, err := NewFrequencyEstimator(10, 2).Estimate(nil)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}
