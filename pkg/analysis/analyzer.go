package analysis

import (
	"errors"
	"time"

	"github.com/RyanBlaney/tremor-analyzer/pkg/logging"
	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
)

// Reasons attached to an Insufficient result
const (
	ReasonInsufficientData = "insufficient_data"
	ReasonDegenerateWindow = "degenerate_window"
)

// Result is the outcome of analysing one session window. DominantFrequencyHz
// is nil whenever Classification is Insufficient.
type Result struct {
	DominantFrequencyHz *float64       `json:"dominant_frequency_hz" yaml:"dominant_frequency_hz"`
	AverageAmplitude    *float64       `json:"average_amplitude" yaml:"average_amplitude"`
	SampleCount         int            `json:"sample_count" yaml:"sample_count"`
	PeakCount           int            `json:"peak_count" yaml:"peak_count"`
	WindowSeconds       float64        `json:"window_seconds" yaml:"window_seconds"`
	Classification      Classification `json:"classification" yaml:"classification"`
	Reason              string         `json:"reason,omitempty" yaml:"reason,omitempty"`
	AnalyzedAt          time.Time      `json:"analyzed_at" yaml:"analyzed_at"`
}

// HasFrequency reports whether a numeric frequency may be displayed
func (r *Result) HasFrequency() bool {
	return r != nil && r.DominantFrequencyHz != nil
}

// Config controls estimator gates and rounding
type Config struct {
	MinSamples         int `json:"min_samples" yaml:"min_samples"`
	FrequencyPrecision int `json:"frequency_precision" yaml:"frequency_precision"`
	AmplitudePrecision int `json:"amplitude_precision" yaml:"amplitude_precision"`
}

// DefaultConfig returns the gates and rounding used by the tremor workflow
func DefaultConfig() Config {
	return Config{
		MinSamples:         DefaultMinSamples,
		FrequencyPrecision: 2,
		AmplitudePrecision: 3,
	}
}

// Analyzer runs the frequency and amplitude estimators over a window and
// classifies the unrounded frequency
type Analyzer struct {
	frequency *FrequencyEstimator
	amplitude *AmplitudeEstimator
	logger    logging.Logger
	now       func() time.Time
}

// NewAnalyzer creates an analyzer. A nil logger uses the package default.
func NewAnalyzer(cfg Config, logger logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.WithFields(logging.Fields{
			"component": "tremor_analyzer",
		})
	}

	return &Analyzer{
		frequency: NewFrequencyEstimator(cfg.MinSamples, cfg.FrequencyPrecision),
		amplitude: NewAmplitudeEstimator(cfg.AmplitudePrecision),
		logger:    logger,
		now:       time.Now,
	}
}

// Analyze never fails: short and zero-duration windows produce an
// Insufficient result with a Reason instead of an error.
func (a *Analyzer) Analyze(samples []motion.Sample) *Result {
	result := &Result{
		SampleCount:   len(samples),
		WindowSeconds: WindowSeconds(samples),
		AnalyzedAt:    a.now(),
	}

	if amp, err := a.amplitude.Estimate(samples); err == nil {
		result.AverageAmplitude = &amp
	}

	estimate, err := a.frequency.Estimate(samples)
	if err != nil {
		result.Classification = Insufficient
		switch {
		case errors.Is(err, ErrDegenerateWindow):
			result.Reason = ReasonDegenerateWindow
		default:
			result.Reason = ReasonInsufficientData
		}

		a.logger.Debug("Window not analyzable", logging.Fields{
			"sample_count": len(samples),
			"reason":       result.Reason,
			"error":        err.Error(),
		})
		return result
	}

	hz := estimate.Hz
	result.DominantFrequencyHz = &hz
	result.PeakCount = estimate.Peaks
	result.Classification = Classify(estimate.Raw)

	a.logger.Debug("Window analyzed", logging.Fields{
		"sample_count":   result.SampleCount,
		"peaks":          estimate.Peaks,
		"window_seconds": estimate.WindowSeconds,
		"frequency_hz":   hz,
		"classification": result.Classification,
	})

	return result
}
