package report

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/tremor-analyzer/pkg/analysis"
	"github.com/RyanBlaney/tremor-analyzer/pkg/logging"
	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
)

// Stats represents statistical measures of a series
type Stats struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	P95    float64 `json:"p95" yaml:"p95"`
	P99    float64 `json:"p99" yaml:"p99"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Count  int     `json:"count" yaml:"count"`
}

// Timing describes how regularly the window was sampled
type Timing struct {
	IntervalMs      *Stats  `json:"interval_ms" yaml:"interval_ms"`
	EffectiveRateHz float64 `json:"effective_rate_hz" yaml:"effective_rate_hz"`
	LongestGapMs    int64   `json:"longest_gap_ms" yaml:"longest_gap_ms"`
	// DuplicateStamps counts samples sharing the previous sample's time
	DuplicateStamps int `json:"duplicate_stamps" yaml:"duplicate_stamps"`
}

// WindowReport is the detailed view of one analysed window
type WindowReport struct {
	SessionID string           `json:"session_id" yaml:"session_id"`
	Result    *analysis.Result `json:"result" yaml:"result"`
	Magnitude *Stats           `json:"magnitude" yaml:"magnitude"`
	Timing    *Timing          `json:"timing" yaml:"timing"`
	Bands     []analysis.Band  `json:"bands" yaml:"bands"`
}

// Calculator builds window reports
type Calculator struct {
	logger logging.Logger
}

// NewCalculator creates a new report calculator
func NewCalculator(logger logging.Logger) *Calculator {
	if logger == nil {
		logger = logging.WithFields(logging.Fields{
			"component": "window_report",
		})
	}

	return &Calculator{
		logger: logger,
	}
}

// Build summarises samples alongside the analysis result
func (rc *Calculator) Build(sessionID string, samples []motion.Sample, result *analysis.Result) *WindowReport {
	report := &WindowReport{
		SessionID: sessionID,
		Result:    result,
		Magnitude: rc.calculateStats(motion.Magnitudes(samples)),
		Timing:    rc.calculateTiming(samples),
		Bands:     analysis.Bands,
	}

	rc.logger.Debug("Window report built", logging.Fields{
		"session_id":   sessionID,
		"sample_count": len(samples),
		"rate_hz":      report.Timing.EffectiveRateHz,
	})

	return report
}

func (rc *Calculator) calculateTiming(samples []motion.Sample) *Timing {
	timing := &Timing{IntervalMs: &Stats{}}
	if len(samples) < 2 {
		return timing
	}

	intervals := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		gap := samples[i].TimeMs - samples[i-1].TimeMs
		if gap == 0 {
			timing.DuplicateStamps++
		}
		timing.LongestGapMs = max(timing.LongestGapMs, gap)
		intervals = append(intervals, float64(gap))
	}

	timing.IntervalMs = rc.calculateStats(intervals)
	if seconds := analysis.WindowSeconds(samples); seconds > 0 {
		timing.EffectiveRateHz = analysis.Round(float64(len(samples)-1)/seconds, 2)
	}

	return timing
}

// calculateStats computes the summary of a series. Percentiles use the
// empirical quantile of the sorted data.
func (rc *Calculator) calculateStats(data []float64) *Stats {
	if len(data) == 0 {
		return &Stats{Count: 0}
	}

	sorted := slices.Clone(data)
	slices.Sort(sorted)

	mean, stdDev := stat.PopMeanStdDev(data, nil)
	stats := &Stats{
		Count:  len(data),
		Mean:   mean,
		StdDev: stdDev,
		Min:    floats.Min(sorted),
		Max:    floats.Max(sorted),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}

	// Clean up any infinite or NaN values for JSON serialization
	return rc.sanitizeStats(stats)
}

// sanitizeStats replaces infinite and NaN values with zero
func (rc *Calculator) sanitizeStats(stats *Stats) *Stats {
	for _, v := range []*float64{
		&stats.Mean, &stats.Median, &stats.P95, &stats.P99,
		&stats.Min, &stats.Max, &stats.StdDev,
	} {
		if math.IsInf(*v, 0) || math.IsNaN(*v) {
			*v = 0
		}
	}
	return stats
}
