package session

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RyanBlaney/tremor-analyzer/pkg/analysis"
)

// Metrics records session activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry          *prometheus.Registry
	sessionsStarted   prometheus.Counter
	startFailures     *prometheus.CounterVec
	sessionsCompleted *prometheus.CounterVec
	samplesIngested   prometheus.Counter
	samplesDropped    *prometheus.CounterVec
	classifications   *prometheus.CounterVec
	analysisDuration  prometheus.Histogram
	bufferLength      prometheus.Gauge
}

// NewMetrics creates the session metrics on their own registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tremor_sessions_started_total",
			Help: "Total recording sessions that entered the recording state.",
		}),
		startFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tremor_session_start_failures_total",
			Help: "Total session starts refused by the sample source, by kind.",
		}, []string{"kind"}),
		sessionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tremor_sessions_completed_total",
			Help: "Total sessions that produced an analysis, by stop reason.",
		}, []string{"reason"}),
		samplesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tremor_samples_ingested_total",
			Help: "Total samples accepted into a session buffer.",
		}),
		samplesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tremor_samples_dropped_total",
			Help: "Total readings dropped before reaching the buffer, by reason.",
		}, []string{"reason"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tremor_classifications_total",
			Help: "Total analysis results by classification.",
		}, []string{"classification"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tremor_analysis_duration_seconds",
			Help:    "Histogram of window analysis durations.",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
		bufferLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tremor_buffer_samples",
			Help: "Samples currently held in the session window.",
		}),
	}

	m.registry.MustRegister(
		m.sessionsStarted,
		m.startFailures,
		m.sessionsCompleted,
		m.samplesIngested,
		m.samplesDropped,
		m.classifications,
		m.analysisDuration,
		m.bufferLength,
	)

	return m
}

// Registry exposes the underlying registry for tests and embedding
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) StartFailed(kind StartErrorKind) {
	if m == nil {
		return
	}
	m.startFailures.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) SampleIngested(bufferLen int) {
	if m == nil {
		return
	}
	m.samplesIngested.Inc()
	m.bufferLength.Set(float64(bufferLen))
}

func (m *Metrics) SampleDropped(reason string) {
	if m == nil {
		return
	}
	m.samplesDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) BufferReset(bufferLen int) {
	if m == nil {
		return
	}
	m.bufferLength.Set(float64(bufferLen))
}

func (m *Metrics) Analyzed(reason StopReason, result *analysis.Result, took time.Duration) {
	if m == nil || result == nil {
		return
	}
	m.sessionsCompleted.WithLabelValues(string(reason)).Inc()
	m.classifications.WithLabelValues(result.Classification.String()).Inc()
	m.analysisDuration.Observe(took.Seconds())
}
