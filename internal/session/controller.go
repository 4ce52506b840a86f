package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/tremor-analyzer/pkg/analysis"
	"github.com/RyanBlaney/tremor-analyzer/pkg/logging"
	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/common"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/synthetic"
)

// Config holds the session parameters
type Config struct {
	// Duration is the auto-stop deadline measured from Start
	Duration time.Duration `json:"duration" yaml:"duration"`
	// Capacity is the sliding window size
	Capacity int             `json:"capacity" yaml:"capacity"`
	Analysis analysis.Config `json:"analysis" yaml:"analysis"`
	// TestData shapes GenerateTestData. Count and TargetHz are overridden by
	// the call arguments.
	TestData synthetic.Config `json:"test_data" yaml:"test_data"`
}

// DefaultConfig returns a 10s session over a 300 sample window
func DefaultConfig() Config {
	return Config{
		Duration: 10 * time.Second,
		Capacity: motion.DefaultCapacity,
		Analysis: analysis.DefaultConfig(),
		TestData: synthetic.DefaultConfig(),
	}
}

// window is the buffer of one session
type window struct {
	id     string
	t0     time.Time
	lastMs int64
	buffer *motion.Buffer
	done   chan struct{} // closed when the session leaves Recording
}

func newWindow(t0 time.Time, capacity int) *window {
	return &window{
		id:     uuid.NewString(),
		t0:     t0,
		buffer: motion.NewBuffer(capacity),
		done:   make(chan struct{}),
	}
}

// Controller runs one tremor session at a time: it owns the sample window,
// the auto-stop timer and the source subscription, and produces one
// analysis.Result per completed session.
//
// Control operations (Start, Stop, auto-stop, GenerateTestData) are
// serialised by ctrlMu. Window, state and result are guarded by mu, which is
// the only lock taken on the ingest path.
type Controller struct {
	config   Config
	source   common.Source
	analyzer *analysis.Analyzer
	clock    Clock
	metrics  *Metrics
	noise    synthetic.NoiseFunc
	logger   logging.Logger
	events   hub

	ctrlMu sync.Mutex
	sub    common.Subscription
	timer  Timer

	mu         sync.Mutex
	state      State
	accepting  bool
	generation uint64
	win        *window
	result     *analysis.Result
}

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces the wall clock, mainly for tests
func WithClock(clock Clock) Option {
	return func(c *Controller) { c.clock = clock }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func WithLogger(logger logging.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithTestDataNoise fixes the noise used by GenerateTestData
func WithTestDataNoise(noise synthetic.NoiseFunc) Option {
	return func(c *Controller) { c.noise = noise }
}

// NewController creates a controller reading from src. src may be nil when
// only GenerateTestData is used.
func NewController(src common.Source, cfg Config, opts ...Option) *Controller {
	def := DefaultConfig()
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.Analysis == (analysis.Config{}) {
		cfg.Analysis = def.Analysis
	}

	c := &Controller{
		config: cfg,
		source: src,
		clock:  RealClock(),
		logger: logging.WithFields(logging.Fields{
			"component": "session_controller",
		}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.analyzer = analysis.NewAnalyzer(cfg.Analysis, c.logger)
	return c
}

// Start begins a recording session. An active recording is torn down first
// without analysis. Probe and Open failures are returned as *StartError and
// leave the controller Idle.
func (c *Controller) Start(ctx context.Context) error {
	c.ctrlMu.Lock()
	defer c.ctrlMu.Unlock()

	c.teardownLocked()

	if c.source == nil {
		return c.startFailed(newStartError(ErrNoSource))
	}

	capability, err := c.source.Probe(ctx)
	if err != nil {
		return c.startFailed(newStartError(err))
	}
	if capability == nil {
		capability = &common.Capability{Type: c.source.Type()}
	}

	t0 := c.clock.Now()
	capability.Origin = t0
	win := newWindow(t0, c.config.Capacity)

	// Readings delivered while Open is still returning must not be lost
	c.mu.Lock()
	c.generation++
	gen := c.generation
	prev := c.win
	c.win = win
	c.accepting = true
	c.metrics.BufferReset(0)
	c.mu.Unlock()

	sub, err := c.source.Open(context.WithoutCancel(ctx), capability, c.Ingest)
	if err != nil {
		c.mu.Lock()
		c.accepting = false
		c.win = prev
		if prev != nil {
			c.metrics.BufferReset(prev.buffer.Len())
		}
		c.mu.Unlock()
		return c.startFailed(newStartError(err))
	}

	c.mu.Lock()
	c.state = StateRecording
	c.result = nil
	c.mu.Unlock()

	c.sub = sub
	c.timer = c.clock.AfterFunc(c.config.Duration, func() {
		c.finish(gen, StopTimeout)
	})
	go c.watchSource(gen, sub)

	c.metrics.SessionStarted()
	c.logger.Info("Session started", logging.Fields{
		"session_id":  win.id,
		"source":      capability.Type,
		"locator":     capability.Locator,
		"duration_ms": c.config.Duration.Milliseconds(),
		"capacity":    c.config.Capacity,
	})
	c.publishState(win.id, StateRecording)

	return nil
}

func (c *Controller) startFailed(err *StartError) error {
	c.metrics.StartFailed(err.Kind)
	c.logger.Error(err.Err, "Session start refused", logging.Fields{
		"kind": err.Kind.String(),
	})
	return err
}

// watchSource ends the session when the source runs dry
func (c *Controller) watchSource(gen uint64, sub common.Subscription) {
	<-sub.Done()
	c.finish(gen, StopSourceEnded)
}

// Ingest is the source sink. It never blocks on control operations and
// silently drops readings outside a recording or with a missing axis.
func (c *Controller) Ingest(r motion.Reading) {
	c.mu.Lock()
	if !c.accepting || c.win == nil {
		c.mu.Unlock()
		c.metrics.SampleDropped("not_recording")
		return
	}

	s, ok := r.Sample(c.win.t0)
	if !ok {
		c.mu.Unlock()
		c.metrics.SampleDropped("invalid")
		return
	}
	s, id, state := c.pushLocked(s)
	c.mu.Unlock()

	c.events.publish(Event{Type: EventSample, SessionID: id, State: state, Sample: &s})
}

// pushLocked keeps time_ms non-decreasing within the window. The buffer
// gauge is set under mu so concurrent producers cannot leave it stale.
func (c *Controller) pushLocked(s motion.Sample) (motion.Sample, string, State) {
	if s.TimeMs < c.win.lastMs {
		s.TimeMs = c.win.lastMs
	}
	c.win.lastMs = s.TimeMs
	c.win.buffer.Push(s)
	c.metrics.SampleIngested(c.win.buffer.Len())
	return s, c.win.id, c.state
}

// Stop ends the recording and analyses the window. Calling it when not
// recording does nothing, so a second Stop leaves the first result in place.
func (c *Controller) Stop() {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	c.finish(gen, StopManual)
}

// finish is the single stop path shared by Stop, the auto-stop timer and the
// source watcher. It is a no-op unless session gen is still recording.
func (c *Controller) finish(gen uint64, reason StopReason) {
	c.ctrlMu.Lock()
	defer c.ctrlMu.Unlock()

	c.mu.Lock()
	if c.state != StateRecording || c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.state = StateStopping
	c.accepting = false
	win := c.win
	id := win.id
	c.mu.Unlock()

	logger := c.logger.WithFields(logging.Fields{
		"function":   "finish",
		"session_id": id,
		"reason":     reason,
	})
	c.publishState(id, StateStopping)

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.sub != nil {
		if err := c.sub.Close(); err != nil {
			logger.Warn("Failed to close source subscription", logging.Fields{
				"error": err.Error(),
			})
		}
		c.sub = nil
	}

	c.mu.Lock()
	snapshot := win.buffer.Snapshot()
	c.mu.Unlock()

	var result *analysis.Result
	if len(snapshot) > 0 {
		result = c.analyze(snapshot, reason)
	} else {
		logger.Warn("Session ended with an empty window")
	}

	c.mu.Lock()
	c.result = result
	c.state = StateIdle
	c.mu.Unlock()
	close(win.done)

	logger.Info("Session stopped", resultFields(result, len(snapshot)))
	if result != nil {
		c.events.publish(Event{Type: EventResult, SessionID: id, State: StateStopping, Result: result})
	}
	c.publishState(id, StateIdle)
}

// GenerateTestData replaces the window with a synthetic waveform of count
// samples at targetHz and analyses it. Non-positive arguments fall back to
// 100 samples at 5 Hz. No recording is required; an active one is torn down.
func (c *Controller) GenerateTestData(count int, targetHz float64) *analysis.Result {
	c.ctrlMu.Lock()
	defer c.ctrlMu.Unlock()

	c.teardownLocked()

	cfg := c.config.TestData
	cfg.Count = count
	cfg.TargetHz = targetHz
	if cfg.Count <= 0 {
		cfg.Count = 100
	}
	if cfg.TargetHz <= 0 {
		cfg.TargetHz = 5.0
	}
	samples := synthetic.Waveform(cfg, c.noise)

	win := newWindow(c.clock.Now(), c.config.Capacity)
	close(win.done)
	win.buffer.Replace(samples)
	if last, ok := win.buffer.Last(); ok {
		win.lastMs = last.TimeMs
	}

	c.mu.Lock()
	c.generation++
	c.win = win
	c.accepting = false
	c.state = StateGeneratingTestData
	snapshot := win.buffer.Snapshot()
	c.metrics.BufferReset(len(snapshot))
	c.mu.Unlock()

	c.publishState(win.id, StateGeneratingTestData)

	result := c.analyze(snapshot, StopTestData)

	c.mu.Lock()
	c.result = result
	c.state = StateIdle
	c.mu.Unlock()

	c.logger.Info("Test data analyzed", resultFields(result, len(snapshot)), logging.Fields{
		"session_id": win.id,
		"target_hz":  cfg.TargetHz,
	})
	c.events.publish(Event{Type: EventResult, SessionID: win.id, State: StateGeneratingTestData, Result: result})
	c.publishState(win.id, StateIdle)

	return result
}

// Wait blocks until the current recording ends and returns its result. The
// result is nil when the window was empty or the session was torn down by a
// newer Start. Wait returns immediately when nothing is recording.
func (c *Controller) Wait(ctx context.Context) (*analysis.Result, error) {
	c.mu.Lock()
	win := c.win
	recording := c.state == StateRecording || c.state == StateStopping
	result := c.result
	c.mu.Unlock()

	if win == nil {
		return nil, ErrNoSession
	}
	if !recording {
		return result, nil
	}

	select {
	case <-win.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.win != win {
		return nil, nil
	}
	return c.result, nil
}

// InjectManualSample appends one sample to the active or most recent window
// at the current elapsed time. State and result are unchanged.
func (c *Controller) InjectManualSample(x, y, z float64) error {
	c.mu.Lock()
	if c.win == nil {
		c.mu.Unlock()
		return ErrNoSession
	}
	if c.state == StateStopping || c.state == StateGeneratingTestData {
		c.mu.Unlock()
		return ErrBusy
	}

	s, ok := motion.NewReading(x, y, z, c.clock.Now()).Sample(c.win.t0)
	if !ok {
		c.mu.Unlock()
		c.metrics.SampleDropped("invalid")
		return nil
	}
	s, id, state := c.pushLocked(s)
	c.mu.Unlock()

	c.events.publish(Event{Type: EventSample, SessionID: id, State: state, Sample: &s})
	return nil
}

// teardownLocked abandons an active recording without analysis. Caller
// holds ctrlMu.
func (c *Controller) teardownLocked() {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	c.generation++
	c.accepting = false
	c.state = StateIdle
	win := c.win
	c.win = nil
	c.metrics.BufferReset(0)
	c.mu.Unlock()
	close(win.done)
	id := win.id

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.sub != nil {
		_ = c.sub.Close()
		c.sub = nil
	}

	c.logger.Info("Active session discarded", logging.Fields{"session_id": id})
	c.publishState(id, StateIdle)
}

func (c *Controller) analyze(samples []motion.Sample, reason StopReason) *analysis.Result {
	started := time.Now()
	result := c.analyzer.Analyze(samples)
	c.metrics.Analyzed(reason, result, time.Since(started))
	return result
}

func (c *Controller) publishState(id string, state State) {
	c.events.publish(Event{Type: EventStateChanged, SessionID: id, State: state})
}

// Subscribe registers an observer. Events are dropped for a subscriber whose
// channel is full. The returned func unsubscribes and closes the channel.
func (c *Controller) Subscribe(buffer int) (<-chan Event, func()) {
	return c.events.subscribe(buffer)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the latest analysis, or nil
func (c *Controller) Result() *analysis.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// SessionID returns the ID of the active or most recent session
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.win == nil {
		return ""
	}
	return c.win.id
}

// Snapshot returns an ordered copy of the current window
func (c *Controller) Snapshot() []motion.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.win == nil {
		return nil
	}
	return c.win.buffer.Snapshot()
}

// Points returns the window as (seconds, magnitude) pairs for plotting
func (c *Controller) Points() []motion.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.win == nil {
		return nil
	}
	return c.win.buffer.Points()
}

func (c *Controller) Config() Config {
	return c.config
}

func resultFields(r *analysis.Result, n int) logging.Fields {
	f := logging.Fields{"sample_count": n}
	if r == nil {
		return f
	}
	f["classification"] = r.Classification.String()
	if r.DominantFrequencyHz != nil {
		f["frequency_hz"] = *r.DominantFrequencyHz
	}
	if r.AverageAmplitude != nil {
		f["amplitude"] = *r.AverageAmplitude
	}
	if r.Reason != "" {
		f["reason"] = r.Reason
	}
	return f
}
