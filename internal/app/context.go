package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RyanBlaney/tremor-analyzer/configs"
	"github.com/RyanBlaney/tremor-analyzer/internal/report"
	"github.com/RyanBlaney/tremor-analyzer/internal/session"
	"github.com/RyanBlaney/tremor-analyzer/pkg/analysis"
	"github.com/RyanBlaney/tremor-analyzer/pkg/logging"
	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
	"github.com/RyanBlaney/tremor-analyzer/pkg/output"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/common"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/synthetic"
)

// ErrNoSamples is returned after output when a session ended with an empty
// window
var ErrNoSamples = errors.New("no samples were recorded")

// Context holds the application context and configuration
type Context struct {
	// CLI arguments
	ConfigFile    string // Session configuration file (optional)
	Locator       string
	SourceType    string // Skips detection when set
	OutputFile    string
	OutputFormat  string
	SamplesFile   string // Window export as replayable CSV
	Duration      time.Duration
	Capacity      int
	Fast          bool
	MetricsAddr   string
	Verbose       bool
	Quiet         bool
	Detailed      bool
	IncludePoints bool

	// Test data arguments
	Profile  string
	Count    int
	TargetHz float64
	Noise    *float64
	Seed     uint64

	// Runtime context
	Logger logging.Logger
	Config *configs.Config
}

// TremorApp runs sessions for the CLI
type TremorApp struct {
	ctx     *Context
	config  *configs.Config
	logger  logging.Logger
	metrics *session.Metrics
	factory *source.Factory
}

// NewTremorApp creates a new application from the base configuration,
// the optional session file and the CLI flags
func NewTremorApp(ctx *Context, base *configs.Config) (*TremorApp, error) {
	config, err := loadAndMergeConfig(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx.Config = config

	logger := setupLogging(ctx, config)
	ctx.Logger = logger

	logger.Debug("Tremor application initialized", logging.Fields{
		"config_file":   ctx.ConfigFile,
		"output_format": config.OutputFormat,
		"duration_ms":   config.Session.Duration.Milliseconds(),
		"capacity":      config.Session.Capacity,
	})

	return &TremorApp{
		ctx:     ctx,
		config:  config,
		logger:  logger,
		metrics: session.NewMetrics(),
		factory: source.NewFactory(SourceOptions(config)),
	}, nil
}

// setupLogging configures logging based on context
func setupLogging(ctx *Context, config *configs.Config) logging.Logger {
	level := logging.ParseLevel(config.LogLevel)
	if config.Verbose {
		level = logging.DebugLevel
	}
	if ctx.Quiet {
		level = logging.ErrorLevel
	}
	logging.SetLevel(level)

	return logging.WithFields(logging.Fields{
		"component": "tremor_app",
	})
}

// loadAndMergeConfig merges the session file and flags over base and
// validates the result
func loadAndMergeConfig(ctx *Context, base *configs.Config) (*configs.Config, error) {
	if base == nil {
		base = configs.GetDefaultConfig()
	}

	var file *SessionFile
	if ctx.ConfigFile != "" {
		var err error
		file, err = loadSessionFile(ctx.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load session configuration: %w", err)
		}
	}

	merged := mergeConfig(base, file, ctx)
	if err := configs.ValidateConfig(merged); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return merged, nil
}

// Record runs one session on the context's locator until auto-stop, source
// end or cancellation of ctx, which stops the session manually
func (app *TremorApp) Record(ctx context.Context) error {
	src, err := app.createSource(ctx)
	if err != nil {
		return err
	}

	ctrl := session.NewController(src, sessionConfig(app.config),
		session.WithLogger(app.logger),
		session.WithMetrics(app.metrics),
	)

	events, unsubscribe := ctrl.Subscribe(app.config.Session.SubscriberBuffer)
	defer unsubscribe()
	go app.trackProgress(events)

	stopMetrics := app.serveMetrics()
	defer stopMetrics()

	if err := ctrl.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	result, err := ctrl.Wait(ctx)
	if err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("session failed: %w", err)
		}
		app.logger.Info("Interrupted, stopping session")
		ctrl.Stop()
		result, err = ctrl.Wait(context.Background())
		if err != nil {
			return fmt.Errorf("session failed: %w", err)
		}
	}

	return app.finish(ctrl, result)
}

// TestData analyses a generated waveform without any source
func (app *TremorApp) TestData() error {
	cfg, err := app.testDataConfig()
	if err != nil {
		return err
	}

	sessCfg := sessionConfig(app.config)
	sessCfg.TestData = cfg

	ctrl := session.NewController(nil, sessCfg,
		session.WithLogger(app.logger),
		session.WithMetrics(app.metrics),
	)

	result := ctrl.GenerateTestData(cfg.Count, cfg.TargetHz)
	return app.finish(ctrl, result)
}

// testDataConfig resolves the profile and the test data flags
func (app *TremorApp) testDataConfig() (synthetic.Config, error) {
	profile, err := app.config.Profile(app.ctx.Profile)
	if err != nil {
		return synthetic.Config{}, err
	}

	cfg := syntheticConfig(profile)
	if app.ctx.Count > 0 {
		cfg.Count = app.ctx.Count
	}
	if app.ctx.TargetHz > 0 {
		cfg.TargetHz = app.ctx.TargetHz
	}
	if app.ctx.Noise != nil {
		if *app.ctx.Noise < 0 {
			return synthetic.Config{}, fmt.Errorf("noise cannot be negative")
		}
		cfg.Noise = *app.ctx.Noise
	}
	if app.ctx.Seed != 0 {
		cfg.Seed = app.ctx.Seed
	}

	return cfg.Normalize(), nil
}

func (app *TremorApp) createSource(ctx context.Context) (common.Source, error) {
	locator := app.ctx.Locator
	if locator == "" {
		return nil, fmt.Errorf("a source locator is required")
	}

	var (
		src common.Source
		err error
	)
	if app.ctx.SourceType != "" {
		src, err = app.factory.Create(common.SourceType(app.ctx.SourceType), locator)
	} else {
		src, err = app.factory.DetectAndCreate(ctx, locator)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	app.logger.Debug("Source created", logging.Fields{
		"type":    src.Type(),
		"locator": locator,
	})
	return src, nil
}

// trackProgress logs state changes and counts samples until the
// subscription is closed
func (app *TremorApp) trackProgress(events <-chan session.Event) {
	samples := 0
	for event := range events {
		switch event.Type {
		case session.EventSample:
			samples++
		case session.EventStateChanged:
			app.logger.Debug("Session state changed", logging.Fields{
				"session_id": event.SessionID,
				"state":      event.State.String(),
				"samples":    samples,
			})
		}
	}
}

// finish writes the outputs of a completed session
func (app *TremorApp) finish(ctrl *session.Controller, result *analysis.Result) error {
	snapshot := ctrl.Snapshot()

	if app.ctx.SamplesFile != "" {
		if err := app.exportSamples(snapshot); err != nil {
			return err
		}
	}

	if err := app.outputResults(ctrl.SessionID(), snapshot, ctrl.Points(), result); err != nil {
		return fmt.Errorf("failed to output results: %w", err)
	}

	if result == nil {
		return ErrNoSamples
	}
	return nil
}

// outputResults handles all result output
func (app *TremorApp) outputResults(sessionID string, snapshot []motion.Sample, points []motion.Point, result *analysis.Result) error {
	outputData := map[string]any{
		"session_id": sessionID,
		"result":     result,
		"timestamp":  time.Now(),
		"configuration": map[string]any{
			"locator":          app.ctx.Locator,
			"duration_seconds": app.config.Session.Duration.Seconds(),
			"capacity":         app.config.Session.Capacity,
			"min_samples":      app.config.Analysis.MinSamples,
		},
	}

	if app.ctx.Detailed {
		app.logger.Debug("Generating window report")
		outputData["report"] = report.NewCalculator(app.logger).Build(sessionID, snapshot, result)
	}

	format := app.config.OutputFormat
	tabular := format == "table" || format == "csv"
	if app.ctx.IncludePoints && !tabular {
		outputData["points"] = points
	}

	formatter, err := output.NewFormatter(format)
	if err != nil {
		return err
	}

	formattedData, err := formatter.Format(outputData, true)
	if err != nil {
		return fmt.Errorf("failed to format output data: %w", err)
	}

	// Points get their own table rather than one flattened row each
	if app.ctx.IncludePoints && tabular {
		pointData, err := formatter.Format(output.PointTable(points), true)
		if err != nil {
			return fmt.Errorf("failed to format points: %w", err)
		}
		formattedData = append(append(formattedData, '\n'), pointData...)
	}

	// Write to file or stdout
	if app.ctx.OutputFile != "" {
		return app.writeToFile(app.ctx.OutputFile, formattedData)
	}

	_, err = os.Stdout.Write(formattedData)
	return err
}

// exportSamples writes the window in the replay CSV layout
func (app *TremorApp) exportSamples(snapshot []motion.Sample) error {
	data, err := (&output.CSVFormatter{}).Format(output.SampleTable(snapshot), false)
	if err != nil {
		return fmt.Errorf("failed to format samples: %w", err)
	}
	return app.writeToFile(app.ctx.SamplesFile, data)
}

// writeToFile writes data to the specified output file
func (app *TremorApp) writeToFile(path string, data []byte) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	app.logger.Debug("Results written to file", logging.Fields{
		"output_file": path,
		"size_bytes":  len(data),
	})

	return nil
}

// Metrics exposes the session metrics, mainly for tests
func (app *TremorApp) Metrics() *session.Metrics {
	return app.metrics
}

// Config returns the merged configuration
func (app *TremorApp) Config() *configs.Config {
	return app.config
}
