package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/tremor-analyzer/configs"
	"github.com/RyanBlaney/tremor-analyzer/internal/session"
	"github.com/RyanBlaney/tremor-analyzer/pkg/analysis"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/replay"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/synthetic"
)

// SessionFile is an optional per-run file layered over the application
// config. Sections left out keep their configured values, as do zero fields
// inside a section.
type SessionFile struct {
	Session   *configs.SessionConfig   `yaml:"session,omitempty" json:"session,omitempty"`
	Analysis  *configs.AnalysisConfig  `yaml:"analysis,omitempty" json:"analysis,omitempty"`
	Synthetic *configs.SyntheticConfig `yaml:"synthetic,omitempty" json:"synthetic,omitempty"`
	Replay    *ReplayOverrides         `yaml:"replay,omitempty" json:"replay,omitempty"`
	Metrics   *configs.MetricsConfig   `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// ReplayOverrides keeps Realtime optional so a file can turn pacing either
// way
type ReplayOverrides struct {
	Realtime *bool         `yaml:"realtime,omitempty" json:"realtime,omitempty"`
	Spacing  time.Duration `yaml:"spacing,omitempty" json:"spacing,omitempty"`
	Format   string        `yaml:"format,omitempty" json:"format,omitempty"`
}

// loadSessionFile loads a session file, choosing the decoder by extension
func loadSessionFile(filePath string) (*SessionFile, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file does not exist: %s", filePath)
	}

	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		return loadSessionFileFromYAML(filePath)
	case ".json":
		return loadSessionFileFromJSON(filePath)
	default:
		// Try YAML first, then JSON
		if cfg, err := loadSessionFileFromYAML(filePath); err == nil {
			return cfg, nil
		}
		return loadSessionFileFromJSON(filePath)
	}
}

func readConfigFile(filePath, kind string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s config file: %w", kind, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s config file: %w", kind, err)
	}
	return data, nil
}

// loadSessionFileFromYAML loads from YAML file
func loadSessionFileFromYAML(filePath string) (*SessionFile, error) {
	data, err := readConfigFile(filePath, "YAML")
	if err != nil {
		return nil, err
	}

	var file SessionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return &file, nil
}

// loadSessionFileFromJSON loads from JSON file. Durations are nanoseconds.
func loadSessionFileFromJSON(filePath string) (*SessionFile, error) {
	data, err := readConfigFile(filePath, "JSON")
	if err != nil {
		return nil, err
	}

	var file SessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	return &file, nil
}

// mergeConfig layers the session file and then CLI flags over a copy of the
// base configuration
func mergeConfig(base *configs.Config, file *SessionFile, ctx *Context) *configs.Config {
	merged := *base

	if file != nil {
		if file.Session != nil {
			mergeSession(&merged.Session, *file.Session)
		}
		if file.Analysis != nil {
			mergeAnalysis(&merged.Analysis, *file.Analysis)
		}
		if file.Synthetic != nil {
			mergeSynthetic(&merged.Synthetic, *file.Synthetic)
		}
		if file.Replay != nil {
			mergeReplay(&merged.Replay, *file.Replay)
		}
		if file.Metrics != nil && file.Metrics.Addr != "" {
			merged.Metrics.Addr = file.Metrics.Addr
		}
		if file.Metrics != nil && file.Metrics.Path != "" {
			merged.Metrics.Path = file.Metrics.Path
		}
	}

	// Override with CLI flags
	if ctx.Duration > 0 {
		merged.Session.Duration = ctx.Duration
	}
	if ctx.Capacity > 0 {
		merged.Session.Capacity = ctx.Capacity
	}
	if ctx.OutputFormat != "" {
		merged.OutputFormat = ctx.OutputFormat
	}
	if ctx.MetricsAddr != "" {
		merged.Metrics.Addr = ctx.MetricsAddr
	}
	if ctx.Fast {
		merged.Replay.Realtime = false
	}
	merged.Verbose = merged.Verbose || ctx.Verbose

	return &merged
}

func mergeSession(dst *configs.SessionConfig, src configs.SessionConfig) {
	if src.Duration > 0 {
		dst.Duration = src.Duration
	}
	if src.Capacity > 0 {
		dst.Capacity = src.Capacity
	}
	if src.SubscriberBuffer > 0 {
		dst.SubscriberBuffer = src.SubscriberBuffer
	}
}

func mergeAnalysis(dst *configs.AnalysisConfig, src configs.AnalysisConfig) {
	if src.MinSamples > 0 {
		dst.MinSamples = src.MinSamples
	}
	if src.FrequencyPrecision > 0 {
		dst.FrequencyPrecision = src.FrequencyPrecision
	}
	if src.AmplitudePrecision > 0 {
		dst.AmplitudePrecision = src.AmplitudePrecision
	}
}

func mergeSynthetic(dst *configs.SyntheticConfig, src configs.SyntheticConfig) {
	if src.TargetHz > 0 {
		dst.TargetHz = src.TargetHz
	}
	if src.Count > 0 {
		dst.Count = src.Count
	}
	if src.Spacing > 0 {
		dst.Spacing = src.Spacing
	}
	if src.Noise > 0 {
		dst.Noise = src.Noise
	}
	if src.BaseMagnitude > 0 {
		dst.BaseMagnitude = src.BaseMagnitude
	}
	if src.WaveAmplitude > 0 {
		dst.WaveAmplitude = src.WaveAmplitude
	}
	if src.Seed != 0 {
		dst.Seed = src.Seed
	}
}

func mergeReplay(dst *configs.ReplayConfig, src ReplayOverrides) {
	if src.Realtime != nil {
		dst.Realtime = *src.Realtime
	}
	if src.Spacing > 0 {
		dst.Spacing = src.Spacing
	}
	if src.Format != "" {
		dst.Format = src.Format
	}
}

// analysisConfig maps the config section onto the analyzer settings
func analysisConfig(c configs.AnalysisConfig) analysis.Config {
	return analysis.Config{
		MinSamples:         c.MinSamples,
		FrequencyPrecision: c.FrequencyPrecision,
		AmplitudePrecision: c.AmplitudePrecision,
	}
}

func syntheticConfig(c configs.SyntheticConfig) synthetic.Config {
	return synthetic.Config{
		TargetHz:      c.TargetHz,
		Count:         c.Count,
		Spacing:       c.Spacing,
		Noise:         c.Noise,
		BaseMagnitude: c.BaseMagnitude,
		WaveAmplitude: c.WaveAmplitude,
		Seed:          c.Seed,
	}
}

func replayConfig(c configs.ReplayConfig) replay.Config {
	return replay.Config{
		Realtime: c.Realtime,
		Spacing:  c.Spacing,
		Format:   replay.Format(c.Format),
	}
}

func sessionConfig(c *configs.Config) session.Config {
	return session.Config{
		Duration: c.Session.Duration,
		Capacity: c.Session.Capacity,
		Analysis: analysisConfig(c.Analysis),
		TestData: syntheticConfig(c.Synthetic),
	}
}

// SourceOptions maps the configuration onto the source constructors
func SourceOptions(c *configs.Config) source.Options {
	return source.Options{
		Synthetic: syntheticConfig(c.Synthetic),
		Replay:    replayConfig(c.Replay),
	}
}

// GenerateExampleConfig writes the default configuration as YAML
func GenerateExampleConfig(outputFile string) error {
	data, err := yaml.Marshal(configs.GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ValidateConfigFile checks that a session file merges into a valid
// configuration
func ValidateConfigFile(configFile string) (*configs.Config, error) {
	file, err := loadSessionFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	merged := mergeConfig(configs.GetDefaultConfig(), file, &Context{})
	if err := configs.ValidateConfig(merged); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return merged, nil
}
