package configs

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format" json:"output_format"`
	ConfigDir    string `mapstructure:"config_dir" yaml:"config_dir,omitempty" json:"config_dir,omitempty"`
	DataDir      string `mapstructure:"data_dir" yaml:"data_dir,omitempty" json:"data_dir,omitempty"`

	// Recording session configuration
	Session SessionConfig `mapstructure:"session" yaml:"session" json:"session"`

	// Estimator configuration
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis" json:"analysis"`

	// Synthetic waveform configuration
	Synthetic SyntheticConfig `mapstructure:"synthetic" yaml:"synthetic" json:"synthetic"`

	// Replay source configuration
	Replay ReplayConfig `mapstructure:"replay" yaml:"replay" json:"replay"`

	// Metrics endpoint configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`

	// Named synthetic presets
	Profiles map[string]SyntheticConfig `mapstructure:"profiles" yaml:"profiles" json:"profiles"`
}

// SessionConfig contains recording session settings
type SessionConfig struct {
	Duration         time.Duration `mapstructure:"duration" yaml:"duration" json:"duration"`
	Capacity         int           `mapstructure:"capacity" yaml:"capacity" json:"capacity"`
	SubscriberBuffer int           `mapstructure:"subscriber_buffer" yaml:"subscriber_buffer" json:"subscriber_buffer"`
}

// AnalysisConfig contains estimator gates and rounding
type AnalysisConfig struct {
	MinSamples         int `mapstructure:"min_samples" yaml:"min_samples" json:"min_samples"`
	FrequencyPrecision int `mapstructure:"frequency_precision" yaml:"frequency_precision" json:"frequency_precision"`
	AmplitudePrecision int `mapstructure:"amplitude_precision" yaml:"amplitude_precision" json:"amplitude_precision"`
}

// SyntheticConfig shapes generated waveforms
type SyntheticConfig struct {
	TargetHz      float64       `mapstructure:"target_hz" yaml:"target_hz" json:"target_hz"`
	Count         int           `mapstructure:"count" yaml:"count" json:"count"`
	Spacing       time.Duration `mapstructure:"spacing" yaml:"spacing" json:"spacing"`
	Noise         float64       `mapstructure:"noise" yaml:"noise" json:"noise"`
	BaseMagnitude float64       `mapstructure:"base_magnitude" yaml:"base_magnitude" json:"base_magnitude"`
	WaveAmplitude float64       `mapstructure:"wave_amplitude" yaml:"wave_amplitude" json:"wave_amplitude"`
	Seed          uint64        `mapstructure:"seed" yaml:"seed" json:"seed"`
}

// ReplayConfig contains recorded file playback settings
type ReplayConfig struct {
	Realtime bool          `mapstructure:"realtime" yaml:"realtime" json:"realtime"`
	Spacing  time.Duration `mapstructure:"spacing" yaml:"spacing" json:"spacing"`
	Format   string        `mapstructure:"format" yaml:"format" json:"format"`
}

// MetricsConfig contains the prometheus endpoint settings. An empty address
// disables the endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" json:"addr"`
	Path string `mapstructure:"path" yaml:"path" json:"path"`
}

var (
	outputFormats = []string{"json", "yaml", "table", "csv"}
	replayFormats = []string{"auto", "csv", "jsonl"}
	logLevels     = []string{"debug", "info", "warn", "error"}
)

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom fills unset keys with defaults and decodes v
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// Profile returns the named synthetic preset layered over the synthetic
// section
func (c *Config) Profile(name string) (SyntheticConfig, error) {
	if name == "" {
		return c.Synthetic, nil
	}

	profile, ok := c.Profiles[name]
	if !ok {
		return SyntheticConfig{}, fmt.Errorf("unknown profile: %s", name)
	}

	merged := c.Synthetic
	if profile.TargetHz > 0 {
		merged.TargetHz = profile.TargetHz
	}
	if profile.Count > 0 {
		merged.Count = profile.Count
	}
	if profile.Spacing > 0 {
		merged.Spacing = profile.Spacing
	}
	if profile.Noise > 0 {
		merged.Noise = profile.Noise
	}
	if profile.BaseMagnitude > 0 {
		merged.BaseMagnitude = profile.BaseMagnitude
	}
	if profile.WaveAmplitude > 0 {
		merged.WaveAmplitude = profile.WaveAmplitude
	}
	if profile.Seed != 0 {
		merged.Seed = profile.Seed
	}

	return merged, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if !slices.Contains(logLevels, config.LogLevel) {
		return fmt.Errorf("log level must be one of %v", logLevels)
	}

	if !slices.Contains(outputFormats, config.OutputFormat) {
		return fmt.Errorf("output format must be one of %v", outputFormats)
	}

	if config.Session.Duration <= 0 {
		return fmt.Errorf("session duration must be positive")
	}

	if config.Session.Capacity <= 0 {
		return fmt.Errorf("session capacity must be positive")
	}

	if config.Session.SubscriberBuffer < 0 {
		return fmt.Errorf("subscriber buffer cannot be negative")
	}

	if config.Analysis.MinSamples < 3 {
		return fmt.Errorf("analysis min samples must be at least 3")
	}

	if config.Analysis.MinSamples > config.Session.Capacity {
		return fmt.Errorf("analysis min samples (%d) exceeds session capacity (%d)",
			config.Analysis.MinSamples, config.Session.Capacity)
	}

	for name, precision := range map[string]int{
		"frequency": config.Analysis.FrequencyPrecision,
		"amplitude": config.Analysis.AmplitudePrecision,
	} {
		if precision < 0 || precision > 10 {
			return fmt.Errorf("%s precision must be between 0 and 10", name)
		}
	}

	if err := validateSynthetic("synthetic", config.Synthetic); err != nil {
		return err
	}
	for name, profile := range config.Profiles {
		if profile.Noise < 0 {
			return fmt.Errorf("profile %s: noise cannot be negative", name)
		}
	}

	if !slices.Contains(replayFormats, config.Replay.Format) {
		return fmt.Errorf("replay format must be one of %v", replayFormats)
	}

	if config.Replay.Spacing < time.Millisecond {
		return fmt.Errorf("replay spacing must be at least 1ms")
	}

	return nil
}

func validateSynthetic(section string, s SyntheticConfig) error {
	if s.TargetHz <= 0 {
		return fmt.Errorf("%s target frequency must be positive", section)
	}

	if s.Count <= 0 {
		return fmt.Errorf("%s sample count must be positive", section)
	}

	if s.Spacing < time.Millisecond {
		return fmt.Errorf("%s spacing must be at least 1ms", section)
	}

	if s.Noise < 0 {
		return fmt.Errorf("%s noise cannot be negative", section)
	}

	return nil
}
