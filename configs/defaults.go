package configs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// AppName names the binary, config file and directories
const AppName = "tremor-analyzer"

// setDefaults registers default values for every key so environment
// overrides are picked up by Unmarshal
func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	// Application defaults
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("output_format", "table")
	v.SetDefault("config_dir", filepath.Join(home, ".config", AppName))
	v.SetDefault("data_dir", filepath.Join(home, ".local", "share", AppName))

	// Session defaults
	v.SetDefault("session.duration", 10*time.Second)
	v.SetDefault("session.capacity", 300)
	v.SetDefault("session.subscriber_buffer", 64)

	// Analysis defaults
	v.SetDefault("analysis.min_samples", 10)
	v.SetDefault("analysis.frequency_precision", 2)
	v.SetDefault("analysis.amplitude_precision", 3)

	setSyntheticDefaults(v)
	setReplayDefaults(v)

	// Metrics endpoint is off unless an address is given
	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.path", "/metrics")

	for name, p := range GetDefaultProfiles() {
		v.SetDefault("profiles."+name+".target_hz", p.TargetHz)
		v.SetDefault("profiles."+name+".count", p.Count)
		v.SetDefault("profiles."+name+".spacing", p.Spacing)
		v.SetDefault("profiles."+name+".noise", p.Noise)
	}
}

// setSyntheticDefaults sets the test waveform defaults
func setSyntheticDefaults(v *viper.Viper) {
	v.SetDefault("synthetic.target_hz", 5.0)
	v.SetDefault("synthetic.count", 100)
	v.SetDefault("synthetic.spacing", 100*time.Millisecond)
	v.SetDefault("synthetic.noise", 0.25)
	v.SetDefault("synthetic.base_magnitude", 9.8)
	v.SetDefault("synthetic.wave_amplitude", 2.0)
	v.SetDefault("synthetic.seed", 0)
}

// setReplayDefaults sets recorded file playback defaults
func setReplayDefaults(v *viper.Viper) {
	v.SetDefault("replay.realtime", true)
	v.SetDefault("replay.spacing", 100*time.Millisecond)
	v.SetDefault("replay.format", "auto")
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "table",
		ConfigDir:    filepath.Join(home, ".config", AppName),
		DataDir:      filepath.Join(home, ".local", "share", AppName),

		Session:   GetDefaultSessionConfig(),
		Analysis:  GetDefaultAnalysisConfig(),
		Synthetic: GetDefaultSyntheticConfig(),
		Replay:    GetDefaultReplayConfig(),
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
		Profiles: GetDefaultProfiles(),
	}
}

// GetDefaultSessionConfig returns a 10s session over a 300 sample window
func GetDefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Duration:         10 * time.Second,
		Capacity:         300,
		SubscriberBuffer: 64,
	}
}

// GetDefaultAnalysisConfig returns the estimator defaults
func GetDefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		MinSamples:         10,
		FrequencyPrecision: 2,
		AmplitudePrecision: 3,
	}
}

// GetDefaultSyntheticConfig returns the 100 samples / 5 Hz / 100ms waveform
func GetDefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		TargetHz:      5.0,
		Count:         100,
		Spacing:       100 * time.Millisecond,
		Noise:         0.25,
		BaseMagnitude: 9.8,
		WaveAmplitude: 2.0,
	}
}

// GetDefaultReplayConfig returns realtime playback with 100ms spacing
func GetDefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Realtime: true,
		Spacing:  100 * time.Millisecond,
		Format:   "auto",
	}
}

// GetDefaultProfiles returns synthetic presets sampled finely enough to
// land in each classification band
func GetDefaultProfiles() map[string]SyntheticConfig {
	return map[string]SyntheticConfig{
		"parkinsonian": {
			TargetHz: 5.0,
			Count:    300,
			Spacing:  10 * time.Millisecond,
			Noise:    0.05,
		},
		"essential": {
			TargetHz: 10.0,
			Count:    300,
			Spacing:  5 * time.Millisecond,
			Noise:    0.05,
		},
		"normal": {
			TargetHz: 1.25,
			Count:    100,
			Spacing:  100 * time.Millisecond,
			Noise:    0.05,
		},
	}
}
