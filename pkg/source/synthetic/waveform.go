package synthetic

import (
	"fmt"
	"math"
	"math/rand/v2"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
)

// Axis fractions applied to the synthetic magnitude. They are not normalised.
const (
	FractionX = 0.3
	FractionY = 0.4
	FractionZ = 0.5
)

// Config describes a synthetic tremor waveform:
// magnitude = BaseMagnitude + WaveAmplitude*sin(2π·TargetHz·t) + noise
type Config struct {
	TargetHz      float64       `json:"target_hz" yaml:"target_hz" mapstructure:"target_hz"`
	Count         int           `json:"count" yaml:"count" mapstructure:"count"`
	Spacing       time.Duration `json:"spacing" yaml:"spacing" mapstructure:"spacing"`
	Noise         float64       `json:"noise" yaml:"noise" mapstructure:"noise"` // half-width of uniform noise
	BaseMagnitude float64       `json:"base_magnitude" yaml:"base_magnitude" mapstructure:"base_magnitude"`
	WaveAmplitude float64       `json:"wave_amplitude" yaml:"wave_amplitude" mapstructure:"wave_amplitude"`
	Seed          uint64        `json:"seed" yaml:"seed" mapstructure:"seed"` // 0 uses a random seed
}

// DefaultConfig returns the 100 samples / 5 Hz / 100ms test waveform
func DefaultConfig() Config {
	return Config{
		TargetHz:      5.0,
		Count:         100,
		Spacing:       100 * time.Millisecond,
		Noise:         0.25,
		BaseMagnitude: 9.8,
		WaveAmplitude: 2.0,
	}
}

// Normalize fills non-positive fields from DefaultConfig. Noise and Seed are
// left alone since zero is meaningful for both.
func (c Config) Normalize() Config {
	def := DefaultConfig()
	if c.TargetHz <= 0 {
		c.TargetHz = def.TargetHz
	}
	if c.Count <= 0 {
		c.Count = def.Count
	}
	if c.Spacing < time.Millisecond {
		c.Spacing = def.Spacing
	}
	if c.BaseMagnitude == 0 {
		c.BaseMagnitude = def.BaseMagnitude
	}
	if c.WaveAmplitude == 0 {
		c.WaveAmplitude = def.WaveAmplitude
	}
	if c.Noise < 0 {
		c.Noise = -c.Noise
	}
	return c
}

// NoiseFunc returns one noise term per sample
type NoiseFunc func() float64

// NoNoise is the deterministic noise source
func NoNoise() float64 { return 0 }

// UniformNoise draws from U(-halfWidth, halfWidth). A zero seed draws from the
// global source.
func UniformNoise(halfWidth float64, seed uint64) NoiseFunc {
	if halfWidth == 0 {
		return NoNoise
	}

	dist := distuv.Uniform{Min: -halfWidth, Max: halfWidth}
	if seed != 0 {
		dist.Src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
	return dist.Rand
}

// Generator produces synthetic magnitudes at given elapsed times
type Generator struct {
	cfg   Config
	noise NoiseFunc
}

// NewGenerator creates a generator. A nil noise function derives uniform
// noise from cfg.Noise and cfg.Seed.
func NewGenerator(cfg Config, noise NoiseFunc) *Generator {
	cfg = cfg.Normalize()
	if noise == nil {
		noise = UniformNoise(cfg.Noise, cfg.Seed)
	}
	return &Generator{cfg: cfg, noise: noise}
}

func (g *Generator) Config() Config {
	return g.cfg
}

// MagnitudeAt returns the waveform value at timeMs. The phase is reduced to a
// single cycle before taking the sine.
func (g *Generator) MagnitudeAt(timeMs int64) float64 {
	cycles := g.cfg.TargetHz * float64(timeMs) / 1000
	phase := cycles - math.Floor(cycles)
	return g.cfg.BaseMagnitude + math.Sin(2*math.Pi*phase)*g.cfg.WaveAmplitude + g.noise()
}

// SampleAt builds the synthetic sample at timeMs with axes as fixed fractions
// of the magnitude
func (g *Generator) SampleAt(timeMs int64) motion.Sample {
	m := g.MagnitudeAt(timeMs)
	return motion.Sample{
		X:         FractionX * m,
		Y:         FractionY * m,
		Z:         FractionZ * m,
		Magnitude: m,
		TimeMs:    timeMs,
	}
}

// Waveform returns Count samples at fixed Spacing starting at t=0
func (g *Generator) Waveform() []motion.Sample {
	spacingMs := g.cfg.Spacing.Milliseconds()
	samples := make([]motion.Sample, g.cfg.Count)
	for i := range samples {
		samples[i] = g.SampleAt(int64(i) * spacingMs)
	}
	return samples
}

// Waveform is a shortcut for NewGenerator(cfg, noise).Waveform()
func Waveform(cfg Config, noise NoiseFunc) []motion.Sample {
	return NewGenerator(cfg, noise).Waveform()
}

// ParseLocator reads overrides from a locator such as
// "synthetic://?hz=5&noise=0&spacing=10ms&count=300&seed=7"
func ParseLocator(locator string, base Config) (Config, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return base, fmt.Errorf("invalid synthetic locator %q: %w", locator, err)
	}
	if !strings.EqualFold(u.Scheme, "synthetic") {
		return base, fmt.Errorf("not a synthetic locator: %q", locator)
	}

	cfg := base
	q := u.Query()
	for key := range q {
		value := q.Get(key)
		var perr error
		switch strings.ToLower(key) {
		case "hz", "target_hz":
			cfg.TargetHz, perr = strconv.ParseFloat(value, 64)
		case "noise":
			cfg.Noise, perr = strconv.ParseFloat(value, 64)
		case "count":
			cfg.Count, perr = strconv.Atoi(value)
		case "spacing":
			cfg.Spacing, perr = time.ParseDuration(value)
		case "base", "base_magnitude":
			cfg.BaseMagnitude, perr = strconv.ParseFloat(value, 64)
		case "amplitude", "wave_amplitude":
			cfg.WaveAmplitude, perr = strconv.ParseFloat(value, 64)
		case "seed":
			cfg.Seed, perr = strconv.ParseUint(value, 10, 64)
		default:
			perr = fmt.Errorf("unknown parameter")
		}
		if perr != nil {
			return base, fmt.Errorf("synthetic locator parameter %q=%q: %w", key, value, perr)
		}
	}

	return cfg, nil
}
