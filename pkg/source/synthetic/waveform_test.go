package synthetic

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
)

func deterministic(hz float64, count int, spacing time.Duration) Config {
	cfg := DefaultConfig()
	cfg.TargetHz = hz
	cfg.Count = count
	cfg.Spacing = spacing
	cfg.Noise = 0
	return cfg
}

func TestWaveformShape(t *testing.T) {
	samples := Waveform(deterministic(5, 100, 100*time.Millisecond), NoNoise)

	require.Len(t, samples, 100)
	assert.Equal(t, int64(0), samples[0].TimeMs)
	assert.Equal(t, int64(9900), samples[99].TimeMs)

	for i, s := range samples {
		if i > 0 && s.TimeMs-samples[i-1].TimeMs != 100 {
			t.Fatalf("sample %d spacing %dms, want 100ms", i, s.TimeMs-samples[i-1].TimeMs)
		}
		assert.Equal(t, FractionX*s.Magnitude, s.X)
		assert.Equal(t, FractionY*s.Magnitude, s.Y)
		assert.Equal(t, FractionZ*s.Magnitude, s.Z)
	}
}

// TestWaveformAtNyquist checks that a 5 Hz wave sampled every 100ms lands
// on its zero crossings, so the noise-free series is flat at the base.
func TestWaveformAtNyquist(t *testing.T) {
	for _, s := range Waveform(deterministic(5, 100, 100*time.Millisecond), NoNoise) {
		if s.Magnitude != 9.8 {
			t.Fatalf("t=%dms magnitude %v, want 9.8", s.TimeMs, s.Magnitude)
		}
	}
}

func TestWaveformQuarterCycles(t *testing.T) {
	// 1.25 Hz at 100ms: eight samples per cycle, crest at the third
	samples := Waveform(deterministic(1.25, 16, 100*time.Millisecond), NoNoise)

	assert.Equal(t, 9.8, samples[0].Magnitude)
	assert.Equal(t, 11.8, samples[2].Magnitude)
	assert.InDelta(t, 7.8, samples[6].Magnitude, 1e-12)
	assert.Equal(t, 11.8, samples[10].Magnitude)
	assert.Greater(t, samples[2].Magnitude, samples[1].Magnitude)
	assert.Greater(t, samples[2].Magnitude, samples[3].Magnitude)
}

func TestWaveformNoiseIsReproducibleWithSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 42

	a := Waveform(cfg, nil)
	b := Waveform(cfg, nil)
	assert.Equal(t, a, b)

	clean := Waveform(deterministic(cfg.TargetHz, cfg.Count, cfg.Spacing), NoNoise)
	for i := range a {
		assert.InDelta(t, clean[i].Magnitude, a[i].Magnitude, cfg.Noise)
	}
}

func TestNormalize(t *testing.T) {
	cfg := Config{Noise: -0.5}.Normalize()
	assert.Equal(t, 5.0, cfg.TargetHz)
	assert.Equal(t, 100, cfg.Count)
	assert.Equal(t, 100*time.Millisecond, cfg.Spacing)
	assert.Equal(t, 9.8, cfg.BaseMagnitude)
	assert.Equal(t, 2.0, cfg.WaveAmplitude)
	assert.Equal(t, 0.5, cfg.Noise)
}

func TestParseLocator(t *testing.T) {
	cfg, err := ParseLocator("synthetic://?hz=8.5&noise=0&spacing=10ms&count=300&seed=7", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 8.5, cfg.TargetHz)
	assert.Equal(t, 0.0, cfg.Noise)
	assert.Equal(t, 10*time.Millisecond, cfg.Spacing)
	assert.Equal(t, 300, cfg.Count)
	assert.Equal(t, uint64(7), cfg.Seed)

	cfg, err = ParseLocator("synthetic://", DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = ParseLocator("synthetic://?hz=fast", DefaultConfig())
	assert.Error(t, err)

	_, err = ParseLocator("synthetic://?volume=11", DefaultConfig())
	assert.Error(t, err)

	_, err = ParseLocator("/tmp/readings.csv", DefaultConfig())
	assert.Error(t, err)
}

func TestSourceEmitsUntilClosed(t *testing.T) {
	src := NewSource("synthetic://", deterministic(5, 100, 5*time.Millisecond), NoNoise)

	capability, err := src.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200.0, capability.NominalRateHz)

	var mu sync.Mutex
	var readings []motion.Reading
	sub, err := src.Open(context.Background(), capability, func(r motion.Reading) {
		mu.Lock()
		readings = append(readings, r)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(readings) >= 5
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, sub.Close())
	mu.Lock()
	n := len(readings)
	first := readings[0]
	mu.Unlock()

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, n, len(readings), "no readings after Close")
	mu.Unlock()

	s, ok := first.Sample(first.At)
	require.True(t, ok)
	assert.InDelta(t, 9.8, s.Magnitude, 2.0+1e-9)
}
