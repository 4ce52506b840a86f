package motion

import (
	"math"
	"time"
)

// Sample is one triaxial acceleration reading accepted into a session window.
// Magnitude is computed once by NewSample and never recomputed.
type Sample struct {
	X         float64 `json:"x" yaml:"x"`
	Y         float64 `json:"y" yaml:"y"`
	Z         float64 `json:"z" yaml:"z"`
	Magnitude float64 `json:"magnitude" yaml:"magnitude"`
	TimeMs    int64   `json:"time_ms" yaml:"time_ms"` // elapsed since session start
}

// NewSample builds a sample and computes its Euclidean magnitude
func NewSample(x, y, z float64, timeMs int64) Sample {
	return Sample{
		X:         x,
		Y:         y,
		Z:         z,
		Magnitude: math.Sqrt(x*x + y*y + z*z),
		TimeMs:    timeMs,
	}
}

// Seconds returns the sample time in seconds
func (s Sample) Seconds() float64 {
	return float64(s.TimeMs) / 1000
}

// Reading is a raw event from a sample source. Any axis may be missing.
type Reading struct {
	X  *float64  `json:"x"`
	Y  *float64  `json:"y"`
	Z  *float64  `json:"z"`
	At time.Time `json:"-"`
}

// NewReading builds a reading with all three axes present
func NewReading(x, y, z float64, at time.Time) Reading {
	return Reading{X: &x, Y: &y, Z: &z, At: at}
}

// Valid reports whether every axis is present and finite
func (r Reading) Valid() bool {
	for _, axis := range []*float64{r.X, r.Y, r.Z} {
		if axis == nil || math.IsNaN(*axis) || math.IsInf(*axis, 0) {
			return false
		}
	}
	return true
}

// Sample converts the reading into a sample relative to the session start.
// ok is false when the reading has a missing or non-finite axis.
func (r Reading) Sample(t0 time.Time) (Sample, bool) {
	if !r.Valid() {
		return Sample{}, false
	}

	elapsed := r.At.Sub(t0).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}

	return NewSample(*r.X, *r.Y, *r.Z, elapsed), true
}

// Point is a (time, magnitude) pair for plotting
type Point struct {
	TimeSeconds float64 `json:"time_seconds" yaml:"time_seconds"`
	Magnitude   float64 `json:"magnitude" yaml:"magnitude"`
}

// Magnitudes extracts the magnitude series from samples
func Magnitudes(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Magnitude
	}
	return out
}
