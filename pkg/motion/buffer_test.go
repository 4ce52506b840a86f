package motion

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushN(b *Buffer, n int) {
	for i := 0; i < n; i++ {
		b.Push(NewSample(float64(i), 0, 0, int64(i*10)))
	}
}

// TestBufferNeverExceedsCapacity checks the length bound holds after every push.
func TestBufferNeverExceedsCapacity(t *testing.T) {
	b := NewBuffer(DefaultCapacity)

	for i := 0; i < 1000; i++ {
		b.Push(NewSample(float64(i), 1, 1, int64(i)))
		if b.Len() > DefaultCapacity {
			t.Fatalf("after %d pushes length is %d, capacity %d", i+1, b.Len(), DefaultCapacity)
		}
	}
	assert.Equal(t, DefaultCapacity, b.Len())
}

// TestBufferKeepsLastPushedInOrder checks FIFO eviction for k > capacity pushes.
func TestBufferKeepsLastPushedInOrder(t *testing.T) {
	for _, k := range []int{301, 450, 600, 1234} {
		b := NewBuffer(300)
		pushN(b, k)

		snap := b.Snapshot()
		require.Len(t, snap, 300)
		for i, s := range snap {
			want := float64(k - 300 + i)
			if s.X != want {
				t.Fatalf("k=%d: snapshot[%d].X = %v, want %v", k, i, s.X, want)
			}
		}
	}
}

func TestBufferBelowCapacity(t *testing.T) {
	b := NewBuffer(5)
	pushN(b, 3)

	snap := b.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []float64{0, 1, 2}, []float64{snap[0].X, snap[1].X, snap[2].X})

	last, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, 2.0, last.X)
}

func TestSnapshotIsIndependent(t *testing.T) {
	b := NewBuffer(3)
	pushN(b, 3)

	snap := b.Snapshot()
	b.Push(NewSample(99, 0, 0, 99))

	assert.Equal(t, 0.0, snap[0].X, "snapshot must not observe later pushes")
	assert.Equal(t, 1.0, b.Snapshot()[0].X)
}

func TestBufferClearAndReplace(t *testing.T) {
	b := NewBuffer(4)
	pushN(b, 10)
	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Snapshot())
	_, ok := b.Last()
	assert.False(t, ok)

	samples := make([]Sample, 6)
	for i := range samples {
		samples[i] = NewSample(float64(i), 0, 0, int64(i))
	}
	b.Replace(samples)
	snap := b.Snapshot()
	require.Len(t, snap, 4)
	assert.Equal(t, 2.0, snap[0].X)
	assert.Equal(t, 5.0, snap[3].X)
}

func TestNewBufferDefaultsCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, NewBuffer(0).Cap())
	assert.Equal(t, DefaultCapacity, NewBuffer(-1).Cap())
	assert.Equal(t, 7, NewBuffer(7).Cap())
}

func TestPoints(t *testing.T) {
	b := NewBuffer(10)
	b.Push(NewSample(3, 4, 0, 0))
	b.Push(NewSample(0, 0, 2, 1500))

	points := b.Points()
	require.Len(t, points, 2)
	assert.Equal(t, Point{TimeSeconds: 0, Magnitude: 5}, points[0])
	assert.Equal(t, Point{TimeSeconds: 1.5, Magnitude: 2}, points[1])
}

func TestNewSampleMagnitude(t *testing.T) {
	s := NewSample(3, 4, 12, 42)
	assert.Equal(t, 13.0, s.Magnitude)
	assert.Equal(t, int64(42), s.TimeMs)
	assert.Equal(t, 0.042, s.Seconds())
}

func TestReadingValidity(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	one := 1.0
	nan := math.NaN()
	inf := math.Inf(1)

	tests := []struct {
		name    string
		reading Reading
		ok      bool
	}{
		{"complete", NewReading(1, 2, 2, t0.Add(250*time.Millisecond)), true},
		{"missing x", Reading{Y: &one, Z: &one, At: t0}, false},
		{"missing z", Reading{X: &one, Y: &one, At: t0}, false},
		{"nan axis", Reading{X: &nan, Y: &one, Z: &one, At: t0}, false},
		{"inf axis", Reading{X: &one, Y: &inf, Z: &one, At: t0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := tt.reading.Sample(t0)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, 3.0, s.Magnitude)
				assert.Equal(t, int64(250), s.TimeMs)
			}
		})
	}
}

func TestReadingBeforeStartClampsToZero(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)
	s, ok := NewReading(1, 0, 0, t0.Add(-time.Second)).Sample(t0)
	require.True(t, ok)
	assert.Equal(t, int64(0), s.TimeMs)
}
