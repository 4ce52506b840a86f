package motion

// DefaultCapacity is the number of samples kept in a session window
const DefaultCapacity = 300

// Buffer is a fixed-capacity sliding window of samples. When full, a push
// evicts the single oldest sample. Buffer is not safe for concurrent use;
// the session controller owns it and serialises access.
type Buffer struct {
	samples []Sample
	head    int // index of the oldest sample
	count   int
}

// NewBuffer creates a buffer holding at most capacity samples.
// A non-positive capacity falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{samples: make([]Sample, capacity)}
}

// Push appends a sample, evicting the oldest one when the buffer is full
func (b *Buffer) Push(s Sample) {
	capacity := len(b.samples)
	if b.count < capacity {
		b.samples[(b.head+b.count)%capacity] = s
		b.count++
		return
	}

	// full: overwrite the oldest slot and advance head
	b.samples[b.head] = s
	b.head = (b.head + 1) % capacity
}

// Replace clears the buffer and pushes samples in order. Only the last
// Cap() samples are retained.
func (b *Buffer) Replace(samples []Sample) {
	b.Clear()
	for _, s := range samples {
		b.Push(s)
	}
}

// Snapshot returns the samples oldest first. The returned slice is a copy
// and is not affected by later pushes.
func (b *Buffer) Snapshot() []Sample {
	out := make([]Sample, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.samples[(b.head+i)%len(b.samples)]
	}
	return out
}

// Last returns the newest sample
func (b *Buffer) Last() (Sample, bool) {
	if b.count == 0 {
		return Sample{}, false
	}
	return b.samples[(b.head+b.count-1)%len(b.samples)], true
}

// Points returns the window as (seconds, magnitude) pairs, oldest first
func (b *Buffer) Points() []Point {
	out := make([]Point, b.count)
	for i := 0; i < b.count; i++ {
		s := b.samples[(b.head+i)%len(b.samples)]
		out[i] = Point{TimeSeconds: s.Seconds(), Magnitude: s.Magnitude}
	}
	return out
}

// Clear empties the buffer
func (b *Buffer) Clear() {
	clear(b.samples)
	b.head = 0
	b.count = 0
}

func (b *Buffer) Len() int { return b.count }
func (b *Buffer) Cap() int { return len(b.samples) }
