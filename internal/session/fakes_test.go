package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RyanBlaney/tremor-analyzer/pkg/motion"
	"github.com/RyanBlaney/tremor-analyzer/pkg/source/common"
)

// fakeClock only moves when Advance is called. Due timers run synchronously
// on the caller's goroutine.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	done    bool
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.done && !t.at.After(c.now) {
			t.done = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// pending counts timers that are neither fired nor stopped
func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	t.stopped = true
	return true
}

// fakeSource hands the sink back to the test, which emits readings directly
type fakeSource struct {
	probeErr error
	openErr  error

	mu     sync.Mutex
	sink   common.Sink
	ends   chan struct{}
	opens  atomic.Int32
	closes atomic.Int32
}

func (s *fakeSource) Type() common.SourceType {
	return common.SourceTypeSynthetic
}

func (s *fakeSource) Probe(ctx context.Context) (*common.Capability, error) {
	if s.probeErr != nil {
		return nil, s.probeErr
	}
	return &common.Capability{Type: common.SourceTypeSynthetic, Locator: "fake://"}, nil
}

func (s *fakeSource) Open(ctx context.Context, capability *common.Capability, sink common.Sink) (common.Subscription, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}

	feed, feedCtx := common.NewFeed(ctx)
	ends := make(chan struct{})

	s.mu.Lock()
	s.sink = sink
	s.ends = ends
	s.mu.Unlock()
	s.opens.Add(1)

	go func() {
		defer feed.Finish()
		select {
		case <-feedCtx.Done():
		case <-ends:
		}
	}()

	return &fakeSub{Feed: feed, closes: &s.closes}, nil
}

func (s *fakeSource) emit(r motion.Reading) {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	sink(r)
}

// end simulates the source running out of readings
func (s *fakeSource) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(s.ends)
}

type fakeSub struct {
	*common.Feed
	closes *atomic.Int32
}

func (s *fakeSub) Close() error {
	s.closes.Add(1)
	return s.Feed.Close()
}
