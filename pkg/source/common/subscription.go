package common

import (
	"context"
	"sync"
)

// Feed is a Subscription backed by a context and a producer goroutine.
// Sources embed it to get idempotent Close and a Done channel.
type Feed struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewFeed derives a cancellable context for the producer goroutine
func NewFeed(ctx context.Context) (*Feed, context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	return &Feed{cancel: cancel, done: make(chan struct{})}, ctx
}

// Finish marks the producer as exited. The producer must call it exactly once.
func (f *Feed) Finish() {
	close(f.done)
}

// Close cancels the producer and waits for it to exit
func (f *Feed) Close() error {
	f.once.Do(f.cancel)
	<-f.done
	return nil
}

func (f *Feed) Done() <-chan struct{} {
	return f.done
}
