package clients

import (
	"context"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
)

// Future is the result of a provider call running in the background.
type Future struct {
	provider string
	done     chan struct{}
	resp     *models.ProviderResponse
	err      error
}

// Async runs call in its own goroutine and returns immediately.
func Async(ctx context.Context, provider string, call func(context.Context) (*models.ProviderResponse, error)) *Future {
	f := &Future{provider: provider, done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.resp, f.err = call(ctx)
	}()
	return f
}

// Await blocks until the call finishes or ctx ends. A caller that stops
// waiting gets a ProviderError; the call itself keeps its own deadline.
func (f *Future) Await(ctx context.Context) (*models.ProviderResponse, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, &models.ProviderError{Provider: f.provider, Err: ctx.Err()}
	}
}

// Then runs fn once the call has finished without blocking the caller.
func (f *Future) Then(fn func(*models.ProviderResponse, error)) {
	go func() {
		<-f.done
		fn(f.resp, f.err)
	}()
}
