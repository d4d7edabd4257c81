// Package progress delivers ordered ProgressEvents from an analysis run to
// its caller.
package progress

import (
	"context"
	"sync"

	"github.com/ppiankov/dontsign/internal/model"
)

// Sink receives the events of one run, in order
type Sink interface {
	Emit(ctx context.Context, ev model.ProgressEvent) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ctx context.Context, ev model.ProgressEvent) error

// Emit calls f
func (f SinkFunc) Emit(ctx context.Context, ev model.ProgressEvent) error {
	return f(ctx, ev)
}

// Discard drops every event
var Discard Sink = SinkFunc(func(context.Context, model.ProgressEvent) error { return nil })

// Recorder keeps every emitted event in memory
type Recorder struct {
	mu     sync.Mutex
	events []model.ProgressEvent
}

// Emit records ev
func (r *Recorder) Emit(_ context.Context, ev model.ProgressEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []model.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ProgressEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Multi fans each event out to every sink, returning the first error
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, ev model.ProgressEvent) error {
		var firstErr error
		for _, s := range sinks {
			if err := s.Emit(ctx, ev); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}
