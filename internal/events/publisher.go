package events

import (
	"context"
	"sync"

	"limify/internal/logger"
)

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the application log. It is used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e Event) error {
	logger.Get().Infow("event",
		"event_id", e.ID,
		"type", e.Type,
		"user_id", e.UserID,
		"resource_id", e.ResourceID,
	)
	return nil
}

func (LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of what has been published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

var inflight sync.WaitGroup

// PublishAsync publishes e without blocking the caller; failures are logged. The request
// context is detached so the event survives the response being written.
func PublishAsync(ctx context.Context, p Publisher, e Event) {
	ctx = context.WithoutCancel(ctx)
	inflight.Add(1)
	go func() {
		defer inflight.Done()
		if err := p.Publish(ctx, e); err != nil {
			logger.Get().Errorw("failed to publish event", "type", e.Type, "event_id", e.ID, "error", err)
		}
	}()
}

// Wait blocks until every PublishAsync call has finished or ctx is done. Call it before
// closing the publisher.
func Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
