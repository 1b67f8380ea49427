// Package memory contains an in-memory publisher for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/orgharvest/orgharvest/internal/publisher"
)

// Publisher records published completion events for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []publisher.CompletionEvent
	closed bool
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the event.
func (p *Publisher) Publish(_ context.Context, event publisher.CompletionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Close marks the publisher closed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (p *Publisher) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Events returns the recorded publishes.
func (p *Publisher) Events() []publisher.CompletionEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]publisher.CompletionEvent, len(p.events))
	copy(out, p.events)
	return out
}
