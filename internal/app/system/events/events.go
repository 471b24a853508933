// Package events publishes domain events for downstream consumers (feed
// fan-out, welcome messages, moderation). Publishing is best effort; the
// request that triggered an event never fails because of it.
package events

import (
	"context"
	"sync"
	"time"
)

// Event types. They double as AMQP routing keys.
const (
	UserPhoneVerified   = "user.phone_verified"
	UserAddressVerified = "user.address_verified"
	NeighborhoodCreated = "neighborhood.created"
)

// Event is a domain event.
type Event struct {
	Type           string            `json:"type"`
	OccurredAt     time.Time         `json:"occurred_at"`
	UserID         string            `json:"user_id,omitempty"`
	NeighborhoodID string            `json:"neighborhood_id,omitempty"`
	Data           map[string]string `json:"data,omitempty"`
}

// Publisher sends events to the bus.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

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

// Events returns a copy of what was published.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the published event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
