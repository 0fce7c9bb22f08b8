// Package events publishes domain lifecycle events (entry created or
// changed, author deleted) to a message broker. Publishing is
// best-effort: the API never fails a request because the broker is
// down, and a nil Publisher silently discards events. Consumers live
// in separate services.
package events

import (
	"context"
	"encoding/json"
)

// Channels events are published on.
const (
	ChannelEntries = "blog.entries"
	ChannelAuthors = "blog.authors"
)

// Event names carried in the message attributes.
const (
	EntryCreated  = "entry.created"
	EntryUpdated  = "entry.updated"
	EntryDeleted  = "entry.deleted"
	AuthorDeleted = "author.deleted"
)

// Backend defines the broker-agnostic publish operations.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher wraps a backend with JSON encoding and nil-safety.
type Publisher struct {
	backend Backend
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend) *Publisher {
	return &Publisher{backend: backend}
}

// Publish sends a JSON-encoded event to the named channel. A nil
// Publisher is a no-op.
func (p *Publisher) Publish(ctx context.Context, channel, event string, payload any) error {
	if p == nil || p.backend == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = p.backend.Publish(ctx, channel, data, map[string]string{"event": event})
	return err
}

// Close closes the underlying backend. A nil Publisher is a no-op.
func (p *Publisher) Close() error {
	if p == nil || p.backend == nil {
		return nil
	}
	return p.backend.Close()
}
