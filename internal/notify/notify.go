// Package notify delivers outbound reminder messages. Each delivery
// channel (SMS gateway, Slack, Discord) implements the Adapter
// interface; the registry picks the adapter for an account's channel.
package notify

import (
	"context"
	"fmt"
)

// Message is one outbound delivery.
type Message struct {
	To   string // recipient address: phone number or platform user ID
	From string // sender address: the plant's dedicated number
	Body string
}

// Adapter sends a message over one delivery channel. Send is
// fire-and-forget from the core's perspective: the returned delivery ID
// is recorded for the log, and errors cause the plant to be skipped for
// the pass, never retried inline.
type Adapter interface {
	Send(ctx context.Context, msg Message) (deliveryID string, err error)
	Name() string
}

// Registry maps channel names to adapters.
type Registry struct {
	adapters map[string]Adapter
	fallback string
}

// NewRegistry builds a registry. The first registered adapter becomes
// the fallback for unknown channel names.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its own name.
func (r *Registry) Register(a Adapter) {
	if len(r.adapters) == 0 {
		r.fallback = a.Name()
	}
	r.adapters[a.Name()] = a
}

// For returns the adapter for a channel name, falling back to the first
// registered adapter.
func (r *Registry) For(channel string) (Adapter, error) {
	if a, ok := r.adapters[channel]; ok {
		return a, nil
	}
	if a, ok := r.adapters[r.fallback]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("notify: no adapter for channel %q", channel)
}

// Channels lists the registered channel names.
func (r *Registry) Channels() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
