package domain

import (
	"context"

	"fiskalis/internal/core/id"
)

// Event describes a domain state change intended for downstream consumers.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       map[string]any
}

// EventPublisher records domain events. Implementations that write to durable
// storage should join the caller's transaction so the event is only recorded
// when the state change commits.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopEventPublisher discards events. Used when no outbox is configured.
type NopEventPublisher struct{}

func (NopEventPublisher) Publish(context.Context, Event) error { return nil }
