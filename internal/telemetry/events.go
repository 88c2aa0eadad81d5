package telemetry

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// EventEnvelope wraps a domain event for downstream consumers on the topic
// exchange (indexers, notification workers).
type EventEnvelope struct {
	EventType  string `json:"event_type"`
	EventName  string `json:"event_name"`
	OccurredAt string `json:"occurred_at"`
	Service    string `json:"service"`
	Payload    any    `json:"payload"`
}

// EventEmitter publishes domain events (room created, message sent).
// Best-effort like the audit emitter.
type EventEmitter struct {
	publisher Publisher
	service   string
	log       zerolog.Logger
}

func NewEventEmitter(publisher Publisher, service string, log zerolog.Logger) *EventEmitter {
	return &EventEmitter{publisher: publisher, service: service, log: log}
}

func (e *EventEmitter) Emit(ctx context.Context, routingKey, eventName string, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := EventEnvelope{
		EventType:  "domain_event",
		EventName:  eventName,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Service:    e.service,
		Payload:    payload,
	}
	if err := e.publisher.Publish(ctx, routingKey, envelope); err != nil {
		e.log.Error().Err(err).Str("event", eventName).Msg("event publish failed")
	}
}
