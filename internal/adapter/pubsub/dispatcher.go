package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BrokerPublisher is the slice of the bridge the dispatcher needs.
type BrokerPublisher interface {
	Publish(topic string, payload []byte)
}

// EventDispatcher is the high-level contract for outgoing events, keeping
// callers agnostic of the broker transport.
type EventDispatcher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

type eventDispatcher struct {
	broker BrokerPublisher
	tracer trace.Tracer
}

func NewEventDispatcher(broker BrokerPublisher, tracer trace.Tracer) EventDispatcher {
	return &eventDispatcher{broker: broker, tracer: tracer}
}

// Publish serializes the payload and hands it to the broker bridge. The
// broker publish itself is best-effort; only serialization can fail here.
func (d *eventDispatcher) Publish(ctx context.Context, topic string, payload any) error {
	if payload == nil {
		return fmt.Errorf("event dispatcher: cannot publish nil payload")
	}

	_, span := d.tracer.Start(ctx, "dispatcher.publish")
	span.SetAttributes(attribute.String("broker.topic", topic))
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("event dispatcher: marshal failure: %w", err)
	}

	d.broker.Publish(topic, data)
	return nil
}
