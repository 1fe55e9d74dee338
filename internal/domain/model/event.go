package model

import (
	"time"

	"github.com/google/uuid"
)

// Event is one operational event observed on the broker. The payload is
// opaque to the gateway and is forwarded to subscribers byte for byte.
type Event struct {
	// ID is assigned by the gateway on ingress, not by the broker.
	ID string `json:"id"`

	// Topic is the broker topic the event arrived on, `/`-separated
	// hierarchical segments (e.g. "stadium/crowd/gate-5").
	Topic string `json:"topic"`

	// Destination is the client-facing channel the router resolved the
	// topic to. Empty until routing has run.
	Destination string `json:"destination"`

	Payload    []byte    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}

func NewEvent(topic string, payload []byte) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Topic:      topic,
		Payload:    payload,
		ReceivedAt: time.Now(),
	}
}
