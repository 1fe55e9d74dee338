package events

import (
	"io"
	"log/slog"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stadium-ops/event-gateway/internal/adapter/pubsub"
	"github.com/stadium-ops/event-gateway/internal/domain/model"
	"github.com/stadium-ops/event-gateway/internal/domain/registry"
	"github.com/stadium-ops/event-gateway/internal/domain/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakeHub struct {
	events    []*model.Event
	panicOnce bool
}

func (f *fakeHub) Broadcast(ev *model.Event) int {
	if f.panicOnce {
		f.panicOnce = false
		panic("broadcast blew up")
	}
	f.events = append(f.events, ev)
	return 1
}

func (f *fakeHub) Register(registry.Sessioner) {}
func (f *fakeHub) Unregister(uuid.UUID)        {}
func (f *fakeHub) Stats() model.HubStats       { return model.HubStats{} }
func (f *fakeHub) Shutdown()                   {}

func newHandler(hub *fakeHub) *ForwardHandler {
	return NewForwardHandler(
		routing.NewDefaultRouter(),
		hub,
		noop.NewTracerProvider().Tracer("test"),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func brokerMessage(topic string, payload []byte) *message.Message {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(pubsub.MetaBrokerTopic, topic)
	return msg
}

func TestHandleForwardsExactlyOnce(t *testing.T) {
	hub := &fakeHub{}
	h := newHandler(hub)

	err := h.Handle(brokerMessage("stadium/emergency/incident-42", []byte(`{"type":"fire"}`)))
	require.NoError(t, err)

	require.Len(t, hub.events, 1)
	ev := hub.events[0]
	assert.Equal(t, "/topic/emergency", ev.Destination)
	assert.Equal(t, "stadium/emergency/incident-42", ev.Topic)
	assert.Equal(t, []byte(`{"type":"fire"}`), ev.Payload, "payload must be forwarded unchanged")
}

func TestHandleRoutesUnmappedTopicsToFallback(t *testing.T) {
	hub := &fakeHub{}
	h := newHandler(hub)

	require.NoError(t, h.Handle(brokerMessage("stadium/parking/lot-3", []byte(`{}`))))
	require.Len(t, hub.events, 1)
	assert.Equal(t, "/topic/events", hub.events[0].Destination)
}

func TestHandleIsolatesFailures(t *testing.T) {
	hub := &fakeHub{panicOnce: true}
	h := newHandler(hub)

	// Event N fails mid-broadcast; the message is still acked.
	err := h.Handle(brokerMessage("stadium/crowd/gate-5", []byte(`{"n":1}`)))
	require.NoError(t, err)
	require.Empty(t, hub.events)

	// Event N+1 is unaffected.
	err = h.Handle(brokerMessage("stadium/crowd/gate-5", []byte(`{"n":2}`)))
	require.NoError(t, err)
	require.Len(t, hub.events, 1)
	assert.Equal(t, []byte(`{"n":2}`), hub.events[0].Payload)
}
