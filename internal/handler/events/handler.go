// Package events consumes raw broker events from the in-process pipeline
// and fans them out to subscribed sessions.
package events

import (
	"log/slog"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stadium-ops/event-gateway/internal/adapter/pubsub"
	"github.com/stadium-ops/event-gateway/internal/domain/model"
	"github.com/stadium-ops/event-gateway/internal/domain/registry"
	"github.com/stadium-ops/event-gateway/internal/domain/routing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ForwardHandler struct {
	router *routing.Router
	hub    registry.Hubber
	tracer trace.Tracer
	logger *slog.Logger
}

func NewForwardHandler(router *routing.Router, hub registry.Hubber, tracer trace.Tracer, logger *slog.Logger) *ForwardHandler {
	return &ForwardHandler{router: router, hub: hub, tracer: tracer, logger: logger}
}

// Handle forwards one broker event: resolve the destination, broadcast
// exactly once. Failures are isolated per event: the message is always
// acked so a bad event never stalls the ones behind it.
func (h *ForwardHandler) Handle(msg *message.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("forwarding panic recovered",
				"err", r,
				"stack", string(debug.Stack()),
				"msg_id", msg.UUID)
			err = nil
		}
	}()

	topic := msg.Metadata.Get(pubsub.MetaBrokerTopic)

	_, span := h.tracer.Start(msg.Context(), "events.forward")
	defer span.End()

	ev := model.NewEvent(topic, msg.Payload)
	ev.Destination = h.router.Destination(topic)
	span.SetAttributes(
		attribute.String("broker.topic", topic),
		attribute.String("gateway.destination", ev.Destination),
	)

	delivered := h.hub.Broadcast(ev)

	h.logger.Debug("event forwarded",
		"topic", topic,
		"destination", ev.Destination,
		"sessions", delivered,
	)
	return nil
}
