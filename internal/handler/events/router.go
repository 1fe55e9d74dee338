package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stadium-ops/event-gateway/internal/adapter/pubsub"
)

const forwardHandlerName = "forward_broker_events"

func NewWatermillRouter(wmLogger watermill.LoggerAdapter) (*message.Router, error) {
	return message.NewRouter(message.RouterConfig{}, wmLogger)
}

// RegisterHandlers wires the forwarding handler onto the ingress topic.
// A single consumer keeps one delivery context, so events are processed
// one at a time in broker arrival order.
func (h *ForwardHandler) RegisterHandlers(router *message.Router, sub message.Subscriber, logger *slog.Logger) error {
	if router == nil || sub == nil {
		return fmt.Errorf("events: router and subscriber are required")
	}

	router.AddNoPublisherHandler(
		forwardHandlerName,
		pubsub.IngressTopic,
		sub,
		h.Handle,
	).AddMiddleware(
		TraceIDMiddleware,
		LoggingMiddleware(logger),
	)

	logger.Info("forwarding pipeline registered", "topic", pubsub.IngressTopic)
	return nil
}

// Run starts the router and blocks until it is running or ctx is done.
func Run(ctx context.Context, router *message.Router, logger *slog.Logger) error {
	go func() {
		if err := router.Run(context.Background()); err != nil {
			// Router failures are terminal for the pipeline but the
			// process keeps serving already-admitted sessions.
			logger.Error("pipeline router stopped", "error", err)
		}
	}()

	select {
	case <-router.Running():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
