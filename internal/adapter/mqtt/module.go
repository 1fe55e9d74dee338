package mqtt

import (
	"context"
	"log/slog"

	"github.com/stadium-ops/event-gateway/config"
	"github.com/stadium-ops/event-gateway/internal/adapter/pubsub"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("mqtt-bridge",
	fx.Provide(
		func(cfg *config.Config, ingress *pubsub.Ingress, logger *slog.Logger) *Bridge {
			return NewBridge(cfg.Broker, ingress, logger)
		},
		func(b *Bridge, tracer trace.Tracer) pubsub.EventDispatcher {
			return pubsub.NewEventDispatcher(b, tracer)
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, b *Bridge) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return b.Connect(ctx)
			},
			OnStop: func(ctx context.Context) error {
				b.Disconnect()
				return nil
			},
		})
	}),
)
