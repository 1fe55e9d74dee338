package events

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stadium-ops/event-gateway/internal/domain/routing"
	"go.uber.org/fx"
)

var Module = fx.Module("events-pipeline",
	fx.Provide(
		routing.NewDefaultRouter,
		NewWatermillRouter,
		NewForwardHandler,
	),
	fx.Invoke(func(lc fx.Lifecycle, h *ForwardHandler, router *message.Router, sub message.Subscriber, logger *slog.Logger) error {
		if err := h.RegisterHandlers(router, sub, logger); err != nil {
			return err
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return Run(ctx, router, logger)
			},
			OnStop: func(ctx context.Context) error {
				return router.Close()
			},
		})
		return nil
	}),
)
