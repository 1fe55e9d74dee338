package service

import (
	"log/slog"

	"github.com/stadium-ops/event-gateway/config"
	"github.com/stadium-ops/event-gateway/infra/client/authsvc"
	"github.com/stadium-ops/event-gateway/internal/domain/policy"
	"github.com/stadium-ops/event-gateway/internal/domain/registry"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"service",

	fx.Provide(
		policy.NewTable,

		func(c *authsvc.Client) Validator { return c },

		fx.Annotate(
			func(cfg *config.Config, validator Validator) *IdentityService {
				return NewIdentityService(validator, cfg.Auth.CacheSize, cfg.Auth.CacheTTL)
			},
			fx.As(new(Auther)),
		),

		NewGuardPipeline,

		fx.Annotate(
			func(hub registry.Hubber, cfg *config.Config) *DeliveryService {
				return NewDeliveryService(hub, cfg.Hub.MailboxSize)
			},
			fx.As(new(Deliverer)),
		),
	),

	// Intercept the identity service to add cross-cutting logging.
	fx.Decorate(func(orig Auther, logger *slog.Logger) Auther {
		return &AutherMiddleware{
			Next:   orig,
			Logger: logger,
		}
	}),
)
