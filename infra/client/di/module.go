package clientdi

import (
	"log/slog"

	"github.com/stadium-ops/event-gateway/config"
	"github.com/stadium-ops/event-gateway/infra/client/authsvc"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"clients",

	fx.Provide(
		func(cfg *config.Config, logger *slog.Logger) *authsvc.Client {
			return authsvc.New(cfg.Auth.BaseURL, cfg.Auth.Timeout, logger)
		},
	),
)
