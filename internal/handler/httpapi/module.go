package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/stadium-ops/event-gateway/config"
	"github.com/stadium-ops/event-gateway/internal/handler/lp"
	"github.com/stadium-ops/event-gateway/internal/handler/ws"
	"go.uber.org/fx"
)

var Module = fx.Module("http-server",
	fx.Provide(
		NewGatewayHandler,
		ws.NewWSHandler,
		lp.NewLPHandler,
		NewMux,
		func(cfg *config.Config, mux *chi.Mux) *http.Server {
			return &http.Server{Addr: cfg.HTTP.ListenAddr, Handler: mux}
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, srv *http.Server, logger *slog.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return Serve(ctx, srv, logger)
			},
			OnStop: func(ctx context.Context) error {
				return Shutdown(ctx, srv)
			},
		})
	}),
)
