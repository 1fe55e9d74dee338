package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stadium-ops/event-gateway/internal/handler/lp"
	"github.com/stadium-ops/event-gateway/internal/handler/ws"
)

// NewMux assembles the full HTTP surface: control plane, health, stats,
// websocket delivery and the long-poll fallback.
func NewMux(gw *GatewayHandler, wsHandler *ws.WSHandler, lpHandler *lp.LPHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", gw.Health)
	r.Get("/ws", wsHandler.ServeHTTP)

	r.Route("/api/gateway", func(r chi.Router) {
		r.Post("/assign", gw.AssignStaff)
		r.Get("/stats", gw.Stats)
		r.Get("/poll", lpHandler.Poll)
	})

	return r
}

// Serve runs the HTTP server until ctx teardown.
func Serve(lcCtx context.Context, srv *http.Server, logger *slog.Logger) error {
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
		}
	}()
	return nil
}

// Shutdown drains the server with a bounded grace period.
func Shutdown(ctx context.Context, srv *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
