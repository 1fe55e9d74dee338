package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/stadium-ops/event-gateway/internal/domain/model"
)

// AutherMiddleware decorates the identity service with outcome logging,
// keeping observability out of the resolution logic itself.
type AutherMiddleware struct {
	Next   Auther
	Logger *slog.Logger
}

func (m *AutherMiddleware) Resolve(ctx context.Context, token string) model.Principal {
	start := time.Now()
	p := m.Next.Resolve(ctx, token)

	switch v := p.(type) {
	case model.Authenticated:
		m.Logger.Debug("identity resolved",
			"username", v.Username,
			"role", v.Role,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	case model.Anonymous:
		if token != "" {
			m.Logger.Debug("credential downgraded to anonymous",
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
	}
	return p
}
