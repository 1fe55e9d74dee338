package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/stadium-ops/event-gateway/infra/client/authsvc"
	"github.com/stadium-ops/event-gateway/internal/domain/model"
)

// Auther resolves bearer tokens into principals.
type Auther interface {
	// Resolve never returns an error: every validation failure collapses
	// to Anonymous, because a failed credential is not a reason to
	// refuse the connection.
	Resolve(ctx context.Context, token string) model.Principal
}

// Validator is the slice of the authsvc client the identity service needs.
type Validator interface {
	Validate(ctx context.Context, token string) (*authsvc.Claims, error)
}

type IdentityService struct {
	validator Validator
	cache     *expirable.LRU[string, model.Principal]
}

// NewIdentityService wraps the validator with a TTL-bounded LRU so a client
// reconnect storm does not hammer the identity service with the same token.
// Only positive results are cached; failures are re-checked every time.
func NewIdentityService(validator Validator, cacheSize int, cacheTTL time.Duration) *IdentityService {
	return &IdentityService{
		validator: validator,
		cache:     expirable.NewLRU[string, model.Principal](cacheSize, nil, cacheTTL),
	}
}

func (s *IdentityService) Resolve(ctx context.Context, token string) model.Principal {
	if token == "" {
		return model.Anonymous{}
	}

	if p, ok := s.cache.Get(token); ok {
		return p
	}

	claims, err := s.validator.Validate(ctx, token)
	if err != nil {
		return model.Anonymous{}
	}

	p := model.Authenticated{Username: claims.Name(), Role: claims.Role}
	s.cache.Add(token, model.Principal(p))
	return p
}
