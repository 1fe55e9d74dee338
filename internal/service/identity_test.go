package service

import (
	"context"
	"testing"
	"time"

	"github.com/stadium-ops/event-gateway/infra/client/authsvc"
	"github.com/stadium-ops/event-gateway/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeValidator struct {
	claims map[string]*authsvc.Claims
	calls  int
}

func (f *fakeValidator) Validate(_ context.Context, token string) (*authsvc.Claims, error) {
	f.calls++
	if c, ok := f.claims[token]; ok {
		return c, nil
	}
	return nil, authsvc.ErrInvalidToken
}

func TestResolve(t *testing.T) {
	validator := &fakeValidator{claims: map[string]*authsvc.Claims{
		"t1": {Username: "ops", Role: "staff"},
		"t2": {Subject: "svc-account", Role: "maintenance"},
	}}
	svc := NewIdentityService(validator, 16, time.Minute)

	t.Run("valid token yields authenticated principal", func(t *testing.T) {
		p := svc.Resolve(context.Background(), "t1")
		auth, ok := p.(model.Authenticated)
		require.True(t, ok)
		assert.Equal(t, "ops", auth.Username)
		assert.Equal(t, "staff", auth.Role)
	})

	t.Run("subject claim backfills the username", func(t *testing.T) {
		p := svc.Resolve(context.Background(), "t2")
		auth, ok := p.(model.Authenticated)
		require.True(t, ok)
		assert.Equal(t, "svc-account", auth.Username)
	})

	t.Run("positive results are cached", func(t *testing.T) {
		before := validator.calls
		svc.Resolve(context.Background(), "t1")
		svc.Resolve(context.Background(), "t1")
		assert.Equal(t, before, validator.calls)
	})

	t.Run("failures degrade to anonymous and are not cached", func(t *testing.T) {
		before := validator.calls
		_, anon := svc.Resolve(context.Background(), "bogus").(model.Anonymous)
		assert.True(t, anon)
		_, anon = svc.Resolve(context.Background(), "bogus").(model.Anonymous)
		assert.True(t, anon)
		assert.Equal(t, before+2, validator.calls)
	})

	t.Run("empty token short-circuits", func(t *testing.T) {
		before := validator.calls
		_, anon := svc.Resolve(context.Background(), "").(model.Anonymous)
		assert.True(t, anon)
		assert.Equal(t, before, validator.calls)
	})
}
