package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stadium-ops/event-gateway/internal/domain/registry"
)

// Deliverer is the primary interface for transport handlers (websocket,
// long-poll). It owns session creation and teardown against the hub.
type Deliverer interface {
	Subscribe(ctx context.Context) (registry.Sessioner, error)
	Unsubscribe(id uuid.UUID)
}

type DeliveryService struct {
	hub         registry.Hubber
	mailboxSize int
}

func NewDeliveryService(hub registry.Hubber, mailboxSize int) *DeliveryService {
	return &DeliveryService{hub: hub, mailboxSize: mailboxSize}
}

// Subscribe creates a session bound to ctx and registers it with the hub.
// The session starts anonymous with no subscriptions; the guard pipeline
// fills both in as frames arrive.
func (s *DeliveryService) Subscribe(ctx context.Context) (registry.Sessioner, error) {
	sess := registry.NewSession(ctx, s.mailboxSize)
	s.hub.Register(sess)
	return sess, nil
}

// Unsubscribe removes the session from the hub and closes it.
func (s *DeliveryService) Unsubscribe(id uuid.UUID) {
	s.hub.Unregister(id)
}
