package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stadium-ops/event-gateway/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvent(destination string) *model.Event {
	ev := model.NewEvent("stadium/test/x", []byte(`{"k":"v"}`))
	ev.Destination = destination
	return ev
}

func TestBroadcastReachesOnlySubscribers(t *testing.T) {
	hub := NewHub()

	subscribed := NewSession(context.Background(), 8)
	subscribed.Subscribe("/topic/crowd")
	hub.Register(subscribed)

	other := NewSession(context.Background(), 8)
	other.Subscribe("/topic/maintenance")
	hub.Register(other)

	delivered := hub.Broadcast(newTestEvent("/topic/crowd"))
	require.Equal(t, 1, delivered)

	select {
	case ev := <-subscribed.Recv():
		assert.Equal(t, "/topic/crowd", ev.Destination)
	default:
		t.Fatal("subscribed session received nothing")
	}

	select {
	case <-other.Recv():
		t.Fatal("unsubscribed session received an event")
	default:
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()

	sess := NewSession(context.Background(), 8)
	sess.Subscribe("/topic/crowd")
	hub.Register(sess)

	hub.Unregister(sess.ID())
	// Idempotent.
	hub.Unregister(sess.ID())

	assert.Equal(t, 0, hub.Broadcast(newTestEvent("/topic/crowd")))
}

func TestFullMailboxShedsPerSession(t *testing.T) {
	hub := NewHub()

	slow := NewSession(context.Background(), 1)
	slow.Subscribe("/topic/crowd")
	hub.Register(slow)

	fast := NewSession(context.Background(), 8)
	fast.Subscribe("/topic/crowd")
	hub.Register(fast)

	require.Equal(t, 2, hub.Broadcast(newTestEvent("/topic/crowd")))
	// The slow mailbox is now full; only the fast session accepts.
	require.Equal(t, 1, hub.Broadcast(newTestEvent("/topic/crowd")))
	assert.Equal(t, uint64(1), slow.Dropped())
}

func TestConcurrentSubscribeAndBroadcast(t *testing.T) {
	hub := NewHub()

	const sessions = 32
	var wg sync.WaitGroup

	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s := NewSession(context.Background(), 64)
			s.Subscribe(fmt.Sprintf("/topic/load-%d", n%4))
			hub.Register(s)
		}(i)
	}

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Broadcast(newTestEvent("/topic/load-0"))
		}()
	}

	wg.Wait()

	stats := hub.Stats()
	assert.Equal(t, sessions, stats.TotalSessions)
	assert.Equal(t, sessions, stats.TotalSubscriptions)
}

func TestStats(t *testing.T) {
	hub := NewHub()

	s := NewSession(context.Background(), 8)
	s.Subscribe("/topic/crowd")
	s.Subscribe("/topic/emergency")
	hub.Register(s)

	stats := hub.Stats()
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 2, stats.TotalSubscriptions)
	assert.Equal(t, 1, stats.Destinations["/topic/crowd"])
	assert.Equal(t, 1, stats.Destinations["/topic/emergency"])
}

func TestSessionPrincipalDefaultsToAnonymous(t *testing.T) {
	s := NewSession(context.Background(), 1)
	_, ok := s.Principal().(model.Anonymous)
	require.True(t, ok)

	s.SetPrincipal(model.Authenticated{Username: "ops", Role: "staff"})
	auth, ok := s.Principal().(model.Authenticated)
	require.True(t, ok)
	assert.Equal(t, "ops", auth.Username)
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	s := NewSession(context.Background(), 1)
	s.Close()
	assert.NotPanics(t, func() { s.Close() })
}
