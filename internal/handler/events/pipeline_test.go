package events

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/google/uuid"
	"github.com/stadium-ops/event-gateway/internal/adapter/pubsub"
	"github.com/stadium-ops/event-gateway/internal/domain/model"
	"github.com/stadium-ops/event-gateway/internal/domain/registry"
	"github.com/stadium-ops/event-gateway/internal/domain/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// sequencedHub records every broadcast and whether two ever ran at the same
// time.
type sequencedHub struct {
	inFlight   atomic.Int32
	overlapped atomic.Bool

	mu     sync.Mutex
	events []*model.Event
}

func (h *sequencedHub) Broadcast(ev *model.Event) int {
	if h.inFlight.Add(1) > 1 {
		h.overlapped.Store(true)
	}
	// Hold the slot long enough for a concurrent delivery to show up.
	time.Sleep(200 * time.Microsecond)

	h.mu.Lock()
	h.events = append(h.events, ev)
	h.mu.Unlock()

	h.inFlight.Add(-1)
	return 1
}

func (h *sequencedHub) Register(registry.Sessioner) {}
func (h *sequencedHub) Unregister(uuid.UUID)        {}
func (h *sequencedHub) Stats() model.HubStats       { return model.HubStats{} }
func (h *sequencedHub) Shutdown()                   {}

func (h *sequencedHub) snapshot() []*model.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*model.Event(nil), h.events...)
}

// The gateway forwards broker events one at a time, in arrival order: the
// full ingress, gochannel and router path must never reorder or overlap
// deliveries, however the transport schedules its goroutines.
func TestPipelineForwardsSequentiallyInArrivalOrder(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ch := pubsub.NewGoChannel(watermill.NopLogger{})
	t.Cleanup(func() { _ = ch.Close() })

	hub := &sequencedHub{}
	h := NewForwardHandler(routing.NewDefaultRouter(), hub,
		noop.NewTracerProvider().Tracer("test"), logger)

	router, err := NewWatermillRouter(watermill.NopLogger{})
	require.NoError(t, err)
	require.NoError(t, h.RegisterHandlers(router, ch, logger))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, Run(ctx, router, logger))
	t.Cleanup(func() { _ = router.Close() })

	ingress := pubsub.NewIngress(ch, logger)

	const n = 60
	for i := 0; i < n; i++ {
		ingress.Accept("stadium/crowd/gate-5", []byte(strconv.Itoa(i)))
	}

	// Accept returns only after the handler acked, so every broadcast has
	// completed by now.
	events := hub.snapshot()
	require.Len(t, events, n)
	assert.False(t, hub.overlapped.Load(), "deliveries must not overlap")
	for i, ev := range events {
		require.Equal(t, strconv.Itoa(i), string(ev.Payload),
			"event %d must keep its arrival position", i)
	}
}
