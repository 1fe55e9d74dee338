// Package registry tracks live client sessions and fans broker events out
// to the sessions subscribed to a destination.
//
// Concurrency model: broadcasts arrive on the single inbound pipeline
// handler while connect/subscribe frames mutate sessions from per-connection
// goroutines. The session set uses sync.Map for lock-free broadcast
// iteration; each session guards its own subscription set with an RWMutex.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stadium-ops/event-gateway/internal/domain/model"
)

// Hubber is the session registry contract used by the delivery service and
// the inbound pipeline.
type Hubber interface {
	Register(s Sessioner)
	Unregister(id uuid.UUID)
	Broadcast(ev *model.Event) int
	Stats() model.HubStats
	Shutdown()
}

type Hub struct {
	// sessions stores Map[uuid.UUID]Sessioner.
	sessions sync.Map
	started  time.Time
}

func NewHub() *Hub {
	return &Hub{started: time.Now()}
}

// Broadcast delivers ev to every session subscribed to ev.Destination and
// returns the number of sessions it was enqueued for. Sessions with full
// mailboxes shed the event individually; the broadcast never blocks.
func (h *Hub) Broadcast(ev *model.Event) int {
	delivered := 0
	h.sessions.Range(func(_, val any) bool {
		if s, ok := val.(Sessioner); ok {
			if s.IsSubscribed(ev.Destination) && s.Push(ev) {
				delivered++
			}
		}
		return true
	})
	return delivered
}

func (h *Hub) Register(s Sessioner) {
	h.sessions.Store(s.ID(), s)
}

// Unregister removes and closes the session. Idempotent: a second call for
// the same id is a no-op.
func (h *Hub) Unregister(id uuid.UUID) {
	if val, ok := h.sessions.LoadAndDelete(id); ok {
		if s, ok := val.(Sessioner); ok {
			s.Close()
		}
	}
}

func (h *Hub) Stats() model.HubStats {
	stats := model.HubStats{
		Uptime:       time.Since(h.started),
		Destinations: make(map[string]int),
	}
	h.sessions.Range(func(_, val any) bool {
		s, ok := val.(Sessioner)
		if !ok {
			return true
		}
		stats.TotalSessions++
		stats.DroppedFrames += s.Dropped()
		for _, d := range s.Subscriptions() {
			stats.TotalSubscriptions++
			stats.Destinations[d]++
		}
		return true
	})
	return stats
}

// Shutdown closes every live session. Invoked once from the fx OnStop hook.
func (h *Hub) Shutdown() {
	h.sessions.Range(func(key, _ any) bool {
		if id, ok := key.(uuid.UUID); ok {
			h.Unregister(id)
		}
		return true
	})
}
