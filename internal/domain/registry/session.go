package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/stadium-ops/event-gateway/internal/domain/model"
)

// Interface guard
var _ Sessioner = (*session)(nil)

// Sessioner is the session contract exposed to transport handlers and the
// hub. The concrete type is unexported to force interface usage.
type Sessioner interface {
	ID() uuid.UUID

	// Principal starts as Anonymous and is replaced
	// at most once, by the authentication stage on the connect frame.
	Principal() model.Principal
	SetPrincipal(p model.Principal)

	// Subscription set mutation and lookup. Safe for concurrent use:
	// broadcasts read the set while subscribe frames mutate it.
	Subscribe(destination string)
	Unsubscribe(destination string)
	IsSubscribed(destination string) bool
	Subscriptions() []string

	// Push enqueues an event for the outbound pump. Returns false when
	// the mailbox is full or the session is closing; the event is then
	// dropped, never queued elsewhere.
	Push(ev *model.Event) bool
	Recv() <-chan *model.Event
	Dropped() uint64

	Close()
}

type session struct {
	id       uuid.UUID
	ctx      context.Context
	cancelFn context.CancelFunc
	closed   atomic.Bool
	dropped  atomic.Uint64

	// mu guards sendCh against a close racing an in-flight Push, and the
	// principal and subscription set against concurrent frame handling.
	mu            sync.RWMutex
	sendCh        chan *model.Event
	principal     model.Principal
	subscriptions map[string]struct{}
}

// [POOL] Session structs are recycled to reduce GC pressure under
// connection churn; reset wipes all state from the previous owner.
var sessionPool = sync.Pool{
	New: func() any {
		return &session{}
	},
}

// NewSession returns a pooled session bound to ctx with a bounded outbound
// mailbox. The session starts Anonymous with no subscriptions.
func NewSession(ctx context.Context, bufferSize int) Sessioner {
	s := sessionPool.Get().(*session)
	s.reset(ctx, bufferSize)
	return s
}

func (s *session) reset(ctx context.Context, bufferSize int) {
	childCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.id = uuid.New()
	s.sendCh = make(chan *model.Event, bufferSize)
	s.principal = model.Anonymous{}
	s.subscriptions = make(map[string]struct{})
	s.mu.Unlock()

	s.ctx = childCtx
	s.cancelFn = cancel
	s.dropped.Store(0)
	s.closed.Store(false)
}

func (s *session) ID() uuid.UUID { return s.id }

func (s *session) Principal() model.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal
}

func (s *session) SetPrincipal(p model.Principal) {
	s.mu.Lock()
	s.principal = p
	s.mu.Unlock()
}

func (s *session) Subscribe(destination string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscriptions == nil {
		return
	}
	s.subscriptions[destination] = struct{}{}
}

func (s *session) Unsubscribe(destination string) {
	s.mu.Lock()
	delete(s.subscriptions, destination)
	s.mu.Unlock()
}

func (s *session) IsSubscribed(destination string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.subscriptions[destination]
	return ok
}

func (s *session) Subscriptions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.subscriptions))
	for d := range s.subscriptions {
		out = append(out, d)
	}
	return out
}

// Push never blocks the broadcaster: a full mailbox means the consumer is
// slow and the event is shed for this session only. The read lock keeps the
// send attempt from interleaving with Close.
func (s *session) Push(ev *model.Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sendCh == nil {
		return false
	}

	select {
	case <-s.ctx.Done():
		return false
	case s.sendCh <- ev:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

func (s *session) Recv() <-chan *model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sendCh
}

func (s *session) Dropped() uint64 { return s.dropped.Load() }

// Close terminates the session exactly once and recycles the struct. Safe
// to call concurrently from the hub (shutdown) and the transport (defer).
func (s *session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.cancelFn()

	s.mu.Lock()
	if s.sendCh != nil {
		close(s.sendCh)
	}
	s.sendCh = nil
	s.subscriptions = nil
	s.principal = model.Anonymous{}
	s.mu.Unlock()

	sessionPool.Put(s)
}
