package feed

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/olyamironova/exchange-sim/internal/domain"
	"github.com/olyamironova/exchange-sim/internal/port"
)

// Relay is an optional secondary fan-out for market updates, e.g. a message
// broker. Must not block.
type Relay interface {
	Publish(update domain.MarketUpdate)
}

var _ port.Broadcaster = (*Hub)(nil)

// Hub tracks the connected feed sessions and fans updates out to each one
// whose subscription filter admits the symbol. Delivery to one session never
// blocks or fails delivery to the others: each session owns a buffered send
// channel and a writer goroutine, and a session whose transport write fails
// unregisters itself.
type Hub struct {
	log   *zap.Logger
	relay Relay

	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

func NewHub(relay Relay, log *zap.Logger) *Hub {
	return &Hub{
		log:      log,
		relay:    relay,
		sessions: make(map[*Session]struct{}),
	}
}

func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	_, present := h.sessions[s]
	delete(h.sessions, s)
	h.mu.Unlock()
	if present {
		s.shutdown()
	}
}

// Broadcast delivers the update to every registered session subscribed to the
// symbol (an empty subscription set means all symbols). Iteration happens over
// a point-in-time snapshot so sessions joining or leaving mid-broadcast do not
// interfere with in-flight delivery.
func (h *Hub) Broadcast(update domain.MarketUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		h.log.Error("marshal market update", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if s.wants(update.Symbol) {
			s.trySend(data)
		}
	}

	if h.relay != nil {
		h.relay.Publish(update)
	}
}

// SessionCount reports the number of registered sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
