package feed

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/olyamironova/exchange-sim/internal/observability"
)

const (
	subscribePrefix = "SUBSCRIBE:"
	disconnectCmd   = "DISCONNECT"
	allSymbolsToken = "ALL"

	sendBufferSize = 64
)

// conn is the slice of *websocket.Conn the session needs; narrowed for tests.
type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session is one long-lived feed connection. It reads subscription commands
// and pushes serialized updates through a buffered channel drained by its own
// writer goroutine, so a slow consumer can never stall a broadcast.
type Session struct {
	id   string
	hub  *Hub
	conn conn
	log  *zap.Logger

	send chan []byte
	done chan struct{}

	mu      sync.Mutex
	symbols map[string]struct{}

	closeOnce sync.Once
}

func NewSession(hub *Hub, c conn, log *zap.Logger) *Session {
	return &Session{
		id:      uuid.NewString(),
		hub:     hub,
		conn:    c,
		log:     log,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		symbols: make(map[string]struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// Run registers the session and serves it until the client disconnects or the
// transport fails. Blocks for the session lifetime.
func (s *Session) Run() {
	s.hub.Register(s)
	observability.FeedConnections.Inc()
	defer func() {
		s.hub.Unregister(s)
		observability.FeedConnections.Dec()
		s.log.Info("feed session closed", zap.String("session_id", s.id))
	}()

	go s.writePump()

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			// Connection loss is an implicit disconnect.
			return
		}
		cmd := strings.TrimSpace(string(msg))
		switch {
		case strings.HasPrefix(cmd, subscribePrefix):
			s.setSubscriptions(strings.TrimPrefix(cmd, subscribePrefix))
		case cmd == disconnectCmd:
			return
		}
	}
}

// setSubscriptions replaces the session's filter. An empty list or the ALL
// token clears the filter, meaning every symbol.
func (s *Session) setSubscriptions(list string) {
	symbols := make(map[string]struct{})
	for _, raw := range strings.Split(list, ",") {
		sym := strings.ToUpper(strings.TrimSpace(raw))
		if sym == "" || sym == allSymbolsToken {
			symbols = make(map[string]struct{})
			break
		}
		symbols[sym] = struct{}{}
	}

	s.mu.Lock()
	s.symbols = symbols
	s.mu.Unlock()
	s.log.Info("feed subscription replaced",
		zap.String("session_id", s.id),
		zap.Int("symbols", len(symbols)),
	)
}

func (s *Session) wants(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.symbols) == 0 {
		return true
	}
	_, ok := s.symbols[symbol]
	return ok
}

// trySend queues the payload without blocking; a full buffer drops the update
// for this session only. The send channel is never closed, so a broadcast
// racing an unregister stays safe.
func (s *Session) trySend(data []byte) {
	select {
	case s.send <- data:
	case <-s.done:
	default:
		observability.BroadcastsDropped.Inc()
	}
}

func (s *Session) writePump() {
	for {
		select {
		case data := <-s.send:
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.hub.Unregister(s)
				return
			}
		case <-s.done:
			return
		}
	}
}

// shutdown releases the session's resources. Called via Hub.Unregister,
// exactly once.
func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}
