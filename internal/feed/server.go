package feed

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server accepts market-data feed connections on a dedicated port and hands
// each one to a Session.
type Server struct {
	log      *zap.Logger
	hub      *Hub
	port     int
	upgrader websocket.Upgrader
	srv      *http.Server
}

func NewServer(port int, hub *Hub, log *zap.Logger) *Server {
	s := &Server{
		log:  log,
		hub:  hub,
		port: port,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", s.handleFeed)
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Port reports the listen port, published to clients over the control plane.
func (s *Server) Port() int { return s.port }

// Run serves feed connections until Shutdown. Blocks.
func (s *Server) Run() error {
	s.log.Info("feed server listening", zap.Int("port", s.port))
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade", zap.Error(err))
		return
	}
	session := NewSession(s.hub, c, s.log)
	s.log.Info("feed client connected",
		zap.String("session_id", session.ID()),
		zap.String("remote", r.RemoteAddr),
	)
	session.Run()
}
