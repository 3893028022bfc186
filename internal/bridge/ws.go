package bridge

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// The listener binds to localhost only, so any origin a local browser
// supplies is acceptable.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  16 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsConn adapts a websocket connection to the Conn interface. Gorilla
// permits at most one concurrent writer, hence the write mutex.
type wsConn struct {
	conn *websocket.Conn

	wmu sync.Mutex
}

func (c *wsConn) ReadMessage() (Message, error) {
	var msg Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (c *wsConn) WriteMessage(msg Message) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// Server accepts websocket clients and hands each one to the bridge.
// One extension client is served at a time; a new connection replaces
// the old one.
type Server struct {
	bridge *Bridge
	log    *zap.Logger
	http   *http.Server
}

// NewServer creates a websocket front for the bridge on addr.
func NewServer(addr string, b *Bridge, log *zap.Logger) *Server {
	s := &Server{bridge: b, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/bridge", s.handle)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks until the listener fails or Shutdown is
// called.
func (s *Server) ListenAndServe() error {
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.log.Info("extension connected", zap.String("remote", r.RemoteAddr))
	err = s.bridge.Serve(r.Context(), &wsConn{conn: conn})
	s.log.Info("extension disconnected", zap.Error(err))
}
