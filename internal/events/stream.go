package events

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errClosed = errors.New("connection closed")

// DefaultWriteTimeout bounds a single frame write; a client that cannot take a
// frame in time is dropped.
const DefaultWriteTimeout = 5 * time.Second

// streamConn writes frames to a text/event-stream response.
type streamConn struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	rc      *http.ResponseController
	timeout time.Duration
	closed  bool
}

func (s *streamConn) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	return s.write(frame)
}

func (s *streamConn) write(frame []byte) error {
	if err := s.rc.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	return s.rc.Flush()
}

// close must run before the handler returns; the ResponseWriter is invalid after.
func (s *streamConn) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// ServeStream holds r open as an event stream until the client goes away.
func (b *Broadcaster) ServeStream(w http.ResponseWriter, r *http.Request) {
	conn := &streamConn{
		w:       w,
		rc:      http.NewResponseController(w),
		timeout: DefaultWriteTimeout,
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := conn.write(connectedFrame); err != nil {
		b.log.Warnf("Event stream handshake failed: %v", err)
		return
	}

	b.Register(conn)
	<-r.Context().Done()
	b.Unregister(conn)
	conn.close()
}

// socketConn delivers the same frames as WebSocket text messages.
type socketConn struct {
	mu      sync.Mutex
	ws      *websocket.Conn
	timeout time.Duration
}

func (s *socketConn) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ws.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return err
	}
	return s.ws.WriteMessage(websocket.TextMessage, frame)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ServeSocket upgrades r and keeps the socket registered until the peer
// closes it. Incoming messages are discarded.
func (b *Broadcaster) ServeSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	conn := &socketConn{ws: ws, timeout: DefaultWriteTimeout}
	if err := conn.Send(connectedFrame); err != nil {
		b.log.Warnf("WebSocket handshake failed: %v", err)
		return
	}

	b.Register(conn)
	defer b.Unregister(conn)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
