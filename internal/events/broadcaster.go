// Package events fans named notifications out to every open push connection.
//
// Delivery is best effort and at most once: there is no acknowledgment, retry
// or replay. A connection whose write fails, or that falls QueueSize frames
// behind, is dropped from the set.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finmodel/internal/metrics"
)

// Refresh tells clients that data changed and should be fetched again.
const Refresh = "refresh"

var (
	connectedFrame = []byte(": connected\n\n")
	keepaliveFrame = []byte(": keepalive\n\n")
)

// QueueSize is how many frames may wait for a slow connection before it is
// dropped.
const QueueSize = 32

// Conn is one open push connection. Send must be safe for concurrent use.
type Conn interface {
	Send(frame []byte) error
}

// Broadcaster owns the set of open connections. Every connection has its own
// queue drained by one writer goroutine, so a stalled client never delays the
// caller or the other connections.
type Broadcaster struct {
	mu    sync.Mutex
	conns map[Conn]chan []byte

	log *logrus.Logger
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(log *logrus.Logger) *Broadcaster {
	return &Broadcaster{
		conns: make(map[Conn]chan []byte),
		log:   log,
	}
}

// Register adds conn to the active set and starts its writer.
func (b *Broadcaster) Register(conn Conn) {
	b.mu.Lock()
	if _, ok := b.conns[conn]; ok {
		b.mu.Unlock()
		return
	}
	queue := make(chan []byte, QueueSize)
	b.conns[conn] = queue
	n := len(b.conns)
	b.mu.Unlock()

	go b.drain(conn, queue)

	metrics.SetActiveStreams(n)
	b.log.Debugf("Push connection registered (%d active)", n)
}

// Unregister removes conn from the active set. Unknown connections are ignored.
func (b *Broadcaster) Unregister(conn Conn) {
	if b.remove(conn, nil) {
		b.log.Debugf("Push connection closed (%d active)", b.Len())
	}
}

// Len returns the number of registered connections.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// Broadcast queues event with an optional JSON payload for every connection
// and returns how many accepted it. A nil payload is sent as an empty object.
func (b *Broadcaster) Broadcast(event string, payload any) int {
	frame, err := EventFrame(event, payload)
	if err != nil {
		b.log.Errorf("Failed to encode %q event: %v", event, err)
		return 0
	}
	metrics.RecordBroadcast(event)
	return b.send(frame)
}

// Heartbeat queues a comment frame for every connection so idle proxies keep
// the streams open.
func (b *Broadcaster) Heartbeat() int {
	return b.send(keepaliveFrame)
}

// Schedule registers the heartbeat on c at the given interval.
func (b *Broadcaster) Schedule(c *cron.Cron, every time.Duration) (cron.EntryID, error) {
	return c.AddFunc(fmt.Sprintf("@every %s", every), func() { b.Heartbeat() })
}

// send enqueues without blocking. Enqueueing under mu keeps every queue in
// call order; a connection whose queue is full is dropped.
func (b *Broadcaster) send(frame []byte) int {
	b.mu.Lock()
	delivered := 0
	var full []Conn
	for conn, queue := range b.conns {
		select {
		case queue <- frame:
			delivered++
		default:
			full = append(full, conn)
		}
	}
	for _, conn := range full {
		close(b.conns[conn])
		delete(b.conns, conn)
	}
	n := len(b.conns)
	b.mu.Unlock()

	if len(full) > 0 {
		b.log.Debugf("Dropping %d push connection(s) with a full queue", len(full))
		metrics.SetActiveStreams(n)
		metrics.RecordDropped(len(full))
	}
	return delivered
}

// drain writes queued frames to conn until the queue is closed or a write fails.
func (b *Broadcaster) drain(conn Conn, queue chan []byte) {
	for frame := range queue {
		if err := conn.Send(frame); err != nil {
			if b.remove(conn, queue) {
				b.log.Debugf("Dropping push connection: %v", err)
				metrics.RecordDropped(1)
			}
			return
		}
	}
}

// remove deletes conn and closes its queue. When queue is non-nil, conn is
// only removed if it still owns that queue.
func (b *Broadcaster) remove(conn Conn, queue chan []byte) bool {
	b.mu.Lock()
	current, ok := b.conns[conn]
	if !ok || (queue != nil && current != queue) {
		b.mu.Unlock()
		return false
	}
	delete(b.conns, conn)
	close(current)
	n := len(b.conns)
	b.mu.Unlock()

	metrics.SetActiveStreams(n)
	return true
}

// EventFrame encodes a named event in text/event-stream framing.
func EventFrame(event string, payload any) ([]byte, error) {
	data := []byte("{}")
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return nil, err
		}
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)), nil
}
