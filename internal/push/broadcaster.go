// Package push streams freshly published dashboard payloads to connected
// WebSocket clients. Clients get the current payload on connect and every
// rebuild's payload afterwards; slow clients are dropped rather than
// allowed to stall a broadcast.
package push

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Default configuration values.
const (
	DefaultSendBuffer   = 8
	DefaultWriteTimeout = 10 * time.Second
)

// client is one connected dashboard.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster fans published payloads out to WebSocket clients.
type Broadcaster struct {
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	logger       *zap.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
	last    []byte // most recent serialized payload, sent on connect
}

// NewBroadcaster creates a broadcaster. logger may be nil.
func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		writeTimeout: DefaultWriteTimeout,
		logger:       logger,
		clients:      make(map[*client]struct{}),
	}
}

// Publish serializes v and queues it to every connected client. Clients
// whose send buffer is full are disconnected.
func (b *Broadcaster) Publish(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		b.logger.Warn("push marshal failed", zap.Error(err))
		return
	}

	b.mu.Lock()
	b.last = data
	var slow []*client
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()

	if len(slow) > 0 {
		b.logger.Warn("dropped slow push clients", zap.Int("count", len(slow)))
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, DefaultSendBuffer)}

	b.mu.Lock()
	b.clients[c] = struct{}{}
	if b.last != nil {
		c.send <- b.last
	}
	b.mu.Unlock()

	go b.writeLoop(c)
	b.readLoop(c)
}

// writeLoop drains the client's send channel onto the wire.
func (b *Broadcaster) writeLoop(c *client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			b.remove(c)
			break
		}
	}
	c.conn.Close()
}

// readLoop discards inbound frames and detects disconnects.
func (b *Broadcaster) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			b.remove(c)
			return
		}
	}
}

// remove unregisters the client once; safe to call from both loops.
func (b *Broadcaster) remove(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}

// Shutdown closes every client connection.
func (b *Broadcaster) Shutdown(ctx context.Context) {
	b.mu.Lock()
	for c := range b.clients {
		delete(b.clients, c)
		close(c.send)
	}
	b.mu.Unlock()
}
