// Package preview streams builder state to browsers over websockets so a
// rendered form can follow edits as they happen.
package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/goliatone/go-formbuilder/pkg/canvas"
	"github.com/goliatone/go-formbuilder/pkg/rules"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("preview: hub closed")

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
)

// Frame is one published state of the builder.
type Frame struct {
	Sequence int                    `json:"seq"`
	Title    string                 `json:"title,omitempty"`
	Fields   []canvas.Field         `json:"fields"`
	Selected string                 `json:"selected,omitempty"`
	Rules    []rules.Rule           `json:"rules"`
	Actions  []rules.ResolvedAction `json:"actions"`
	States   rules.FieldStates      `json:"states"`
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithCheckOrigin overrides the websocket origin check.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = fn
	}
}

// Hub fans frames out to connected websocket clients. New clients receive
// the most recent frame immediately. Slow clients that fall behind by more
// than a few frames are disconnected.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	last     []byte
	seq      int
	closed   bool
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Publish stamps frame with the next sequence number and broadcasts it.
func (h *Hub) Publish(frame Frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.seq++
	frame.Sequence = h.seq
	data, err := json.Marshal(frame)
	if err != nil {
		h.seq--
		return fmt.Errorf("preview: encode frame: %w", err)
	}
	h.last = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("preview client too slow, disconnecting", "remote", c.conn.RemoteAddr().String())
			h.dropLocked(c)
		}
	}
	return nil
}

// Last returns the most recent encoded frame, or nil.
func (h *Hub) Last() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams frames until the client leaves.
// Incoming messages are read and discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "preview closed", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("preview upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()
	h.logger.Debug("preview client connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(c)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	h.dropLocked(c)
	h.mu.Unlock()
	h.logger.Debug("preview client disconnected", "remote", conn.RemoteAddr().String())
}

// FrameHandler serves the most recent frame as JSON for clients that poll.
func (h *Hub) FrameHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		last := h.Last()
		if last == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(last)
	})
}

// Close disconnects every client and rejects further publishes.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
	return nil
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("preview write failed", "error", err)
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// dropLocked removes c and closes its queue. Callers hold h.mu.
func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}
