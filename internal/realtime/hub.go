// Package realtime fans planning events out to websocket clients grouped by room.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"
	"work-allocation/internal/events"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	ActionJoinRoom  = "join-room"
	ActionLeaveRoom = "leave-room"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var ErrHubClosed = errors.New("realtime: hub closed")

// Command is a frame sent by a client.
type Command struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

// Hub keeps the set of connected clients and their rooms.
// Delivery is non-blocking: a client whose buffer is full misses the frame.
type Hub struct {
	upgrader   websocket.Upgrader
	logger     *logrus.Entry
	sendBuffer int

	mu      sync.RWMutex
	clients map[*client]struct{}
	rooms   map[string]map[*client]struct{}
	closed  bool
}

type Option func(*Hub)

// WithCheckOrigin overrides the upgrader origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// WithSendBuffer sets the per-client outbound frame buffer.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

func NewHub(logger *logrus.Logger, opts ...Option) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:     logger.WithField("component", "realtime"),
		sendBuffer: 32,
		clients:    make(map[*client]struct{}),
		rooms:      make(map[string]map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, h.sendBuffer),
		rooms: make(map[string]struct{}),
	}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	h.logger.WithField("remote", r.RemoteAddr).Debug("Client connected")
	go c.writePump()
	c.readPump()
}

// Publish sends the event to every client in room.
func (h *Hub) Publish(_ context.Context, room, name string, payload any) error {
	frame, err := json.Marshal(events.Event{Room: room, Name: name, Payload: payload, At: time.Now().UTC()})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}

	dropped := 0
	for c := range h.rooms[room] {
		select {
		case c.send <- frame:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.WithFields(logrus.Fields{
			"room":    room,
			"event":   name,
			"dropped": dropped,
		}).Warn("Slow clients missed event")
	}
	return nil
}

// RoomSize returns the number of clients currently in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Publish fails afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		close(c.send)
	}
	h.clients = make(map[*client]struct{})
	h.rooms = make(map[string]map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.conn.Close()
	}
	h.logger.WithField("clients", len(clients)).Info("Realtime hub closed")
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	for room := range c.rooms {
		h.removeFromRoom(c, room)
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) join(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoom(c, room)
}

// removeFromRoom requires h.mu held for writing.
func (h *Hub) removeFromRoom(c *client, room string) {
	delete(c.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}
