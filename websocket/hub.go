package websocket

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/wavechat/wavechat-backend/metrics"
)

// Conn is the subset of the websocket connection used for outbound delivery.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Hub owns the connection registry plus the writer for each live socket.
// A socket is bound as soon as it is accepted; it only becomes a delivery
// target for a user once that user joins on it.
type Hub struct {
	registry *ConnectionRegistry

	mu    sync.RWMutex
	conns map[string]Conn
}

func NewHub() *Hub {
	return &Hub{
		registry: NewConnectionRegistry(),
		conns:    make(map[string]Conn),
	}
}

func (h *Hub) Registry() *ConnectionRegistry {
	return h.registry
}

// Bind associates a writer with a freshly accepted socket.
func (h *Hub) Bind(connID string, conn Conn) {
	h.mu.Lock()
	h.conns[connID] = conn
	h.mu.Unlock()
	metrics.ActiveConnections.Inc()
}

// Join marks the connection as belonging to a user, making it reachable for
// live delivery.
func (h *Hub) Join(userID uuid.UUID, connID string) {
	h.registry.Register(userID, connID)
}

// Drop tears a socket down: the writer is forgotten and the registry entry,
// if one was ever made, is removed.
func (h *Hub) Drop(connID string) {
	h.mu.Lock()
	_, bound := h.conns[connID]
	delete(h.conns, connID)
	h.mu.Unlock()

	h.registry.Unregister(connID)
	if bound {
		metrics.ActiveConnections.Dec()
	}
}

// ConnectionsFor exposes the registry lookup for fanout callers.
func (h *Hub) ConnectionsFor(userID uuid.UUID) []string {
	return h.registry.ConnectionsFor(userID)
}

// Push writes one event to one connection. A missing connection is not an
// error; the socket may have dropped between lookup and write.
func (h *Hub) Push(connID string, event interface{}) error {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	return conn.WriteJSON(event)
}

// PushToUser writes one event to every live connection of a user, logging and
// skipping failed writes.
func (h *Hub) PushToUser(userID uuid.UUID, event interface{}) {
	for _, connID := range h.registry.ConnectionsFor(userID) {
		if err := h.Push(connID, event); err != nil {
			log.Printf("Failed to push event to connection %s of user %s: %v", connID, userID, err)
		}
	}
}
