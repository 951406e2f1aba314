package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// ConnectionRegistry tracks which connection ids belong to which user. It is
// the only shared mutable state in the process: connect and disconnect events
// for different users race with lookups from send fanout, so every access goes
// through the lock. A connection id belongs to at most one user at a time.
type ConnectionRegistry struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]map[string]struct{}
	byConn map[string]uuid.UUID
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byUser: make(map[uuid.UUID]map[string]struct{}),
		byConn: make(map[string]uuid.UUID),
	}
}

// Register adds connID to the user's active set. Registering the same id
// twice is a no-op; registering it under a different user moves it.
func (r *ConnectionRegistry) Register(userID uuid.UUID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byConn[connID]; ok {
		if owner == userID {
			return
		}
		r.removeLocked(owner, connID)
	}

	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		r.byUser[userID] = set
	}
	set[connID] = struct{}{}
	r.byConn[connID] = userID
}

// Unregister drops a connection. Unknown ids are a silent no-op: sockets may
// disconnect without ever having identified themselves.
func (r *ConnectionRegistry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.byConn[connID]
	if !ok {
		return
	}
	r.removeLocked(owner, connID)
}

func (r *ConnectionRegistry) removeLocked(userID uuid.UUID, connID string) {
	delete(r.byConn, connID)
	if set, ok := r.byUser[userID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}

func (r *ConnectionRegistry) IsOnline(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// ConnectionsFor returns a copy of the user's active connection ids, possibly
// empty.
func (r *ConnectionRegistry) ConnectionsFor(userID uuid.UUID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[userID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func (r *ConnectionRegistry) OnlineUserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func (r *ConnectionRegistry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
