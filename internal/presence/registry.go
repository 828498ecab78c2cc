// Package presence tracks which users currently hold a live connection and
// what they are doing. State is process-local and ephemeral by design: it is
// lost on restart and not shared across instances, which limits the backend
// to a single-instance deployment (a second instance would see a disjoint
// online set).
package presence

import (
	"sort"
	"sync"
)

// DefaultActivity is the label a user starts with on registration.
const DefaultActivity = "Idle"

// Conn identifies a live client connection. Implementations must be
// comparable (pointer types are); unregistration matches by identity.
type Conn interface{}

// Registry maps user identity to live connection and current activity.
// Handlers for different connections mutate it concurrently, so every
// operation takes the lock.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]Conn
	activities  map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]Conn),
		activities:  make(map[string]string),
	}
}

// Register inserts or overwrites the connection for a user and resets their
// activity to the idle default. Last registration wins: a user identifying
// from a second connection silently displaces the first.
func (r *Registry) Register(userID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connections[userID] = conn
	r.activities[userID] = DefaultActivity
}

// UpdateActivity overwrites the stored activity label. Labels are opaque and
// not validated. Reports whether the user was registered; labels are only
// stored for registered users so the two maps stay consistent.
func (r *Registry) UpdateActivity(userID, activity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.connections[userID]; !ok {
		return false
	}
	r.activities[userID] = activity
	return true
}

// UnregisterConn removes the user owning the given connection, returning the
// removed identity. A connection that was already displaced or removed
// matches nothing and the call is a no-op returning false.
func (r *Registry) UnregisterConn(conn Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, c := range r.connections {
		if c == conn {
			delete(r.connections, userID)
			delete(r.activities, userID)
			return userID, true
		}
	}
	return "", false
}

// Resolve returns the current connection for a user.
func (r *Registry) Resolve(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.connections[userID]
	return conn, ok
}

// OnlineIDs returns a sorted snapshot of the currently registered user ids.
func (r *Registry) OnlineIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.connections))
	for userID := range r.connections {
		ids = append(ids, userID)
	}
	sort.Strings(ids)
	return ids
}

// Activities returns a snapshot of the current activity labels by user id.
func (r *Registry) Activities() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make(map[string]string, len(r.activities))
	for userID, activity := range r.activities {
		snapshot[userID] = activity
	}
	return snapshot
}
