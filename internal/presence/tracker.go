// Package presence keeps the process-wide registry of which users have live
// realtime connections.
package presence

import (
	"sort"
	"sync"
)

// Tracker maps a username to the connection ids currently open for it, in
// the order they connected. One mutex guards the whole map; every operation
// is O(connections of one user) and held briefly.
type Tracker struct {
	mu          sync.Mutex
	connections map[string][]string
}

// NewTracker creates an empty tracker. The server builds one at startup and
// keeps it for the process lifetime.
func NewTracker() *Tracker {
	return &Tracker{connections: make(map[string][]string)}
}

// UserConnected records connectionID for username and reports whether it is
// the user's first open connection. Adding an id twice is a no-op.
func (t *Tracker) UserConnected(username, connectionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids, online := t.connections[username]
	for _, id := range ids {
		if id == connectionID {
			return false
		}
	}
	t.connections[username] = append(ids, connectionID)
	return !online
}

// UserDisconnected removes connectionID and reports whether the user has no
// connections left. Unknown users or ids are ignored and report false.
func (t *Tracker) UserDisconnected(username, connectionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids, ok := t.connections[username]
	if !ok {
		return false
	}

	idx := -1
	for i, id := range ids {
		if id == connectionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	remaining := make([]string, 0, len(ids)-1)
	remaining = append(remaining, ids[:idx]...)
	remaining = append(remaining, ids[idx+1:]...)
	if len(remaining) == 0 {
		delete(t.connections, username)
		return true
	}
	t.connections[username] = remaining
	return false
}

// GetConnectionsForUser returns a copy of the user's connection ids, empty
// when offline
func (t *Tracker) GetConnectionsForUser(username string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := t.connections[username]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// GetOnlineUsers returns the sorted usernames with at least one connection
func (t *Tracker) GetOnlineUsers() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := make([]string, 0, len(t.connections))
	for username := range t.connections {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}
