package server

import "sync"

// ClientRegistry is the thread-safe set of live client connections.
// Membership is guarded by a single mutex; socket writes happen outside the
// critical section against a snapshot. Removal and close are one step under
// the lock, so the registry never holds a handle the server already closed.
type ClientRegistry struct {
	mu      sync.Mutex
	clients map[Conn]bool
}

func NewClientRegistry() *ClientRegistry {
	return &ClientRegistry{clients: make(map[Conn]bool)}
}

func (r *ClientRegistry) Add(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c] = true
}

// RemoveAll evicts and closes the given connections, returning how many were
// still registered. Connections already removed are skipped, so double
// eviction never double-closes a socket.
func (r *ClientRegistry) RemoveAll(conns []Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for _, c := range conns {
		if r.clients[c] {
			delete(r.clients, c)
			c.Close()
			removed++
		}
	}
	return removed
}

// Snapshot returns the current membership for iteration without holding the
// lock during blocking I/O.
func (r *ClientRegistry) Snapshot() []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	conns := make([]Conn, 0, len(r.clients))
	for c := range r.clients {
		conns = append(conns, c)
	}
	return conns
}

// CloseAll closes every connection and empties the registry. Close errors
// are swallowed; shutdown cleanup is best effort.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.clients {
		c.Close()
	}
	r.clients = make(map[Conn]bool)
}

func (r *ClientRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
