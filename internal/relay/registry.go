package relay

import (
	"sync"

	"github.com/rs/zerolog"
)

// Registry tracks every currently open connection. It is the only shared
// mutable state in the relay; nothing else is persisted per connection.
type Registry struct {
	mu     sync.RWMutex
	conns  map[*Connection]struct{}
	logger zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		conns:  make(map[*Connection]struct{}),
		logger: logger,
	}
}

func (r *Registry) Register(conn *Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	r.conns[conn] = struct{}{}
	total := len(r.conns)
	r.mu.Unlock()

	r.logger.Info().Str("connection_id", conn.ID()).Int("total", total).Msg("Client connected")
}

// Unregister is idempotent: removing an absent connection is a no-op.
func (r *Registry) Unregister(conn *Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	_, exists := r.conns[conn]
	delete(r.conns, conn)
	total := len(r.conns)
	r.mu.Unlock()

	if exists {
		r.logger.Info().Str("connection_id", conn.ID()).Int("total", total).Msg("Client disconnected")
	}
}

// Snapshot returns a point-in-time copy of the open connections so callers
// can iterate without holding the lock.
func (r *Registry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*Connection, 0, len(r.conns))
	for conn := range r.conns {
		conns = append(conns, conn)
	}
	return conns
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll closes and removes every connection, used during shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.conns))
	for conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = make(map[*Connection]struct{})
	r.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}
