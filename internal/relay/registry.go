package relay

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/onra/voice/internal/domain"
)

// Registry maps an authenticated user id to its one live connection.
// A re-auth for the same id replaces the prior registration.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.UserID]Conn)}
}

// Bind registers conn for uid and returns the replaced connection, if any.
func (r *Registry) Bind(uid domain.UserID, conn Conn) (prev Conn, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, replaced = r.conns[uid]
	r.conns[uid] = conn
	if replaced {
		log.Info().Str("module", "relay.registry").Int("user", int(uid)).Msg("replaced registration")
	}
	return prev, replaced && prev != conn
}

func (r *Registry) Get(uid domain.UserID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[uid]
	return c, ok
}

// Unbind removes uid only if conn is still its registered connection.
// A stale socket's disconnect must not evict a fresh registration.
func (r *Registry) Unbind(uid domain.UserID, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[uid]; !ok || cur != conn {
		return false
	}
	delete(r.conns, uid)
	return true
}

type regSnap struct {
	UserID domain.UserID
	Conn   Conn
}

// Snapshot returns the current registrations for fanout iteration.
func (r *Registry) Snapshot() []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]regSnap, 0, len(r.conns))
	for uid, c := range r.conns {
		out = append(out, regSnap{UserID: uid, Conn: c})
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
