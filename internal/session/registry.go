package session

import (
	"context"
	"sync"
)

// Registry tracks the live lifecycle managers of this instance,
// keyed by session id.  Login adds a manager, logout (or expiry)
// removes it.  Replacing the manager for an id stops the old one
// first so its timers cannot fire into the new session.
type Registry struct {
	mu       sync.Mutex
	managers map[string]*Manager
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{managers: make(map[string]*Manager)}
}

// Put registers a manager under sid, stopping any previous one.
func (r *Registry) Put(ctx context.Context, sid string, m *Manager) {
	r.mu.Lock()
	prev := r.managers[sid]
	r.managers[sid] = m
	r.mu.Unlock()
	if prev != nil {
		_ = prev.Stop(ctx)
	}
}

// Get returns the manager for sid, or nil.
func (r *Registry) Get(sid string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.managers[sid]
}

// Remove unregisters and returns the manager for sid, or nil.  The
// caller decides whether to stop it.
func (r *Registry) Remove(sid string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.managers[sid]
	delete(r.managers, sid)
	return m
}
