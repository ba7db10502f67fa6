package session

import (
	"context"
	"log"
	"time"
)

// Runtime bundles the shared session infrastructure — storage port,
// watcher, clock, timer factory, the configured lifecycle windows
// and the registry of live managers — so handlers can open and close
// sessions without assembling the pieces themselves.
type Runtime struct {
	kv           KV
	watcher      Watcher
	clock        Clock
	timers       TimerFactory
	refresher    Refresher
	timeout      time.Duration
	refreshEvery time.Duration
	registry     *Registry
	onExpired    func(Notice)
}

// NewRuntime wires the session subsystem.  watcher may be nil (no
// cross-instance invalidation); onExpired may be nil.
func NewRuntime(kv KV, watcher Watcher, clock Clock, timers TimerFactory, refresher Refresher, timeout, refreshEvery time.Duration, onExpired func(Notice)) *Runtime {
	return &Runtime{
		kv:           kv,
		watcher:      watcher,
		clock:        clock,
		timers:       timers,
		refresher:    refresher,
		timeout:      timeout,
		refreshEvery: refreshEvery,
		registry:     NewRegistry(),
		onExpired:    onExpired,
	}
}

// StoreFor returns a Store bound to sid over the shared KV and clock.
func (r *Runtime) StoreFor(sid string) *Store {
	return NewStore(r.kv, r.clock, sid, r.timeout)
}

// Open persists a fresh session (token, user snapshot, start
// timestamp) and starts its lifecycle manager.  Called on login and
// registration; an existing session under the same id is replaced.
func (r *Runtime) Open(ctx context.Context, sid, token string, user map[string]any) error {
	// Retire any previous manager before writing: its Stop clears
	// the session keys, which must not race the Save below.
	if prev := r.registry.Remove(sid); prev != nil {
		_ = prev.Stop(ctx)
	}
	store := r.StoreFor(sid)
	if err := store.Save(ctx, token, user); err != nil {
		return err
	}
	m := NewManager(store, r.refresher, r.watcher, r.timers, r.refreshEvery, func(n Notice) {
		r.registry.Remove(n.SessionID)
		log.Printf("session %s expired: %s", n.SessionID, n.Reason)
		if r.onExpired != nil {
			r.onExpired(n)
		}
	})
	r.registry.Put(ctx, sid, m)
	return m.Start(ctx)
}

// Close stops the session's manager (cancelling both timers before
// storage is touched) and clears its keys.  Closing an unknown or
// already closed session still clears storage, covering managers
// owned by other instances.
func (r *Runtime) Close(ctx context.Context, sid string) error {
	if m := r.registry.Remove(sid); m != nil {
		return m.Stop(ctx)
	}
	return r.StoreFor(sid).Clear(ctx)
}
