package session

import (
	"context"
	"sync"
)

// MemoryKV is an in-process KV with watcher fan-out.  It backs
// single-instance deployments when Redis is unavailable and all unit
// tests.  Token-key writes and deletions are broadcast to every
// active watcher, mirroring how a browser raises storage events for
// other tabs.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
	subs map[chan Event]struct{}
}

// NewMemoryKV returns an empty in-process KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		data: make(map[string]string),
		subs: make(map[chan Event]struct{}),
	}
}

// Get returns the stored value or ErrKeyNotFound.
func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	v, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

// Set stores the value and notifies watchers when a token key was
// rewritten.
func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	m.notifyToken(key, false)
	return nil
}

// Del removes the given keys and notifies watchers for each token
// key that actually existed.
func (m *MemoryKV) Del(_ context.Context, keys ...string) error {
	removed := make([]string, 0, len(keys))
	m.mu.Lock()
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			removed = append(removed, k)
		}
	}
	m.mu.Unlock()
	for _, k := range removed {
		m.notifyToken(k, true)
	}
	return nil
}

// Watch registers a subscriber channel.  The channel is closed and
// unregistered when ctx is cancelled.  Slow subscribers drop events
// rather than block writers; the lazy validity check covers drops.
func (m *MemoryKV) Watch(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 8)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.subs, ch)
		m.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

func (m *MemoryKV) notifyToken(key string, removed bool) {
	sid, field, ok := splitSessionKey(key)
	if !ok || field != fieldToken {
		return
	}
	ev := Event{SessionID: sid, Removed: removed}
	m.mu.RLock()
	for ch := range m.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	m.mu.RUnlock()
}
