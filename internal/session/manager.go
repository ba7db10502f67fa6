package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// opTimeout bounds the storage calls made from timer callbacks,
// which have no request context of their own.
const opTimeout = 5 * time.Second

// Refresher exchanges a session's current auth token for a fresh
// one.  The auth layer provides the production implementation; tests
// substitute a fake.
type Refresher interface {
	Refresh(ctx context.Context, token string) (string, error)
}

// Notice describes why a session ended, delivered to the expiry
// callback so the application can react (logging, metrics, pushing a
// reauthentication prompt through whatever channel it owns).
type Notice struct {
	SessionID string
	Reason    string
}

// Manager owns the two timers of one session's lifecycle:
//
//   - the absolute-timeout timer, armed for the session timeout at
//     Start and re-armed only by ResetActivity.  When it fires the
//     session is cleared and the expiry callback runs.
//   - the refresh timer, armed for the refresh interval (strictly
//     shorter than the timeout, enforced at config load).  When it
//     fires the current token is exchanged for a new one; on success
//     the new token is persisted, and the timer is re-armed either
//     way.  Refresh failures are not fatal — the absolute timer is
//     the backstop that eventually forces logout.
//
// The manager also watches the storage notification channel: a token
// removal observed from another instance triggers the same expired
// transition immediately, without waiting for the local timer.
//
// Arming a timer always cancels the previously armed timer of the
// same kind, so a stale timer from a cancelled session can never
// fire into a newer one.
type Manager struct {
	store     *Store
	refresher Refresher
	watcher   Watcher
	timers    TimerFactory

	refreshEvery time.Duration
	onExpired    func(Notice)

	mu           sync.Mutex
	running      bool
	sessionTimer Timer
	refreshTimer Timer
	cancelWatch  context.CancelFunc
}

// NewManager wires a lifecycle manager to a session store.  watcher
// may be nil, in which case cross-instance invalidation is disabled
// and only the timers and the lazy validity check end the session.
// onExpired may be nil.
func NewManager(store *Store, refresher Refresher, watcher Watcher, timers TimerFactory, refreshEvery time.Duration, onExpired func(Notice)) *Manager {
	return &Manager{
		store:        store,
		refresher:    refresher,
		watcher:      watcher,
		timers:       timers,
		refreshEvery: refreshEvery,
		onExpired:    onExpired,
	}
}

// Start arms both timers and begins watching for cross-instance
// invalidation.  Calling Start on a running manager re-arms both
// timers, which is exactly the reset performed on a fresh login.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.armTimeoutLocked()
	m.armRefreshLocked()

	if !m.running {
		m.running = true
		if m.watcher != nil {
			watchCtx, cancel := context.WithCancel(context.Background())
			m.cancelWatch = cancel
			ch, err := m.watcher.Watch(watchCtx)
			if err != nil {
				// Watching is an optimization over the lazy check;
				// run without it rather than refusing the session.
				log.Printf("session %s: watch unavailable: %v", m.store.SessionID(), err)
				cancel()
				m.cancelWatch = nil
			} else {
				go m.watchLoop(ch)
			}
		}
	}
	return nil
}

// ResetActivity re-arms only the absolute-timeout timer.  Nothing in
// the server wires this to request traffic; the timeout is absolute
// since login unless a caller opts in explicitly.
func (m *Manager) ResetActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		m.armTimeoutLocked()
	}
}

// Stop cancels both timers and the watcher, then clears the session
// store.  Safe to call on an already stopped manager.
func (m *Manager) Stop(ctx context.Context) error {
	if !m.halt() {
		return nil
	}
	return m.store.Clear(ctx)
}

// halt transitions the manager to stopped, cancelling timers and the
// watch loop.  It reports whether the manager was running.
func (m *Manager) halt() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return false
	}
	m.running = false
	if m.sessionTimer != nil {
		m.sessionTimer.Stop()
		m.sessionTimer = nil
	}
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	if m.cancelWatch != nil {
		m.cancelWatch()
		m.cancelWatch = nil
	}
	return true
}

func (m *Manager) armTimeoutLocked() {
	if m.sessionTimer != nil {
		m.sessionTimer.Stop()
	}
	m.sessionTimer = m.timers.AfterFunc(m.store.Timeout(), func() {
		m.expire("session timeout")
	})
}

func (m *Manager) armRefreshLocked() {
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
	}
	m.refreshTimer = m.timers.AfterFunc(m.refreshEvery, m.refreshOnce)
}

// expire ends the session: timers cancelled, storage cleared, expiry
// callback notified.  Reentrancy (a timer firing during Stop, or our
// own Clear echoing back through the watcher) is cut off by halt's
// running check.
func (m *Manager) expire(reason string) {
	if !m.halt() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := m.store.Clear(ctx); err != nil {
		log.Printf("session %s: clear on expiry failed: %v", m.store.SessionID(), err)
	}
	if m.onExpired != nil {
		m.onExpired(Notice{SessionID: m.store.SessionID(), Reason: reason})
	}
}

// refreshOnce runs on the refresh timer.  It exchanges the current
// token and persists the replacement.  The absolute timer is never
// touched here: refreshing keeps the token fresh, it does not extend
// the session.
func (m *Manager) refreshOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	token, err := m.store.Token(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			log.Printf("session %s: read token for refresh failed: %v", m.store.SessionID(), err)
		}
		// No token means the session ended under us; nothing to
		// re-arm.
		return
	}

	fresh, err := m.refresher.Refresh(ctx, token)
	if err != nil {
		// Not fatal: try again next interval, the absolute timer is
		// the backstop.
		log.Printf("session %s: token refresh failed: %v", m.store.SessionID(), err)
		m.rearmRefresh()
		return
	}
	if err := m.store.ReplaceToken(ctx, fresh); err != nil {
		log.Printf("session %s: persist refreshed token failed: %v", m.store.SessionID(), err)
	}
	m.rearmRefresh()
}

func (m *Manager) rearmRefresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		m.armRefreshLocked()
	}
}

// watchLoop reacts to token events from other instances.  Only
// removals of this session's token matter; rewrites are the refresh
// cycle doing its job.
func (m *Manager) watchLoop(ch <-chan Event) {
	for ev := range ch {
		if ev.SessionID == m.store.SessionID() && ev.Removed {
			m.expire("signed out in another session")
			return
		}
	}
}
