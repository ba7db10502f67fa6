// Package session implements the portal's session subsystem: a
// small key-value session store with lazy expiry, and a lifecycle
// manager that owns the absolute-timeout and token-refresh timers
// for each active session.
//
// Business logic never touches storage, wall clocks or timers
// directly.  It goes through the small ports defined in this file so
// the store and manager can be exercised in tests with in-memory
// fakes and in production with Redis and real timers.
package session

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrKeyNotFound is returned by KV.Get when the key is absent.
// Absence of a session key always means "no session", never an error
// state, so callers branch on this sentinel rather than failing.
var ErrKeyNotFound = errors.New("session: key not found")

// ErrNoSession is returned by Store operations that require an
// existing session (for example MergeUserData) when none is stored.
var ErrNoSession = errors.New("session: no active session")

// Event describes a change to a session's token key, delivered to
// watchers.  Removed is true when the token was deleted (logout or
// expiry in another tab/instance) and false when it was rewritten
// (refresh).
type Event struct {
	SessionID string `json:"session_id"`
	Removed   bool   `json:"removed"`
}

// KV is the storage port.  Implementations must be safe for
// concurrent use.  Get returns ErrKeyNotFound for absent keys; any
// other error is a storage failure and propagates to the caller
// unchanged (there is no retry, and no safe default exists).
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
}

// Watcher is the notification port: the cross-instance equivalent of
// a browser storage event.  Watch returns a channel of token-key
// events that is closed when ctx is cancelled.  Delivery is
// best-effort and may lag the write arbitrarily; the lazy IsValid
// check on next access is the backstop for missed events.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

// Clock is the time port.
type Clock interface {
	Now() time.Time
}

// Timer is a cancelable scheduled callback.  Stop reports whether
// the call prevented the timer from firing.
type Timer interface {
	Stop() bool
}

// TimerFactory schedules callbacks.  The production implementation
// wraps time.AfterFunc; tests substitute a manual factory and fire
// timers deterministically.
type TimerFactory interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// realClock is the production Clock.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return realClock{} }

// realTimers is the production TimerFactory.
type realTimers struct{}

func (realTimers) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemTimers returns a TimerFactory backed by time.AfterFunc.
func SystemTimers() TimerFactory { return realTimers{} }

// Storage key layout: session:<sid>:<field>.  The three fields below
// are always written together by Store.Save and removed together by
// Store.Clear.
const (
	fieldToken     = "authToken"
	fieldUser      = "userData"
	fieldStartedAt = "sessionTimestamp"

	keyPrefix = "session:"
)

func sessionKey(sid, field string) string {
	return keyPrefix + sid + ":" + field
}

// splitSessionKey recovers (sid, field) from a full storage key.
func splitSessionKey(key string) (sid, field string, ok bool) {
	rest, found := strings.CutPrefix(key, keyPrefix)
	if !found {
		return "", "", false
	}
	i := strings.LastIndex(rest, ":")
	if i <= 0 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}
