package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Store persists one session's three fields — auth token, user
// snapshot and start timestamp — under a session id namespace in the
// KV port.  The trio is written together by Save and removed
// together by Clear; no other writer touches these keys, so callers
// never observe a partially written session.
//
// Expiry is enforced lazily: IsValid compares the stored start
// timestamp against the configured timeout on every call and clears
// the session when it has aged out.  The lifecycle Manager provides
// the active second path to the same effect.
type Store struct {
	kv      KV
	clock   Clock
	sid     string
	timeout time.Duration
}

// Info reports the session's position inside its lifetime window,
// derived from the stored start timestamp.  Callers pick the wire
// representation; the handler layer serializes the durations as
// milliseconds.
type Info struct {
	Age       time.Duration
	Remaining time.Duration
	ExpiresAt time.Time
}

// NewStore binds a Store to one session id.  timeout is the absolute
// session lifetime (SESSION_TIMEOUT).
func NewStore(kv KV, clock Clock, sid string, timeout time.Duration) *Store {
	return &Store{kv: kv, clock: clock, sid: sid, timeout: timeout}
}

// SessionID returns the namespace this store operates on.
func (s *Store) SessionID() string { return s.sid }

// Timeout returns the configured absolute session lifetime.
func (s *Store) Timeout() time.Duration { return s.timeout }

// Save writes the token, the serialized user snapshot and the
// current timestamp, overwriting any prior session in this
// namespace.  The user snapshot is stored as a JSON object so later
// patches can shallow-merge onto it.
func (s *Store) Save(ctx context.Context, token string, user map[string]any) error {
	body, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, sessionKey(s.sid, fieldUser), string(body)); err != nil {
		return err
	}
	started := strconv.FormatInt(s.clock.Now().UnixMilli(), 10)
	if err := s.kv.Set(ctx, sessionKey(s.sid, fieldStartedAt), started); err != nil {
		return err
	}
	// Token last: watchers key off this field, so by the time a peer
	// reacts the rest of the trio is in place.
	return s.kv.Set(ctx, sessionKey(s.sid, fieldToken), token)
}

// Clear removes all three session keys.
func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Del(ctx,
		sessionKey(s.sid, fieldUser),
		sessionKey(s.sid, fieldStartedAt),
		sessionKey(s.sid, fieldToken),
	)
}

// Token returns the stored auth token, or ErrNoSession when absent.
func (s *Store) Token(ctx context.Context) (string, error) {
	v, err := s.kv.Get(ctx, sessionKey(s.sid, fieldToken))
	if errors.Is(err, ErrKeyNotFound) {
		return "", ErrNoSession
	}
	return v, err
}

// ReplaceToken overwrites only the token field.  Used by the
// refresh cycle; the start timestamp is deliberately untouched so a
// refresh never extends the absolute lifetime.
func (s *Store) ReplaceToken(ctx context.Context, token string) error {
	return s.kv.Set(ctx, sessionKey(s.sid, fieldToken), token)
}

// CurrentUser deserializes the stored user snapshot.  It returns
// (nil, nil) when the snapshot is absent or malformed — never an
// error for bad content — and a non-nil error only for storage
// failures.
func (s *Store) CurrentUser(ctx context.Context) (map[string]any, error) {
	raw, err := s.kv.Get(ctx, sessionKey(s.sid, fieldUser))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var user map[string]any
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, nil
	}
	return user, nil
}

// IsValid reports whether a live session exists: token and start
// timestamp present, and the session younger than the timeout.  An
// aged-out session is cleared as a side effect before reporting
// false.
func (s *Store) IsValid(ctx context.Context) (bool, error) {
	if _, err := s.kv.Get(ctx, sessionKey(s.sid, fieldToken)); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	started, err := s.startedAt(ctx)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if s.clock.Now().Sub(started) > s.timeout {
		if err := s.Clear(ctx); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// MergeUserData shallow-merges patch onto the stored user snapshot
// and re-persists it.  Returns the merged record, or ErrNoSession
// when no session exists.
func (s *Store) MergeUserData(ctx context.Context, patch map[string]any) (map[string]any, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoSession
	}
	for k, v := range patch {
		user[k] = v
	}
	body, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, sessionKey(s.sid, fieldUser), string(body)); err != nil {
		return nil, err
	}
	return user, nil
}

// Info returns the session's age, remaining lifetime and expiry
// time, or ErrNoSession when no start timestamp is stored.
func (s *Store) Info(ctx context.Context) (Info, error) {
	started, err := s.startedAt(ctx)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return Info{}, ErrNoSession
		}
		return Info{}, err
	}
	age := s.clock.Now().Sub(started)
	remaining := s.timeout - age
	if remaining < 0 {
		remaining = 0
	}
	return Info{
		Age:       age,
		Remaining: remaining,
		ExpiresAt: started.Add(s.timeout),
	}, nil
}

func (s *Store) startedAt(ctx context.Context) (time.Time, error) {
	raw, err := s.kv.Get(ctx, sessionKey(s.sid, fieldStartedAt))
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// A mangled timestamp is indistinguishable from no session.
		return time.Time{}, ErrKeyNotFound
	}
	return time.UnixMilli(ms), nil
}
