package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced Clock shared by the store tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *MemoryKV, *fakeClock) {
	t.Helper()
	kv := NewMemoryKV()
	clock := newFakeClock()
	return NewStore(kv, clock, "sid-1", 30*time.Minute), kv, clock
}

func TestStoreSaveAndReadBack(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	user := map[string]any{"id": float64(7), "name": "Asha", "role": "STUDENT"}
	require.NoError(t, store.Save(ctx, "tok-1", user))

	tok, err := store.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-1", tok)

	got, err := store.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, user, got)

	ok, err := store.IsValid(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStoreTokenWithoutSession(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.Token(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
}

func TestStoreClearRemovesEverything(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	require.NoError(t, store.Save(ctx, "tok-1", map[string]any{"id": float64(1)}))
	require.NoError(t, store.Clear(ctx))

	_, err := store.Token(ctx)
	require.ErrorIs(t, err, ErrNoSession)

	user, err := store.CurrentUser(ctx)
	require.NoError(t, err)
	require.Nil(t, user)

	ok, err := store.IsValid(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreLazyExpiry(t *testing.T) {
	ctx := context.Background()
	store, kv, clock := newTestStore(t)

	require.NoError(t, store.Save(ctx, "tok-1", map[string]any{"id": float64(1)}))

	// One millisecond short of the timeout the session still counts.
	clock.Advance(30*time.Minute - time.Millisecond)
	ok, err := store.IsValid(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// Past the timeout the check fails and clears the keys.
	clock.Advance(2 * time.Millisecond)
	ok, err = store.IsValid(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = kv.Get(ctx, sessionKey("sid-1", fieldUser))
	require.ErrorIs(t, err, ErrKeyNotFound)
	_, err = kv.Get(ctx, sessionKey("sid-1", fieldStartedAt))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStoreReplaceTokenKeepsLifetime(t *testing.T) {
	ctx := context.Background()
	store, _, clock := newTestStore(t)

	require.NoError(t, store.Save(ctx, "tok-1", map[string]any{"id": float64(1)}))
	before, err := store.Info(ctx)
	require.NoError(t, err)

	clock.Advance(25 * time.Minute)
	require.NoError(t, store.ReplaceToken(ctx, "tok-2"))

	tok, err := store.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-2", tok)

	// The expiry time must not move: refresh keeps the token fresh
	// but never extends the session.
	after, err := store.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, before.ExpiresAt, after.ExpiresAt)
	require.Equal(t, 25*time.Minute, after.Age)
	require.Equal(t, 5*time.Minute, after.Remaining)
}

func TestStoreMergeUserData(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	_, err := store.MergeUserData(ctx, map[string]any{"district": "Pune"})
	require.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(ctx, "tok-1", map[string]any{
		"id":       float64(1),
		"district": "Nagpur",
		"course":   "B.Tech",
	}))

	merged, err := store.MergeUserData(ctx, map[string]any{"district": "Pune", "cgpa": 8.1})
	require.NoError(t, err)
	require.Equal(t, "Pune", merged["district"])
	require.Equal(t, 8.1, merged["cgpa"])
	require.Equal(t, "B.Tech", merged["course"])

	// Persisted, not just returned.
	got, err := store.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, merged, got)
}

func TestStoreMalformedData(t *testing.T) {
	ctx := context.Background()
	store, kv, _ := newTestStore(t)

	// A mangled snapshot reads as no user, never as an error.
	require.NoError(t, kv.Set(ctx, sessionKey("sid-1", fieldUser), "{not json"))
	user, err := store.CurrentUser(ctx)
	require.NoError(t, err)
	require.Nil(t, user)

	// A mangled timestamp reads as no session.
	require.NoError(t, kv.Set(ctx, sessionKey("sid-1", fieldToken), "tok-1"))
	require.NoError(t, kv.Set(ctx, sessionKey("sid-1", fieldStartedAt), "yesterday"))
	ok, err := store.IsValid(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = store.Info(ctx)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestStoreInfoRemainingClamped(t *testing.T) {
	ctx := context.Background()
	store, _, clock := newTestStore(t)

	require.NoError(t, store.Save(ctx, "tok-1", map[string]any{"id": float64(1)}))
	clock.Advance(45 * time.Minute)

	info, err := store.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, 45*time.Minute, info.Age)
	require.Equal(t, time.Duration(0), info.Remaining)
}
