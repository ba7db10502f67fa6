package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T) (*Runtime, *manualTimers, chan Notice) {
	t.Helper()
	timers := &manualTimers{}
	notices := make(chan Notice, 4)
	rt := NewRuntime(
		NewMemoryKV(), nil,
		newFakeClock(), timers,
		&stubRefresher{next: "tok-fresh"},
		testTimeout, testRefresh,
		func(n Notice) { notices <- n },
	)
	return rt, timers, notices
}

func TestRuntimeOpenAndClose(t *testing.T) {
	ctx := context.Background()
	rt, timers, _ := newTestRuntime(t)

	require.NoError(t, rt.Open(ctx, "sid-1", "tok-1", map[string]any{"id": float64(1)}))

	// Session readable, both timers armed, manager registered.
	ok, err := rt.StoreFor("sid-1").IsValid(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, timers.pending(testTimeout))
	require.NotNil(t, timers.pending(testRefresh))
	require.NotNil(t, rt.registry.Get("sid-1"))

	require.NoError(t, rt.Close(ctx, "sid-1"))

	_, err = rt.StoreFor("sid-1").Token(ctx)
	require.ErrorIs(t, err, ErrNoSession)
	require.Nil(t, timers.pending(testTimeout))
	require.Nil(t, rt.registry.Get("sid-1"))
}

func TestRuntimeCloseUnknownSessionClearsStorage(t *testing.T) {
	ctx := context.Background()
	rt, _, _ := newTestRuntime(t)

	// A session written by another instance: keys exist, no local
	// manager.
	require.NoError(t, rt.StoreFor("sid-x").Save(ctx, "tok-x", map[string]any{"id": float64(2)}))
	require.NoError(t, rt.Close(ctx, "sid-x"))

	_, err := rt.StoreFor("sid-x").Token(ctx)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestRuntimeExpiryUnregistersManager(t *testing.T) {
	ctx := context.Background()
	rt, timers, notices := newTestRuntime(t)

	require.NoError(t, rt.Open(ctx, "sid-1", "tok-1", map[string]any{"id": float64(1)}))
	timers.pending(testTimeout).Fire()

	select {
	case n := <-notices:
		require.Equal(t, "sid-1", n.SessionID)
		require.Equal(t, "session timeout", n.Reason)
	case <-time.After(time.Second):
		t.Fatal("expiry callback not invoked")
	}
	require.Nil(t, rt.registry.Get("sid-1"))
}

func TestRuntimeReopenReplacesManager(t *testing.T) {
	ctx := context.Background()
	rt, timers, notices := newTestRuntime(t)

	require.NoError(t, rt.Open(ctx, "sid-1", "tok-1", map[string]any{"id": float64(1)}))
	first := timers.pending(testTimeout)

	// A second login under the same id replaces the manager; the old
	// timers are dead so they cannot end the new session.
	require.NoError(t, rt.Open(ctx, "sid-1", "tok-2", map[string]any{"id": float64(1)}))
	require.False(t, first.Stop())
	require.NotNil(t, timers.pending(testTimeout))
	require.Empty(t, notices)

	tok, err := rt.StoreFor("sid-1").Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-2", tok)
}
