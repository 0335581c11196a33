package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/payagent/internal/model"
)

func TestSessionStoreGetOrCreate(t *testing.T) {
	store := NewSessionStore()
	first := store.GetOrCreate("s1")
	second := store.GetOrCreate("s1")
	require.Same(t, first, second)
	require.Equal(t, 1, store.Len())

	store.GetOrCreate("s2")
	require.Equal(t, 2, store.Len())
}

func TestSessionStoreSweep(t *testing.T) {
	store := NewSessionStore()
	idle := store.GetOrCreate("idle")
	idle.lastActive.Store(time.Now().Add(-2 * time.Hour).UnixNano())
	store.GetOrCreate("fresh")

	removed := store.Sweep(context.Background(), time.Hour)
	require.Equal(t, 1, removed)
	require.Equal(t, 1, store.Len())

	// The swept id starts over with empty history.
	sess := store.GetOrCreate("idle")
	require.Empty(t, sess.History())
}

func TestSessionHistoryReturnsCopy(t *testing.T) {
	store := NewSessionStore()
	sess := store.GetOrCreate("s1")
	sess.mu.Lock()
	sess.appendTurn(model.RoleUser, "hello")
	sess.mu.Unlock()

	history := sess.History()
	history[0].Content = "mutated"
	require.Equal(t, "hello", sess.History()[0].Content)
}
