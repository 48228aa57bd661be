package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odyssai/internal/narrative"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := New(client, ttl)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	sess := &narrative.Session{
		Stage:         narrative.StageAwaitPrompt,
		WorldID:       "w1",
		CharacterID:   "c1",
		PendingPrompt: "A door creaks open. What do you do?",
		LastAnswer:    "I light a torch.",
	}
	require.NoError(t, store.Save(ctx, sess))
	assert.False(t, sess.UpdatedAt.IsZero())

	loaded, err := store.Load(ctx, "w1", "c1")
	require.NoError(t, err)
	assert.Equal(t, narrative.StageAwaitPrompt, loaded.Stage)
	assert.Equal(t, "A door creaks open. What do you do?", loaded.PendingPrompt)
	assert.Equal(t, "I light a torch.", loaded.LastAnswer)
}

func TestLoadMissingSessionIsNotFound(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	_, err := store.Load(context.Background(), "w1", "c1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, narrative.ErrNotFound))
}

func TestSessionExpiresAfterInactivityHorizon(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	sess := &narrative.Session{Stage: narrative.StageAwaitPrompt, WorldID: "w1", CharacterID: "c1"}
	require.NoError(t, store.Save(ctx, sess))

	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "w1", "c1")
	require.Error(t, err)
	assert.Equal(t, narrative.KindNotFound, narrative.KindOf(err))
}

func TestSaveRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	sess := &narrative.Session{Stage: narrative.StageAwaitPrompt, WorldID: "w1", CharacterID: "c1"}
	require.NoError(t, store.Save(ctx, sess))

	mr.FastForward(30 * time.Second)
	require.NoError(t, store.Save(ctx, sess))
	mr.FastForward(45 * time.Second)

	_, err := store.Load(ctx, "w1", "c1")
	assert.NoError(t, err)
}

func TestSaveOverwritesWholeValue(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	first := &narrative.Session{
		Stage:         narrative.StageAwaitPrompt,
		WorldID:       "w1",
		CharacterID:   "c1",
		PendingPrompt: "An outstanding prompt",
	}
	require.NoError(t, store.Save(ctx, first))

	second := &narrative.Session{
		Stage:       narrative.StageTerminated,
		WorldID:     "w1",
		CharacterID: "c1",
	}
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx, "w1", "c1")
	require.NoError(t, err)
	assert.Equal(t, narrative.StageTerminated, loaded.Stage)
	// Last writer wins: no field survives from the first save.
	assert.Empty(t, loaded.PendingPrompt)
}

func TestSessionsAreScopedByWorldAndCharacter(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &narrative.Session{Stage: narrative.StageAwaitPrompt, WorldID: "w1", CharacterID: "c1", LastAnswer: "one"}))
	require.NoError(t, store.Save(ctx, &narrative.Session{Stage: narrative.StageAwaitPrompt, WorldID: "w1", CharacterID: "c2", LastAnswer: "two"}))
	require.NoError(t, store.Save(ctx, &narrative.Session{Stage: narrative.StageAwaitPrompt, WorldID: "w2", CharacterID: "c1", LastAnswer: "three"}))

	loaded, err := store.Load(ctx, "w1", "c2")
	require.NoError(t, err)
	assert.Equal(t, "two", loaded.LastAnswer)
}
