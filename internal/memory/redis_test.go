package memory_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago-poc/server/internal/memory"
)

func newStore(t *testing.T) *memory.RedisPreferenceStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return memory.NewRedisPreferenceStore(client)
}

func TestPreferenceStore_AddAndListInOrder(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "traveler-1", "Airline: Delta Only"))
	require.NoError(t, store.Add(ctx, "traveler-1", "Budget hotels preferred"))

	prefs, err := store.List(ctx, "traveler-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Airline: Delta Only", "Budget hotels preferred"}, prefs)
}

func TestPreferenceStore_ListUnknownUserIsEmpty(t *testing.T) {
	store := newStore(t)

	prefs, err := store.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, prefs)
}

func TestPreferenceStore_UsersAreIsolated(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "a", "Airline: Delta Only"))
	require.NoError(t, store.Add(ctx, "b", "Aisle seats"))

	prefs, err := store.List(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"Airline: Delta Only"}, prefs)
}

func TestPreferenceStore_RejectsBlankInput(t *testing.T) {
	store := newStore(t)

	assert.Error(t, store.Add(context.Background(), "", "something"))
	assert.Error(t, store.Add(context.Background(), "traveler-1", ""))
}
