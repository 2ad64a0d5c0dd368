package checkpoint_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago-poc/server/internal/checkpoint"
	"github.com/voyago-poc/server/internal/trip"
)

func newCheckpointer(t *testing.T, ttl time.Duration) (*checkpoint.RedisCheckpointer, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return checkpoint.NewRedisCheckpointer(client, ttl), mr
}

func TestCheckpointer_SaveAndLoadRoundtrip(t *testing.T) {
	cp, _ := newCheckpointer(t, time.Hour)
	ctx := context.Background()

	s := trip.NewState()
	s.Origin = "JFK"
	s.Destination = "LHR"
	s.Flights = []trip.FlightOffer{{Airline: "Delta", Price: trip.Float(500)}}
	s.RetryCount = 1

	require.NoError(t, cp.Save(ctx, "conv-1", s))

	loaded, err := cp.Load(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "JFK", loaded.Origin)
	assert.Equal(t, "LHR", loaded.Destination)
	assert.Equal(t, 1, loaded.RetryCount)
	require.Len(t, loaded.Flights, 1)
	require.NotNil(t, loaded.Flights[0].Price)
	assert.Equal(t, 500.0, *loaded.Flights[0].Price)
}

func TestCheckpointer_MissingConversationIsNotAnError(t *testing.T) {
	cp, _ := newCheckpointer(t, time.Hour)

	loaded, err := cp.Load(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestCheckpointer_SnapshotExpires(t *testing.T) {
	cp, mr := newCheckpointer(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cp.Save(ctx, "conv-1", trip.NewState()))
	mr.FastForward(2 * time.Minute)

	loaded, err := cp.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestCheckpointer_SaveOverwrites(t *testing.T) {
	cp, _ := newCheckpointer(t, time.Hour)
	ctx := context.Background()

	s := trip.NewState()
	s.Destination = "LHR"
	require.NoError(t, cp.Save(ctx, "conv-1", s))

	s.Destination = "CDG"
	require.NoError(t, cp.Save(ctx, "conv-1", s))

	loaded, err := cp.Load(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "CDG", loaded.Destination)
}
