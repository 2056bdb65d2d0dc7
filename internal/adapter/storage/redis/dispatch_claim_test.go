package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *DispatchClaimStore) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, NewDispatchClaimStore(client)
}

func TestDispatchClaimStore_FirstClaimWins(t *testing.T) {
	s, store := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	ok, err := store.Claim(ctx, id, 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "first claim should succeed")
	assert.True(t, s.Exists("dispatch:claim:"+id.String()))

	ok, err = store.Claim(ctx, id, 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "overlapping invocation must not re-claim")
}

func TestDispatchClaimStore_DistinctNotifications(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	ok1, err := store.Claim(ctx, uuid.New(), time.Minute)
	require.NoError(t, err)
	ok2, err := store.Claim(ctx, uuid.New(), time.Minute)
	require.NoError(t, err)

	assert.True(t, ok1)
	assert.True(t, ok2)
}

func TestDispatchClaimStore_ExpiredClaimCanBeRetaken(t *testing.T) {
	s, store := newTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	ok, err := store.Claim(ctx, id, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	s.FastForward(2 * time.Second)

	ok, err = store.Claim(ctx, id, time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "claim should be available again after ttl")
}

func TestDispatchClaimStore_ServerDown(t *testing.T) {
	s, store := newTestStore(t)
	s.Close()

	_, err := store.Claim(context.Background(), uuid.New(), time.Minute)
	assert.ErrorContains(t, err, "redis dispatch claim")
}
