package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newWatchStore(t *testing.T) (*Store, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(nil, rdb, zerolog.Nop()), rdb
}

func TestWatchForwardsMatchingChanges(t *testing.T) {
	store, rdb := newWatchStore(t)
	ctx := context.Background()

	ch, stop, err := store.Watch(ctx, "chats")
	require.NoError(t, err)
	defer stop()

	require.NoError(t, rdb.Publish(ctx, changeChannel, "chats").Err())

	select {
	case _, ok := <-ch:
		require.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("no change signal")
	}
}

func TestWatchIgnoresOtherCollections(t *testing.T) {
	store, rdb := newWatchStore(t)
	ctx := context.Background()

	ch, stop, err := store.Watch(ctx, "chats")
	require.NoError(t, err)
	defer stop()

	require.NoError(t, rdb.Publish(ctx, changeChannel, "users").Err())

	select {
	case <-ch:
		t.Fatal("signal for unrelated collection")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatchStopClosesChannel(t *testing.T) {
	store, _ := newWatchStore(t)

	ch, stop, err := store.Watch(context.Background(), "chats")
	require.NoError(t, err)

	stop()
	stop()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after stop")
	}
}
