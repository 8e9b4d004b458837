package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetAndGet(t *testing.T) {
	store := NewMemoryStore(DefaultConfig())
	defer store.Close()
	ctx := context.Background()

	value := []byte("test-value")
	require.NoError(t, store.Set(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("test-value"), got)

	_, err = store.Get(ctx, "missing")
	assert.True(t, IsCacheMiss(err))
	assert.EqualError(t, err, "cache miss: missing")
}

func TestMemoryStoreExpiration(t *testing.T) {
	store := NewMemoryStore(Config{DefaultTTL: 10 * time.Millisecond})
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("v"), 0))
	require.NoError(t, store.Set(ctx, "forever", []byte("v"), -1))
	time.Sleep(30 * time.Millisecond)

	_, err := store.Get(ctx, "short")
	assert.True(t, IsCacheMiss(err))
	_, err = store.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestMemoryStoreDeleteAndClear(t *testing.T) {
	store := NewMemoryStore(Config{Prefix: "a:"})
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "one", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "two", []byte("2"), time.Minute))

	require.NoError(t, store.Delete(ctx, "one"))
	_, err := store.Get(ctx, "one")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, store.Clear(ctx))
	_, err = store.Get(ctx, "two")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	store := NewMemoryStore(DefaultConfig())
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Set(ctx, "k", nil, 0), context.Canceled)
}

func TestMemoryStoreSweep(t *testing.T) {
	store := &MemoryStore{config: DefaultConfig()}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, store.Set(context.Background(), "k", []byte("v"), time.Millisecond))
	go store.sweep(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, ok := store.data.Load(store.config.Prefix + "k")
		return !ok
	}, time.Second, 5*time.Millisecond)
}
