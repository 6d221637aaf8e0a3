package kv

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "comanda:", ttl), mr
}

func TestRedisRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "restaurant_user", []byte(`{"id":"1"}`)))
	got, err := store.Get(ctx, "restaurant_user")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, string(got))
	assert.True(t, mr.Exists("comanda:restaurant_user"))
	assert.Equal(t, time.Hour, mr.TTL("comanda:restaurant_user"))

	require.NoError(t, store.Delete(ctx, "restaurant_user"))
	require.NoError(t, store.Delete(ctx, "restaurant_user"))
	_, err = store.Get(ctx, "restaurant_user")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisScopedKeysDoNotCollide(t *testing.T) {
	store, mr := newRedisStore(t, 0)
	ctx := context.Background()

	a := store.Scoped("client:a:")
	b := store.Scoped("client:b:")
	require.NoError(t, a.Set(ctx, "restaurant_user", []byte("a")))
	require.NoError(t, b.Set(ctx, "restaurant_user", []byte("b")))

	got, err := a.Get(ctx, "restaurant_user")
	require.NoError(t, err)
	assert.Equal(t, "a", string(got))
	assert.True(t, mr.Exists("comanda:client:b:restaurant_user"))
}

func TestMemoryCopiesValues(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := store.Scoped("").Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
