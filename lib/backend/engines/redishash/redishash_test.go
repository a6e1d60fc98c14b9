package redishash

import (
	"context"
	"testing"

	"github.com/ValentinKolb/dotset/lib/backend"
	backendtesting "github.com/ValentinKolb/dotset/lib/backend/testing"
	"github.com/ValentinKolb/dotset/lib/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisBackend(t *testing.T) {
	backendtesting.RunBackendTests(t, "RedisBackend", func(t *testing.T) backendtesting.Opener {
		_, rdb := newRedis(t)
		return func() backend.Backend { return New(rdb, "settings:test") }
	})
}

func BenchmarkRedisBackend(b *testing.B) {
	backendtesting.RunBackendBenchmarks(b, "RedisBackend", func(b *testing.B) backendtesting.Opener {
		_, rdb := newRedis(b)
		return func() backend.Backend { return New(rdb, "settings:bench") }
	})
}

func TestWriteDiffsFields(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	b := New(rdb, "app")

	require.NoError(t, b.Write(ctx, backend.Flat{"a.b": "1", "a.c": 2, "d": true}))
	assert.Equal(t, "2", mr.HGet("app", "a.c"))
	assert.Equal(t, "true", mr.HGet("app", "d"))

	require.NoError(t, b.Write(ctx, backend.Flat{"a.b": "1", "e": "5"}))
	fields, err := mr.HKeys("app")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.b", "e"}, fields)

	flat, err := b.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.Flat{"a.b": "1", "e": "5"}, flat)
}

func TestWriteEverythingRemovedDeletesHash(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newRedis(t)
	b := New(rdb, "app")

	require.NoError(t, b.Write(ctx, backend.Flat{"x": "1"}))
	require.NoError(t, b.Write(ctx, backend.Flat{}))
	assert.False(t, mr.Exists("app"))
}

func TestKeysScopeNamespaces(t *testing.T) {
	ctx := context.Background()
	_, rdb := newRedis(t)

	one := store.New(New(rdb, "tenant:1"))
	two := store.New(New(rdb, "tenant:2"))

	require.NoError(t, one.Set(ctx, "theme", "dark"))
	require.NoError(t, one.Save(ctx))
	require.NoError(t, two.Set(ctx, "theme", "light"))
	require.NoError(t, two.Save(ctx))

	require.NoError(t, one.Rescope(func(b backend.Backend) error {
		b.(*Backend).SetKey("tenant:2")
		return nil
	}))
	v, err := one.Get(ctx, "theme", nil)
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestUnavailableServer(t *testing.T) {
	mr, rdb := newRedis(t)
	b := New(rdb, "")
	assert.Equal(t, DefaultKey, b.Key())

	mr.Close()
	_, err := b.Read(context.Background())
	assert.ErrorIs(t, err, backend.ErrStorageAccess)
	assert.ErrorIs(t, b.Write(context.Background(), backend.Flat{"a": "1"}), backend.ErrStorageAccess)
}
