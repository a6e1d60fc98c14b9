package manager

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/lib/backend/engines/sqltable"
	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m := New(cfg)
	t.Cleanup(func() { require.NoError(t, m.Close()) })
	return m
}

func TestDefaultIsJSON(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	m := newManager(t, Config{FS: fs})

	s, err := m.Store(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "mail.driver", "smtp"))
	require.NoError(t, s.Save(ctx))

	exists, err := afero.Exists(fs, DefaultPath)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, backend.ImplJSON, s.Backend().Info().Driver)
}

func TestBackendIsCached(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, Config{Driver: "array"})

	a, err := m.Backend(ctx, "memory")
	require.NoError(t, err)
	b, err := m.Default(ctx)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, backend.ImplMemory, a.Info().Driver)
}

func TestUnknownDriver(t *testing.T) {
	m := newManager(t, Config{Driver: "mongodb"})
	_, err := m.Default(context.Background())
	assert.Error(t, err)
}

func TestFailedCreationIsNotCached(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, Config{})

	_, err := m.Backend(ctx, "database")
	assert.Error(t, err)
	_, loaded := m.backends.Load(backend.ImplDatabase)
	assert.False(t, loaded)

	_, err = m.Backend(ctx, "redis")
	assert.Error(t, err)
}

func TestDatabaseShardsShareTable(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, Config{
		Driver:  "db",
		Dialect: "sqlite3",
		DSN:     filepath.Join(t.TempDir(), "settings.db"),
		Migrate: true,
	})

	one, err := m.ShardBackend(ctx, backend.ImplDatabase, 1)
	require.NoError(t, err)
	two, err := m.ShardBackend(ctx, backend.ImplDatabase, 2)
	require.NoError(t, err)

	require.NoError(t, one.Write(ctx, backend.Flat{"theme": "dark"}))
	require.NoError(t, two.Write(ctx, backend.Flat{"theme": "light", "lang": "de"}))

	flat, err := one.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, backend.Flat{"theme": "dark"}, flat)

	info := two.Info()
	assert.Contains(t, info.Metadata["scope"], NamespaceColumn)

	// the unscoped default backend sees every row of the table
	all, err := m.Default(ctx)
	require.NoError(t, err)
	flat, err = all.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, flat, 2)
	assert.Contains(t, flat, "lang")
}

func TestDatabaseWithCustomColumns(t *testing.T) {
	ctx := context.Background()
	db, err := sqltable.Open(ctx, sqltable.DialectSQLite, filepath.Join(t.TempDir(), "custom.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m := newManager(t, Config{
		Driver:       "database",
		DB:           db,
		Table:        "app_settings",
		KeyColumn:    "name",
		ValueColumn:  "payload",
		ExtraColumns: map[string]any{"tenant": "acme"},
		Migrate:      true,
	})
	s, err := m.Store(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "a.b", "c"))
	require.NoError(t, s.Save(ctx))

	var name, payload, tenant string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT "name", "payload", "tenant" FROM "app_settings"`).
		Scan(&name, &payload, &tenant))
	assert.Equal(t, []string{"a.b", "c", "acme"}, []string{name, payload, tenant})

	// the connection was passed in, so the manager must not close it
	require.NoError(t, m.Close())
	assert.NoError(t, db.PingContext(ctx))
}

func TestJSONShardPaths(t *testing.T) {
	assert.Equal(t, "data/shard-7.json", shardPath("data/shard-{shard}.json", 7))
	assert.Equal(t, "settings-3.json", shardPath("settings.json", 3))
	assert.Equal(t, "settings-3", shardPath("settings", 3))

	ctx := context.Background()
	fs := afero.NewMemMapFs()
	m := newManager(t, Config{FS: fs, Path: "/srv/{shard}/settings.json"})
	b, err := m.ShardBackend(ctx, backend.ImplJSON, 12)
	require.NoError(t, err)
	require.NoError(t, b.Write(ctx, backend.Flat{"a": "1"}))

	exists, err := afero.Exists(fs, "/srv/12/settings.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisShards(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	m := newManager(t, Config{Driver: "redis", RedisAddr: mr.Addr(), RedisKey: "cfg"})

	b, err := m.Default(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Write(ctx, backend.Flat{"x": "1"}))
	assert.Equal(t, "1", mr.HGet("cfg", "x"))

	shard, err := m.ShardBackend(ctx, backend.ImplRedis, 5)
	require.NoError(t, err)
	require.NoError(t, shard.Write(ctx, backend.Flat{"y": "2"}))
	assert.Equal(t, "2", mr.HGet("cfg:5", "y"))
}

func TestRedisURL(t *testing.T) {
	mr := miniredis.RunT(t)
	m := newManager(t, Config{Driver: "redis", RedisAddr: "redis://" + mr.Addr() + "/0"})

	b, err := m.Default(context.Background())
	require.NoError(t, err)
	_, err = b.Read(context.Background())
	assert.NoError(t, err)
}

func TestRemoteNeedsValidSerializer(t *testing.T) {
	m := newManager(t, Config{Driver: "remote", Serializer: "xml"})
	_, err := m.Default(context.Background())
	assert.Error(t, err)
}
