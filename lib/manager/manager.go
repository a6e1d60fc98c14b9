package manager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/lib/backend/engines/jsonfile"
	"github.com/ValentinKolb/dotset/lib/backend/engines/memory"
	"github.com/ValentinKolb/dotset/lib/backend/engines/redishash"
	"github.com/ValentinKolb/dotset/lib/backend/engines/sqltable"
	"github.com/ValentinKolb/dotset/lib/store"
	"github.com/ValentinKolb/dotset/rpc/client"
	"github.com/ValentinKolb/dotset/rpc/common"
	"github.com/ValentinKolb/dotset/rpc/serializer"
	"github.com/ValentinKolb/dotset/rpc/transport/http"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

var log = logger.GetLogger("manager")

const (
	// DefaultDriver is used when Config.Driver is empty
	DefaultDriver = "json"
	// DefaultPath is the settings file of the json driver
	DefaultPath = "settings.json"
	// ShardPlaceholder in Config.Path is replaced by the shard id
	ShardPlaceholder = "{shard}"
	// NamespaceColumn scopes the rows of a shard in the database driver
	NamespaceColumn = "namespace"
)

// Config selects and configures the settings backends.
type Config struct {
	// Driver is the default driver: json, database (db), memory (array),
	// redis or remote.
	Driver string

	// json driver
	Path string   // settings file, may contain {shard}
	FS   afero.Fs // file system, the OS file system when nil

	// database driver
	DB           *sql.DB // existing connection, DSN is opened when nil
	Dialect      string  // sqlite (default) or postgres
	DSN          string
	Table        string
	KeyColumn    string
	ValueColumn  string
	ExtraColumns map[string]any
	Migrate      bool // create the table if it does not exist

	// redis driver
	Redis     redis.UniversalClient // existing client, RedisAddr is dialed when nil
	RedisAddr string                // host:port or redis:// url
	RedisKey  string

	// remote driver
	Remote      common.ClientConfig
	RemoteShard uint64
	Serializer  string
}

// Manager creates backends from a Config and caches one per driver.
type Manager struct {
	cfg      Config
	backends *xsync.MapOf[backend.Implementation, backend.Backend]

	mu       sync.Mutex
	db       *sql.DB
	ownDB    bool
	rdb      redis.UniversalClient
	ownRedis bool
}

// New creates a manager. Connections are opened on first use.
func New(cfg Config) *Manager {
	if cfg.Driver == "" {
		cfg.Driver = DefaultDriver
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}
	return &Manager{
		cfg:      cfg,
		backends: xsync.NewMapOf[backend.Implementation, backend.Backend](),
		db:       cfg.DB,
		rdb:      cfg.Redis,
	}
}

// Default returns the backend of the configured default driver.
func (m *Manager) Default(ctx context.Context) (backend.Backend, error) {
	return m.Backend(ctx, m.cfg.Driver)
}

// Backend returns the backend for the named driver, creating it on first use.
// Later calls with the same driver return the same instance.
func (m *Manager) Backend(ctx context.Context, driver string) (backend.Backend, error) {
	impl, err := backend.ParseImplementation(driver)
	if err != nil {
		return nil, err
	}

	var createErr error
	b, _ := m.backends.Compute(impl, func(old backend.Backend, loaded bool) (backend.Backend, bool) {
		if loaded {
			return old, false
		}
		created, err := m.create(ctx, impl, nil)
		if err != nil {
			createErr = err
			return nil, true
		}
		log.Infof("created %s backend", impl)
		return created, false
	})
	if createErr != nil {
		return nil, createErr
	}
	return b, nil
}

// ShardBackend creates an uncached backend for one shard of a settings server.
// Shards of the json driver use their own file, database shards share the
// table and are scoped by the namespace column, redis shards use their own hash.
// The caller closes the returned backend.
func (m *Manager) ShardBackend(ctx context.Context, impl backend.Implementation, shardID uint64) (backend.Backend, error) {
	return m.create(ctx, impl, &shardID)
}

// Store creates a new store over the default backend.
func (m *Manager) Store(ctx context.Context, opts ...store.Option) (*store.Store, error) {
	b, err := m.Default(ctx)
	if err != nil {
		return nil, err
	}
	return store.New(b, opts...), nil
}

// Close closes all cached backends and the connections the manager opened.
func (m *Manager) Close() error {
	var errs []error
	m.backends.Range(func(impl backend.Implementation, b backend.Backend) bool {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s backend: %w", impl, err))
		}
		m.backends.Delete(impl)
		return true
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ownDB && m.db != nil {
		errs = append(errs, m.db.Close())
		m.db, m.ownDB = nil, false
	}
	if m.ownRedis && m.rdb != nil {
		errs = append(errs, m.rdb.Close())
		m.rdb, m.ownRedis = nil, false
	}
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// create builds a backend. With a shard id the backend is scoped to that shard.
func (m *Manager) create(ctx context.Context, impl backend.Implementation, shard *uint64) (backend.Backend, error) {
	switch impl {
	case backend.ImplMemory:
		return memory.New(), nil
	case backend.ImplJSON:
		path := m.cfg.Path
		if shard != nil {
			path = shardPath(path, *shard)
		}
		return jsonfile.New(m.cfg.FS, path), nil
	case backend.ImplDatabase:
		return m.createDatabase(ctx, shard)
	case backend.ImplRedis:
		rdb, err := m.redis()
		if err != nil {
			return nil, err
		}
		key := m.cfg.RedisKey
		if key == "" {
			key = redishash.DefaultKey
		}
		if shard != nil {
			key += ":" + strconv.FormatUint(*shard, 10)
		}
		return redishash.New(rdb, key), nil
	case backend.ImplRemote:
		ser, err := serializer.ByName(m.cfg.Serializer)
		if err != nil {
			return nil, err
		}
		shardID := m.cfg.RemoteShard
		if shard != nil {
			shardID = *shard
		}
		return client.NewRPCBackend(shardID, m.cfg.Remote, http.NewHttpClientTransport(), ser)
	default:
		return nil, fmt.Errorf("unsupported settings driver %q", impl)
	}
}

func (m *Manager) createDatabase(ctx context.Context, shard *uint64) (backend.Backend, error) {
	name := m.cfg.Dialect
	if name == "" {
		name = string(sqltable.DialectSQLite)
	}
	dialect, err := sqltable.ParseDialect(name)
	if err != nil {
		return nil, err
	}
	db, err := m.database(ctx, dialect)
	if err != nil {
		return nil, err
	}

	extra := make(map[string]any, len(m.cfg.ExtraColumns)+1)
	for k, v := range m.cfg.ExtraColumns {
		extra[k] = v
	}
	if shard != nil {
		extra[NamespaceColumn] = strconv.FormatUint(*shard, 10)
	}

	opts := []sqltable.Option{sqltable.WithExtraColumns(extra)}
	if m.cfg.Table != "" {
		opts = append(opts, sqltable.WithTable(m.cfg.Table))
	}
	if m.cfg.KeyColumn != "" {
		opts = append(opts, sqltable.WithKeyColumn(m.cfg.KeyColumn))
	}
	if m.cfg.ValueColumn != "" {
		opts = append(opts, sqltable.WithValueColumn(m.cfg.ValueColumn))
	}
	b := sqltable.New(db, dialect, opts...)

	if m.cfg.Migrate {
		if err := b.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// database returns the shared connection, opening DSN on first use
func (m *Manager) database(ctx context.Context, dialect sqltable.Dialect) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}
	if m.cfg.DSN == "" {
		return nil, fmt.Errorf("database driver needs a connection or a dsn")
	}
	db, err := sqltable.Open(ctx, dialect, m.cfg.DSN)
	if err != nil {
		return nil, err
	}
	m.db, m.ownDB = db, true
	return db, nil
}

// redis returns the shared client, dialing RedisAddr on first use
func (m *Manager) redis() (redis.UniversalClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rdb != nil {
		return m.rdb, nil
	}
	if m.cfg.RedisAddr == "" {
		return nil, fmt.Errorf("redis driver needs a client or an address")
	}
	opts := &redis.Options{Addr: m.cfg.RedisAddr}
	if strings.Contains(m.cfg.RedisAddr, "://") {
		var err error
		if opts, err = redis.ParseURL(m.cfg.RedisAddr); err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
	}
	m.rdb, m.ownRedis = redis.NewClient(opts), true
	return m.rdb, nil
}

// shardPath derives the settings file of a shard from the configured path:
// {shard} is replaced by the id, otherwise the id is appended to the file name.
func shardPath(path string, shard uint64) string {
	id := strconv.FormatUint(shard, 10)
	if strings.Contains(path, ShardPlaceholder) {
		return strings.ReplaceAll(path, ShardPlaceholder, id)
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + id + ext
}
