// Package manager selects and builds settings backends from configuration.
//
// The package focuses on:
//   - Mapping a driver name (json, database, memory, redis, remote) to a backend
//   - Sharing connections: one sql.DB and one redis client per manager
//   - Caching one backend per driver
//
// Key Components:
//
//   - Config: all settings of all drivers. Only the fields of the drivers in
//     use need to be set. Existing connections (DB, Redis) can be passed in,
//     otherwise DSN and RedisAddr are opened on first use and closed by Close.
//
//   - Manager.Backend / Manager.Default: cached backend per driver. "array" is
//     accepted as an alias of "memory" and "db" as an alias of "database".
//
//   - Manager.ShardBackend: uncached backends for the shards of a settings
//     server. A json shard gets its own file (the {shard} placeholder in Path,
//     or the id appended to the file name), a database shard is scoped by the
//     namespace column so all shards share one table, a redis shard uses the
//     hash <key>:<id>.
//
//   - Manager.Store: a new store.Store over the default backend.
package manager
