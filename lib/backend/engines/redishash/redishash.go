// Package redishash implements a backend.Backend that keeps a settings
// namespace in one redis HASH: every field is a dotted key, every value its
// text.
//
// Read is a single HGETALL. Write reads the hash, computes the diff against
// the target and applies it with HSET (new or changed fields) and HDEL
// (removed fields) inside one MULTI/EXEC, so readers never observe half of a
// write. Like the relational backend, concurrent writers of the same hash are
// not isolated between the HGETALL and the EXEC; the last writer wins per
// field.
//
// The redis client is passed in and not closed by the backend.
package redishash

import (
	"context"
	"errors"
	"sync"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
)

var log = logger.GetLogger("backend/redis")

const features = backend.FeatureRead | backend.FeatureWrite | backend.FeatureDiff |
	backend.FeatureScope | backend.FeaturePersist

// DefaultKey is the hash used when no key is configured.
const DefaultKey = "settings"

// Backend stores a namespace in a redis hash.
type Backend struct {
	rdb redis.UniversalClient
	mu  sync.RWMutex
	key string
}

// New creates a backend for the hash at key.
func New(rdb redis.UniversalClient, key string) *Backend {
	if key == "" {
		key = DefaultKey
	}
	return &Backend{rdb: rdb, key: key}
}

// Key returns the hash the backend works on.
func (b *Backend) Key() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.key
}

// SetKey moves the backend to another hash, which scopes it like the extra
// columns of the relational backend.
func (b *Backend) SetKey(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.key = key
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend/backend.go)
// --------------------------------------------------------------------------

func (b *Backend) Read(ctx context.Context) (backend.Flat, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	fields, err := b.hgetall(ctx)
	if err != nil {
		return nil, backend.StorageError(backend.ImplRedis, "read", err)
	}
	flat := make(backend.Flat, len(fields))
	for k, v := range fields {
		flat[k] = v
	}
	return flat, nil
}

func (b *Backend) Write(ctx context.Context, target backend.Flat) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	fields, err := b.hgetall(ctx)
	if err != nil {
		return backend.StorageError(backend.ImplRedis, "write", err)
	}
	persisted := make(backend.Flat, len(fields))
	for k, v := range fields {
		persisted[k] = v
	}
	changes := backend.Diff(persisted, target)

	set := make(map[string]any, len(changes.Insert)+len(changes.Update))
	for k, v := range changes.Insert {
		set[k] = toText(v)
	}
	for k, v := range changes.Update {
		if text := toText(v); text != fields[k] {
			set[k] = text
		}
	}
	if len(set) == 0 && len(changes.Delete) == 0 {
		return nil
	}

	_, err = b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(set) > 0 {
			pipe.HSet(ctx, b.key, set)
		}
		if len(changes.Delete) > 0 {
			pipe.HDel(ctx, b.key, changes.Delete...)
		}
		return nil
	})
	if err != nil {
		log.Errorf("writing hash %s failed: %v", b.key, err)
		return backend.StorageError(backend.ImplRedis, "write", err)
	}
	log.Debugf("wrote hash %s: %d set, %d deleted", b.key, len(set), len(changes.Delete))
	return nil
}

func (b *Backend) SupportsFeature(feature backend.Feature) bool {
	return features&feature == feature
}

func (b *Backend) Info() backend.Info {
	return backend.Info{
		Driver:            backend.ImplRedis,
		SupportedFeatures: backend.Features(features),
		Metadata:          map[string]string{"key": b.Key()},
	}
}

// Close does nothing, the client belongs to the caller.
func (b *Backend) Close() error {
	return nil
}

func (b *Backend) hgetall(ctx context.Context) (map[string]string, error) {
	fields, err := b.rdb.HGetAll(ctx, b.key).Result()
	if errors.Is(err, redis.Nil) {
		return map[string]string{}, nil
	}
	return fields, err
}

func toText(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}
