package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/lib/dotpath"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

// Option configures a Store.
type Option func(*Store)

// WithName sets the name used in log lines of this store.
func WithName(name string) Option {
	return func(s *Store) {
		s.name = name
	}
}

// Store holds one settings namespace in memory.
// The namespace is loaded from the backend on first access, mutated in
// memory, and written back only by Save.
//
// A Store is a unit of work: create one per request or job. Methods are safe
// for concurrent use, but other Store instances over the same backend only see
// changes after they load (again).
type Store struct {
	mu        sync.Mutex
	backend   backend.Backend
	name      string
	metrics   *storeMetrics
	data      map[string]any
	persisted backend.Flat
	loaded    bool
}

// New creates a store on top of b. Nothing is read until the first access.
func New(b backend.Backend, opts ...Option) *Store {
	driver := string(b.Info().Driver)
	s := &Store{
		backend: b,
		name:    driver,
		metrics: metricsFor(driver),
		data:    map[string]any{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the backend of the store.
func (s *Store) Backend() backend.Backend {
	return s.backend
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

// Get returns the value at path, or def when the path does not exist.
// Containers are returned as copies.
func (s *Store) Get(ctx context.Context, path string, def any) (any, error) {
	v, ok, err := s.Lookup(ctx, path)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// Lookup is like Get but reports whether the path exists.
func (s *Store) Lookup(ctx context.Context, path string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, false, err
	}
	v, ok := dotpath.Get(s.data, path)
	if !ok {
		return nil, false, nil
	}
	return dotpath.Normalize(v), true, nil
}

// Has reports whether a value exists at path.
func (s *Store) Has(ctx context.Context, path string) (bool, error) {
	_, ok, err := s.Lookup(ctx, path)
	return ok, err
}

// All returns a deep copy of the whole namespace.
func (s *Store) All(ctx context.Context) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return dotpath.Clone(s.data), nil
}

// Flat returns the namespace in its flat form, as it would be written by Save.
func (s *Store) Flat(ctx context.Context) (backend.Flat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return dotpath.Flatten(s.data), nil
}

// --------------------------------------------------------------------------
// Write Operations (memory only, see Save)
// --------------------------------------------------------------------------

// Set stores value at path. Setting an empty map or list removes the path,
// since an empty container cannot be persisted.
func (s *Store) Set(ctx context.Context, path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	return s.set(path, value)
}

// SetMany stores every path of values. Paths are applied in sorted order, so
// "a" is overwritten by "a.b" when both are given.
func (s *Store) SetMany(ctx context.Context, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	paths := make([]string, 0, len(values))
	for path, value := range values {
		if err := dotpath.CheckKeys(dotpath.Normalize(value)); err != nil {
			return fmt.Errorf("store: set %q: %w", path, err)
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := s.set(path, values[path]); err != nil {
			return err
		}
	}
	return nil
}

// Forget removes path and every ancestor that is left empty.
func (s *Store) Forget(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if dotpath.Forget(s.data, path) {
		s.listify(path)
	}
	return nil
}

func (s *Store) set(path string, value any) error {
	pruned, keep := dotpath.Prune(dotpath.Normalize(value))
	if !keep {
		if dotpath.Forget(s.data, path) {
			s.listify(path)
		}
		return nil
	}
	if err := dotpath.Set(s.data, path, pruned); err != nil {
		return fmt.Errorf("store: set %q: %w", path, err)
	}
	s.listify(path)
	return nil
}

// listify brings the top level node touched by path into the shape a reload
// yields, so Get returns the same types before and after Save and Fresh.
func (s *Store) listify(path string) {
	top := dotpath.Split(path)[0]
	if node, ok := s.data[top]; ok {
		s.data[top] = dotpath.Listify(node)
	}
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

// Save writes the namespace to the backend. When nothing changed since the
// last load or save, the backend is not called at all.
// After a failed write the in-memory state is kept, so Save can be retried.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	target := dotpath.Flatten(s.data)
	if target.Equal(s.persisted) {
		s.metrics.skipped.Inc()
		log.Debugf("save of %s skipped, nothing changed", s.name)
		return nil
	}

	if err := s.backend.Write(ctx, target); err != nil {
		s.metrics.failures.Inc()
		log.Errorf("save of %s failed: %v", s.name, err)
		return fmt.Errorf("store: save: %w", err)
	}
	s.metrics.saves.Inc()
	log.Debugf("saved %d keys to %s", len(target), s.name)
	s.persisted = target
	return nil
}

// Dirty reports whether Save would call the backend.
func (s *Store) Dirty(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}
	return !dotpath.Flatten(s.data).Equal(s.persisted), nil
}

// Fresh discards the in-memory namespace. The next access loads it again.
// Unsaved changes are lost.
func (s *Store) Fresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Rescope applies a scoping change to the backend and discards the in-memory
// namespace, so the next access loads under the new scope.
//
//	err := s.Rescope(func(b backend.Backend) error {
//		b.(*sqltable.Backend).SetExtraColumns(map[string]any{"user_id": 7})
//		return nil
//	})
func (s *Store) Rescope(fn func(b backend.Backend) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.backend); err != nil {
		return fmt.Errorf("store: rescope: %w", err)
	}
	s.reset()
	return nil
}

func (s *Store) reset() {
	s.data = map[string]any{}
	s.persisted = nil
	s.loaded = false
}

// ensureLoaded reads the backend once. It is the only read-path I/O.
func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	flat, err := s.backend.Read(ctx)
	if err != nil {
		s.metrics.failures.Inc()
		return fmt.Errorf("store: load: %w", err)
	}
	if flat == nil {
		flat = backend.Flat{}
	}
	s.data = dotpath.Unflatten(flat)
	s.persisted = flat
	s.loaded = true
	s.metrics.loads.Inc()
	log.Debugf("loaded %d keys from %s", len(flat), s.name)
	return nil
}
