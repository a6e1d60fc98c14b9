package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/lib/store"
	"github.com/spf13/cast"
)

// Opener returns a backend over one fixed storage location. Calling it twice
// must yield two independent backends that see the same persisted data.
type Opener func() backend.Backend

// StorageFactory prepares fresh, empty storage for a single test and returns
// an Opener for it. Use t.Cleanup to release the storage.
type StorageFactory func(t *testing.T) Opener

// RunBackendTests runs a comprehensive test suite for a backend implementation.
func RunBackendTests(t *testing.T, name string, factory StorageFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Info", func(t *testing.T) {
			testInfo(t, open(t, factory))
		})

		t.Run("EmptyRead", func(t *testing.T) {
			testEmptyRead(t, open(t, factory))
		})

		t.Run("WriteRead", func(t *testing.T) {
			testWriteRead(t, open(t, factory))
		})

		t.Run("Overwrite", func(t *testing.T) {
			testOverwrite(t, open(t, factory))
		})

		t.Run("WriteEmpty", func(t *testing.T) {
			testWriteEmpty(t, open(t, factory))
		})

		t.Run("RepeatedWrite", func(t *testing.T) {
			testRepeatedWrite(t, open(t, factory))
		})

		t.Run("Reopen", func(t *testing.T) {
			testReopen(t, factory(t))
		})

		t.Run("ConcurrentReaders", func(t *testing.T) {
			testConcurrentReaders(t, open(t, factory))
		})

		t.Run("StoreLifecycle", func(t *testing.T) {
			testStoreLifecycle(t, factory(t))
		})

		t.Run("StorePruning", func(t *testing.T) {
			testStorePruning(t, factory(t))
		})

		t.Run("StoreMissingPath", func(t *testing.T) {
			testStoreMissingPath(t, open(t, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the backend supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, b backend.Backend, feature backend.Feature) {
	if !b.SupportsFeature(feature) {
		t.Skip()
	}
}

func open(t *testing.T, factory StorageFactory) backend.Backend {
	b := factory(t)()
	t.Cleanup(func() {
		if err := b.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return b
}

// assertFlat compares two flat maps by the text form of their values, since
// text oriented backends do not keep the scalar type.
func assertFlat(t testing.TB, got, want backend.Flat) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("got %d keys %v, want %d keys %v", len(got), got, len(want), want)
		return
	}
	for k, w := range want {
		g, ok := got[k]
		if !ok {
			t.Errorf("key %q missing, got %v", k, got)
			continue
		}
		if cast.ToString(g) != cast.ToString(w) {
			t.Errorf("key %q = %v, want %v", k, g, w)
		}
	}
}

func mustRead(t testing.TB, b backend.Backend) backend.Flat {
	t.Helper()
	flat, err := b.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return flat
}

func mustWrite(t testing.TB, b backend.Backend, target backend.Flat) {
	t.Helper()
	if err := b.Write(context.Background(), target); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testInfo(t *testing.T, b backend.Backend) {
	info := b.Info()
	if info.Driver == "" {
		t.Error("Info().Driver is empty")
	}
	for _, f := range info.SupportedFeatures {
		if !b.SupportsFeature(f) {
			t.Errorf("Info lists %s but SupportsFeature(%s) is false", f, f)
		}
	}
	if !b.SupportsFeature(backend.FeatureRead | backend.FeatureWrite) {
		t.Error("every backend must support Read and Write")
	}
}

func testEmptyRead(t *testing.T, b backend.Backend) {
	flat := mustRead(t, b)
	if len(flat) != 0 {
		t.Errorf("fresh backend returned %v", flat)
	}
}

func testWriteRead(t *testing.T, b backend.Backend) {
	requireFeature(t, b, backend.FeaturePersist)

	target := backend.Flat{
		"mail.driver":           "smtp",
		"mail.port":             587,
		"features.beta.enabled": true,
		"hosts.0":               "a.example",
		"hosts.1":               "b.example",
	}
	mustWrite(t, b, target)
	assertFlat(t, mustRead(t, b), target)
}

func testOverwrite(t *testing.T, b backend.Backend) {
	requireFeature(t, b, backend.FeaturePersist)

	mustWrite(t, b, backend.Flat{"a.b": "1", "a.c": "2", "d": "3"})
	next := backend.Flat{"a.b": "10", "e": "5"}
	mustWrite(t, b, next)
	assertFlat(t, mustRead(t, b), next)
}

func testWriteEmpty(t *testing.T, b backend.Backend) {
	mustWrite(t, b, backend.Flat{"x": "1"})
	mustWrite(t, b, backend.Flat{})
	if flat := mustRead(t, b); len(flat) != 0 {
		t.Errorf("expected empty backend, got %v", flat)
	}
}

func testRepeatedWrite(t *testing.T, b backend.Backend) {
	requireFeature(t, b, backend.FeaturePersist)

	target := backend.Flat{"k": "v", "n.m": "1"}
	for i := 0; i < 3; i++ {
		mustWrite(t, b, target)
	}
	assertFlat(t, mustRead(t, b), target)
}

func testReopen(t *testing.T, opener Opener) {
	first := opener()
	defer first.Close()
	requireFeature(t, first, backend.FeaturePersist)

	target := backend.Flat{"app.name": "dotset", "app.debug": false}
	mustWrite(t, first, target)

	second := opener()
	defer second.Close()
	assertFlat(t, mustRead(t, second), target)
}

func testConcurrentReaders(t *testing.T, b backend.Backend) {
	requireFeature(t, b, backend.FeaturePersist)

	target := backend.Flat{}
	for i := 0; i < 50; i++ {
		target[fmt.Sprintf("group%d.key%d", i%5, i)] = i
	}
	mustWrite(t, b, target)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flat, err := b.Read(context.Background())
			if err != nil {
				errs <- err
				return
			}
			if len(flat) != len(target) {
				errs <- fmt.Errorf("read %d keys, want %d", len(flat), len(target))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func testStoreLifecycle(t *testing.T, opener Opener) {
	b := opener()
	defer b.Close()
	requireFeature(t, b, backend.FeaturePersist)
	ctx := context.Background()

	s := store.New(b)
	if err := s.Set(ctx, "mail.driver", "smtp"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	s.Fresh()

	v, err := s.Get(ctx, "mail.driver", nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if cast.ToString(v) != "smtp" {
		t.Errorf("mail.driver = %v, want smtp", v)
	}

	other := opener()
	defer other.Close()
	v, err = store.New(other).Get(ctx, "mail.driver", nil)
	if err != nil || cast.ToString(v) != "smtp" {
		t.Errorf("second instance: mail.driver = %v, %v", v, err)
	}
}

func testStorePruning(t *testing.T, opener Opener) {
	b := opener()
	defer b.Close()
	requireFeature(t, b, backend.FeaturePersist)
	ctx := context.Background()

	mustWrite(t, b, backend.Flat{"a.b": "1", "a.c": "2"})

	s := store.New(b)
	if err := s.Forget(ctx, "a.c"); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	assertFlat(t, mustRead(t, b), backend.Flat{"a.b": "1"})

	if err := s.Forget(ctx, "a.b"); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if flat := mustRead(t, b); len(flat) != 0 {
		t.Errorf("expected nothing persisted, got %v", flat)
	}
	if ok, _ := s.Has(ctx, "a"); ok {
		t.Error("empty container a survived")
	}
}

func testStoreMissingPath(t *testing.T, b backend.Backend) {
	ctx := context.Background()
	s := store.New(b)

	v, err := s.Get(ctx, "missing.path", "fallback")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "fallback" {
		t.Errorf("Get = %v, want fallback", v)
	}
	dirty, err := s.Dirty(ctx)
	if err != nil || dirty {
		t.Errorf("Dirty = %v, %v; a read must not schedule a write", dirty, err)
	}
}
