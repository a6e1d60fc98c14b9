package testing

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/lib/store"
)

// BenchmarkFactory prepares fresh, empty storage for a single benchmark and
// returns an Opener for it.
type BenchmarkFactory func(b *testing.B) Opener

// namespaceSize is the number of keys in the namespaces the benchmarks work on.
const namespaceSize = 500

// RunBackendBenchmarks runs all benchmarks for a backend implementation
func RunBackendBenchmarks(b *testing.B, name string, factory BenchmarkFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("WriteFull", func(b *testing.B) {
			benchmarkWriteFull(b, openBench(b, factory))
		})

		b.Run("WriteSingleChange", func(b *testing.B) {
			benchmarkWriteSingleChange(b, openBench(b, factory))
		})

		b.Run("WriteUnchanged", func(b *testing.B) {
			benchmarkWriteUnchanged(b, openBench(b, factory))
		})

		b.Run("Read", func(b *testing.B) {
			benchmarkRead(b, openBench(b, factory))
		})

		b.Run("StoreGet", func(b *testing.B) {
			benchmarkStoreGet(b, openBench(b, factory))
		})

		b.Run("StoreSetSave", func(b *testing.B) {
			benchmarkStoreSetSave(b, openBench(b, factory))
		})
	})
}

func openBench(b *testing.B, factory BenchmarkFactory) backend.Backend {
	be := factory(b)()
	b.Cleanup(func() {
		_ = be.Close()
	})
	return be
}

func namespace(n int, suffix string) backend.Flat {
	flat := make(backend.Flat, n)
	for i := 0; i < n; i++ {
		flat[fmt.Sprintf("group%d.key%d", i%10, i)] = fmt.Sprintf("value-%d%s", i, suffix)
	}
	return flat
}

func seed(b *testing.B, be backend.Backend) backend.Flat {
	flat := namespace(namespaceSize, "")
	if err := be.Write(context.Background(), flat); err != nil {
		b.Fatalf("seeding failed: %v", err)
	}
	return flat
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for replacing every value of the namespace
func benchmarkWriteFull(b *testing.B, be backend.Backend) {
	requireFeature(b, be, backend.FeatureWrite)
	ctx := context.Background()
	targets := []backend.Flat{namespace(namespaceSize, "-a"), namespace(namespaceSize, "-b")}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := be.Write(ctx, targets[i%2]); err != nil {
			b.Fatalf("Write failed: %v", err)
		}
	}
}

// Benchmark for changing one value in a populated namespace
func benchmarkWriteSingleChange(b *testing.B, be backend.Backend) {
	requireFeature(b, be, backend.FeatureWrite)
	ctx := context.Background()
	target := seed(b, be)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		target["group0.key0"] = fmt.Sprintf("changed-%d", i)
		if err := be.Write(ctx, target); err != nil {
			b.Fatalf("Write failed: %v", err)
		}
	}
}

// Benchmark for writing the namespace that is already persisted
func benchmarkWriteUnchanged(b *testing.B, be backend.Backend) {
	requireFeature(b, be, backend.FeatureWrite)
	ctx := context.Background()
	target := seed(b, be)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := be.Write(ctx, target); err != nil {
			b.Fatalf("Write failed: %v", err)
		}
	}
}

// Benchmark for concurrent reads of the whole namespace
func benchmarkRead(b *testing.B, be backend.Backend) {
	requireFeature(b, be, backend.FeatureRead)
	seed(b, be)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			if _, err := be.Read(ctx); err != nil {
				b.Errorf("Read failed: %v", err)
				return
			}
		}
	})
}

// Benchmark for lookups through a loaded store
func benchmarkStoreGet(b *testing.B, be backend.Backend) {
	requireFeature(b, be, backend.FeatureRead)
	seed(b, be)
	s := store.New(be)
	if _, err := s.All(context.Background()); err != nil {
		b.Fatalf("loading failed: %v", err)
	}

	var counter atomic.Int64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			i := counter.Add(1) % namespaceSize
			if _, err := s.Get(ctx, fmt.Sprintf("group%d.key%d", i%10, i), nil); err != nil {
				b.Errorf("Get failed: %v", err)
				return
			}
		}
	})
}

// Benchmark for the set then save cycle of a store
func benchmarkStoreSetSave(b *testing.B, be backend.Backend) {
	requireFeature(b, be, backend.FeatureWrite)
	seed(b, be)
	ctx := context.Background()
	s := store.New(be)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Set(ctx, "group1.key1", i); err != nil {
			b.Fatalf("Set failed: %v", err)
		}
		if err := s.Save(ctx); err != nil {
			b.Fatalf("Save failed: %v", err)
		}
	}
}
