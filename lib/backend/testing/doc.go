// Package testing provides a standardised conformance suite for settings
// backends that satisfy the backend.Backend interface.
//
// The suite checks the contract itself (empty reads, overwrites, removal of
// keys missing from the target, reopening the same storage) and runs the
// settings store on top of the backend to verify the end-to-end behaviour:
// a saved value is visible after Fresh, forgetting the last child of a
// container leaves nothing behind, and reading a missing path never writes.
// Tests that need data to survive a write are skipped for backends without
// backend.FeaturePersist.
//
// Example usage:
//
//	// Prepare fresh storage per test and return an opener for it
//	factory := func(t *testing.T) testing.Opener {
//		path := filepath.Join(t.TempDir(), "settings.json")
//		return func() backend.Backend { return jsonfile.NewOS(path) }
//	}
//
//	// Running the standard test suite
//	testing.RunBackendTests(t, "JsonBackend", factory)
//
// RunBackendBenchmarks measures the same backends over a populated namespace:
// full rewrites, single value changes, no-op writes, parallel reads and the
// set/save cycle of a store.
package testing
