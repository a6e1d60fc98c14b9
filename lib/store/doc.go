// Package store implements the settings store: one namespace of nested
// settings held in memory on top of a backend.Backend.
//
// Key Features:
//   - Lazy loading: the backend is read on the first access, never before
//   - Dot-path access: Get, Set, Forget and Has address nodes by dotted key
//   - No empty containers: Forget prunes ancestors left empty, setting an
//     empty map or list removes the path
//   - Explicit persistence: mutations stay in memory until Save
//   - Idempotent saves: Save does not call the backend when the flat form of
//     the namespace equals what was last read or written
//
// Implementation Details:
//
//   - Persisted Snapshot: the store keeps the flat map it last read from or
//     wrote to the backend. Save and Dirty compare the current flat form
//     against it. The backend still computes its own minimal change set, since
//     other writers may have changed the storage in the meantime.
//
//   - Scoping: Rescope applies a change to the backend (for example a new
//     filter of the relational backend) and drops the loaded namespace, so the
//     next access reads under the new scope. Fresh drops it without touching
//     the backend.
//
//   - Request Scope: NewContext and FromContext carry a store through a
//     context.Context. SaveMiddleware creates one store per HTTP request and
//     saves it once after the handler returned.
//
//   - Metrics: loads, saves, skipped saves and failures are counted per
//     backend driver with VictoriaMetrics counters
//     (dotset_store_<event>_total{driver="..."}).
//
// Thread Safety:
//
//	A Store serializes its own methods with a mutex. Independent stores over
//	the same backend do not share memory; the last Save wins per key.
//
// Usage Example:
//
//	s := store.New(jsonfile.NewOS("/etc/app/settings.json"))
//
//	driver, err := s.Get(ctx, "mail.driver", "sendmail")
//	err = s.Set(ctx, "mail.port", 587)
//	err = s.Forget(ctx, "features.legacy")
//	err = s.Save(ctx)
package store
