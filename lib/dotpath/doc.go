// Package dotpath addresses values inside nested settings maps with dotted keys
// like "mail.driver" or "features.beta.enabled".
//
// The package focuses on:
//   - Reading, writing and removing a value at a dotted path
//   - Pruning ancestors that became empty after a removal
//   - Converting between nested maps and flat maps (dotted key -> scalar)
//
// Key Components:
//
//   - Get / Has / Set / Forget: Path operations on a map[string]any tree. Internal
//     nodes are map[string]any or []any; a segment that addresses a []any must be a
//     decimal index. Set creates missing intermediate maps. Forget removes the leaf
//     and then every ancestor that is left empty, so no empty container survives.
//
//   - Flatten / Unflatten: Flatten emits one entry per leaf, Unflatten applies Set
//     for every entry in key order. A map whose keys are exactly "0".."n-1" is
//     turned back into a []any, so lists survive the round trip.
//
//   - Normalize / Clone / Prune: helpers used by the settings store to copy
//     caller values into the tree and to drop empty containers before they are
//     stored.
//
// All functions are pure and hold no state. None of them are safe for concurrent
// mutation of the same map; callers synchronize access themselves.
package dotpath
