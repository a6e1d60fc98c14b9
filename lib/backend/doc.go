// Package backend defines the persistence contract of the settings store.
// A backend stores the flat form of a settings namespace (dotted key -> scalar)
// and is swapped without touching the store that uses it.
//
// The package focuses on:
//   - A small Backend interface with whole-namespace Read and Write
//   - Feature discovery through capability flags
//   - A shared error type with return codes
//   - The diff that diff-minimizing backends build their writes on
//
// Key Components:
//
//   - Backend Interface: Read returns every persisted key, Write receives the
//     complete desired end state. SupportsFeature, Info and Close complete the
//     contract.
//
//   - Feature Flags: FeatureRead, FeatureWrite, FeatureDiff (write touches only
//     changed keys), FeatureScope (storage can be partitioned) and FeaturePersist
//     (data outlives the process).
//
//   - Implementation Identifiers: "memory", "json", "database", "redis" and
//     "remote". ParseImplementation also accepts "array" for memory.
//
//   - Error: every failure is an *Error carrying a RetCode. errors.Is matches the
//     sentinels ErrStorageAccess, ErrMalformedRecord and ErrUnsupported by code,
//     errors.Unwrap exposes the driver error.
//
//   - Diff: splits persisted P and target T into update = P∩T, insert = T\P and
//     delete = P\T.
//
// Related Packages:
//
// The engines/... packages contain the implementations (memory, jsonfile,
// sqltable, redishash). The remote implementation lives in rpc/client.
//
// The testing package (github.com/ValentinKolb/dotset/lib/backend/testing)
// provides RunBackendTests, a conformance suite every implementation runs.
package backend
