// Package sqltable implements a backend.Backend on a relational table with
// one row per flat key: (id, key, value, extra columns...).
//
// The package focuses on:
//   - Diff-minimized writes: a write reads the keys stored under the active
//     scope and issues only the statements needed to reach the target
//   - Scoping: extra columns and a QueryFilter partition one table into
//     independent namespaces
//   - Parameterized SQL for sqlite (mattn/go-sqlite3) and postgres
//     (jackc/pgx/v5 stdlib)
//
// Write Algorithm:
//
//	persisted := SELECT key, value WHERE <scope>
//	update := persisted ∩ target   one UPDATE per key whose text changed
//	insert := target \ persisted   batched multi-row INSERT, scope stamped
//	delete := persisted \ target   batched DELETE ... WHERE key IN (...)
//
// Values are stored as text (spf13/cast), nil as the empty string. The
// statements run in one transaction unless WithoutTransaction is given; in
// that mode a failing statement leaves the earlier ones applied. Concurrent
// writers of the same scope are not isolated from each other, the last
// statement wins per key.
//
// Scoping:
//
//   - Extra columns: WithExtraColumns / SetExtraColumns add "column = value"
//     to every select, update and delete, and write the values into every
//     inserted row.
//
//   - QueryFilter: Apply(q, insert) runs after the extra columns. For reads,
//     updates and deletes it may add conditions (Where, WhereIn, WhereRaw) and
//     ordering. For inserts only Stamp has an effect.
//
// Rows are read into column maps and mapped to a Record. A row without the
// key or value column, or with a key that is not text, fails the read with
// backend.ErrMalformedRecord.
//
// EnsureSchema creates the table (auto increment id, indexed key, text value,
// one TEXT column per extra column) when it is missing.
package sqltable
