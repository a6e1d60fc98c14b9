package sqltable

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("backend/sql")

const features = backend.FeatureRead | backend.FeatureWrite | backend.FeatureDiff |
	backend.FeatureScope | backend.FeaturePersist

const (
	DefaultTable       = "settings"
	DefaultKeyColumn   = "key"
	DefaultValueColumn = "value"

	// maxParams bounds the bind parameters of one statement, below the
	// historic sqlite limit of 999.
	maxParams = 900
)

var (
	updateStatements = metrics.NewCounter(`dotset_sql_statements_total{op="update"}`)
	insertStatements = metrics.NewCounter(`dotset_sql_statements_total{op="insert"}`)
	deleteStatements = metrics.NewCounter(`dotset_sql_statements_total{op="delete"}`)
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// WriteStats describes the statements issued by one Write.
type WriteStats struct {
	Updated   int // keys rewritten with a new value
	Unchanged int // shared keys whose stored text already matched
	Inserted  int // new keys
	Deleted   int // removed keys
	// Statements counts update, insert and delete statements (not the select).
	Statements int
}

// Backend stores one row per flat key in a relational table.
type Backend struct {
	db            *sql.DB
	dialect       Dialect
	table         string
	keyColumn     string
	valueColumn   string
	extraColumns  map[string]any
	filter        QueryFilter
	transactional bool

	mu        sync.RWMutex
	lastWrite WriteStats
}

// Option configures a Backend.
type Option func(*Backend)

// WithTable sets the table name (default "settings").
func WithTable(table string) Option {
	return func(b *Backend) { b.table = table }
}

// WithKeyColumn sets the key column (default "key").
func WithKeyColumn(column string) Option {
	return func(b *Backend) { b.keyColumn = column }
}

// WithValueColumn sets the value column (default "value").
func WithValueColumn(column string) Option {
	return func(b *Backend) { b.valueColumn = column }
}

// WithExtraColumns scopes the backend to the rows whose columns equal the
// given values. Inserted rows get these values.
func WithExtraColumns(columns map[string]any) Option {
	return func(b *Backend) { b.extraColumns = copyColumns(columns) }
}

// WithFilter sets an additional QueryFilter.
func WithFilter(filter QueryFilter) Option {
	return func(b *Backend) { b.filter = filter }
}

// WithoutTransaction runs the statements of a write one by one. A failure
// then leaves the statements before it applied.
func WithoutTransaction() Option {
	return func(b *Backend) { b.transactional = false }
}

// New creates a backend on db. The caller keeps ownership of db.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Backend {
	b := &Backend{
		db:            db,
		dialect:       dialect,
		table:         DefaultTable,
		keyColumn:     DefaultKeyColumn,
		valueColumn:   DefaultValueColumn,
		extraColumns:  map[string]any{},
		transactional: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// --------------------------------------------------------------------------
// Scoping
// --------------------------------------------------------------------------

// SetTable changes the table name.
func (b *Backend) SetTable(table string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.table = table
}

// SetKeyColumn changes the key column.
func (b *Backend) SetKeyColumn(column string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keyColumn = column
}

// SetValueColumn changes the value column.
func (b *Backend) SetValueColumn(column string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.valueColumn = column
}

// SetExtraColumns replaces the equality scope. Call it through
// store.Store.Rescope, otherwise stores on top of this backend keep serving
// the namespace of the previous scope. Values are compared and stored as text.
func (b *Backend) SetExtraColumns(columns map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.extraColumns = copyColumns(columns)
}

// SetFilter replaces the QueryFilter, nil removes it. Like SetExtraColumns
// this changes what the backend reads; call it through store.Store.Rescope
// so stores on top of this backend drop their cached namespace.
func (b *Backend) SetFilter(filter QueryFilter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = filter
}

// LastWrite returns the statistics of the most recent successful Write.
func (b *Backend) LastWrite() WriteStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastWrite
}

// newQuery creates a query carrying the active scope. Reads, updates and
// deletes filter on the extra columns, inserts stamp them. Extra column values
// are bound as text to match the TEXT columns EnsureSchema creates.
func (b *Backend) newQuery(insert bool) *Query {
	q := newQuery(b.dialect, b.table)
	for _, column := range sortedColumns(b.extraColumns) {
		value := scopeValue(b.extraColumns[column])
		if insert {
			q.Stamp(column, value)
		} else {
			q.Where(column, "=", value)
		}
	}
	if b.filter != nil {
		b.filter.Apply(q, insert)
	}
	return q
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend/backend.go)
// --------------------------------------------------------------------------

func (b *Backend) Read(ctx context.Context) (backend.Flat, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	records, err := b.readRecords(ctx, b.db)
	if err != nil {
		return nil, err
	}
	flat := make(backend.Flat, len(records))
	for _, r := range records {
		flat[r.Key] = r.Value
	}
	return flat, nil
}

// Write brings the rows under the active scope to target with the smallest
// set of statements: one update per changed key, batched inserts for new keys
// and batched deletes for removed keys.
func (b *Backend) Write(ctx context.Context, target backend.Flat) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.transactional {
		stats, err := b.write(ctx, b.db, target)
		if err != nil {
			return err
		}
		b.lastWrite = stats
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return backend.StorageError(backend.ImplDatabase, "write", fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback() }()

	stats, err := b.write(ctx, tx, target)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return backend.StorageError(backend.ImplDatabase, "write", fmt.Errorf("commit: %w", err))
	}
	b.lastWrite = stats
	return nil
}

func (b *Backend) SupportsFeature(feature backend.Feature) bool {
	return features&feature == feature
}

func (b *Backend) Info() backend.Info {
	b.mu.RLock()
	defer b.mu.RUnlock()

	meta := map[string]string{
		"dialect":      string(b.dialect),
		"table":        b.table,
		"key_column":   b.keyColumn,
		"value_column": b.valueColumn,
	}
	if len(b.extraColumns) > 0 {
		scope := make([]string, 0, len(b.extraColumns))
		for _, c := range sortedColumns(b.extraColumns) {
			scope = append(scope, c+"="+toText(b.extraColumns[c]))
		}
		meta["scope"] = strings.Join(scope, ",")
	}
	return backend.Info{
		Driver:            backend.ImplDatabase,
		SupportedFeatures: backend.Features(features),
		Metadata:          meta,
	}
}

// Close does nothing, the *sql.DB belongs to the caller.
func (b *Backend) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Internal Read / Write
// --------------------------------------------------------------------------

func (b *Backend) readRecords(ctx context.Context, q querier) ([]Record, error) {
	query, args, err := b.newQuery(false).compileSelect(b.keyColumn, b.valueColumn)
	if err != nil {
		return nil, backend.StorageError(backend.ImplDatabase, "read", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, backend.StorageError(backend.ImplDatabase, "read", err)
	}
	scanned, err := scanRows(rows)
	if err != nil {
		return nil, backend.StorageError(backend.ImplDatabase, "read", err)
	}

	records := make([]Record, 0, len(scanned))
	for i, row := range scanned {
		r, err := toRecord(row, b.keyColumn, b.valueColumn)
		if err != nil {
			return nil, backend.MalformedError(backend.ImplDatabase, "read", "row %d of %s: %v", i, b.table, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func (b *Backend) write(ctx context.Context, q querier, target backend.Flat) (WriteStats, error) {
	var stats WriteStats

	records, err := b.readRecords(ctx, q)
	if err != nil {
		return stats, err
	}
	persisted := make(backend.Flat, len(records))
	for _, r := range records {
		persisted[r.Key] = r.Value
	}
	changes := backend.Diff(persisted, target)

	exec := func(query string, args []any) error {
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			log.Errorf("statement on %s failed: %v", b.table, err)
			return backend.StorageError(backend.ImplDatabase, "write", err)
		}
		stats.Statements++
		return nil
	}

	// updates, skipping rows that already hold the text
	for _, key := range changes.Update.Keys() {
		text := toText(changes.Update[key])
		if persisted[key] == text {
			stats.Unchanged++
			continue
		}
		query, args, err := b.newQuery(false).Where(b.keyColumn, "=", key).compileUpdate(b.valueColumn, text)
		if err != nil {
			return stats, backend.StorageError(backend.ImplDatabase, "write", err)
		}
		if err := exec(query, args); err != nil {
			return stats, err
		}
		updateStatements.Inc()
		stats.Updated++
	}

	// inserts, batched
	if len(changes.Insert) > 0 {
		iq := b.newQuery(true)
		columns := []string{b.keyColumn, b.valueColumn}
		var stamped []any
		for _, s := range iq.stamps {
			if s.column == b.keyColumn || s.column == b.valueColumn {
				continue
			}
			columns = append(columns, s.column)
			stamped = append(stamped, s.value)
		}

		rows := make([][]any, 0, len(changes.Insert))
		for _, key := range changes.Insert.Keys() {
			row := append([]any{key, toText(changes.Insert[key])}, stamped...)
			rows = append(rows, row)
		}
		for _, chunk := range chunkRows(rows, maxParams/len(columns)) {
			query, args, err := iq.compileInsert(columns, chunk)
			if err != nil {
				return stats, backend.StorageError(backend.ImplDatabase, "write", err)
			}
			if err := exec(query, args); err != nil {
				return stats, err
			}
			insertStatements.Inc()
		}
		stats.Inserted = len(rows)
	}

	// deletes, batched
	for _, chunk := range chunkKeys(changes.Delete, maxParams/2) {
		query, args, err := b.newQuery(false).WhereIn(b.keyColumn, chunk...).compileDelete()
		if err != nil {
			return stats, backend.StorageError(backend.ImplDatabase, "write", err)
		}
		if err := exec(query, args); err != nil {
			return stats, err
		}
		deleteStatements.Inc()
	}
	stats.Deleted = len(changes.Delete)

	log.Debugf("wrote %s: %d updated, %d unchanged, %d inserted, %d deleted",
		b.table, stats.Updated, stats.Unchanged, stats.Inserted, stats.Deleted)
	return stats, nil
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// scopeValue binds an extra column value as text. nil stays nil and matches
// with IS NULL.
func scopeValue(v any) any {
	if v == nil {
		return nil
	}
	return toText(v)
}

func copyColumns(columns map[string]any) map[string]any {
	out := make(map[string]any, len(columns))
	for k, v := range columns {
		out[k] = v
	}
	return out
}

func sortedColumns(columns map[string]any) []string {
	out := make([]string, 0, len(columns))
	for k := range columns {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func chunkRows(rows [][]any, size int) [][][]any {
	if size < 1 {
		size = 1
	}
	var out [][][]any
	for len(rows) > size {
		out = append(out, rows[:size])
		rows = rows[size:]
	}
	if len(rows) > 0 {
		out = append(out, rows)
	}
	return out
}

func chunkKeys(keys []string, size int) [][]any {
	var out [][]any
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		chunk := make([]any, 0, end-start)
		for _, k := range keys[start:end] {
			chunk = append(chunk, k)
		}
		out = append(out, chunk)
	}
	return out
}
