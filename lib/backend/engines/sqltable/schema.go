package sqltable

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/dotset/lib/backend"
)

// EnsureSchema creates the settings table and its key index when they do not
// exist yet. Every extra column becomes a nullable TEXT column. Existing
// tables are left untouched.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, stmt := range b.schemaStatements() {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return backend.StorageError(backend.ImplDatabase, "migrate", fmt.Errorf("%s: %w", stmt, err))
		}
	}
	log.Infof("schema of %s ensured", b.table)
	return nil
}

func (b *Backend) schemaStatements() []string {
	q := b.dialect.Quote

	id := q("id") + " INTEGER PRIMARY KEY AUTOINCREMENT"
	if b.dialect == DialectPostgres {
		id = q("id") + " BIGSERIAL PRIMARY KEY"
	}

	table := "CREATE TABLE IF NOT EXISTS " + q(b.table) + " (" + id +
		", " + q(b.keyColumn) + " VARCHAR(255) NOT NULL" +
		", " + q(b.valueColumn) + " TEXT NOT NULL"
	for _, column := range sortedColumns(b.extraColumns) {
		if column == b.keyColumn || column == b.valueColumn || column == "id" {
			continue
		}
		table += ", " + q(column) + " TEXT"
	}
	table += ")"

	index := "CREATE INDEX IF NOT EXISTS " + q(indexName(b.table, b.keyColumn)) +
		" ON " + q(b.table) + " (" + q(b.keyColumn) + ")"

	return []string{table, index}
}

// indexName derives "<table>_<column>_index", dropping any schema prefix
// since postgres creates the index in the table's schema.
func indexName(table, column string) string {
	for i := len(table) - 1; i >= 0; i-- {
		if table[i] == '.' {
			table = table[i+1:]
			break
		}
	}
	return table + "_" + column + "_index"
}
