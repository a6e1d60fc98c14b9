package sqltable

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cast"
)

// Record is one settings row as seen by the backend.
type Record struct {
	Key   string
	Value string
}

// QueryFilter narrows the rows a backend works on. Apply runs after the
// equality filter of the extra columns. insert is true when q is used for an
// insert; such a query only takes stamped values (Query.Stamp).
type QueryFilter interface {
	Apply(q *Query, insert bool)
}

// QueryFilterFunc adapts a function to the QueryFilter interface.
type QueryFilterFunc func(q *Query, insert bool)

func (f QueryFilterFunc) Apply(q *Query, insert bool) {
	f(q, insert)
}

// scanRows reads every row into a column name -> value map. Byte slices are
// converted to strings.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// toRecord maps a scanned row onto a Record. The key must be text; a NULL
// value reads as the empty string.
func toRecord(row map[string]any, keyColumn, valueColumn string) (Record, error) {
	rawKey, ok := row[keyColumn]
	if !ok {
		return Record{}, fmt.Errorf("row has no column %q", keyColumn)
	}
	key, ok := rawKey.(string)
	if !ok {
		return Record{}, fmt.Errorf("key column %q holds %T, not text", keyColumn, rawKey)
	}
	rawValue, ok := row[valueColumn]
	if !ok {
		return Record{}, fmt.Errorf("row %q has no column %q", key, valueColumn)
	}
	return Record{Key: key, Value: toText(rawValue)}, nil
}

// toText converts a setting value to its stored form. nil is stored as "".
func toText(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}
