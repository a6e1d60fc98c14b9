package sqltable

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Query Builder
// --------------------------------------------------------------------------

// Query collects the conditions of one statement against the settings table.
// Values are always bound as parameters, never interpolated.
//
// A Query is handed to a QueryFilter before it is compiled. For inserts only
// the stamped columns are used, conditions and ordering are ignored.
type Query struct {
	dialect Dialect
	table   string
	where   []condition
	orderBy []string
	stamps  []stamp
	err     error
}

type condition struct {
	// expr uses "?" for every bound value, see bind
	expr string
	args []any
}

type stamp struct {
	column string
	value  any
}

var comparisonOps = map[string]bool{
	"=": true, "!=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true,
	"LIKE": true, "NOT LIKE": true,
}

func newQuery(d Dialect, table string) *Query {
	return &Query{dialect: d, table: table}
}

// Where adds "column op value". A nil value with "=" or "!=" compiles to
// IS NULL or IS NOT NULL.
func (q *Query) Where(column, op string, value any) *Query {
	op = strings.ToUpper(strings.TrimSpace(op))
	if !comparisonOps[op] {
		q.fail(fmt.Errorf("unsupported operator %q", op))
		return q
	}
	col := q.dialect.Quote(column)
	if value == nil {
		switch op {
		case "=":
			q.where = append(q.where, condition{expr: col + " IS NULL"})
			return q
		case "!=", "<>":
			q.where = append(q.where, condition{expr: col + " IS NOT NULL"})
			return q
		}
	}
	q.where = append(q.where, condition{expr: col + " " + op + " ?", args: []any{value}})
	return q
}

// WhereIn adds "column IN (values...)". An empty list matches no row.
func (q *Query) WhereIn(column string, values ...any) *Query {
	if len(values) == 0 {
		q.where = append(q.where, condition{expr: "1 = 0"})
		return q
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	q.where = append(q.where, condition{
		expr: q.dialect.Quote(column) + " IN (" + marks + ")",
		args: values,
	})
	return q
}

// WhereRaw adds a raw boolean expression. Every "?" in expr is bound to the
// next value of args.
func (q *Query) WhereRaw(expr string, args ...any) *Query {
	if n := strings.Count(expr, "?"); n != len(args) {
		q.fail(fmt.Errorf("expression %q has %d placeholders but %d values", expr, n, len(args)))
		return q
	}
	q.where = append(q.where, condition{expr: "(" + expr + ")", args: args})
	return q
}

// OrderBy sorts selected rows by column, ascending unless descending is set.
func (q *Query) OrderBy(column string, descending bool) *Query {
	dir := "ASC"
	if descending {
		dir = "DESC"
	}
	q.orderBy = append(q.orderBy, q.dialect.Quote(column)+" "+dir)
	return q
}

// Stamp writes value into column of every inserted row.
func (q *Query) Stamp(column string, value any) *Query {
	for i := range q.stamps {
		if q.stamps[i].column == column {
			q.stamps[i].value = value
			return q
		}
	}
	q.stamps = append(q.stamps, stamp{column: column, value: value})
	return q
}

// Err returns the first error recorded while building the query.
func (q *Query) Err() error {
	return q.err
}

func (q *Query) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// --------------------------------------------------------------------------
// Compilation
// --------------------------------------------------------------------------

// builder numbers placeholders across one statement.
type builder struct {
	dialect Dialect
	sb      strings.Builder
	args    []any
}

func (b *builder) write(s string) {
	b.sb.WriteString(s)
}

// bind writes expr, replacing every "?" with the dialect's next placeholder.
func (b *builder) bind(expr string, args []any) {
	i := 0
	for _, r := range expr {
		if r == '?' && i < len(args) {
			b.args = append(b.args, args[i])
			b.write(b.dialect.Placeholder(len(b.args)))
			i++
			continue
		}
		b.sb.WriteRune(r)
	}
}

func (b *builder) value(v any) {
	b.bind("?", []any{v})
}

func (b *builder) whereClause(where []condition) {
	for i, c := range where {
		if i == 0 {
			b.write(" WHERE ")
		} else {
			b.write(" AND ")
		}
		b.bind(c.expr, c.args)
	}
}

func (q *Query) compileSelect(columns ...string) (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	b := &builder{dialect: q.dialect}
	b.write("SELECT ")
	for i, c := range columns {
		if i > 0 {
			b.write(", ")
		}
		b.write(q.dialect.Quote(c))
	}
	b.write(" FROM " + q.dialect.Quote(q.table))
	b.whereClause(q.where)
	if len(q.orderBy) > 0 {
		b.write(" ORDER BY " + strings.Join(q.orderBy, ", "))
	}
	return b.sb.String(), b.args, nil
}

func (q *Query) compileUpdate(column string, value any) (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	b := &builder{dialect: q.dialect}
	b.write("UPDATE " + q.dialect.Quote(q.table) + " SET " + q.dialect.Quote(column) + " = ")
	b.value(value)
	b.whereClause(q.where)
	return b.sb.String(), b.args, nil
}

func (q *Query) compileDelete() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	b := &builder{dialect: q.dialect}
	b.write("DELETE FROM " + q.dialect.Quote(q.table))
	b.whereClause(q.where)
	return b.sb.String(), b.args, nil
}

// compileInsert builds one multi-row insert. Every row must have one value per
// column.
func (q *Query) compileInsert(columns []string, rows [][]any) (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	if len(rows) == 0 {
		return "", nil, fmt.Errorf("insert without rows")
	}
	b := &builder{dialect: q.dialect}
	b.write("INSERT INTO " + q.dialect.Quote(q.table) + " (")
	for i, c := range columns {
		if i > 0 {
			b.write(", ")
		}
		b.write(q.dialect.Quote(c))
	}
	b.write(") VALUES ")
	for r, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values for %d columns", r, len(row), len(columns))
		}
		if r > 0 {
			b.write(", ")
		}
		b.write("(")
		for i, v := range row {
			if i > 0 {
				b.write(", ")
			}
			b.value(v)
		}
		b.write(")")
	}
	return b.sb.String(), b.args, nil
}
