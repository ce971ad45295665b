// File: internal/core/builder.go
package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyTable is returned when a statement is built without a table name.
	ErrEmptyTable = errors.New("table name is empty")
	// ErrNoColumns is returned when a write is built from an empty column list.
	ErrNoColumns = errors.New("no columns given")
	// ErrNilKey is returned by Upsert when the key value is nil.
	ErrNilKey = errors.New("upsert key value is nil")
)

// Column is one column name and the value bound to it
type Column struct {
	Name  string
	Value interface{}
}

// Columns is an insertion-ordered list of column/value pairs
type Columns []Column

// Cols builds Columns from alternating name, value arguments.
// It panics on an odd argument count or a non-string name.
func Cols(pairs ...interface{}) Columns {
	if len(pairs)%2 != 0 {
		panic("core.Cols: odd number of arguments")
	}
	cols := make(Columns, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("core.Cols: column name %v is not a string", pairs[i]))
		}
		cols = cols.Set(name, pairs[i+1])
	}
	return cols
}

// Set replaces the value of an existing column in place, or appends a new one
func (c Columns) Set(name string, value interface{}) Columns {
	for i := range c {
		if c[i].Name == name {
			c[i].Value = value
			return c
		}
	}
	return append(c, Column{Name: name, Value: value})
}

// Get returns the value bound to name
func (c Columns) Get(name string) (interface{}, bool) {
	for _, col := range c {
		if col.Name == name {
			return col.Value, true
		}
	}
	return nil, false
}

// Names returns the column names in order
func (c Columns) Names() []string {
	names := make([]string, len(c))
	for i, col := range c {
		names[i] = col.Name
	}
	return names
}

// Values returns the column values in order
func (c Columns) Values() []interface{} {
	vals := make([]interface{}, len(c))
	for i, col := range c {
		vals[i] = col.Value
	}
	return vals
}

// QuoteIdent wraps a name in square brackets, doubling any closing bracket.
func QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// InsertSQL returns the parameterized INSERT text for table and names
func InsertSQL(table string, names []string) (string, error) {
	if table == "" {
		return "", ErrEmptyTable
	}
	if len(names) == 0 {
		return "", ErrNoColumns
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		QuoteIdent(table), quoteAll(names), placeholders(len(names))), nil
}

// BuildInsert assembles an INSERT statement and returns it with args
func BuildInsert(table string, cols Columns) (string, []interface{}, error) {
	query, err := InsertSQL(table, cols.Names())
	if err != nil {
		return "", nil, err
	}
	return query, cols.Values(), nil
}

// BuildUpsert assembles a single IF EXISTS ... UPDATE ... ELSE INSERT statement.
// The key value is inlined as a literal; the column values are bound twice,
// first for the UPDATE branch and then for the INSERT branch.
func BuildUpsert(table, key string, keyValue interface{}, cols Columns) (string, []interface{}, error) {
	if table == "" {
		return "", nil, ErrEmptyTable
	}
	if key == "" {
		return "", nil, fmt.Errorf("upsert key column is empty")
	}
	if len(cols) == 0 {
		return "", nil, ErrNoColumns
	}
	lit, err := Literal(keyValue)
	if err != nil {
		return "", nil, err
	}

	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = QuoteIdent(col.Name) + " = ?"
	}
	tbl := "dbo." + QuoteIdent(table)
	cond := fmt.Sprintf("%s = %s", QuoteIdent(key), lit)

	query := fmt.Sprintf(
		"IF EXISTS (SELECT * FROM %s WHERE %s) "+
			"UPDATE %s SET %s WHERE %s; "+
			"ELSE INSERT %s ( %s ) VALUES ( %s );",
		tbl, cond,
		tbl, strings.Join(sets, ", "), cond,
		tbl, quoteAll(cols.Names()), placeholders(len(cols)),
	)

	vals := cols.Values()
	args := make([]interface{}, 0, 2*len(vals))
	args = append(args, vals...)
	args = append(args, vals...)
	return query, args, nil
}

// SelectBuilder is a fluent builder for parameterized T-SQL reads
type SelectBuilder struct {
	table      string
	selectCols []string
	whereOps   []string
	args       []interface{}
	joins      []string
	orderBy    string
	top        int
	offset     int
	fetch      int
}

func NewSelect(table string) *SelectBuilder {
	return &SelectBuilder{table: table}
}

// Columns sets the selected columns; they are bracket-quoted
func (sb *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	sb.selectCols = cols
	return sb
}

// Where adds a condition joined with AND, e.g. Where("[age] > ?", 21)
func (sb *SelectBuilder) Where(cond string, vals ...interface{}) *SelectBuilder {
	sb.whereOps = append(sb.whereOps, cond)
	sb.args = append(sb.args, vals...)
	return sb
}

// Join adds a JOIN clause (e.g. "JOIN dbo.[orders] o ON o.[user_id] = u.[id]")
func (sb *SelectBuilder) Join(clause string) *SelectBuilder {
	sb.joins = append(sb.joins, clause)
	return sb
}

// OrderBy sets the ORDER BY clause
func (sb *SelectBuilder) OrderBy(order string) *SelectBuilder {
	sb.orderBy = order
	return sb
}

// Top limits the row count with SELECT TOP n. Ignored when paging with Offset.
func (sb *SelectBuilder) Top(n int) *SelectBuilder {
	sb.top = n
	return sb
}

// Offset skips n rows and, when fetch > 0, returns at most fetch rows.
// SQL Server requires ORDER BY for OFFSET; "(SELECT NULL)" is used if none is set.
func (sb *SelectBuilder) Offset(n, fetch int) *SelectBuilder {
	sb.offset = n
	sb.fetch = fetch
	return sb
}

func (sb *SelectBuilder) paging() bool {
	return sb.offset > 0 || sb.fetch > 0
}

// Build assembles the SQL query string and returns it with args
func (sb *SelectBuilder) Build() (string, []interface{}, error) {
	if sb.table == "" {
		return "", nil, ErrEmptyTable
	}
	parts := []string{"SELECT"}
	if sb.top > 0 && !sb.paging() {
		parts = append(parts, fmt.Sprintf("TOP (%d)", sb.top))
	}
	if len(sb.selectCols) > 0 {
		parts = append(parts, quoteAll(sb.selectCols))
	} else {
		parts = append(parts, "*")
	}
	parts = append(parts, "FROM", "dbo."+QuoteIdent(sb.table))
	if len(sb.joins) > 0 {
		parts = append(parts, strings.Join(sb.joins, " "))
	}
	if len(sb.whereOps) > 0 {
		parts = append(parts, "WHERE", strings.Join(sb.whereOps, " AND "))
	}
	switch {
	case sb.orderBy != "":
		parts = append(parts, "ORDER BY", sb.orderBy)
	case sb.paging():
		parts = append(parts, "ORDER BY (SELECT NULL)")
	}
	if sb.paging() {
		parts = append(parts, fmt.Sprintf("OFFSET %d ROWS", sb.offset))
		if sb.fetch > 0 {
			parts = append(parts, fmt.Sprintf("FETCH NEXT %d ROWS ONLY", sb.fetch))
		}
	}
	return strings.Join(parts, " "), sb.args, nil
}

// BuildCount returns the COUNT(*) form of the query, keeping only JOIN and WHERE
func (sb *SelectBuilder) BuildCount() (string, []interface{}, error) {
	count := &SelectBuilder{
		table:    sb.table,
		whereOps: sb.whereOps,
		args:     sb.args,
		joins:    sb.joins,
	}
	query, args, err := count.Build()
	if err != nil {
		return "", nil, err
	}
	return strings.Replace(query, "SELECT *", "SELECT COUNT(*)", 1), args, nil
}
