package sqlserver

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/jchilcher/sqlserver/internal/plugin"
)

// Row holds one result row's column values in select order.
type Row []interface{}

// ResultSet is a fully materialized query result.
type ResultSet struct {
	Columns []string
	Rows    []Row
}

// Select runs query verbatim and returns every row. All rows are held in
// memory. An empty result is an empty slice, not an error.
func (c *Client) Select(ctx context.Context, query string) ([]Row, error) {
	rs, err := c.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return rs.Rows, nil
}

// Query runs a parameterized read and returns its columns and rows.
func (c *Client) Query(ctx context.Context, query string, args ...interface{}) (*ResultSet, error) {
	rs := &ResultSet{Rows: []Row{}}
	err := c.run(ctx, plugin.OpSelect, query, args, func(db *sqlx.DB) (int64, error) {
		rows, err := db.QueryxContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("query failed: %w", err)
		}
		defer rows.Close()

		rs.Columns, err = rows.Columns()
		if err != nil {
			return 0, fmt.Errorf("failed to get columns: %w", err)
		}
		for rows.Next() {
			vals, err := rows.SliceScan()
			if err != nil {
				return 0, fmt.Errorf("failed to scan row: %w", err)
			}
			rs.Rows = append(rs.Rows, toRow(vals))
		}
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("error iterating rows: %w", err)
		}
		return int64(len(rs.Rows)), nil
	})
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// toRow converts driver byte slices to strings.
func toRow(vals []interface{}) Row {
	for i, v := range vals {
		if b, ok := v.([]byte); ok {
			vals[i] = string(b)
		}
	}
	return Row(vals)
}

// SelectInto scans the rows of query into dest, a pointer to a slice of
// structs (matched by `db` tags) or scalars.
func (c *Client) SelectInto(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Ptr || destVal.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dest must be a pointer to a slice")
	}
	return c.run(ctx, plugin.OpSelect, query, args, func(db *sqlx.DB) (int64, error) {
		if err := db.SelectContext(ctx, dest, query, args...); err != nil {
			return 0, err
		}
		return int64(destVal.Elem().Len()), nil
	})
}

// SelectWhere runs a built SELECT.
func (c *Client) SelectWhere(ctx context.Context, sb *SelectBuilder) (*ResultSet, error) {
	query, args, err := sb.Build()
	if err != nil {
		return nil, err
	}
	return c.Query(ctx, query, args...)
}

// Count runs the COUNT(*) form of sb.
func (c *Client) Count(ctx context.Context, sb *SelectBuilder) (int64, error) {
	query, args, err := sb.BuildCount()
	if err != nil {
		return 0, err
	}
	rs, err := c.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	if len(rs.Rows) != 1 || len(rs.Rows[0]) != 1 {
		return 0, fmt.Errorf("count: expected one value, got %d rows", len(rs.Rows))
	}
	return toInt64(rs.Rows[0][0])
}

func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	default:
		return 0, fmt.Errorf("count: unexpected value type %T", v)
	}
}
