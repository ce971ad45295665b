package sqlserver

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jchilcher/sqlserver/internal/core"
	"github.com/jchilcher/sqlserver/internal/plugin"
	"github.com/jchilcher/sqlserver/internal/typeconv"
)

// Update runs a parameterized write, commits it and returns the rows affected.
// The transaction is rolled back if the statement fails.
func (c *Client) Update(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return c.write(ctx, plugin.OpUpdate, query, args)
}

// Insert inserts one row into table, columns in the order given.
func (c *Client) Insert(ctx context.Context, table string, cols Columns) (int64, error) {
	query, args, err := core.BuildInsert(table, cols)
	if err != nil {
		return 0, err
	}
	return c.write(ctx, plugin.OpInsert, query, args)
}

// Upsert updates the row of table whose key column equals keyValue, or
// inserts cols when no such row exists, in a single statement.
func (c *Client) Upsert(ctx context.Context, table, key string, keyValue interface{}, cols Columns) (int64, error) {
	query, args, err := core.BuildUpsert(table, key, keyValue, cols)
	if err != nil {
		return 0, err
	}
	return c.write(ctx, plugin.OpUpsert, query, args)
}

func (c *Client) write(ctx context.Context, op plugin.Op, query string, args []interface{}) (int64, error) {
	var affected int64
	err := c.run(ctx, op, query, args, func(db *sqlx.DB) (int64, error) {
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("begin: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		return affected, nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// BulkInsert inserts rows into table with one prepared statement, executed
// once per row inside a single transaction. The column list comes from the
// first row; every other row must carry exactly the same columns. Values are
// normalized with typeconv.Normalize before binding. It returns the number
// of rows submitted.
func (c *Client) BulkInsert(ctx context.Context, table string, rows []Columns) (int64, error) {
	if len(rows) == 0 {
		return 0, ErrNoRows
	}
	names := rows[0].Names()
	query, err := core.InsertSQL(table, names)
	if err != nil {
		return 0, err
	}

	argSets := make([][]interface{}, len(rows))
	for i, row := range rows {
		if len(row) != len(names) {
			return 0, fmt.Errorf("%w: row %d has %d columns, want %d", ErrNonUniformRows, i, len(row), len(names))
		}
		vals := make([]interface{}, len(names))
		for j, name := range names {
			v, ok := row.Get(name)
			if !ok {
				return 0, fmt.Errorf("%w: row %d has no column %q", ErrNonUniformRows, i, name)
			}
			vals[j] = v
		}
		argSets[i] = typeconv.NormalizeAll(vals)
	}

	err = c.run(ctx, plugin.OpBulk, query, argSets[0], func(db *sqlx.DB) (int64, error) {
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("begin: %w", err)
		}
		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("prepare: %w", err)
		}
		for i, args := range argSets {
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				stmt.Close()
				tx.Rollback()
				return 0, fmt.Errorf("row %d: %w", i, err)
			}
		}
		stmt.Close()
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("commit: %w", err)
		}
		return int64(len(argSets)), nil
	})
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}
