package sqlserver

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRows is returned by BulkInsert when given no rows.
	ErrNoRows = errors.New("no rows to insert")
	// ErrNonUniformRows is returned by BulkInsert when a row's columns differ from the first row's.
	ErrNonUniformRows = errors.New("rows do not share the same columns")
)

// Error wraps a failure from the driver together with the operation that hit it.
type Error struct {
	Op    string
	Query string
	Err   error
}

func (e *Error) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("sqlserver: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("sqlserver: %s %q: %v", e.Op, e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
