// File: internal/core/connection.go
package core

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DriverName is the database/sql name the ODBC driver registers under
const DriverName = "odbc"

// Opener opens a *sql.DB for a driver name and connection string
type Opener func(driver, dsn string) (*sql.DB, error)

// Connect opens dsn with open (sql.Open when nil) and pings it.
// The handle is closed again if the ping fails.
func Connect(ctx context.Context, open Opener, dsn string) (*sqlx.DB, error) {
	if open == nil {
		open = sql.Open
	}
	db, err := open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return sqlx.NewDb(db, DriverName), nil
}

func Close(db *sqlx.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
