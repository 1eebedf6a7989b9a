// Package database defines the driver-agnostic contracts for the query
// warehouses the assistant talks to. Callers depend only on these
// interfaces; the postgres and mysql subpackages provide implementations.
//
// The data path is strictly read-only. Validated queries are executed, and
// INFORMATION_SCHEMA is introspected to build the schema catalog; nothing
// here writes to a warehouse.
package database

import "context"

// DB is the central contract for all database operations.
// All layers above this package talk only to this interface —
// they never import the postgres or mysql packages directly.
type DB interface {
	// Ping verifies the database is reachable.
	Ping(ctx context.Context) error

	// Close releases all resources held by the connection pool.
	Close()

	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) (Row, error)
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}
