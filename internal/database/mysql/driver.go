// Package mysql implements database.DB and database.Introspector over
// database/sql with the go-sql-driver backend.
package mysql

import (
	"context"
	"database/sql"

	"github.com/aysualkaya/assistant/internal/database"

	_ "github.com/go-sql-driver/mysql" // register "mysql" driver
)

// Driver is the MySQL warehouse driver. Safe for concurrent use.
type Driver struct {
	db *sql.DB
}

// New opens a pool per cfg and ping-validates it, bounded by
// cfg.ConnectTimeout, before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, mapError(err, "invalid DSN")
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	d := &Driver{db: db}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// Ping verifies the warehouse is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close releases the pool.
func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &sqlRows{rows: rows}, nil
}

func (d *Driver) QueryRow(ctx context.Context, query string, args ...any) (database.Row, error) {
	return &sqlRow{row: d.db.QueryRowContext(ctx, query, args...)}, nil
}

// sqlRows adapts *sql.Rows to database.Rows.
type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error     { return r.rows.Scan(dest...) }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Close()                     { _ = r.rows.Close() }
func (r *sqlRows) Err() error                 { return r.rows.Err() }

// sqlRow adapts *sql.Row to database.Row.
type sqlRow struct {
	row *sql.Row
}

func (r *sqlRow) Scan(dest ...any) error { return r.row.Scan(dest...) }
