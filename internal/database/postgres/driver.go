// Package postgres implements database.DB and database.Introspector over a
// pgxpool connection pool.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aysualkaya/assistant/internal/database"
)

// Driver is the PostgreSQL warehouse driver. Safe for concurrent use.
type Driver struct {
	pool   *pgxpool.Pool
	schema string
}

// New opens a pool per cfg and ping-validates it before returning.
// Introspection is scoped to cfg.Schema, defaulting to "public".
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, mapError(err, "failed to create connection pool")
	}

	d := &Driver{pool: pool, schema: cfg.Schema}
	if d.schema == "" {
		d.schema = "public"
	}

	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return d, nil
}

func poolConfig(cfg *database.Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, mapError(err, "invalid DSN")
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	return poolCfg, nil
}

// Ping verifies the warehouse is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the pool.
func (d *Driver) Close() {
	d.pool.Close()
}

func (d *Driver) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &poolRows{rows: rows}, nil
}

func (d *Driver) QueryRow(ctx context.Context, sql string, args ...any) (database.Row, error) {
	return &poolRow{row: d.pool.QueryRow(ctx, sql, args...)}, nil
}

// poolRows adapts pgx.Rows to database.Rows.
type poolRows struct {
	rows pgx.Rows
}

func (r *poolRows) Next() bool             { return r.rows.Next() }
func (r *poolRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *poolRows) Close()                 { r.rows.Close() }
func (r *poolRows) Err() error             { return r.rows.Err() }

func (r *poolRows) Columns() ([]string, error) {
	descs := r.rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, desc := range descs {
		cols[i] = desc.Name
	}
	return cols, nil
}

// poolRow adapts pgx.Row to database.Row.
type poolRow struct {
	row pgx.Row
}

func (r *poolRow) Scan(dest ...any) error { return r.row.Scan(dest...) }
