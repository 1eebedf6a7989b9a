package mysql

import (
	"context"

	"github.com/aysualkaya/assistant/internal/catalog"
	"github.com/aysualkaya/assistant/internal/database"
)

// The Driver implements database.Introspector against the current database
// (INFORMATION_SCHEMA scoped with DATABASE()).

// ListTables returns all base table names in the connected database.
func (d *Driver) ListTables(ctx context.Context) ([]string, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, mapError(err, "failed to list tables")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError(err, "failed to scan table name")
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating tables")
	}
	return tables, nil
}

// TableColumns returns the columns of one table in ordinal order.
func (d *Driver) TableColumns(ctx context.Context, table string) ([]catalog.Column, error) {
	const q = `
		SELECT column_name,
		       data_type,
		       is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name   = ?
		ORDER BY ordinal_position`

	rows, err := d.db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, mapError(err, "failed to fetch columns")
	}
	defer rows.Close()

	var cols []catalog.Column
	for rows.Next() {
		var c catalog.Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable); err != nil {
			return nil, mapError(err, "failed to scan column info")
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating columns")
	}
	return cols, nil
}

// TableForeignKeys returns the outgoing foreign keys of one table.
func (d *Driver) TableForeignKeys(ctx context.Context, table string) ([]catalog.ForeignKey, error) {
	const q = `
		SELECT column_name,
		       referenced_table_name,
		       referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema           = DATABASE()
		  AND table_name             = ?
		  AND referenced_table_name IS NOT NULL`

	rows, err := d.db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, mapError(err, "failed to fetch foreign keys")
	}
	defer rows.Close()

	var fks []catalog.ForeignKey
	for rows.Next() {
		var fk catalog.ForeignKey
		if err := rows.Scan(&fk.FromColumn, &fk.ToTable, &fk.ToColumn); err != nil {
			return nil, mapError(err, "failed to scan foreign key")
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating foreign keys")
	}
	return fks, nil
}

var _ database.Introspector = (*Driver)(nil)
var _ database.DB = (*Driver)(nil)
