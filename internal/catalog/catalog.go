// Package catalog holds the immutable per-session snapshot of warehouse
// metadata used for query validation.
//
// A Catalog is built once from a Source (live INFORMATION_SCHEMA
// introspection or an archived snapshot object) and never mutated; refresh
// replaces the whole snapshot through Store. Validation must never treat an
// unknown table as "not yet loaded", so there is no partial or lazy loading.
package catalog

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/aysualkaya/assistant/internal/errs"
)

// Column describes a single column in a table.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Nullable bool   `json:"nullable"`
}

// ForeignKey describes a relationship from one column to another table.
type ForeignKey struct {
	FromColumn string `json:"from_column"`
	ToTable    string `json:"to_table"`
	ToColumn   string `json:"to_column"`
}

// Table describes a table, its ordered columns, and its foreign keys.
type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
}

// Column returns the column with the given name, case-insensitively.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if strings.EqualFold(t.Columns[i].Name, name) {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Snapshot is the full set of tables captured in one introspection pass.
type Snapshot struct {
	Tables  []Table   `json:"tables"`
	TakenAt time.Time `json:"taken_at"`
}

// Source supplies complete schema snapshots.
// Implementations: the postgres and mysql introspectors, and ObjectSource
// for archived snapshots.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Catalog is the immutable lookup structure over one Snapshot.
// Safe for unlimited concurrent readers.
type Catalog struct {
	snapshot *Snapshot
	byName   map[string]*Table // lowercased table name
}

// Load builds a Catalog from src. It fails with a schema-load error when the
// source fails or returns zero tables.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	snap, err := src.Snapshot(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindSchemaLoad, "schema introspection failed", err)
	}
	return FromSnapshot(snap)
}

// FromSnapshot builds a Catalog over an already-captured snapshot.
func FromSnapshot(snap *Snapshot) (*Catalog, error) {
	if snap == nil || len(snap.Tables) == 0 {
		return nil, errs.New(errs.ErrKindSchemaLoad, "schema snapshot contains no tables")
	}

	byName := make(map[string]*Table, len(snap.Tables))
	for i := range snap.Tables {
		byName[strings.ToLower(snap.Tables[i].Name)] = &snap.Tables[i]
	}
	return &Catalog{snapshot: snap, byName: byName}, nil
}

// Snapshot returns the underlying snapshot.
func (c *Catalog) Snapshot() *Snapshot {
	return c.snapshot
}

// Tables returns all tables in snapshot order.
func (c *Catalog) Tables() []Table {
	return c.snapshot.Tables
}

// Lookup returns the table with the given name, case-insensitively.
func (c *Catalog) Lookup(name string) (*Table, bool) {
	t, ok := c.byName[strings.ToLower(name)]
	return t, ok
}

// LookupColumn returns the named column on the named table.
func (c *Catalog) LookupColumn(table, column string) (*Column, bool) {
	t, ok := c.Lookup(table)
	if !ok {
		return nil, false
	}
	return t.Column(column)
}

// TableMatch is one fuzzy table candidate with its edit distance.
type TableMatch struct {
	Table    *Table
	Distance int
}

// ColumnMatch is one fuzzy column candidate with its edit distance.
type ColumnMatch struct {
	Column   *Column
	Distance int
}

// FuzzyTables returns all tables within maxDistance edits of name,
// sorted ascending by distance then alphabetically.
func (c *Catalog) FuzzyTables(name string, maxDistance int) []TableMatch {
	target := strings.ToLower(name)

	var matches []TableMatch
	for i := range c.snapshot.Tables {
		t := &c.snapshot.Tables[i]
		d := levenshtein(target, strings.ToLower(t.Name), maxDistance)
		if d >= 0 {
			matches = append(matches, TableMatch{Table: t, Distance: d})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Table.Name < matches[j].Table.Name
	})
	return matches
}

// FuzzyColumns returns all columns of the named table within maxDistance
// edits of name, sorted ascending by distance then alphabetically.
// An unknown table yields no matches.
func (c *Catalog) FuzzyColumns(table, name string, maxDistance int) []ColumnMatch {
	t, ok := c.Lookup(table)
	if !ok {
		return nil
	}
	target := strings.ToLower(name)

	var matches []ColumnMatch
	for i := range t.Columns {
		col := &t.Columns[i]
		d := levenshtein(target, strings.ToLower(col.Name), maxDistance)
		if d >= 0 {
			matches = append(matches, ColumnMatch{Column: col, Distance: d})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Column.Name < matches[j].Column.Name
	})
	return matches
}
