package database

import (
	"context"
	"time"

	"github.com/aysualkaya/assistant/internal/catalog"
)

// Introspector reads the structure of a warehouse (tables, columns, foreign
// keys). Each driver implements the engine-specific INFORMATION_SCHEMA
// queries; Introspect is shared.
type Introspector interface {
	ListTables(ctx context.Context) ([]string, error)
	TableColumns(ctx context.Context, table string) ([]catalog.Column, error)
	TableForeignKeys(ctx context.Context, table string) ([]catalog.ForeignKey, error)
}

// Introspect builds a full catalog snapshot by orchestrating the
// Introspector. This is expensive — callers cache the result, either in a
// catalog.Store or in the snapshot archive.
func Introspect(ctx context.Context, i Introspector) (*catalog.Snapshot, error) {
	names, err := i.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	snap := &catalog.Snapshot{TakenAt: time.Now().UTC()}
	for _, name := range names {
		cols, err := i.TableColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		fks, err := i.TableForeignKeys(ctx, name)
		if err != nil {
			return nil, err
		}
		snap.Tables = append(snap.Tables, catalog.Table{
			Name:        name,
			Columns:     cols,
			ForeignKeys: fks,
		})
	}
	return snap, nil
}

// Source adapts an Introspector to the catalog.Source interface, so a
// catalog can be loaded straight from a live warehouse.
type Source struct {
	i Introspector
}

// NewSource wraps i as a catalog.Source.
func NewSource(i Introspector) *Source {
	return &Source{i: i}
}

// Snapshot implements catalog.Source.
func (s *Source) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	return Introspect(ctx, s.i)
}
