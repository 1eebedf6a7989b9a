package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aysualkaya/assistant/internal/errs"
)

func contosoSnapshot() *Snapshot {
	return &Snapshot{
		Tables: []Table{
			{
				Name: "FactSales",
				Columns: []Column{
					{Name: "SalesKey", DataType: "bigint"},
					{Name: "DateKey", DataType: "int"},
					{Name: "ProductKey", DataType: "int"},
					{Name: "SalesAmount", DataType: "money", Nullable: true},
				},
				ForeignKeys: []ForeignKey{
					{FromColumn: "DateKey", ToTable: "DimDate", ToColumn: "DateKey"},
					{FromColumn: "ProductKey", ToTable: "DimProduct", ToColumn: "ProductKey"},
				},
			},
			{
				Name: "DimProduct",
				Columns: []Column{
					{Name: "ProductKey", DataType: "int"},
					{Name: "ProductName", DataType: "nvarchar"},
				},
			},
			{
				Name: "DimDate",
				Columns: []Column{
					{Name: "DateKey", DataType: "int"},
					{Name: "CalendarYear", DataType: "smallint"},
				},
			},
		},
	}
}

type staticSource struct {
	snap *Snapshot
	err  error
}

func (s *staticSource) Snapshot(context.Context) (*Snapshot, error) {
	return s.snap, s.err
}

func TestLoadFailsWhenSourceFails(t *testing.T) {
	_, err := Load(context.Background(), &staticSource{err: errors.New("network down")})

	require.Error(t, err)
	assert.True(t, errs.IsSchemaLoad(err))
}

func TestLoadFailsOnEmptySnapshot(t *testing.T) {
	_, err := Load(context.Background(), &staticSource{snap: &Snapshot{}})

	require.Error(t, err)
	assert.True(t, errs.IsSchemaLoad(err))
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	cat, err := FromSnapshot(contosoSnapshot())
	require.NoError(t, err)

	for _, name := range []string{"FactSales", "factsales", "FACTSALES"} {
		tbl, ok := cat.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "FactSales", tbl.Name)
	}

	_, ok := cat.Lookup("FactInventory")
	assert.False(t, ok)
}

func TestLookupColumn(t *testing.T) {
	cat, err := FromSnapshot(contosoSnapshot())
	require.NoError(t, err)

	col, ok := cat.LookupColumn("factsales", "salesamount")
	require.True(t, ok)
	assert.Equal(t, "SalesAmount", col.Name)

	_, ok = cat.LookupColumn("FactSales", "CustomerKey")
	assert.False(t, ok)

	_, ok = cat.LookupColumn("NoSuchTable", "SalesAmount")
	assert.False(t, ok)
}

func TestFuzzyTables(t *testing.T) {
	cat, err := FromSnapshot(contosoSnapshot())
	require.NoError(t, err)

	matches := cat.FuzzyTables("FactSale", 2)
	require.NotEmpty(t, matches)
	assert.Equal(t, "FactSales", matches[0].Table.Name)
	assert.Equal(t, 1, matches[0].Distance)

	assert.Empty(t, cat.FuzzyTables("CompletelyUnrelated", 2))
}

func TestFuzzyTablesOrdering(t *testing.T) {
	snap := &Snapshot{Tables: []Table{
		{Name: "DimStore", Columns: []Column{{Name: "StoreKey"}}},
		{Name: "DimScore", Columns: []Column{{Name: "ScoreKey"}}},
	}}
	cat, err := FromSnapshot(snap)
	require.NoError(t, err)

	// Both are distance 1 from "DimStore"-like inputs; ties sort alphabetically.
	matches := cat.FuzzyTables("DimStore", 2)
	require.Len(t, matches, 2)
	assert.Equal(t, "DimStore", matches[0].Table.Name)
	assert.Equal(t, 0, matches[0].Distance)
	assert.Equal(t, "DimScore", matches[1].Table.Name)
}

func TestFuzzyColumns(t *testing.T) {
	cat, err := FromSnapshot(contosoSnapshot())
	require.NoError(t, err)

	matches := cat.FuzzyColumns("FactSales", "SalesAmont", 2)
	require.NotEmpty(t, matches)
	assert.Equal(t, "SalesAmount", matches[0].Column.Name)

	assert.Empty(t, cat.FuzzyColumns("NoSuchTable", "SalesAmount", 2))
}

func TestStoreRefreshSwapsWholeSnapshot(t *testing.T) {
	first, err := FromSnapshot(contosoSnapshot())
	require.NoError(t, err)

	store := NewStore(first)
	inFlight := store.Current()

	replacement := &Snapshot{Tables: []Table{{Name: "FactInventory", Columns: []Column{{Name: "InventoryKey"}}}}}
	require.NoError(t, store.Refresh(context.Background(), &staticSource{snap: replacement}))

	// The session that grabbed the catalog before the refresh keeps it.
	_, ok := inFlight.Lookup("FactSales")
	assert.True(t, ok)

	_, ok = store.Current().Lookup("FactSales")
	assert.False(t, ok)
	_, ok = store.Current().Lookup("FactInventory")
	assert.True(t, ok)
}

func TestStoreRefreshKeepsOldOnFailure(t *testing.T) {
	first, err := FromSnapshot(contosoSnapshot())
	require.NoError(t, err)

	store := NewStore(first)
	err = store.Refresh(context.Background(), &staticSource{err: errors.New("warehouse offline")})

	require.Error(t, err)
	assert.Same(t, first, store.Current())
}
