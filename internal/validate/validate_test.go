package validate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aysualkaya/assistant/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.FromSnapshot(&catalog.Snapshot{Tables: []catalog.Table{
		{
			Name: "FactSales",
			Columns: []catalog.Column{
				{Name: "SalesKey", DataType: "int"},
				{Name: "ProductKey", DataType: "int"},
				{Name: "DateKey", DataType: "int"},
				{Name: "Amount", DataType: "decimal"},
				{Name: "Quantity", DataType: "int"},
			},
		},
		{
			Name: "DimProduct",
			Columns: []catalog.Column{
				{Name: "ProductKey", DataType: "int"},
				{Name: "Name", DataType: "nvarchar"},
				{Name: "Category", DataType: "nvarchar"},
			},
		},
		{
			Name: "DimDate",
			Columns: []catalog.Column{
				{Name: "DateKey", DataType: "int"},
				{Name: "Year", DataType: "int"},
				{Name: "Month", DataType: "int"},
			},
		},
	}})
	require.NoError(t, err)
	return cat
}

func kinds(r Result) []Kind {
	out := make([]Kind, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Kind
	}
	return out
}

func TestStructuralAcceptsWellFormedQuery(t *testing.T) {
	v := NewStructural()
	res := v.Validate("SELECT d.Year, SUM(f.Amount) FROM FactSales f JOIN DimDate d ON f.DateKey = d.DateKey GROUP BY d.Year")
	assert.True(t, res.Valid(), "findings: %v", res.Messages())
}

func TestStructuralUnbalancedParens(t *testing.T) {
	v := NewStructural()

	res := v.Validate("SELECT SUM(Amount FROM FactSales")
	require.False(t, res.Valid())
	assert.Contains(t, kinds(res), KindStructural)

	res = v.Validate("SELECT Amount) FROM FactSales")
	assert.Contains(t, kinds(res), KindStructural)
}

func TestStructuralRequiresSelect(t *testing.T) {
	v := NewStructural()
	res := v.Validate("DELETE FROM FactSales")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, KindStructural, res.Errors[0].Kind)
	assert.Contains(t, res.Errors[0].Message, "SELECT or WITH")
}

func TestStructuralRequiresFrom(t *testing.T) {
	v := NewStructural()

	res := v.Validate("SELECT Amount")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "FROM")

	// Constant-only projections are legal without FROM.
	res = v.Validate("SELECT 1")
	assert.True(t, res.Valid())
}

func TestStructuralMultiStatement(t *testing.T) {
	v := NewStructural()
	res := v.Validate("SELECT Amount FROM FactSales; DROP TABLE FactSales")
	assert.Contains(t, kinds(res), KindMultiStatement)
}

func TestStructuralJoinWithoutCondition(t *testing.T) {
	v := NewStructural()

	res := v.Validate("SELECT f.Amount FROM FactSales f JOIN DimDate d WHERE d.Year = 2024")
	require.Contains(t, kinds(res), KindMissingJoinKey)

	res = v.Validate("SELECT f.Amount FROM FactSales f CROSS JOIN DimDate d")
	assert.True(t, res.Valid(), "CROSS JOIN needs no condition: %v", res.Messages())

	res = v.Validate("SELECT f.Amount FROM FactSales f JOIN DimDate d ON f.DateKey = d.DateKey JOIN DimProduct p WHERE 1 = 1")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, KindMissingJoinKey, res.Errors[0].Kind)
}

func TestStructuralMissingGroupBy(t *testing.T) {
	v := NewStructural()

	res := v.Validate("SELECT Category, SUM(Amount) FROM FactSales")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, KindMissingGroupBy, res.Errors[0].Kind)
	assert.Equal(t, "Category", res.Errors[0].Ident)

	res = v.Validate("SELECT Category, SUM(Amount) FROM FactSales GROUP BY Category")
	assert.True(t, res.Valid())

	// No aggregate in the projection means GROUP BY is not required.
	res = v.Validate("SELECT Category, Amount FROM FactSales")
	assert.True(t, res.Valid())
}

func TestStructuralCollectsAllFindings(t *testing.T) {
	v := NewStructural()
	res := v.Validate("SELECT Amount) FROM FactSales f JOIN DimDate d")
	got := kinds(res)
	assert.Contains(t, got, KindStructural)
	assert.Contains(t, got, KindMissingJoinKey)
}

func TestUsageAcceptsKnownReferences(t *testing.T) {
	v := NewTableUsage(testCatalog(t))
	res := v.Validate("SELECT d.Year, SUM(f.Amount) FROM FactSales f JOIN DimDate d ON f.DateKey = d.DateKey GROUP BY d.Year")
	assert.True(t, res.Valid(), "findings: %v", res.Messages())
}

func TestUsageUnknownTableSuggestion(t *testing.T) {
	v := NewTableUsage(testCatalog(t))
	res := v.Validate("SELECT Amount FROM FactSale")
	require.Len(t, res.Errors, 1)
	e := res.Errors[0]
	assert.Equal(t, KindUnknownTable, e.Kind)
	assert.Equal(t, "FactSale", e.Ident)
	assert.Equal(t, "FactSales", e.Suggestion)
	assert.Empty(t, e.Candidates)
}

func TestUsageUnknownTableNoCandidates(t *testing.T) {
	v := NewTableUsage(testCatalog(t))
	res := v.Validate("SELECT x FROM Inventory")
	require.Len(t, res.Errors, 1)
	e := res.Errors[0]
	assert.Equal(t, KindUnknownTable, e.Kind)
	assert.Empty(t, e.Suggestion)
	assert.Empty(t, e.Candidates)
}

func TestUsageUnknownColumnOnTable(t *testing.T) {
	v := NewTableUsage(testCatalog(t))
	res := v.Validate("SELECT f.Amout FROM FactSales f")
	require.Len(t, res.Errors, 1)
	e := res.Errors[0]
	assert.Equal(t, KindUnknownColumn, e.Kind)
	assert.Equal(t, "Amout", e.Ident)
	assert.Equal(t, "Amount", e.Suggestion)
}

func TestUsageBareColumnResolvesAcrossScope(t *testing.T) {
	v := NewTableUsage(testCatalog(t))

	res := v.Validate("SELECT Year FROM FactSales f JOIN DimDate d ON f.DateKey = d.DateKey")
	assert.True(t, res.Valid(), "findings: %v", res.Messages())

	res = v.Validate("SELECT Yearr FROM DimDate")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Year", res.Errors[0].Suggestion)
}

func TestUsageTiedCandidatesNeverAutoSelect(t *testing.T) {
	cat, err := catalog.FromSnapshot(&catalog.Snapshot{Tables: []catalog.Table{
		{Name: "DimDate", Columns: []catalog.Column{{Name: "DateKey"}}},
		{Name: "DimRate", Columns: []catalog.Column{{Name: "RateKey"}}},
	}})
	require.NoError(t, err)

	v := NewTableUsage(cat)
	res := v.Validate("SELECT DateKey FROM DimZate")
	require.Len(t, res.Errors, 1)
	e := res.Errors[0]
	assert.Equal(t, KindUnknownTable, e.Kind)
	assert.Empty(t, e.Suggestion, "ties must not auto-select")
	assert.Equal(t, []string{"DimDate", "DimRate"}, e.Candidates)
}

func TestUsageUnknownTableDoesNotCascade(t *testing.T) {
	v := NewTableUsage(testCatalog(t))
	res := v.Validate("SELECT z.Amount, z.Quantity FROM Zales z")
	require.Len(t, res.Errors, 1, "column refs on an unknown table must not pile on: %v", res.Messages())
	assert.Equal(t, KindUnknownTable, res.Errors[0].Kind)
}

func TestUsageCollectsEveryFinding(t *testing.T) {
	v := NewTableUsage(testCatalog(t))
	res := v.Validate("SELECT f.Amout, f.Quantty FROM FactSales f")
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "Amount", res.Errors[0].Suggestion)
	assert.Equal(t, "Quantity", res.Errors[1].Suggestion)
}

func TestUsageProjectionAliasInOrderBy(t *testing.T) {
	v := NewTableUsage(testCatalog(t))
	res := v.Validate("SELECT Category AS cat, COUNT(ProductKey) AS n FROM DimProduct GROUP BY Category ORDER BY n DESC")
	assert.True(t, res.Valid(), "aliases are referencable downstream: %v", res.Messages())
}

func TestUsageCommaSeparatedFromList(t *testing.T) {
	v := NewTableUsage(testCatalog(t))

	res := v.Validate("SELECT Amount, Year FROM FactSales, DimDate WHERE DateKey = 1")
	assert.True(t, res.Valid(), "findings: %v", res.Messages())

	res = v.Validate("SELECT f.Amount, d.Year FROM FactSales f, DimDate d WHERE f.DateKey = d.DateKey")
	assert.True(t, res.Valid(), "findings: %v", res.Messages())
}

func TestUsageCommaSeparatedFromListUnknownTable(t *testing.T) {
	v := NewTableUsage(testCatalog(t))
	res := v.Validate("SELECT Amount FROM FactSales, DimDat")
	require.Len(t, res.Errors, 1)
	e := res.Errors[0]
	assert.Equal(t, KindUnknownTable, e.Kind)
	assert.Equal(t, "DimDat", e.Ident)
	assert.Equal(t, "DimDate", e.Suggestion)
}

func TestStructuralSubqueryAggregateNeedsNoGroupBy(t *testing.T) {
	v := NewStructural()
	res := v.Validate("SELECT Category, (SELECT MAX(Year) FROM DimDate) FROM DimProduct")
	assert.True(t, res.Valid(), "findings: %v", res.Messages())
}

func TestKindJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(KindUnknownColumn)
	require.NoError(t, err)
	assert.Equal(t, `"unknown_column"`, string(raw))

	var k Kind
	require.NoError(t, json.Unmarshal(raw, &k))
	assert.Equal(t, KindUnknownColumn, k)
}

func TestKindJSONRejectsUnknownName(t *testing.T) {
	var k Kind
	err := json.Unmarshal([]byte(`"no_such_kind"`), &k)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_kind")
}

func TestMergePreservesOrder(t *testing.T) {
	a := Result{Errors: []Error{{Kind: KindStructural, Message: "a"}}}
	b := Result{Errors: []Error{{Kind: KindUnknownTable, Message: "b"}}}
	merged := Merge(a, b)
	require.Len(t, merged.Errors, 2)
	assert.Equal(t, "a", merged.Errors[0].Message)
	assert.Equal(t, "b", merged.Errors[1].Message)
}

func TestErrorStringIncludesSuggestion(t *testing.T) {
	e := Error{Kind: KindUnknownTable, Message: "table FactSale does not exist in the schema", Suggestion: "FactSales"}
	assert.Equal(t, "unknown_table: table FactSale does not exist in the schema (did you mean FactSales?)", e.String())
}
