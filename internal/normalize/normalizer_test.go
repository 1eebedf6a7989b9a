package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aysualkaya/assistant/internal/dialect"
)

func TestNormalizeLimitTranslation(t *testing.T) {
	n := New(dialect.SQLServer)

	res := n.Normalize("SELECT * FROM FactSales LIMIT 5")
	assert.Equal(t, "SELECT TOP 5 * FROM FactSales", res.Text)
	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], "TOP 5")
}

func TestNormalizeLimitKeepsDistinct(t *testing.T) {
	n := New(dialect.SQLServer)

	res := n.Normalize("SELECT DISTINCT Region FROM DimStore LIMIT 10")
	assert.Equal(t, "SELECT DISTINCT TOP 10 Region FROM DimStore", res.Text)
}

func TestNormalizeNativeTopWins(t *testing.T) {
	n := New(dialect.SQLServer)

	res := n.Normalize("SELECT TOP 3 Name FROM DimProduct LIMIT 50")
	assert.Equal(t, "SELECT TOP 3 Name FROM DimProduct", res.Text)
	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], "native row limit")
}

func TestNormalizeTrailingLimitDialect(t *testing.T) {
	n := New(dialect.Postgres)

	res := n.Normalize("SELECT * FROM facts LIMIT 5")
	assert.Equal(t, "SELECT * FROM facts LIMIT 5", res.Text)
	assert.Empty(t, res.Notes)
}

func TestNormalizeStripsDecorations(t *testing.T) {
	n := New(dialect.SQLServer)

	raw := "```sql\nSQL: SELECT Name FROM DimProduct;\n```\nEXPLANATION: this lists every product."
	res := n.Normalize(raw)

	assert.Equal(t, "SELECT Name FROM DimProduct", res.Text)
	assert.Contains(t, res.Notes, "removed markdown code fences")
	assert.Contains(t, res.Notes, "removed leading SQL: label")
	assert.Contains(t, res.Notes, "removed trailing statement terminator")
}

func TestNormalizeExplanationAfterStatement(t *testing.T) {
	n := New(dialect.SQLServer)

	res := n.Normalize("SELECT SUM(Amount) FROM FactSales\nEXPLANATION\nSums all sales.")
	assert.Equal(t, "SELECT SUM(Amount) FROM FactSales", res.Text)
}

func TestNormalizeQuoteStyle(t *testing.T) {
	n := New(dialect.SQLServer)

	res := n.Normalize("SELECT `Unit Price` FROM DimProduct")
	assert.Equal(t, "SELECT [Unit Price] FROM DimProduct", res.Text)
	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], "quoting")
}

func TestNormalizeQuoteStyleAlreadyCanonical(t *testing.T) {
	n := New(dialect.SQLServer)

	res := n.Normalize("SELECT [Unit Price] FROM DimProduct")
	assert.Equal(t, "SELECT [Unit Price] FROM DimProduct", res.Text)
	assert.Empty(t, res.Notes)
}

func TestNormalizePhantomColumnRemoved(t *testing.T) {
	n := New(dialect.SQLServer)

	res := n.Normalize("SELECT f.Amount, x.Bogus FROM FactSales f")
	assert.Equal(t, "SELECT f.Amount FROM FactSales f", res.Text)
	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], "x.Bogus")
}

func TestNormalizePhantomNeverEmptiesList(t *testing.T) {
	n := New(dialect.SQLServer)

	// The only projection item has an unknown qualifier; removing it would
	// leave an empty SELECT list, so it stays for the validators.
	res := n.Normalize("SELECT x.Bogus FROM FactSales f")
	assert.Equal(t, "SELECT x.Bogus FROM FactSales f", res.Text)
	assert.Empty(t, res.Notes)
}

func TestNormalizePhantomInOrderBy(t *testing.T) {
	n := New(dialect.SQLServer)

	res := n.Normalize("SELECT f.Amount FROM FactSales f ORDER BY f.Amount DESC, z.Gone ASC")
	assert.Equal(t, "SELECT f.Amount FROM FactSales f ORDER BY f.Amount DESC", res.Text)
}

func TestNormalizeKeywordCaseAndSpacing(t *testing.T) {
	n := New(dialect.SQLServer)

	res := n.Normalize("select   name , sum( qty )\nfrom DimProduct\ngroup by name")
	assert.Equal(t, "SELECT name, SUM(qty) FROM DimProduct GROUP BY name", res.Text)
}

func TestNormalizeKeepsInteriorSemicolons(t *testing.T) {
	n := New(dialect.SQLServer)

	res := n.Normalize("SELECT 1; SELECT 2;")
	assert.Equal(t, "SELECT 1; SELECT 2", res.Text)
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New(dialect.SQLServer)

	inputs := []string{
		"```sql\nSELECT * FROM FactSales LIMIT 5;\n```",
		"SQL: select `Unit Price`, f.Amount from FactSales f order by f.Amount desc",
		"Sure! Here it is:\nSELECT TOP 3 Name FROM DimProduct LIMIT 9",
		"SELECT d.Year, SUM(f.Amount) FROM FactSales f JOIN DimDate d ON f.DateKey = d.DateKey GROUP BY d.Year",
	}
	for _, in := range inputs {
		first := n.Normalize(in)
		second := n.Normalize(first.Text)
		assert.Equal(t, first.Text, second.Text, "input %q", in)
		assert.Empty(t, second.Notes, "second pass must be a no-op for %q", in)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := New(dialect.SQLServer)

	res := n.Normalize("   \n\t ")
	assert.Equal(t, "", res.Text)
	assert.Empty(t, res.Notes)
}
