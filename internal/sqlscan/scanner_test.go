package sqlscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestScanBasicSelect(t *testing.T) {
	toks := Scan("SELECT a, b FROM t WHERE x = 1")

	require.Len(t, toks, 10)
	assert.Equal(t, []Kind{
		Ident, Ident, Comma, Ident, Ident, Ident, Ident, Ident, Operator, Number,
	}, kinds(toks))
	assert.Equal(t, "SELECT", toks[0].Text)
	assert.Equal(t, "=", toks[8].Text)
}

func TestScanQuotedIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"brackets", "[Sales Amount]", "Sales Amount"},
		{"backticks", "`order`", "order"},
		{"double quotes", `"Region"`, "Region"},
		{"escaped bracket", "[a]]b]", "a]b"},
		{"escaped backtick", "`a``b`", "a`b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := Scan(tt.input)
			require.Len(t, toks, 1)
			assert.Equal(t, QuotedIdent, toks[0].Kind)
			assert.Equal(t, tt.want, toks[0].Text)
		})
	}
}

func TestScanStringsAndComments(t *testing.T) {
	toks := Scan("SELECT 'it''s' -- trailing comment\n/* block */ , 2.5")

	require.Len(t, toks, 4)
	assert.Equal(t, String, toks[1].Kind)
	assert.Equal(t, "'it''s'", toks[1].Text)
	assert.Equal(t, Comma, toks[2].Kind)
	assert.Equal(t, Number, toks[3].Kind)
	assert.Equal(t, "2.5", toks[3].Text)
}

func TestScanPositions(t *testing.T) {
	toks := Scan("SELECT  x")

	require.Len(t, toks, 2)
	assert.Equal(t, 0, toks[0].Pos)
	assert.Equal(t, 6, toks[0].End)
	assert.Equal(t, 8, toks[1].Pos)
	assert.Equal(t, 9, toks[1].End)
}

func TestScanPositionsAreByteOffsets(t *testing.T) {
	// The string literal is multi-byte UTF-8, so byte and rune offsets
	// diverge for everything after it.
	input := "SELECT 'région' AS label, Amount FROM FactSales"
	toks := Scan(input)

	for _, tok := range toks {
		if tok.Kind != Ident {
			continue
		}
		assert.Equal(t, tok.Text, input[tok.Pos:tok.End],
			"span of %q must slice the source by byte", tok.Text)
	}
}

func TestScanOperators(t *testing.T) {
	toks := Scan("a <= b <> c != d")

	require.Len(t, toks, 7)
	assert.Equal(t, "<=", toks[1].Text)
	assert.Equal(t, "<>", toks[3].Text)
	assert.Equal(t, "!=", toks[5].Text)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := Scan("'oops")

	require.Len(t, toks, 1)
	assert.Equal(t, Illegal, toks[0].Kind)
}

func TestKeywordPredicates(t *testing.T) {
	assert.True(t, IsKeyword("select"))
	assert.True(t, IsKeyword("GROUP"))
	assert.False(t, IsKeyword("Region"))

	assert.True(t, IsAggregate("sum"))
	assert.True(t, IsAggregate("COUNT"))
	assert.False(t, IsAggregate("UPPER"))
}
