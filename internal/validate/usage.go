package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aysualkaya/assistant/internal/catalog"
	"github.com/aysualkaya/assistant/internal/sqlscan"
)

// DefaultFuzzyDistance is the edit-distance threshold for identifier
// suggestions when none is configured.
const DefaultFuzzyDistance = 2

// TableUsageValidator checks every table and column reference in a query
// against the schema catalog. Unknown identifiers are reported with fuzzy
// candidates; a finding carries a Suggestion only when exactly one catalog
// entry sits at the minimal edit distance.
type TableUsageValidator struct {
	cat         *catalog.Catalog
	maxDistance int
}

// NewTableUsage creates a validator bound to cat.
func NewTableUsage(cat *catalog.Catalog) *TableUsageValidator {
	return &TableUsageValidator{cat: cat, maxDistance: DefaultFuzzyDistance}
}

// WithFuzzyDistance overrides the suggestion threshold. A distance of 0
// disables suggestions entirely.
func (v *TableUsageValidator) WithFuzzyDistance(d int) *TableUsageValidator {
	v.maxDistance = d
	return v
}

// tableRef is one FROM/JOIN source as written in the query.
type tableRef struct {
	name     string
	alias    string
	pos, end int
	tokens   []int // token indexes the reference occupies
}

// Validate resolves every table and column reference in sql.
func (v *TableUsageValidator) Validate(sql string) Result {
	var res Result

	toks := sqlscan.Scan(sql)
	refs := collectTableRefs(toks)

	// Tables first. Unknown tables are excluded from column resolution so
	// one typo does not cascade into a column finding per projection item.
	known := make(map[string]*catalog.Table) // lowercased alias or name -> table
	for _, ref := range refs {
		t, ok := v.cat.Lookup(ref.name)
		if !ok {
			res.Add(v.unknownTable(ref))
			continue
		}
		known[strings.ToLower(ref.name)] = t
		if ref.alias != "" {
			known[strings.ToLower(ref.alias)] = t
		}
	}

	v.checkColumns(toks, known, &res)
	return res
}

func (v *TableUsageValidator) unknownTable(ref tableRef) Error {
	e := Error{
		Kind:    KindUnknownTable,
		Message: fmt.Sprintf("table %s does not exist in the schema", ref.name),
		Span:    &Span{Start: ref.pos, End: ref.end},
		Ident:   ref.name,
	}
	matches := v.cat.FuzzyTables(ref.name, v.maxDistance)
	switch {
	case len(matches) == 0:
	case len(matches) == 1 || matches[0].Distance < matches[1].Distance:
		e.Suggestion = matches[0].Table.Name
	default:
		for _, m := range matches {
			if m.Distance == matches[0].Distance {
				e.Candidates = append(e.Candidates, m.Table.Name)
			}
		}
	}
	return e
}

// checkColumns resolves every column-position identifier. Qualified
// references resolve against their table; bare ones against every known
// source in scope.
func (v *TableUsageValidator) checkColumns(toks []sqlscan.Token, known map[string]*catalog.Table, res *Result) {
	if len(known) == 0 {
		return
	}

	skip := tableRefTokens(toks)
	aliases := projectionAliases(toks, skip)

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if skip[i] || !isColumnIdent(t) {
			continue
		}
		// Function names bind to the following paren, not to a column.
		if i+1 < len(toks) && toks[i+1].Kind == sqlscan.LParen {
			continue
		}
		// Alias declarations are new names, not references. They follow
		// AS, or directly follow the expression they name.
		if i > 0 && (tokIs(toks[i-1], "AS") || isColumnIdent(toks[i-1]) || toks[i-1].Kind == sqlscan.RParen) {
			continue
		}

		if i+2 < len(toks) && toks[i+1].Kind == sqlscan.Dot && isColumnIdent(toks[i+2]) {
			// Qualified reference: resolve qualifier, then column.
			qual, col := t, toks[i+2]
			i += 2
			table, ok := known[strings.ToLower(qual.Text)]
			if !ok {
				// Unresolvable qualifier was already reported as an
				// unknown table, or names a source outside this scope.
				continue
			}
			if _, ok := table.Column(col.Text); !ok {
				res.Add(v.unknownColumn(col.Text, table.Name, &Span{Start: qual.Pos, End: col.End}))
			}
			continue
		}

		// Bare reference: a projection alias or any in-scope table may
		// own it. ORDER BY and HAVING routinely refer back to aliases.
		if _, ok := aliases[strings.ToLower(t.Text)]; ok {
			continue
		}
		if v.resolveBare(t.Text, known) {
			continue
		}
		res.Add(v.unknownColumnAnyTable(t, known))
	}
}

// projectionAliases collects the output names a query declares, so later
// references to them resolve. The declaration pattern is the one checkColumns
// skips: an identifier after AS, or trailing the expression it names.
func projectionAliases(toks []sqlscan.Token, skip []bool) map[string]struct{} {
	aliases := make(map[string]struct{})
	for i := 1; i < len(toks); i++ {
		if skip[i] || !isColumnIdent(toks[i]) {
			continue
		}
		prev := toks[i-1]
		if tokIs(prev, "AS") || isColumnIdent(prev) || prev.Kind == sqlscan.RParen {
			aliases[strings.ToLower(toks[i].Text)] = struct{}{}
		}
	}
	return aliases
}

func (v *TableUsageValidator) resolveBare(name string, known map[string]*catalog.Table) bool {
	for _, t := range known {
		if _, ok := t.Column(name); ok {
			return true
		}
	}
	return false
}

func (v *TableUsageValidator) unknownColumn(col, table string, span *Span) Error {
	e := Error{
		Kind:    KindUnknownColumn,
		Message: fmt.Sprintf("column %s does not exist on table %s", col, table),
		Span:    span,
		Ident:   col,
	}
	matches := v.cat.FuzzyColumns(table, col, v.maxDistance)
	switch {
	case len(matches) == 0:
	case len(matches) == 1 || matches[0].Distance < matches[1].Distance:
		e.Suggestion = matches[0].Column.Name
	default:
		for _, m := range matches {
			if m.Distance == matches[0].Distance {
				e.Candidates = append(e.Candidates, m.Column.Name)
			}
		}
	}
	return e
}

// unknownColumnAnyTable builds a finding for a bare column, pooling fuzzy
// candidates from every in-scope table.
func (v *TableUsageValidator) unknownColumnAnyTable(t sqlscan.Token, known map[string]*catalog.Table) Error {
	e := Error{
		Kind:    KindUnknownColumn,
		Message: fmt.Sprintf("column %s does not exist on any table in scope", t.Text),
		Span:    &Span{Start: t.Pos, End: t.End},
		Ident:   t.Text,
	}

	seen := make(map[string]struct{})
	best := v.maxDistance + 1
	var names []string
	for _, table := range known {
		if _, dup := seen[strings.ToLower(table.Name)]; dup {
			continue
		}
		seen[strings.ToLower(table.Name)] = struct{}{}
		for _, m := range v.cat.FuzzyColumns(table.Name, t.Text, v.maxDistance) {
			switch {
			case m.Distance < best:
				best = m.Distance
				names = []string{m.Column.Name}
			case m.Distance == best:
				names = append(names, m.Column.Name)
			}
		}
	}
	names = dedupeSorted(names)
	switch len(names) {
	case 0:
	case 1:
		e.Suggestion = names[0]
	default:
		e.Candidates = names
	}
	return e
}

func dedupeSorted(names []string) []string {
	if len(names) < 2 {
		return names
	}
	sort.Strings(names)
	out := names[:1]
	for _, n := range names[1:] {
		if !strings.EqualFold(n, out[len(out)-1]) {
			out = append(out, n)
		}
	}
	return out
}

// collectTableRefs walks FROM/JOIN clauses at every nesting depth and
// returns the declared sources. Derived tables contribute their alias but
// no catalog name.
func collectTableRefs(toks []sqlscan.Token) []tableRef {
	var refs []tableRef
	for i := 0; i < len(toks); i++ {
		if !tokIs(toks[i], "FROM") && !tokIs(toks[i], "JOIN") {
			continue
		}
		// A FROM clause may list several comma-separated tables; JOIN
		// introduces exactly one, but the same loop covers both.
		j := i + 1
		for j < len(toks) && isColumnIdent(toks[j]) {
			ref := tableRef{name: toks[j].Text, pos: toks[j].Pos, end: toks[j].End}
			ref.tokens = append(ref.tokens, j)
			j++
			for j+1 < len(toks) && toks[j].Kind == sqlscan.Dot && isColumnIdent(toks[j+1]) {
				ref.name = toks[j+1].Text
				ref.end = toks[j+1].End
				ref.tokens = append(ref.tokens, j, j+1)
				j += 2
			}

			if j < len(toks) && tokIs(toks[j], "AS") {
				ref.tokens = append(ref.tokens, j)
				j++
			}
			if j < len(toks) && isColumnIdent(toks[j]) {
				ref.alias = toks[j].Text
				ref.tokens = append(ref.tokens, j)
				j++
			}
			refs = append(refs, ref)

			if !tokIs(toks[i], "FROM") || j >= len(toks) || toks[j].Kind != sqlscan.Comma {
				break
			}
			j++
		}
	}
	return refs
}

// tableRefTokens marks the token indexes occupied by table paths and their
// aliases, so column resolution skips them.
func tableRefTokens(toks []sqlscan.Token) []bool {
	skip := make([]bool, len(toks))
	for _, ref := range collectTableRefs(toks) {
		for _, idx := range ref.tokens {
			skip[idx] = true
		}
	}
	return skip
}
