package normalize

import (
	"fmt"
	"strings"

	"github.com/aysualkaya/assistant/internal/dialect"
	"github.com/aysualkaya/assistant/internal/sqlscan"
)

// isKw reports whether tok is the given keyword, case-insensitively.
func isKw(tok sqlscan.Token, word string) bool {
	return tok.Kind == sqlscan.Ident && strings.EqualFold(tok.Text, word)
}

// depths returns the parenthesis nesting depth of every token.
func depths(toks []sqlscan.Token) []int {
	out := make([]int, len(toks))
	depth := 0
	for i, t := range toks {
		switch t.Kind {
		case sqlscan.LParen:
			out[i] = depth
			depth++
		case sqlscan.RParen:
			if depth > 0 {
				depth--
			}
			out[i] = depth
		default:
			out[i] = depth
		}
	}
	return out
}

// translateLimit converts a portable trailing "LIMIT n" into the dialect's
// row-limiting form. For TOP dialects the limit relocates into the SELECT
// clause; when a native TOP is already present it wins and the portable
// clause is dropped.
func (n *Normalizer) translateLimit(toks []sqlscan.Token, notes *[]string) []sqlscan.Token {
	if n.d.Limit != dialect.LimitTop {
		return toks
	}

	depth := depths(toks)

	// Locate the top-level LIMIT <number>.
	limitIdx := -1
	for i, t := range toks {
		if depth[i] == 0 && isKw(t, "LIMIT") && i+1 < len(toks) && toks[i+1].Kind == sqlscan.Number {
			limitIdx = i
			break
		}
	}
	if limitIdx < 0 {
		return toks
	}
	limitValue := toks[limitIdx+1].Text

	// Locate the top-level SELECT and check for a native TOP.
	selectIdx := -1
	hasTop := false
	for i, t := range toks {
		if depth[i] != 0 {
			continue
		}
		if isKw(t, "SELECT") && selectIdx < 0 {
			selectIdx = i
		}
		if selectIdx >= 0 && isKw(t, "TOP") {
			hasTop = true
			break
		}
		if selectIdx >= 0 && isKw(t, "FROM") {
			break
		}
	}

	// Splice out [LIMIT, n].
	out := make([]sqlscan.Token, 0, len(toks))
	out = append(out, toks[:limitIdx]...)
	out = append(out, toks[limitIdx+2:]...)

	if hasTop || selectIdx < 0 {
		*notes = append(*notes, fmt.Sprintf("dropped portable LIMIT %s: native row limit already present", limitValue))
		return out
	}

	// Insert TOP n after SELECT, keeping DISTINCT/ALL ahead of it.
	insertAt := selectIdx + 1
	for insertAt < len(out) && (isKw(out[insertAt], "DISTINCT") || isKw(out[insertAt], "ALL")) {
		insertAt++
	}

	withTop := make([]sqlscan.Token, 0, len(out)+2)
	withTop = append(withTop, out[:insertAt]...)
	withTop = append(withTop,
		sqlscan.Token{Kind: sqlscan.Ident, Text: "TOP"},
		sqlscan.Token{Kind: sqlscan.Number, Text: limitValue},
	)
	withTop = append(withTop, out[insertAt:]...)

	*notes = append(*notes, fmt.Sprintf("translated LIMIT %s to TOP %s", limitValue, limitValue))
	return withTop
}

// sourceScope collects the table names and aliases declared by top-level
// FROM/JOIN clauses, lowercased.
func sourceScope(toks []sqlscan.Token) map[string]struct{} {
	depth := depths(toks)
	scope := make(map[string]struct{})

	for i := 0; i < len(toks); i++ {
		if depth[i] != 0 || !(isKw(toks[i], "FROM") || isKw(toks[i], "JOIN")) {
			continue
		}

		j := i + 1
		if j >= len(toks) || !isIdentLike(toks[j]) {
			continue // derived table or malformed clause
		}

		// Table path: ident (. ident)* — the base name is the last segment.
		base := toks[j].Text
		j++
		for j+1 < len(toks) && toks[j].Kind == sqlscan.Dot && isIdentLike(toks[j+1]) {
			base = toks[j+1].Text
			j += 2
		}
		scope[strings.ToLower(base)] = struct{}{}

		// Optional alias, with or without AS.
		if j < len(toks) && isKw(toks[j], "AS") {
			j++
		}
		if j < len(toks) && isIdentLike(toks[j]) && !sqlscan.IsKeyword(toks[j].Text) {
			scope[strings.ToLower(toks[j].Text)] = struct{}{}
		}
	}
	return scope
}

func isIdentLike(tok sqlscan.Token) bool {
	return tok.Kind == sqlscan.Ident || tok.Kind == sqlscan.QuotedIdent
}

// removePhantomColumns drops projection/ordering items that are qualified
// column references whose qualifier matches no declared table or alias.
// Only this structurally unambiguous form is removed; bare identifiers are
// left for the table-usage validator, which can consult the catalog.
func removePhantomColumns(toks []sqlscan.Token, notes *[]string) []sqlscan.Token {
	scope := sourceScope(toks)
	if len(scope) == 0 {
		return toks
	}

	depth := depths(toks)

	selStart, selEnd := selectListBounds(toks, depth)
	ordStart, ordEnd := orderListBounds(toks, depth)

	drop := make(map[int]bool) // token indexes to remove

	markList := func(start, end int) {
		if start < 0 {
			return
		}
		items := splitItems(toks, depth, start, end)
		kept := len(items)
		for _, it := range items {
			if phantomItem(toks, it, scope) && kept > 1 {
				for i := it.start; i < it.end; i++ {
					drop[i] = true
				}
				drop[it.comma] = true
				kept--
				ref := renderRef(toks[it.start:it.end])
				*notes = append(*notes, fmt.Sprintf("removed phantom column %s: no source named %s", ref, toks[it.start].Text))
			}
		}
	}

	markList(selStart, selEnd)
	markList(ordStart, ordEnd)

	if len(drop) == 0 {
		return toks
	}

	out := make([]sqlscan.Token, 0, len(toks))
	for i, t := range toks {
		if !drop[i] {
			out = append(out, t)
		}
	}
	return out
}

// selectListBounds returns the token range of the top-level SELECT list
// (exclusive of SELECT/TOP/DISTINCT prefixes and of FROM).
func selectListBounds(toks []sqlscan.Token, depth []int) (int, int) {
	start := -1
	for i, t := range toks {
		if depth[i] == 0 && isKw(t, "SELECT") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return -1, -1
	}
	for start < len(toks) {
		t := toks[start]
		if isKw(t, "DISTINCT") || isKw(t, "ALL") {
			start++
			continue
		}
		if isKw(t, "TOP") && start+1 < len(toks) && toks[start+1].Kind == sqlscan.Number {
			start += 2
			continue
		}
		break
	}
	end := len(toks)
	for i := start; i < len(toks); i++ {
		if depth[i] == 0 && isKw(toks[i], "FROM") {
			end = i
			break
		}
	}
	return start, end
}

// orderListBounds returns the token range of the top-level ORDER BY list.
func orderListBounds(toks []sqlscan.Token, depth []int) (int, int) {
	start := -1
	for i := 0; i+1 < len(toks); i++ {
		if depth[i] == 0 && isKw(toks[i], "ORDER") && isKw(toks[i+1], "BY") {
			start = i + 2
			break
		}
	}
	if start < 0 {
		return -1, -1
	}
	end := len(toks)
	for i := start; i < len(toks); i++ {
		if depth[i] == 0 && (isKw(toks[i], "LIMIT") || isKw(toks[i], "OFFSET") || toks[i].Kind == sqlscan.Semicolon) {
			end = i
			break
		}
	}
	return start, end
}

// listItem is one comma-separated item plus the comma that joins it.
type listItem struct {
	start, end int // token range, exclusive end
	comma      int // index of the separating comma to drop with the item
}

func splitItems(toks []sqlscan.Token, depth []int, start, end int) []listItem {
	var items []listItem
	itemStart := start
	baseDepth := 0
	if start < len(depth) {
		baseDepth = depth[start]
	}
	for i := start; i < end; i++ {
		if toks[i].Kind == sqlscan.Comma && depth[i] == baseDepth {
			items = append(items, listItem{start: itemStart, end: i, comma: i})
			itemStart = i + 1
		}
	}
	if itemStart < end {
		// The final item has no trailing comma; removing it must take the
		// comma before it instead.
		it := listItem{start: itemStart, end: end, comma: itemStart - 1}
		if it.comma < start || toks[it.comma].Kind != sqlscan.Comma {
			it.comma = -1
		}
		items = append(items, it)
	}
	// Items before the last carry their own trailing comma; the first item
	// of a one-element list has none.
	if len(items) == 1 {
		items[0].comma = -1
	}
	return items
}

// phantomItem reports whether the item is exactly `qualifier.column`
// (optionally followed by ASC/DESC) with an unknown qualifier.
func phantomItem(toks []sqlscan.Token, it listItem, scope map[string]struct{}) bool {
	if it.comma < 0 && it.start == it.end {
		return false
	}
	end := it.end
	if end-it.start == 4 && (isKw(toks[end-1], "ASC") || isKw(toks[end-1], "DESC")) {
		end--
	}
	if end-it.start != 3 {
		return false
	}
	q, dot, col := toks[it.start], toks[it.start+1], toks[it.start+2]
	if !isIdentLike(q) || dot.Kind != sqlscan.Dot || !isIdentLike(col) {
		return false
	}
	_, known := scope[strings.ToLower(q.Text)]
	return !known
}

func renderRef(toks []sqlscan.Token) string {
	var sb strings.Builder
	for _, t := range toks {
		sb.WriteString(t.Text)
	}
	return sb.String()
}

// trimTrailingSemicolons drops statement terminators at the very end of the
// token stream. Interior semicolons stay so the structural validator can
// reject multi-statement input.
func trimTrailingSemicolons(toks []sqlscan.Token, notes *[]string) []sqlscan.Token {
	end := len(toks)
	for end > 0 && toks[end-1].Kind == sqlscan.Semicolon {
		end--
	}
	if end != len(toks) {
		*notes = append(*notes, "removed trailing statement terminator")
	}
	return toks[:end]
}

// render reassembles tokens with canonical whitespace, uppercased keywords,
// and the dialect's identifier quoting. source is the pre-rewrite text, used
// to detect whether any identifier's original quoting differed.
func render(toks []sqlscan.Token, source string, d dialect.Dialect, notes *[]string) string {
	var sb strings.Builder
	requoted := false

	for i, t := range toks {
		if i > 0 && needSpace(toks[i-1], t) {
			sb.WriteByte(' ')
		}

		switch t.Kind {
		case sqlscan.Ident:
			if sqlscan.IsKeyword(t.Text) || sqlscan.IsAggregate(t.Text) {
				sb.WriteString(strings.ToUpper(t.Text))
			} else {
				sb.WriteString(t.Text)
			}
		case sqlscan.QuotedIdent:
			quoted := d.QuoteIdent(t.Text)
			if t.Pos < len(source) && source[t.Pos] != quoted[0] {
				requoted = true
			}
			sb.WriteString(quoted)
		default:
			sb.WriteString(t.Text)
		}
	}

	if requoted {
		*notes = append(*notes, fmt.Sprintf("normalized identifier quoting to %s convention", d.Name))
	}
	return sb.String()
}

// needSpace decides whether a space separates prev and curr in the
// canonical rendering.
func needSpace(prev, curr sqlscan.Token) bool {
	switch curr.Kind {
	case sqlscan.Comma, sqlscan.Semicolon, sqlscan.RParen, sqlscan.Dot:
		return false
	}
	switch prev.Kind {
	case sqlscan.LParen, sqlscan.Dot:
		return false
	}
	// Function calls bind tight: SUM(x), COUNT(*). Keyword-led parens keep
	// their space: FROM (SELECT …), IN (1, 2).
	if curr.Kind == sqlscan.LParen && isIdentLike(prev) && !sqlscan.IsKeyword(prev.Text) {
		return false
	}
	return true
}
