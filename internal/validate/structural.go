package validate

import (
	"fmt"
	"strings"

	"github.com/aysualkaya/assistant/internal/sqlscan"
)

// StructuralValidator checks the shape of a normalized query without
// consulting any schema. All findings for one query are collected in a
// single pass.
type StructuralValidator struct{}

// NewStructural creates a StructuralValidator.
func NewStructural() *StructuralValidator {
	return &StructuralValidator{}
}

// Validate runs every shape check against sql.
func (v *StructuralValidator) Validate(sql string) Result {
	var res Result

	toks := sqlscan.Scan(sql)
	if len(toks) == 0 {
		res.Add(Error{Kind: KindStructural, Message: "empty statement"})
		return res
	}

	v.checkIllegalTokens(toks, &res)
	v.checkParens(toks, &res)
	v.checkStatementShape(toks, &res)
	v.checkMultiStatement(toks, &res)
	v.checkJoins(toks, &res)
	v.checkGroupBy(toks, &res)

	return res
}

func (v *StructuralValidator) checkIllegalTokens(toks []sqlscan.Token, res *Result) {
	for _, t := range toks {
		if t.Kind == sqlscan.Illegal {
			res.Add(Error{
				Kind:    KindStructural,
				Message: fmt.Sprintf("unreadable token %q", t.Text),
				Span:    &Span{Start: t.Pos, End: t.End},
			})
		}
	}
}

func (v *StructuralValidator) checkParens(toks []sqlscan.Token, res *Result) {
	depth := 0
	var openPos []int
	for _, t := range toks {
		switch t.Kind {
		case sqlscan.LParen:
			depth++
			openPos = append(openPos, t.Pos)
		case sqlscan.RParen:
			if depth == 0 {
				res.Add(Error{
					Kind:    KindStructural,
					Message: "unmatched closing parenthesis",
					Span:    &Span{Start: t.Pos, End: t.End},
				})
				continue
			}
			depth--
			openPos = openPos[:len(openPos)-1]
		}
	}
	for _, pos := range openPos {
		res.Add(Error{
			Kind:    KindStructural,
			Message: "unclosed parenthesis",
			Span:    &Span{Start: pos, End: pos + 1},
		})
	}
}

// checkStatementShape requires a SELECT-based statement with a FROM clause.
// Constant-only projections such as SELECT 1 are the one exception: they read
// no table, so no FROM is demanded of them.
func (v *StructuralValidator) checkStatementShape(toks []sqlscan.Token, res *Result) {
	first := toks[0]
	if !tokIs(first, "SELECT") && !tokIs(first, "WITH") {
		res.Add(Error{
			Kind:    KindStructural,
			Message: fmt.Sprintf("statement must begin with SELECT or WITH, found %q", first.Text),
			Span:    &Span{Start: first.Pos, End: first.End},
		})
		return
	}

	depth := tokenDepths(toks)
	hasSelect, hasFrom := false, false
	for i, t := range toks {
		if depth[i] != 0 {
			continue
		}
		if tokIs(t, "SELECT") {
			hasSelect = true
		}
		if tokIs(t, "FROM") {
			hasFrom = true
		}
	}
	if hasSelect && !hasFrom && !constantProjection(toks, depth) {
		res.Add(Error{Kind: KindStructural, Message: "SELECT without a FROM clause"})
	}
}

// constantProjection reports whether the projection contains no column
// identifiers. Constant-only statements like SELECT 1 are legal without a
// FROM clause.
func constantProjection(toks []sqlscan.Token, depth []int) bool {
	start, end := clauseBounds(toks, depth, "SELECT", []string{"FROM"})
	if start < 0 {
		return false
	}
	for i := start; i < end; i++ {
		if isColumnIdent(toks[i]) && sqlscan.IsAggregate(toks[i].Text) {
			continue // COUNT(*) and friends take no column here
		}
		if isColumnIdent(toks[i]) {
			return false
		}
	}
	return true
}

func (v *StructuralValidator) checkMultiStatement(toks []sqlscan.Token, res *Result) {
	depth := tokenDepths(toks)
	for i, t := range toks {
		if t.Kind == sqlscan.Semicolon && depth[i] == 0 && i+1 < len(toks) {
			res.Add(Error{
				Kind:    KindMultiStatement,
				Message: "multiple statements in one request",
				Span:    &Span{Start: t.Pos, End: t.End},
			})
			return
		}
	}
}

// checkJoins requires every JOIN to carry an ON or USING condition before
// the next join or clause boundary. CROSS joins are exempt.
func (v *StructuralValidator) checkJoins(toks []sqlscan.Token, res *Result) {
	depth := tokenDepths(toks)
	for i, t := range toks {
		if depth[i] != 0 || !tokIs(t, "JOIN") {
			continue
		}
		if i > 0 && tokIs(toks[i-1], "CROSS") {
			continue
		}

		found := false
		for j := i + 1; j < len(toks); j++ {
			if depth[j] != 0 {
				continue
			}
			if tokIs(toks[j], "ON") || tokIs(toks[j], "USING") {
				found = true
				break
			}
			if joinBoundary(toks[j]) {
				break
			}
		}
		if !found {
			res.Add(Error{
				Kind:    KindMissingJoinKey,
				Message: "JOIN without an ON or USING condition",
				Span:    &Span{Start: t.Pos, End: t.End},
			})
		}
	}
}

func joinBoundary(t sqlscan.Token) bool {
	if t.Kind == sqlscan.Semicolon {
		return true
	}
	for _, kw := range []string{"JOIN", "WHERE", "GROUP", "ORDER", "HAVING", "UNION"} {
		if tokIs(t, kw) {
			return true
		}
	}
	return false
}

// checkGroupBy flags bare projection columns that sit beside an aggregate
// but are absent from GROUP BY.
func (v *StructuralValidator) checkGroupBy(toks []sqlscan.Token, res *Result) {
	depth := tokenDepths(toks)

	selStart, selEnd := clauseBounds(toks, depth, "SELECT", []string{"FROM"})
	if selStart < 0 {
		return
	}
	for selStart < selEnd {
		if tokIs(toks[selStart], "DISTINCT") || tokIs(toks[selStart], "ALL") {
			selStart++
			continue
		}
		if tokIs(toks[selStart], "TOP") && selStart+1 < selEnd && toks[selStart+1].Kind == sqlscan.Number {
			selStart += 2
			continue
		}
		break
	}

	bare, hasAggregate := projectionColumns(toks, depth, selStart, selEnd)
	if !hasAggregate || len(bare) == 0 {
		return
	}

	grouped := make(map[string]struct{})
	gStart, gEnd := groupByBounds(toks, depth)
	if gStart >= 0 {
		for i := gStart; i < gEnd; i++ {
			if isColumnIdent(toks[i]) {
				grouped[strings.ToLower(toks[i].Text)] = struct{}{}
			}
		}
	}

	for _, col := range bare {
		if _, ok := grouped[strings.ToLower(col.name)]; ok {
			continue
		}
		res.Add(Error{
			Kind:    KindMissingGroupBy,
			Message: fmt.Sprintf("column %s appears beside an aggregate but not in GROUP BY", col.name),
			Span:    &Span{Start: col.pos, End: col.end},
			Ident:   col.name,
		})
	}
}

type bareColumn struct {
	name     string
	pos, end int
}

// projectionColumns splits the SELECT list and classifies each item as an
// aggregate call or a bare column reference. Expressions that are neither
// (arithmetic, CASE, literals) are ignored.
func projectionColumns(toks []sqlscan.Token, depth []int, start, end int) ([]bareColumn, bool) {
	var bare []bareColumn
	hasAggregate := false

	itemStart := start
	base := 0
	if start < len(depth) {
		base = depth[start]
	}
	flush := func(s, e int) {
		if s >= e {
			return
		}
		// Strip a trailing alias: expr AS alias, or expr alias.
		if e-s >= 2 && tokIs(toks[e-2], "AS") {
			e -= 2
		}
		if containsAggregate(toks[s:e], depth[s:e], base) {
			hasAggregate = true
			return
		}
		if name, ok := columnRef(toks[s:e]); ok {
			bare = append(bare, bareColumn{name: name, pos: toks[s].Pos, end: toks[e-1].End})
		}
	}
	for i := start; i < end; i++ {
		if toks[i].Kind == sqlscan.Comma && depth[i] == base {
			flush(itemStart, i)
			itemStart = i + 1
		}
	}
	flush(itemStart, end)

	return bare, hasAggregate
}

// containsAggregate looks for an aggregate call at the item's own nesting
// level. Aggregates buried in a subquery belong to that subquery and do not
// put the outer SELECT into grouped mode.
func containsAggregate(toks []sqlscan.Token, depth []int, base int) bool {
	for i := 0; i+1 < len(toks); i++ {
		if depth[i] != base {
			continue
		}
		if toks[i].Kind == sqlscan.Ident && sqlscan.IsAggregate(toks[i].Text) && toks[i+1].Kind == sqlscan.LParen {
			return true
		}
	}
	return false
}

// columnRef recognises `col` and `qualifier.col`, returning the column name.
func columnRef(toks []sqlscan.Token) (string, bool) {
	switch len(toks) {
	case 1:
		if isColumnIdent(toks[0]) {
			return toks[0].Text, true
		}
	case 3:
		if isColumnIdent(toks[0]) && toks[1].Kind == sqlscan.Dot && isColumnIdent(toks[2]) {
			return toks[2].Text, true
		}
	}
	return "", false
}

func isColumnIdent(t sqlscan.Token) bool {
	if t.Kind == sqlscan.QuotedIdent {
		return true
	}
	return t.Kind == sqlscan.Ident && !sqlscan.IsKeyword(t.Text)
}

// clauseBounds finds the token range following the first top-level
// occurrence of kw, ending at the first of the until keywords.
func clauseBounds(toks []sqlscan.Token, depth []int, kw string, until []string) (int, int) {
	start := -1
	for i, t := range toks {
		if depth[i] == 0 && tokIs(t, kw) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return -1, -1
	}
	end := len(toks)
	for i := start; i < len(toks); i++ {
		if depth[i] != 0 {
			continue
		}
		for _, u := range until {
			if tokIs(toks[i], u) {
				return start, i
			}
		}
	}
	return start, end
}

func groupByBounds(toks []sqlscan.Token, depth []int) (int, int) {
	start := -1
	for i := 0; i+1 < len(toks); i++ {
		if depth[i] == 0 && tokIs(toks[i], "GROUP") && tokIs(toks[i+1], "BY") {
			start = i + 2
			break
		}
	}
	if start < 0 {
		return -1, -1
	}
	end := len(toks)
	for i := start; i < len(toks); i++ {
		if depth[i] != 0 {
			continue
		}
		if tokIs(toks[i], "HAVING") || tokIs(toks[i], "ORDER") || tokIs(toks[i], "UNION") || toks[i].Kind == sqlscan.Semicolon {
			end = i
			break
		}
	}
	return start, end
}

func tokIs(t sqlscan.Token, word string) bool {
	return t.Kind == sqlscan.Ident && strings.EqualFold(t.Text, word)
}

func tokenDepths(toks []sqlscan.Token) []int {
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
