// Package normalize rewrites raw SQL candidates into a canonical
// dialect-correct form.
//
// Normalization is a pure text-to-text transformation with a fixed step
// order, and it is idempotent: normalizing an already-normal query changes
// nothing. Rewrites that might alter meaning are conservative — anything
// ambiguous is left alone for the validators to flag.
package normalize

import (
	"github.com/aysualkaya/assistant/internal/dialect"
	"github.com/aysualkaya/assistant/internal/sqlscan"
)

// Result is the outcome of one normalization pass.
type Result struct {
	// Text is the canonical form of the query.
	Text string

	// Notes records, in application order, every rewrite that was applied.
	// Notes are informational — never fatal.
	Notes []string
}

// Normalizer rewrites SQL text for one target dialect.
// The zero value is not usable; construct with New.
type Normalizer struct {
	d dialect.Dialect
}

// New creates a Normalizer targeting d.
func New(d dialect.Dialect) *Normalizer {
	return &Normalizer{d: d}
}

// Normalize applies the full rewrite pipeline to sql.
//
// Step order is fixed so repeated runs are reproducible:
//  1. strip generation artifacts (code fences, prose, "SQL:" prefixes)
//  2. tokenize; translate the portable row limit into the dialect form
//  3. remove structurally unambiguous phantom columns
//  4. trim trailing statement terminators
//  5. render with canonical whitespace, keyword case, and identifier quoting
func (n *Normalizer) Normalize(sql string) Result {
	var notes []string

	text := stripDecorations(sql, &notes)
	if text == "" {
		return Result{Text: "", Notes: notes}
	}

	toks := sqlscan.Scan(text)
	toks = n.translateLimit(toks, &notes)
	toks = removePhantomColumns(toks, &notes)
	toks = trimTrailingSemicolons(toks, &notes)

	rendered := render(toks, text, n.d, &notes)
	return Result{Text: rendered, Notes: notes}
}
