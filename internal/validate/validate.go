// Package validate checks normalized SQL against shape invariants and the
// schema catalog.
//
// Both validators collect every finding rather than stopping at the first,
// so one regeneration request carries the complete diagnostic set. Findings
// are data, not Go errors: fatal conditions live in the errs package.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind classifies a validation finding.
type Kind int

const (
	KindStructural     Kind = iota // malformed shape (parens, clauses, nesting)
	KindMissingGroupBy             // bare column beside an aggregate, absent from GROUP BY
	KindMissingJoinKey             // JOIN without ON/USING
	KindMultiStatement             // more than one top-level statement
	KindUnknownTable               // table not present in the catalog
	KindUnknownColumn              // column not present on a known table
	KindRuleViolation              // dialect-compliance rule fired
)

func (k Kind) String() string {
	switch k {
	case KindStructural:
		return "structural"
	case KindMissingGroupBy:
		return "missing_group_by"
	case KindMissingJoinKey:
		return "missing_join_key"
	case KindMultiStatement:
		return "multi_statement"
	case KindUnknownTable:
		return "unknown_table"
	case KindUnknownColumn:
		return "unknown_column"
	case KindRuleViolation:
		return "rule_violation"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for cand := KindStructural; cand <= KindRuleViolation; cand++ {
		if cand.String() == name {
			*k = cand
			return nil
		}
	}
	return fmt.Errorf("unknown finding kind %q", name)
}

// Structural reports whether k belongs to the structural family
// (shape checks that need no schema).
func (k Kind) Structural() bool {
	switch k {
	case KindStructural, KindMissingGroupBy, KindMissingJoinKey, KindMultiStatement, KindRuleViolation:
		return true
	}
	return false
}

// Span marks the byte range of the offending source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Error is a single validation finding.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Span    *Span  `json:"span,omitempty"`

	// Ident is the offending identifier, when the finding concerns one.
	Ident string `json:"ident,omitempty"`

	// Suggestion is the single unambiguous fuzzy replacement, when exactly
	// one catalog candidate sits within the edit-distance threshold.
	Suggestion string `json:"suggestion,omitempty"`

	// Candidates lists tied fuzzy matches. The pipeline never auto-selects
	// among them — ties always escalate to regeneration.
	Candidates []string `json:"candidates,omitempty"`
}

func (e Error) String() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Suggestion != "" {
		sb.WriteString(" (did you mean ")
		sb.WriteString(e.Suggestion)
		sb.WriteString("?)")
	}
	return sb.String()
}

// Result is the ordered outcome of one validation pass.
// Invariant: Valid() is true iff Errors is empty.
type Result struct {
	Errors []Error `json:"errors"`
}

// Valid reports whether the pass produced no findings.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Add appends a finding.
func (r *Result) Add(err Error) {
	r.Errors = append(r.Errors, err)
}

// Merge unions the findings of several passes, preserving order.
func Merge(results ...Result) Result {
	var merged Result
	for _, r := range results {
		merged.Errors = append(merged.Errors, r.Errors...)
	}
	return merged
}

// Messages renders every finding as a line of diagnostic text.
func (r Result) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.String()
	}
	return out
}
