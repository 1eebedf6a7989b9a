// Package dialect describes the SQL syntax variants the pipeline can target.
//
// A Dialect controls how the normalizer rewrites row-limiting clauses and
// identifier quoting. SQLServer is the default target: the warehouse the
// assistant was built for speaks T-SQL (TOP instead of a trailing LIMIT,
// bracketed identifiers).
package dialect

import (
	"fmt"
	"strings"
)

// LimitStyle is how a dialect expresses a row limit.
type LimitStyle int

const (
	// LimitTop places the limit inside the SELECT clause: SELECT TOP n …
	LimitTop LimitStyle = iota

	// LimitTrailing places the limit after ORDER BY: … LIMIT n
	LimitTrailing
)

// QuoteStyle is how a dialect quotes identifiers.
type QuoteStyle int

const (
	QuoteBrackets     QuoteStyle = iota // [Ident]
	QuoteBackticks                      // `Ident`
	QuoteDoubleQuotes                   // "Ident"
)

// Dialect is an immutable description of one SQL syntax variant.
type Dialect struct {
	Name  string
	Limit LimitStyle
	Quote QuoteStyle
}

var (
	SQLServer = Dialect{Name: "sqlserver", Limit: LimitTop, Quote: QuoteBrackets}
	MySQL     = Dialect{Name: "mysql", Limit: LimitTrailing, Quote: QuoteBackticks}
	Postgres  = Dialect{Name: "postgres", Limit: LimitTrailing, Quote: QuoteDoubleQuotes}
)

// FromName resolves a dialect by its configuration name.
func FromName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "sqlserver", "mssql", "tsql":
		return SQLServer, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unknown dialect %q", name)
}

// QuoteIdent wraps name in the dialect's identifier quoting convention.
func (d Dialect) QuoteIdent(name string) string {
	switch d.Quote {
	case QuoteBackticks:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case QuoteDoubleQuotes:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	default:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	}
}
