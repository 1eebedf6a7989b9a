// Package rules evaluates dialect-compliance rules against normalized SQL.
//
// A rule is a boolean expression over the query's token facts. Rules are
// declarative so operators can extend the set per deployment without a
// rebuild; the built-in set covers the constructs generative collaborators
// most often borrow from the wrong dialect.
package rules

import (
	"fmt"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.yaml.in/yaml/v3"

	"github.com/aysualkaya/assistant/internal/dialect"
	"github.com/aysualkaya/assistant/internal/errs"
	"github.com/aysualkaya/assistant/internal/sqlscan"
	"github.com/aysualkaya/assistant/internal/validate"
)

// Rule is one declarative compliance check. When is an expression over Env;
// a true result raises Message as a rule_violation finding.
type Rule struct {
	Name    string `yaml:"name"`
	Message string `yaml:"message"`
	When    string `yaml:"when"`
}

// Env is the evaluation environment one query presents to rule expressions.
type Env struct {
	// Dialect is the lowercase target dialect name, e.g. "sqlserver".
	Dialect string `expr:"dialect"`

	// Query is the full normalized SQL text.
	Query string `expr:"query"`

	// Keywords holds every uppercased reserved word in the query.
	Keywords []string `expr:"keywords"`

	// Functions holds the uppercased name of every function call.
	Functions []string `expr:"functions"`

	// Idents holds every uppercased non-keyword identifier.
	Idents []string `expr:"idents"`
}

type compiledRule struct {
	rule    Rule
	program *vm.Program
}

// Engine holds compiled rules bound to one target dialect.
type Engine struct {
	d     dialect.Dialect
	rules []compiledRule
}

// NewEngine compiles rs for dialect d. Compilation failures are reported
// with the offending rule's name.
func NewEngine(d dialect.Dialect, rs []Rule) (*Engine, error) {
	e := &Engine{d: d}
	for _, r := range rs {
		prog, err := expr.Compile(r.When, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, fmt.Sprintf("rule %q does not compile", r.Name), err)
		}
		e.rules = append(e.rules, compiledRule{rule: r, program: prog})
	}
	return e, nil
}

// LoadFile reads a YAML rule list from path.
func LoadFile(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "reading rules file", err)
	}
	var rs []Rule
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "parsing rules file", err)
	}
	return rs, nil
}

// Validate evaluates every rule against sql. A rule whose expression errors
// at runtime is treated as not fired.
func (e *Engine) Validate(sql string) validate.Result {
	var res validate.Result

	env := buildEnv(sql, e.d)
	for _, cr := range e.rules {
		fired, err := expr.Run(cr.program, env)
		if err != nil {
			continue
		}
		if fired == true {
			res.Add(validate.Error{
				Kind:    validate.KindRuleViolation,
				Message: cr.rule.Message,
				Ident:   cr.rule.Name,
			})
		}
	}
	return res
}

func buildEnv(sql string, d dialect.Dialect) Env {
	env := Env{
		Dialect: strings.ToLower(d.Name),
		Query:   sql,
	}

	toks := sqlscan.Scan(sql)
	for i, t := range toks {
		if t.Kind != sqlscan.Ident {
			continue
		}
		upper := strings.ToUpper(t.Text)
		switch {
		case sqlscan.IsKeyword(t.Text):
			env.Keywords = append(env.Keywords, upper)
		case i+1 < len(toks) && toks[i+1].Kind == sqlscan.LParen:
			env.Functions = append(env.Functions, upper)
		default:
			env.Idents = append(env.Idents, upper)
		}
	}
	return env
}

// Defaults returns the built-in rule set. Each targets a construct that is
// valid somewhere but not on the named dialect.
func Defaults() []Rule {
	return []Rule{
		{
			Name:    "no-limit-on-sqlserver",
			Message: "LIMIT is not supported on SQL Server; use TOP",
			When:    `dialect == "sqlserver" and "LIMIT" in keywords`,
		},
		{
			Name:    "no-ifnull-on-sqlserver",
			Message: "IFNULL is not available on SQL Server; use ISNULL or COALESCE",
			When:    `dialect == "sqlserver" and "IFNULL" in functions`,
		},
		{
			Name:    "no-now-on-sqlserver",
			Message: "NOW() is not available on SQL Server; use GETDATE()",
			When:    `dialect == "sqlserver" and "NOW" in functions`,
		},
		{
			Name:    "no-curdate-on-sqlserver",
			Message: "CURDATE() is not available on SQL Server; use CAST(GETDATE() AS date)",
			When:    `dialect == "sqlserver" and "CURDATE" in functions`,
		},
		{
			Name:    "no-ilike-on-sqlserver",
			Message: "ILIKE is not supported on SQL Server; LIKE is already case-insensitive under the default collation",
			When:    `dialect == "sqlserver" and "ILIKE" in idents`,
		},
		{
			Name:    "no-regexp-on-sqlserver",
			Message: "REGEXP is not supported on SQL Server; use LIKE or PATINDEX",
			When:    `dialect == "sqlserver" and "REGEXP" in idents`,
		},
		{
			Name:    "no-top-on-mysql",
			Message: "TOP is not supported on MySQL; use LIMIT",
			When:    `dialect == "mysql" and "TOP" in keywords`,
		},
		{
			Name:    "no-getdate-on-postgres",
			Message: "GETDATE() is not available on PostgreSQL; use now()",
			When:    `dialect == "postgres" and "GETDATE" in functions`,
		},
	}
}
