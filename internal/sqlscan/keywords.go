package sqlscan

import "strings"

// keywords are the reserved words recognised across the supported dialects.
// The normalizer uppercases these; identifiers are left untouched.
var keywords = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "WHERE": {}, "GROUP": {}, "BY": {}, "ORDER": {},
	"HAVING": {}, "AS": {}, "ON": {}, "USING": {}, "JOIN": {}, "INNER": {},
	"LEFT": {}, "RIGHT": {}, "FULL": {}, "OUTER": {}, "CROSS": {},
	"UNION": {}, "ALL": {}, "DISTINCT": {}, "TOP": {}, "LIMIT": {}, "OFFSET": {},
	"AND": {}, "OR": {}, "NOT": {}, "IN": {}, "IS": {}, "NULL": {}, "LIKE": {},
	"BETWEEN": {}, "EXISTS": {}, "CASE": {}, "WHEN": {}, "THEN": {}, "ELSE": {},
	"END": {}, "OVER": {}, "PARTITION": {}, "WITH": {}, "ASC": {}, "DESC": {},
	"INSERT": {}, "INTO": {}, "VALUES": {}, "UPDATE": {}, "SET": {}, "DELETE": {},
	"CREATE": {}, "DROP": {}, "ALTER": {}, "TABLE": {}, "TRUNCATE": {},
	"PERCENT": {}, "TIES": {}, "FETCH": {}, "NEXT": {}, "ROWS": {}, "ONLY": {},
}

// aggregates are the aggregate function names the structural validator
// understands when checking GROUP BY consistency.
var aggregates = map[string]struct{}{
	"SUM": {}, "COUNT": {}, "AVG": {}, "MIN": {}, "MAX": {},
	"STDEV": {}, "VAR": {}, "COUNT_BIG": {}, "STRING_AGG": {},
}

// IsKeyword reports whether word is a reserved SQL keyword.
// The check is case-insensitive.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToUpper(word)]
	return ok
}

// IsAggregate reports whether word names an aggregate function.
// The check is case-insensitive.
func IsAggregate(word string) bool {
	_, ok := aggregates[strings.ToUpper(word)]
	return ok
}
