package normalize

import (
	"regexp"
	"strings"
)

var (
	sqlPrefixRe = regexp.MustCompile(`(?i)^\s*SQL\s*:`)
	stmtStartRe = regexp.MustCompile(`(?i)\b(SELECT|WITH)\b`)
)

// stripDecorations removes the artifacts a generative collaborator wraps
// around SQL: markdown code fences, a leading "SQL:" label, trailing
// explanation prose, and any free text before the statement itself.
func stripDecorations(sql string, notes *[]string) string {
	text := strings.TrimSpace(sql)
	if text == "" {
		return ""
	}

	if strings.Contains(text, "```") {
		var kept []string
		for _, line := range strings.Split(text, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				continue
			}
			kept = append(kept, line)
		}
		text = strings.TrimSpace(strings.Join(kept, "\n"))
		*notes = append(*notes, "removed markdown code fences")
	}

	if loc := sqlPrefixRe.FindStringIndex(text); loc != nil {
		text = strings.TrimSpace(text[loc[1]:])
		*notes = append(*notes, "removed leading SQL: label")
	}

	// Everything from an EXPLANATION marker onward is prose, not SQL.
	if idx := explanationIndex(text); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
		*notes = append(*notes, "removed trailing explanation text")
	}

	// Drop free text before the first SELECT/WITH ("Here is the query: …").
	if loc := stmtStartRe.FindStringIndex(text); loc != nil && loc[0] > 0 {
		text = text[loc[0]:]
		*notes = append(*notes, "removed leading prose before statement")
	}

	return strings.TrimSpace(text)
}

// explanationIndex returns the offset of a line starting with "EXPLANATION",
// or -1 when none exists.
func explanationIndex(text string) int {
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) >= 11 && strings.EqualFold(trimmed[:11], "EXPLANATION") {
			return offset
		}
		offset += len(line)
	}
	return -1
}
