// Package sqlscan tokenises raw SQL text.
//
// The scanner is shared by the normalizer and both validators. It is
// deliberately lexical only: it recognises identifiers (bare or quoted in
// any of the bracket/backtick/double-quote conventions), literals, comments,
// and punctuation, but attaches no grammar. Byte offsets are kept on every
// token so validation errors can point at the offending source span.
package sqlscan

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind identifies lexical tokens produced by the scanner.
type Kind int

const (
	EOF Kind = iota
	Illegal
	Ident
	QuotedIdent
	Number
	String
	Comma
	Dot
	LParen
	RParen
	Semicolon
	Star
	Operator
)

// Token represents one lexical item.
// For QuotedIdent, Text holds the unquoted identifier; for every other kind
// it holds the literal source text.
type Token struct {
	Kind Kind
	Text string
	Pos  int // byte offset of the first byte
	End  int // byte offset one past the last byte
}

// Scanner performs tokenisation over the input SQL string.
type Scanner struct {
	input []rune
	offs  []int // byte offset of each rune, plus one past the last
	pos   int
}

// New initialises a scanner for the provided SQL source.
func New(input string) *Scanner {
	runes := []rune(input)
	offs := make([]int, len(runes)+1)
	b := 0
	for i, r := range runes {
		offs[i] = b
		b += utf8.RuneLen(r)
	}
	offs[len(runes)] = b
	return &Scanner{input: runes, offs: offs}
}

// Scan tokenises the whole input, excluding the terminating EOF token.
func Scan(input string) []Token {
	s := New(input)
	var toks []Token
	for {
		tok := s.Next()
		if tok.Kind == EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

// tok builds a token spanning the runes [start, s.pos), translating rune
// indexes to byte offsets.
func (s *Scanner) tok(kind Kind, text string, start int) Token {
	return Token{Kind: kind, Text: text, Pos: s.offs[start], End: s.offs[s.pos]}
}

// Next returns the next token from the stream.
func (s *Scanner) Next() Token {
	s.skipSpaceAndComments()
	if s.pos >= len(s.input) {
		return s.tok(EOF, "", s.pos)
	}

	start := s.pos
	ch := s.input[s.pos]

	switch ch {
	case ',':
		s.pos++
		return s.tok(Comma, ",", start)
	case '.':
		// A leading dot followed by a digit is a numeric literal (.5)
		if s.pos+1 < len(s.input) && unicode.IsDigit(s.input[s.pos+1]) {
			return s.scanNumber()
		}
		s.pos++
		return s.tok(Dot, ".", start)
	case '(':
		s.pos++
		return s.tok(LParen, "(", start)
	case ')':
		s.pos++
		return s.tok(RParen, ")", start)
	case ';':
		s.pos++
		return s.tok(Semicolon, ";", start)
	case '*':
		s.pos++
		return s.tok(Star, "*", start)
	case '\'':
		return s.scanString()
	case '[':
		return s.scanQuoted(']')
	case '`':
		return s.scanQuoted('`')
	case '"':
		return s.scanQuoted('"')
	}

	if unicode.IsDigit(ch) {
		return s.scanNumber()
	}
	if isIdentStart(ch) {
		return s.scanIdent()
	}
	if isOperatorRune(ch) {
		return s.scanOperator()
	}

	s.pos++
	return s.tok(Illegal, string(ch), start)
}

func (s *Scanner) skipSpaceAndComments() {
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		switch {
		case unicode.IsSpace(ch):
			s.pos++
		case ch == '-' && s.peekAt(1) == '-':
			for s.pos < len(s.input) && s.input[s.pos] != '\n' {
				s.pos++
			}
		case ch == '/' && s.peekAt(1) == '*':
			s.pos += 2
			for s.pos < len(s.input) {
				if s.input[s.pos] == '*' && s.peekAt(1) == '/' {
					s.pos += 2
					break
				}
				s.pos++
			}
		default:
			return
		}
	}
}

func (s *Scanner) peekAt(offset int) rune {
	if s.pos+offset >= len(s.input) {
		return 0
	}
	return s.input[s.pos+offset]
}

func (s *Scanner) scanIdent() Token {
	start := s.pos
	for s.pos < len(s.input) && isIdentPart(s.input[s.pos]) {
		s.pos++
	}
	return s.tok(Ident, string(s.input[start:s.pos]), start)
}

func (s *Scanner) scanNumber() Token {
	start := s.pos
	seenDot := false
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		if unicode.IsDigit(ch) {
			s.pos++
			continue
		}
		if ch == '.' && !seenDot {
			seenDot = true
			s.pos++
			continue
		}
		break
	}
	return s.tok(Number, string(s.input[start:s.pos]), start)
}

// scanString reads a single-quoted SQL string, honouring '' escapes.
func (s *Scanner) scanString() Token {
	start := s.pos
	s.pos++ // opening quote
	for s.pos < len(s.input) {
		if s.input[s.pos] == '\'' {
			if s.peekAt(1) == '\'' {
				s.pos += 2
				continue
			}
			s.pos++
			return s.tok(String, string(s.input[start:s.pos]), start)
		}
		s.pos++
	}
	return s.tok(Illegal, string(s.input[start:s.pos]), start)
}

// scanQuoted reads a quoted identifier terminated by close ([x], `x`, "x").
// Doubled terminators inside the identifier are unescaped.
func (s *Scanner) scanQuoted(close rune) Token {
	start := s.pos
	s.pos++ // opening quote
	var name strings.Builder
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		if ch == close {
			if s.peekAt(1) == close {
				name.WriteRune(close)
				s.pos += 2
				continue
			}
			s.pos++
			return s.tok(QuotedIdent, name.String(), start)
		}
		name.WriteRune(ch)
		s.pos++
	}
	return s.tok(Illegal, string(s.input[start:s.pos]), start)
}

func (s *Scanner) scanOperator() Token {
	start := s.pos
	for s.pos < len(s.input) && isOperatorRune(s.input[s.pos]) {
		s.pos++
		// Stop after two-rune operators like <=, <>, != to avoid gluing
		// unrelated runes together.
		if s.pos-start == 2 {
			break
		}
	}
	return s.tok(Operator, string(s.input[start:s.pos]), start)
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_' || ch == '@' || ch == '#'
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '@' || ch == '#' || ch == '$'
}

func isOperatorRune(ch rune) bool {
	switch ch {
	case '=', '<', '>', '!', '+', '-', '/', '%', '|', '&', '^', '~':
		return true
	}
	return false
}
