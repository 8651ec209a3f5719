package ir

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sexp is a parsed S-expression: either an atom or a parenthesized list.
type Sexp struct {
	Atom   string
	List   []Sexp
	IsList bool
	Offset int // byte offset of the first character in the source
}

// String renders the expression back to source form.
func (s Sexp) String() string {
	if !s.IsList {
		return s.Atom
	}
	parts := make([]string, len(s.List))
	for i, child := range s.List {
		parts[i] = child.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// ParseError reports malformed S-expression or term source.
type ParseError struct {
	Offset  int
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Message)
}

// ParseSexp parses exactly one S-expression from src.
// Line comments start with ';'. Atoms are maximal runs of characters other
// than whitespace, parentheses and ';'. src must be valid UTF-8.
func ParseSexp(src string) (Sexp, error) {
	if !utf8.ValidString(src) {
		return Sexp{}, &ParseError{Offset: invalidUTF8Offset(src), Message: "invalid UTF-8"}
	}
	p := &sexpParser{src: src}
	p.skipSpace()
	if p.pos >= len(p.src) {
		return Sexp{}, &ParseError{Offset: p.pos, Message: "empty expression"}
	}
	s, err := p.parse()
	if err != nil {
		return Sexp{}, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return Sexp{}, &ParseError{Offset: p.pos, Message: fmt.Sprintf("unexpected trailing input %q", p.src[p.pos:])}
	}
	return s, nil
}

func invalidUTF8Offset(src string) int {
	for i, r := range src {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(src[i:]); size == 1 {
				return i
			}
		}
	}
	return len(src)
}

type sexpParser struct {
	src string
	pos int
}

// peek decodes the rune at the cursor.
func (p *sexpParser) peek() (rune, int) {
	return utf8.DecodeRuneInString(p.src[p.pos:])
}

func (p *sexpParser) skipSpace() {
	for p.pos < len(p.src) {
		r, size := p.peek()
		switch {
		case r == ';':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		case unicode.IsSpace(r):
			p.pos += size
		default:
			return
		}
	}
}

func (p *sexpParser) parse() (Sexp, error) {
	start := p.pos
	switch p.src[p.pos] {
	case ')':
		return Sexp{}, &ParseError{Offset: start, Message: "unexpected ')'"}
	case '(':
		p.pos++
		list := Sexp{IsList: true, Offset: start, List: []Sexp{}}
		for {
			p.skipSpace()
			if p.pos >= len(p.src) {
				return Sexp{}, &ParseError{Offset: start, Message: "unclosed '('"}
			}
			if p.src[p.pos] == ')' {
				p.pos++
				return list, nil
			}
			child, err := p.parse()
			if err != nil {
				return Sexp{}, err
			}
			list.List = append(list.List, child)
		}
	default:
		for p.pos < len(p.src) {
			r, size := p.peek()
			if r == '(' || r == ')' || r == ';' || unicode.IsSpace(r) {
				break
			}
			p.pos += size
		}
		return Sexp{Atom: p.src[start:p.pos], Offset: start}, nil
	}
}
