package graph

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FormatTerm encodes t in N-Triples syntax. The encoding never contains
// control characters, so it is safe to use inside index keys.
func FormatTerm(t Term) string {
	switch v := t.(type) {
	case NamedNode:
		return "<" + v.iri + ">"
	case Literal:
		var sb strings.Builder
		sb.WriteByte('"')
		writeEscaped(&sb, v.lexical)
		sb.WriteByte('"')
		switch {
		case v.language != "":
			sb.WriteString("@" + v.language)
		case v.datatype.iri != "" && v.datatype.iri != XSDString:
			sb.WriteString("^^<" + v.datatype.iri + ">")
		}
		return sb.String()
	default:
		return ""
	}
}

func writeEscaped(sb *strings.Builder, s string) {
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(sb, `\u%04X`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
}

// ParseTerm decodes a single N-Triples encoded IRI or literal.
func ParseTerm(s string) (Term, error) {
	t, rest, err := scanTerm(s)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("%w: trailing input %q", ErrInvalidTerm, rest)
	}
	return t, nil
}

// scanTerm decodes the IRI or literal at the start of s (after optional
// blanks) and returns the unconsumed remainder.
func scanTerm(s string) (Term, string, error) {
	s = strings.TrimLeft(s, " \t")
	if s == "" {
		return nil, "", fmt.Errorf("%w: empty input", ErrInvalidTerm)
	}
	switch s[0] {
	case '<':
		n, rest, err := scanIRIRef(s)
		if err != nil {
			return nil, "", err
		}
		return n, rest, nil
	case '"':
		return scanLiteral(s)
	default:
		return nil, "", fmt.Errorf("%w: unexpected %q", ErrInvalidTerm, firstRune(s))
	}
}

func scanIRIRef(s string) (NamedNode, string, error) {
	var sb strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		switch c {
		case '>':
			n, err := NewNamedNode(sb.String())
			if err != nil {
				return NamedNode{}, "", err
			}
			return n, s[i+1:], nil
		case '\\':
			r, width, err := scanUCHAR(s[i:])
			if err != nil {
				return NamedNode{}, "", err
			}
			sb.WriteRune(r)
			i += width
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return NamedNode{}, "", fmt.Errorf("%w: unterminated IRI", ErrInvalidTerm)
}

func scanLiteral(s string) (Term, string, error) {
	var sb strings.Builder
	i := 1
	closed := false
	for i < len(s) && !closed {
		c := s[i]
		switch c {
		case '"':
			closed = true
			i++
		case '\\':
			if i+1 >= len(s) {
				return nil, "", fmt.Errorf("%w: dangling escape", ErrInvalidTerm)
			}
			switch s[i+1] {
			case 't':
				sb.WriteByte('\t')
			case 'b':
				sb.WriteByte('\b')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 'f':
				sb.WriteByte('\f')
			case '"':
				sb.WriteByte('"')
			case '\'':
				sb.WriteByte('\'')
			case '\\':
				sb.WriteByte('\\')
			case 'u', 'U':
				r, width, err := scanUCHAR(s[i:])
				if err != nil {
					return nil, "", err
				}
				sb.WriteRune(r)
				i += width
				continue
			default:
				return nil, "", fmt.Errorf("%w: unknown escape \\%c", ErrInvalidTerm, s[i+1])
			}
			i += 2
		case '\n', '\r':
			return nil, "", fmt.Errorf("%w: newline in literal", ErrInvalidTerm)
		default:
			sb.WriteByte(c)
			i++
		}
	}
	if !closed {
		return nil, "", fmt.Errorf("%w: unterminated literal", ErrInvalidTerm)
	}
	lexical := sb.String()
	rest := s[i:]

	switch {
	case strings.HasPrefix(rest, "@"):
		end := 1
		for end < len(rest) && isLangChar(rest[end]) {
			end++
		}
		lang := rest[1:end]
		if !validLangTag(lang) {
			return nil, "", fmt.Errorf("%w: bad language tag %q", ErrInvalidTerm, lang)
		}
		return NewLangLiteral(lexical, lang), rest[end:], nil
	case strings.HasPrefix(rest, "^^"):
		if !strings.HasPrefix(rest[2:], "<") {
			return nil, "", fmt.Errorf("%w: datatype must be an IRI", ErrInvalidTerm)
		}
		dt, after, err := scanIRIRef(rest[2:])
		if err != nil {
			return nil, "", err
		}
		return NewTypedLiteral(lexical, dt), after, nil
	default:
		return NewLiteral(lexical), rest, nil
	}
}

// scanUCHAR decodes a \uXXXX or \UXXXXXXXX escape at the start of s.
func scanUCHAR(s string) (rune, int, error) {
	if len(s) < 2 {
		return 0, 0, fmt.Errorf("%w: dangling escape", ErrInvalidTerm)
	}
	var digits int
	switch s[1] {
	case 'u':
		digits = 4
	case 'U':
		digits = 8
	default:
		return 0, 0, fmt.Errorf("%w: unknown escape \\%c", ErrInvalidTerm, s[1])
	}
	if len(s) < 2+digits {
		return 0, 0, fmt.Errorf("%w: short unicode escape", ErrInvalidTerm)
	}
	v, err := strconv.ParseUint(s[2:2+digits], 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad unicode escape %q", ErrInvalidTerm, s[:2+digits])
	}
	r := rune(v)
	if !utf8.ValidRune(r) {
		return 0, 0, fmt.Errorf("%w: invalid code point %q", ErrInvalidTerm, s[:2+digits])
	}
	return r, 2 + digits, nil
}

func isLangChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-'
}

func validLangTag(tag string) bool {
	if tag == "" {
		return false
	}
	for i, part := range strings.Split(tag, "-") {
		if part == "" {
			return false
		}
		for _, c := range []byte(part) {
			isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
			if i == 0 && !isAlpha {
				return false
			}
		}
	}
	return true
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
