package graph

import (
	"fmt"
	"strings"
)

// TermType discriminates the concrete kind of a Term.
type TermType int

const (
	TermNamedNode TermType = iota + 1
	TermLiteral
)

func (t TermType) String() string {
	switch t {
	case TermNamedNode:
		return "NamedNode"
	case TermLiteral:
		return "Literal"
	default:
		return "Unknown"
	}
}

// Term is an RDF term that can appear in a quad.
type Term interface {
	TermType() TermType
	Value() string
	Equal(other Term) bool
	String() string
}

// XSDString is the datatype of plain literals.
const XSDString = "http://www.w3.org/2001/XMLSchema#string"

// RDFLangString is the datatype of language-tagged literals.
const RDFLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"

// NamedNode is a node identified by an IRI. The zero value is not a valid
// node; in a Pattern it acts as a wildcard.
type NamedNode struct {
	iri string
}

// NewNamedNode validates iri and returns a node for it.
func NewNamedNode(iri string) (NamedNode, error) {
	if err := ValidateIRI(iri); err != nil {
		return NamedNode{}, err
	}
	return NamedNode{iri: iri}, nil
}

// MustNamedNode is like NewNamedNode but panics on an invalid IRI. Use it for
// vocabulary constants.
func MustNamedNode(iri string) NamedNode {
	n, err := NewNamedNode(iri)
	if err != nil {
		panic(err)
	}
	return n
}

func (n NamedNode) TermType() TermType { return TermNamedNode }
func (n NamedNode) Value() string      { return n.iri }
func (n NamedNode) String() string     { return "<" + n.iri + ">" }

// IsZero reports whether n is the zero (wildcard) node.
func (n NamedNode) IsZero() bool { return n.iri == "" }

// Equal reports whether other is a named node with the same IRI.
func (n NamedNode) Equal(other Term) bool {
	o, ok := other.(NamedNode)
	return ok && o.iri == n.iri
}

// Literal is a lexical value with a datatype and an optional language tag.
type Literal struct {
	lexical  string
	datatype NamedNode
	language string
}

// NewLiteral returns an xsd:string literal.
func NewLiteral(value string) Literal {
	return Literal{lexical: value, datatype: NamedNode{iri: XSDString}}
}

// NewTypedLiteral returns a literal with the given datatype.
func NewTypedLiteral(value string, datatype NamedNode) Literal {
	if datatype.IsZero() {
		return NewLiteral(value)
	}
	return Literal{lexical: value, datatype: datatype}
}

// NewLangLiteral returns a language-tagged literal. Tags compare
// case-insensitively and are stored lower-cased.
func NewLangLiteral(value, language string) Literal {
	return Literal{
		lexical:  value,
		datatype: NamedNode{iri: RDFLangString},
		language: strings.ToLower(language),
	}
}

func (l Literal) TermType() TermType  { return TermLiteral }
func (l Literal) Value() string       { return l.lexical }
func (l Literal) Datatype() NamedNode { return l.datatype }
func (l Literal) Language() string    { return l.language }

// Equal reports whether other is an identical literal.
func (l Literal) Equal(other Term) bool {
	o, ok := other.(Literal)
	return ok && o == l
}

func (l Literal) String() string {
	return FormatTerm(l)
}

// ValidateIRI checks that s is an absolute IRI without characters that are
// forbidden in IRI references.
func ValidateIRI(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidIRI)
	}
	colon := strings.IndexByte(s, ':')
	if colon <= 0 {
		return fmt.Errorf("%w: missing scheme in %q", ErrInvalidIRI, s)
	}
	for i, r := range s[:colon] {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 && !isAlpha {
			return fmt.Errorf("%w: scheme must start with a letter in %q", ErrInvalidIRI, s)
		}
		if !isAlpha && !(r >= '0' && r <= '9') && r != '+' && r != '-' && r != '.' {
			return fmt.Errorf("%w: bad scheme character %q in %q", ErrInvalidIRI, r, s)
		}
	}
	for _, r := range s {
		if r <= 0x20 || r == 0x7f || strings.ContainsRune("<>\"{}|^`\\", r) {
			return fmt.Errorf("%w: illegal character %q in %q", ErrInvalidIRI, r, s)
		}
	}
	return nil
}
