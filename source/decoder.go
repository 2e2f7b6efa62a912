// Package source reads RDF statements from N-Triples and N-Quads documents
// and loads them into a quad store.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/knakk/rdf"

	"github.com/c360studio/semprov/graph"
)

const maxLineSize = 1 << 20

// Syntax selects the statement grammar.
type Syntax int

const (
	// NTriples statements have no graph term.
	NTriples Syntax = iota
	// NQuads statements may end with a graph term.
	NQuads
)

func (s Syntax) String() string {
	if s == NQuads {
		return "N-Quads"
	}
	return "N-Triples"
}

// Decoder reads statements one line at a time so errors carry the line
// number. Blank nodes are replaced by urn:uuid IRIs that are stable per label
// within one Decoder.
type Decoder struct {
	scanner *bufio.Scanner
	syntax  Syntax
	line    int
	blanks  map[string]graph.NamedNode
	newID   func() string
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithIDGenerator replaces the random UUID source used for blank nodes.
func WithIDGenerator(fn func() string) DecoderOption {
	return func(d *Decoder) {
		d.newID = fn
	}
}

// NewDecoder reads statements in syntax from r.
func NewDecoder(r io.Reader, syntax Syntax, opts ...DecoderOption) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	d := &Decoder{
		scanner: scanner,
		syntax:  syntax,
		blanks:  make(map[string]graph.NamedNode),
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode returns the next statement, or io.EOF after the last one.
func (d *Decoder) Decode() (graph.Quad, error) {
	for d.scanner.Scan() {
		d.line++
		line := strings.TrimSpace(d.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		q, err := d.parseLine(line)
		if err != nil {
			return graph.Quad{}, &SyntaxError{Line: d.line, Err: err}
		}
		return q, nil
	}
	if err := d.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return graph.Quad{}, &SyntaxError{Line: d.line + 1, Err: err}
		}
		return graph.Quad{}, fmt.Errorf("read statements: %w", err)
	}
	return graph.Quad{}, io.EOF
}

// DecodeAll reads every remaining statement.
func (d *Decoder) DecodeAll() ([]graph.Quad, error) {
	var quads []graph.Quad
	for {
		q, err := d.Decode()
		if errors.Is(err, io.EOF) {
			return quads, nil
		}
		if err != nil {
			return quads, err
		}
		quads = append(quads, q)
	}
}

// parseLine decodes exactly one statement with the N-Triples or N-Quads
// grammar and maps its terms onto graph terms.
func (d *Decoder) parseLine(line string) (graph.Quad, error) {
	r := strings.NewReader(line + "\n")

	var stmt rdf.Quad
	var next func() error
	if d.syntax == NQuads {
		dec := rdf.NewQuadDecoder(r, rdf.NQuads)
		var err error
		if stmt, err = dec.Decode(); err != nil {
			return graph.Quad{}, err
		}
		next = func() error { _, err := dec.Decode(); return err }
	} else {
		dec := rdf.NewTripleDecoder(r, rdf.NTriples)
		triple, err := dec.Decode()
		if err != nil {
			return graph.Quad{}, err
		}
		stmt = rdf.Quad{Triple: triple}
		next = func() error { _, err := dec.Decode(); return err }
	}
	if err := next(); !errors.Is(err, io.EOF) {
		if err == nil {
			return graph.Quad{}, errors.New("more than one statement on the line")
		}
		return graph.Quad{}, err
	}

	var q graph.Quad
	var err error
	if q.Subject, err = d.node(stmt.Subj); err != nil {
		return q, fmt.Errorf("subject: %w", err)
	}
	iri, ok := stmt.Pred.(rdf.IRI)
	if !ok {
		return graph.Quad{}, fmt.Errorf("predicate: %s is not an IRI", stmt.Pred.Serialize(rdf.NTriples))
	}
	if q.Predicate, err = graph.NewNamedNode(iri.String()); err != nil {
		return graph.Quad{}, fmt.Errorf("predicate: %w", err)
	}
	if q.Object, err = d.term(stmt.Obj); err != nil {
		return graph.Quad{}, fmt.Errorf("object: %w", err)
	}
	if stmt.Ctx != nil && !isDefaultGraph(stmt.Ctx) {
		if q.Graph, err = d.node(stmt.Ctx); err != nil {
			return graph.Quad{}, fmt.Errorf("graph: %w", err)
		}
	}
	return q, nil
}

func (d *Decoder) node(t rdf.Term) (graph.NamedNode, error) {
	term, err := d.term(t)
	if err != nil {
		return graph.NamedNode{}, err
	}
	n, ok := term.(graph.NamedNode)
	if !ok {
		return graph.NamedNode{}, errors.New("literal not allowed here")
	}
	return n, nil
}

func (d *Decoder) term(t rdf.Term) (graph.Term, error) {
	switch v := t.(type) {
	case rdf.IRI:
		return graph.NewNamedNode(v.String())
	case rdf.Blank:
		return d.skolemize(v.String()), nil
	case rdf.Literal:
		if lang := v.Lang(); lang != "" {
			return graph.NewLangLiteral(v.String(), lang), nil
		}
		datatype := v.DataType.String()
		if datatype == "" || datatype == graph.XSDString {
			return graph.NewLiteral(v.String()), nil
		}
		dt, err := graph.NewNamedNode(datatype)
		if err != nil {
			return nil, fmt.Errorf("datatype: %w", err)
		}
		return graph.NewTypedLiteral(v.String(), dt), nil
	default:
		return nil, fmt.Errorf("unsupported term %T", t)
	}
}

func (d *Decoder) skolemize(label string) graph.NamedNode {
	if n, ok := d.blanks[label]; ok {
		return n
	}
	n := graph.MustNamedNode("urn:uuid:" + d.newID())
	d.blanks[label] = n
	return n
}

// defaultContext is the graph term the quad decoder reports for statements
// without one. It is empty when the decoder leaves the graph unset.
var defaultContext = sync.OnceValue(func() string {
	dec := rdf.NewQuadDecoder(strings.NewReader("<urn:x:s> <urn:x:p> <urn:x:o> .\n"), rdf.NQuads)
	q, err := dec.Decode()
	if err != nil || q.Ctx == nil {
		return ""
	}
	return q.Ctx.Serialize(rdf.NQuads)
})

func isDefaultGraph(ctx rdf.Term) bool {
	sentinel := defaultContext()
	return sentinel != "" && ctx.Serialize(rdf.NQuads) == sentinel
}
