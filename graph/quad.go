package graph

import (
	"context"
	"errors"
	"iter"
)

// Quad is a statement in a named graph. A zero Graph is the default graph.
type Quad struct {
	Subject   NamedNode
	Predicate NamedNode
	Object    Term
	Graph     NamedNode
}

// NewQuad builds a default-graph quad.
func NewQuad(subject, predicate NamedNode, object Term) Quad {
	return Quad{Subject: subject, Predicate: predicate, Object: object}
}

// Validate checks that the quad can be stored.
func (q Quad) Validate() error {
	if q.Subject.IsZero() {
		return errors.New("subject is required")
	}
	if q.Predicate.IsZero() {
		return errors.New("predicate is required")
	}
	if q.Object == nil {
		return errors.New("object is required")
	}
	if n, ok := q.Object.(NamedNode); ok && n.IsZero() {
		return errors.New("object is required")
	}
	return nil
}

// String renders the quad as an N-Quads line without the trailing newline.
func (q Quad) String() string {
	s := FormatTerm(q.Subject) + " " + FormatTerm(q.Predicate) + " " + FormatTerm(q.Object)
	if !q.Graph.IsZero() {
		s += " " + FormatTerm(q.Graph)
	}
	return s + " ."
}

// Pattern selects quads. Zero nodes and a nil Object are wildcards.
type Pattern struct {
	Subject   NamedNode
	Predicate NamedNode
	Object    Term
	Graph     NamedNode
}

// Matches reports whether q satisfies every bound component of p.
func (p Pattern) Matches(q Quad) bool {
	if !p.Subject.IsZero() && p.Subject != q.Subject {
		return false
	}
	if !p.Predicate.IsZero() && p.Predicate != q.Predicate {
		return false
	}
	if p.Object != nil && !p.Object.Equal(q.Object) {
		return false
	}
	if !p.Graph.IsZero() && p.Graph != q.Graph {
		return false
	}
	return true
}

// Source is a read-only quad store that can be queried by pattern.
//
// Match yields every quad matching p. An error is yielded at most once, as
// the final element. Implementations must stop work when the consumer stops
// pulling.
type Source interface {
	Match(ctx context.Context, p Pattern) iter.Seq2[Quad, error]
}
