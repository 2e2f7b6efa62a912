package graph

import "fmt"

// Identifier names the node a walk starts from. It is either a raw IRI
// string or an already resolved NamedNode.
type Identifier interface {
	identifier()
}

// IRI is an unresolved identifier.
type IRI string

func (IRI) identifier()       {}
func (NamedNode) identifier() {}

// Resolve normalizes id to a NamedNode. Malformed identifiers fail with
// ErrInvalidIRI.
func Resolve(id Identifier) (NamedNode, error) {
	switch v := id.(type) {
	case NamedNode:
		if v.IsZero() {
			return NamedNode{}, fmt.Errorf("%w: zero node", ErrInvalidIRI)
		}
		return v, nil
	case IRI:
		return NewNamedNode(string(v))
	case nil:
		return NamedNode{}, fmt.Errorf("%w: nil identifier", ErrInvalidIRI)
	default:
		return NamedNode{}, fmt.Errorf("%w: unsupported identifier %T", ErrInvalidIRI, id)
	}
}
