package storage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/c360studio/semprov/graph"
)

// MaxInlineTerm is the longest encoded term that key-based backends put in a
// key as is. Longer terms are replaced by a digest and the quad is kept in
// the entry value.
const MaxInlineTerm = 512

// DigestPrefix starts every digest key term. Encoded terms start with '<'
// or '"', so the two never collide.
const DigestPrefix = "#"

const valueSep = 0x00

// KeyTerm returns the key form of t and reports whether it is a digest.
func KeyTerm(t graph.Term) (string, bool) {
	encoded := graph.FormatTerm(t)
	if len(encoded) <= MaxInlineTerm {
		return encoded, false
	}
	sum := sha256.Sum256([]byte(encoded))
	return DigestPrefix + hex.EncodeToString(sum[:]), true
}

// IsDigest reports whether a key term was produced from a long term.
func IsDigest(keyTerm []byte) bool {
	return bytes.HasPrefix(keyTerm, []byte(DigestPrefix))
}

// EncodeQuad renders q as subject, predicate, object and graph terms
// separated by NUL bytes. The default graph is empty.
func EncodeQuad(q graph.Quad) []byte {
	var g string
	if !q.Graph.IsZero() {
		g = graph.FormatTerm(q.Graph)
	}
	parts := [][]byte{
		[]byte(graph.FormatTerm(q.Subject)),
		[]byte(graph.FormatTerm(q.Predicate)),
		[]byte(graph.FormatTerm(q.Object)),
		[]byte(g),
	}
	return bytes.Join(parts, []byte{valueSep})
}

// DecodeQuad is the inverse of EncodeQuad.
func DecodeQuad(b []byte) (graph.Quad, error) {
	parts := bytes.Split(b, []byte{valueSep})
	if len(parts) != 4 {
		return graph.Quad{}, fmt.Errorf("%w: quad value has %d fields", graph.ErrInvalidTerm, len(parts))
	}

	var q graph.Quad
	var err error
	if q.Subject, err = parseNode(parts[0]); err != nil {
		return graph.Quad{}, err
	}
	if q.Predicate, err = parseNode(parts[1]); err != nil {
		return graph.Quad{}, err
	}
	if q.Object, err = graph.ParseTerm(string(parts[2])); err != nil {
		return graph.Quad{}, err
	}
	if len(parts[3]) > 0 {
		if q.Graph, err = parseNode(parts[3]); err != nil {
			return graph.Quad{}, err
		}
	}
	return q, nil
}

func parseNode(b []byte) (graph.NamedNode, error) {
	t, err := graph.ParseTerm(string(b))
	if err != nil {
		return graph.NamedNode{}, err
	}
	n, ok := t.(graph.NamedNode)
	if !ok {
		return graph.NamedNode{}, fmt.Errorf("%w: %s is not an IRI", graph.ErrInvalidTerm, b)
	}
	return n, nil
}
