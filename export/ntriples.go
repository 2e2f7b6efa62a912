package export

import (
	"bufio"
	"io"

	"github.com/c360studio/semprov/graph"
)

// NTriplesWriter streams statements as N-Triples, or N-Quads for quads in a
// named graph.
type NTriplesWriter struct {
	w     *bufio.Writer
	count int
}

// NewNTriplesWriter creates a new N-Triples writer on w. Call Flush when done.
func NewNTriplesWriter(w io.Writer) *NTriplesWriter {
	return &NTriplesWriter{w: bufio.NewWriter(w)}
}

// WriteQuad writes q as one line.
func (w *NTriplesWriter) WriteQuad(q graph.Quad) error {
	if _, err := w.w.WriteString(q.String() + "\n"); err != nil {
		return err
	}
	w.count++
	return nil
}

// WriteTypeTriple writes a type assertion triple.
func (w *NTriplesWriter) WriteTypeTriple(subject, class graph.NamedNode) error {
	return w.WriteQuad(graph.NewQuad(subject, rdfType, class))
}

// Count returns the number of lines written.
func (w *NTriplesWriter) Count() int {
	return w.count
}

// Flush writes buffered output.
func (w *NTriplesWriter) Flush() error {
	return w.w.Flush()
}
