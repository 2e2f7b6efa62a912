package provenance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/semprov/graph"
	"github.com/c360studio/semprov/storage/memory"
	vf "github.com/c360studio/semprov/vocabulary/valueflows"
)

const ex = "https://example.org/"

func node(local string) graph.NamedNode {
	return graph.MustNamedNode(ex + local)
}

func iri(local string) string {
	return ex + local
}

// builder accumulates quads for a test graph.
type builder struct {
	quads []graph.Quad
}

func (b *builder) typed(local string, classes ...string) *builder {
	for _, c := range classes {
		b.quads = append(b.quads, graph.NewQuad(node(local), rdfType, graph.MustNamedNode(c)))
	}
	return b
}

func (b *builder) resource(local string) *builder { return b.typed(local, vf.ClassEconomicResource) }
func (b *builder) process(local string) *builder  { return b.typed(local, vf.ClassProcess) }
func (b *builder) event(local string) *builder    { return b.typed(local, vf.ClassEconomicEvent) }

func (b *builder) edge(subject string, predicate graph.NamedNode, object string) *builder {
	b.quads = append(b.quads, graph.NewQuad(node(subject), predicate, node(object)))
	return b
}

func (b *builder) store(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.NewWithQuads(b.quads...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func collect(t *testing.T, seq func(func(ResultNode, error) bool)) []ResultNode {
	t.Helper()
	out, err := Collect(seq)
	require.NoError(t, err)
	return out
}

func res(st SemanticType, local string, distance int) ResultNode {
	return ResultNode{Type: st, IRI: iri(local), Distance: distance}
}

var bg = context.Background()
