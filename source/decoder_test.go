package source

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semprov/graph"
)

func node(iri string) graph.NamedNode {
	return graph.MustNamedNode(iri)
}

// sequentialIDs returns a generator producing predictable UUID-shaped ids.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
	}
}

func decodeAll(t *testing.T, doc string, syntax Syntax) []graph.Quad {
	t.Helper()
	quads, err := NewDecoder(strings.NewReader(doc), syntax, WithIDGenerator(sequentialIDs())).DecodeAll()
	require.NoError(t, err)
	return quads
}

func TestDecodeNTriples(t *testing.T) {
	doc := `# ValueFlows sample
<https://example.org/bake> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://w3id.org/valueflows#Process> .

<https://example.org/flour> <https://example.org/label> "Flour \"00\"\n\u00e9" .
<https://example.org/flour> <https://example.org/label> "Mehl"@de-AT .
<https://example.org/flour> <https://example.org/weight> "2"^^<http://www.w3.org/2001/XMLSchema#integer> . # trailing comment
<https://example.org/flour><https://example.org/tight>"x".
`
	got := decodeAll(t, doc, NTriples)
	require.Len(t, got, 5)

	assert.Equal(t, graph.NewQuad(
		node("https://example.org/bake"),
		node("http://www.w3.org/1999/02/22-rdf-syntax-ns#type"),
		node("https://w3id.org/valueflows#Process"),
	), got[0])
	assert.Equal(t, graph.NewLiteral("Flour \"00\"\né"), got[1].Object)
	assert.Equal(t, graph.NewLangLiteral("Mehl", "de-at"), got[2].Object)
	assert.Equal(t, graph.NewTypedLiteral("2", node("http://www.w3.org/2001/XMLSchema#integer")), got[3].Object)
	assert.Equal(t, graph.NewLiteral("x"), got[4].Object)
	for _, q := range got {
		assert.True(t, q.Graph.IsZero())
	}
}

func TestDecodeLiteralForms(t *testing.T) {
	doc := `<https://example.org/s> <https://example.org/p> "plain" .
<https://example.org/s> <https://example.org/p> "typed"^^<http://www.w3.org/2001/XMLSchema#string> .
<https://example.org/s> <https://example.org/p> "Brot"@DE .
`
	got := decodeAll(t, doc, NTriples)
	require.Len(t, got, 3)
	assert.Equal(t, graph.NewLiteral("plain"), got[0].Object)
	assert.Equal(t, graph.NewLiteral("typed"), got[1].Object)
	assert.Equal(t, graph.NewLangLiteral("Brot", "de"), got[2].Object)
}

func TestDecodeNQuads(t *testing.T) {
	doc := `<https://example.org/s> <https://example.org/p> <https://example.org/o> <https://example.org/g> .
<https://example.org/s> <https://example.org/p> "lit" .
_:b <https://example.org/p> "in blank graph" _:g .
`
	got := decodeAll(t, doc, NQuads)
	require.Len(t, got, 3)
	assert.Equal(t, node("https://example.org/g"), got[0].Graph)
	assert.True(t, got[1].Graph.IsZero())
	assert.True(t, strings.HasPrefix(got[2].Graph.Value(), "urn:uuid:"))
	assert.NotEqual(t, got[2].Subject, got[2].Graph)
}

func TestBlankNodesAreSkolemized(t *testing.T) {
	doc := `_:e1 <https://example.org/p> _:r1 .
_:e1 <https://example.org/q> _:r2 .
`
	got := decodeAll(t, doc, NTriples)
	require.Len(t, got, 2)

	assert.Equal(t, "urn:uuid:00000000-0000-0000-0000-000000000001", got[0].Subject.Value())
	assert.Equal(t, got[0].Subject, got[1].Subject)
	assert.Equal(t, "urn:uuid:00000000-0000-0000-0000-000000000003", got[1].Object.Value())
	assert.NotEqual(t, got[0].Object, got[1].Object)
}

func TestBlankNodesUseRandomUUIDs(t *testing.T) {
	doc := "_:a <https://example.org/p> _:a .\n"
	first, err := NewDecoder(strings.NewReader(doc), NTriples).DecodeAll()
	require.NoError(t, err)
	second, err := NewDecoder(strings.NewReader(doc), NTriples).DecodeAll()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first[0].Subject.Value(), "urn:uuid:"))
	assert.Equal(t, first[0].Subject, first[0].Object)
	// Labels are scoped to one document.
	assert.NotEqual(t, first[0].Subject, second[0].Subject)
}

func TestDecodeSyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		syntax Syntax
		line   int
	}{
		{"missing dot", "<https://example.org/s> <https://example.org/p> <https://example.org/o>", NTriples, 1},
		{"graph in triples", "<https://example.org/s> <https://example.org/p> <https://example.org/o> <https://example.org/g> .", NTriples, 1},
		{"literal subject", `"s" <https://example.org/p> <https://example.org/o> .`, NTriples, 1},
		{"blank predicate", "<https://example.org/s> _:p <https://example.org/o> .", NTriples, 1},
		{"literal graph", `<https://example.org/s> <https://example.org/p> <https://example.org/o> "g" .`, NQuads, 1},
		{"relative iri", "<s> <https://example.org/p> <https://example.org/o> .", NTriples, 1},
		{"bad escape", "<https://example.org/s> <https://example.org/p> \"\\q\" .", NTriples, 1},
		{"junk after dot", "<https://example.org/s> <https://example.org/p> <https://example.org/o> . junk", NTriples, 1},
		{"empty label", "_: <https://example.org/p> <https://example.org/o> .", NTriples, 1},
		{"two statements", "<https://example.org/s> <https://example.org/p> <https://example.org/o> . <https://example.org/s> <https://example.org/p> <https://example.org/o2> .", NTriples, 1},
		{"relative datatype", `<https://example.org/s> <https://example.org/p> "1"^^<integer> .`, NTriples, 1},
		{"later line", "# ok\n\n<https://example.org/s> <https://example.org/p> <https://example.org/o> .\n<broken", NTriples, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(strings.NewReader(tt.doc), tt.syntax).DecodeAll()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)

			var se *SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.line, se.Line)
		})
	}
}

func TestDecodeReturnsEOF(t *testing.T) {
	d := NewDecoder(strings.NewReader("\n# only comments\n"), NTriples)
	_, err := d.Decode()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecodeRoundTripsFormattedQuads(t *testing.T) {
	quads := []graph.Quad{
		graph.NewQuad(node("https://example.org/s"), node("https://example.org/p"), graph.NewLiteral("tab\there \\ \"q\"")),
		{Subject: node("https://example.org/s"), Predicate: node("https://example.org/p"), Object: node("https://example.org/o"), Graph: node("https://example.org/g")},
	}
	var sb strings.Builder
	for _, q := range quads {
		sb.WriteString(q.String() + "\n")
	}
	assert.Equal(t, quads, decodeAll(t, sb.String(), NQuads))
}
