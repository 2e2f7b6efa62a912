package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIRI(t *testing.T) {
	tests := []struct {
		iri     string
		wantErr bool
	}{
		{"https://w3id.org/valueflows#Process", false},
		{"urn:uuid:6f1c2f9e-3a5b-4c1d-9e8f-0a1b2c3d4e5f", false},
		{"http://example.org/ünïcode", false},
		{"tag:example.org,2024:lot-7", false},
		{"", true},
		{"no-scheme", true},
		{":missing", true},
		{"1http://example.org", true},
		{"ht tp://example.org", true},
		{"http://example.org/a b", true},
		{"http://example.org/<x>", true},
		{"http://example.org/\"q\"", true},
		{"http://example.org/\x00", true},
		{"http://example.org/{x}", true},
	}

	for _, tt := range tests {
		t.Run(tt.iri, func(t *testing.T) {
			err := ValidateIRI(tt.iri)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidIRI))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNamedNodeEquality(t *testing.T) {
	a := MustNamedNode("https://example.org/a")
	b := MustNamedNode("https://example.org/a")
	c := MustNamedNode("https://example.org/c")

	assert.True(t, a.Equal(b))
	assert.True(t, a == b)
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(NewLiteral("https://example.org/a")))
	assert.False(t, a.Equal(nil))
	assert.Equal(t, "<https://example.org/a>", a.String())
	assert.Equal(t, TermNamedNode, a.TermType())
}

func TestMustNamedNodePanics(t *testing.T) {
	assert.Panics(t, func() { MustNamedNode("not an iri") })
}

func TestLiteralConstructors(t *testing.T) {
	plain := NewLiteral("12")
	assert.Equal(t, XSDString, plain.Datatype().Value())
	assert.Equal(t, "", plain.Language())

	typed := NewTypedLiteral("12", MustNamedNode("http://www.w3.org/2001/XMLSchema#integer"))
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#integer", typed.Datatype().Value())
	assert.False(t, plain.Equal(typed))

	untyped := NewTypedLiteral("12", NamedNode{})
	assert.True(t, plain.Equal(untyped))

	lang := NewLangLiteral("bonjour", "FR")
	assert.Equal(t, "fr", lang.Language())
	assert.Equal(t, RDFLangString, lang.Datatype().Value())
	assert.True(t, lang.Equal(NewLangLiteral("bonjour", "fr")))
	assert.Equal(t, TermLiteral, lang.TermType())
}

func TestResolve(t *testing.T) {
	node := MustNamedNode("https://example.org/lot/1")

	t.Run("raw IRI", func(t *testing.T) {
		got, err := Resolve(IRI("https://example.org/lot/1"))
		require.NoError(t, err)
		assert.Equal(t, node, got)
	})

	t.Run("resolved node", func(t *testing.T) {
		got, err := Resolve(node)
		require.NoError(t, err)
		assert.Equal(t, node, got)
	})

	invalid := map[string]Identifier{
		"malformed string": IRI("lot 1"),
		"empty string":     IRI(""),
		"zero node":        NamedNode{},
		"nil":              nil,
	}
	for name, id := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := Resolve(id)
			assert.ErrorIs(t, err, ErrInvalidIRI)
		})
	}
}

func TestPatternMatches(t *testing.T) {
	s := MustNamedNode("https://example.org/s")
	p := MustNamedNode("https://example.org/p")
	o := MustNamedNode("https://example.org/o")
	g := MustNamedNode("https://example.org/g")
	q := Quad{Subject: s, Predicate: p, Object: o, Graph: g}

	tests := []struct {
		name    string
		pattern Pattern
		want    bool
	}{
		{"all wildcards", Pattern{}, true},
		{"subject bound", Pattern{Subject: s}, true},
		{"subject mismatch", Pattern{Subject: o}, false},
		{"predicate and object", Pattern{Predicate: p, Object: o}, true},
		{"object literal mismatch", Pattern{Object: NewLiteral("https://example.org/o")}, false},
		{"graph bound", Pattern{Graph: g}, true},
		{"graph mismatch", Pattern{Graph: s}, false},
		{"fully bound", Pattern{Subject: s, Predicate: p, Object: o, Graph: g}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pattern.Matches(q))
		})
	}
}

func TestQuadValidate(t *testing.T) {
	s := MustNamedNode("https://example.org/s")
	p := MustNamedNode("https://example.org/p")

	assert.NoError(t, NewQuad(s, p, NewLiteral("x")).Validate())
	assert.Error(t, NewQuad(NamedNode{}, p, s).Validate())
	assert.Error(t, NewQuad(s, NamedNode{}, s).Validate())
	assert.Error(t, NewQuad(s, p, nil).Validate())
	assert.Error(t, NewQuad(s, p, NamedNode{}).Validate())
}
