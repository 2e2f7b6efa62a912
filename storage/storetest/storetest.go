// Package storetest provides a conformance suite that every storage backend
// runs, plus a recording Source wrapper for walker tests.
//
// Usage:
//
//	func TestConformance(t *testing.T) {
//	    storetest.Run(t, func(t *testing.T) storage.Store {
//	        return memory.New()
//	    })
//	}
package storetest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semprov/graph"
	"github.com/c360studio/semprov/storage"
)

// Factory opens a fresh, empty store for one subtest. The suite closes it.
type Factory func(t *testing.T) storage.Store

var (
	alice   = graph.MustNamedNode("https://example.org/alice")
	bob     = graph.MustNamedNode("https://example.org/bob")
	carol   = graph.MustNamedNode("https://example.org/carol")
	knows   = graph.MustNamedNode("https://example.org/knows")
	name    = graph.MustNamedNode("https://example.org/name")
	ledger  = graph.MustNamedNode("https://example.org/graph/ledger")
	archive = graph.MustNamedNode("https://example.org/graph/archive")
)

// Fixture is the dataset loaded by the suite.
func Fixture() []graph.Quad {
	return []graph.Quad{
		graph.NewQuad(alice, knows, bob),
		graph.NewQuad(alice, knows, carol),
		graph.NewQuad(bob, knows, carol),
		graph.NewQuad(alice, name, graph.NewLiteral("Alice")),
		graph.NewQuad(bob, name, graph.NewLangLiteral("Robert", "fr")),
		graph.NewQuad(carol, name, graph.NewLiteral("Carol \"C\" \\ Line\nTwo")),
		{Subject: carol, Predicate: knows, Object: alice, Graph: ledger},
		{Subject: carol, Predicate: knows, Object: alice, Graph: archive},
	}
}

// LongQuad carries a literal far larger than any backend key limit.
func LongQuad() graph.Quad {
	note := graph.MustNamedNode("https://example.org/note")
	return graph.Quad{
		Subject:   alice,
		Predicate: note,
		Object:    graph.NewLiteral(strings.Repeat("long literal ", 70000/13+1)),
		Graph:     ledger,
	}
}

// Run executes the conformance suite against stores produced by open.
func Run(t *testing.T, open Factory) {
	t.Helper()

	load := func(t *testing.T) storage.Store {
		t.Helper()
		s := open(t)
		t.Cleanup(func() { _ = s.Close() })
		require.NoError(t, s.Add(context.Background(), Fixture()...))
		return s
	}

	t.Run("match all", func(t *testing.T) {
		s := load(t)
		got := Drain(t, s, graph.Pattern{})
		assert.ElementsMatch(t, Fixture(), got)
	})

	t.Run("stable order", func(t *testing.T) {
		s := load(t)
		first := Drain(t, s, graph.Pattern{Predicate: knows})
		second := Drain(t, s, graph.Pattern{Predicate: knows})
		assert.Equal(t, first, second)
	})

	t.Run("bound components", func(t *testing.T) {
		s := load(t)
		fixture := Fixture()
		patterns := map[string]graph.Pattern{
			"subject":                  {Subject: alice},
			"predicate":                {Predicate: name},
			"object node":              {Object: carol},
			"object literal":           {Object: graph.NewLiteral("Alice")},
			"object lang literal":      {Object: graph.NewLangLiteral("Robert", "fr")},
			"subject predicate":        {Subject: alice, Predicate: knows},
			"predicate object":         {Predicate: knows, Object: carol},
			"subject object":           {Subject: bob, Object: carol},
			"subject predicate object": {Subject: alice, Predicate: knows, Object: bob},
			"graph":                    {Graph: ledger},
			"graph and subject":        {Subject: carol, Graph: archive},
			"no match":                 {Subject: carol, Predicate: knows, Object: bob},
			"literal is not a node":    {Object: graph.NewLiteral("https://example.org/bob")},
		}
		for label, p := range patterns {
			t.Run(label, func(t *testing.T) {
				var want []graph.Quad
				for _, q := range fixture {
					if p.Matches(q) {
						want = append(want, q)
					}
				}
				assert.ElementsMatch(t, want, Drain(t, s, p))
			})
		}
	})

	t.Run("literal fidelity", func(t *testing.T) {
		s := load(t)
		got := Drain(t, s, graph.Pattern{Subject: carol, Predicate: name})
		require.Len(t, got, 1)
		assert.Equal(t, "Carol \"C\" \\ Line\nTwo", got[0].Object.Value())
	})

	t.Run("long literal", func(t *testing.T) {
		s := load(t)
		long := LongQuad()
		require.NoError(t, s.Add(context.Background(), long))
		require.NoError(t, s.Add(context.Background(), long))

		patterns := map[string]graph.Pattern{
			"object":            {Object: long.Object},
			"subject predicate": {Subject: alice, Predicate: long.Predicate},
			"graph":             {Graph: ledger, Subject: alice},
		}
		for label, p := range patterns {
			t.Run(label, func(t *testing.T) {
				assert.Equal(t, []graph.Quad{long}, Drain(t, s, p))
			})
		}
		assert.Len(t, Drain(t, s, graph.Pattern{}), len(Fixture())+1)
	})

	t.Run("duplicates ignored", func(t *testing.T) {
		s := load(t)
		require.NoError(t, s.Add(context.Background(), graph.NewQuad(alice, knows, bob)))
		assert.Len(t, Drain(t, s, graph.Pattern{Subject: alice, Predicate: knows, Object: bob}), 1)
	})

	t.Run("invalid quad rejected", func(t *testing.T) {
		s := open(t)
		t.Cleanup(func() { _ = s.Close() })
		err := s.Add(context.Background(), graph.NewQuad(alice, graph.NamedNode{}, bob))
		assert.Error(t, err)
	})

	t.Run("early stop", func(t *testing.T) {
		s := load(t)
		n := 0
		for _, err := range s.Match(context.Background(), graph.Pattern{}) {
			require.NoError(t, err)
			n++
			break
		}
		assert.Equal(t, 1, n)
		assert.Len(t, Drain(t, s, graph.Pattern{}), len(Fixture()))
	})

	t.Run("canceled context", func(t *testing.T) {
		s := load(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		var lastErr error
		for _, err := range s.Match(ctx, graph.Pattern{}) {
			lastErr = err
		}
		assert.ErrorIs(t, lastErr, context.Canceled)
	})

	t.Run("closed store", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Close())
		var lastErr error
		for _, err := range s.Match(context.Background(), graph.Pattern{}) {
			lastErr = err
		}
		assert.True(t, errors.Is(lastErr, storage.ErrClosed), "got %v", lastErr)
		assert.ErrorIs(t, s.Add(context.Background(), Fixture()...), storage.ErrClosed)
	})
}

// Drain collects a whole Match, failing the test on error.
func Drain(t *testing.T, src graph.Source, p graph.Pattern) []graph.Quad {
	t.Helper()
	var out []graph.Quad
	for q, err := range src.Match(context.Background(), p) {
		require.NoError(t, err)
		out = append(out, q)
	}
	return out
}
