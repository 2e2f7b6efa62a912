package badger

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semprov/graph"
	"github.com/c360studio/semprov/storage"
	"github.com/c360studio/semprov/storage/storetest"
)

func openInMemory(t *testing.T) storage.Store {
	t.Helper()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, openInMemory)
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Path = dir
	cfg.SyncWrites = false
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Add(context.Background(), storetest.Fixture()...))
	require.NoError(t, s.Close())

	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	assert.ElementsMatch(t, storetest.Fixture(), storetest.Drain(t, reopened, graph.Pattern{}))
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestChooseIndex(t *testing.T) {
	s := graph.MustNamedNode("https://example.org/s")
	p := graph.MustNamedNode("https://example.org/p")
	o := graph.MustNamedNode("https://example.org/o")
	g := graph.MustNamedNode("https://example.org/g")

	tests := []struct {
		name    string
		pattern graph.Pattern
		tag     byte
		prefix  string
	}{
		{"unbound", graph.Pattern{}, 's', "s\x00"},
		{"subject", graph.Pattern{Subject: s}, 's', "s\x00<https://example.org/s>\x00"},
		{"predicate object", graph.Pattern{Predicate: p, Object: o}, 'p',
			"p\x00<https://example.org/p>\x00<https://example.org/o>\x00"},
		{"object subject", graph.Pattern{Subject: s, Object: o}, 'o',
			"o\x00<https://example.org/o>\x00<https://example.org/s>\x00"},
		{"graph", graph.Pattern{Graph: g}, 'g', "g\x00<https://example.org/g>\x00"},
		{"all", graph.Pattern{Subject: s, Predicate: p, Object: o, Graph: g}, 's',
			"s\x00<https://example.org/s>\x00<https://example.org/p>\x00<https://example.org/o>\x00<https://example.org/g>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, prefix := choose(tt.pattern)
			assert.Equal(t, tt.tag, idx.tag)
			assert.Equal(t, tt.prefix, string(prefix))
		})
	}
}

// indexKeys collects every key of idx along with its decoded quad.
func indexKeys(t *testing.T, s *Store, idx index) (keys [][]byte, quads []graph.Quad) {
	t.Helper()
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte{idx.tag, sep}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			q, err := idx.decode(it.Item())
			if err != nil {
				return err
			}
			keys = append(keys, it.Item().KeyCopy(nil))
			quads = append(quads, q)
		}
		return nil
	})
	require.NoError(t, err)
	return keys, quads
}

func TestKeyRoundTrip(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()

	want := append(storetest.Fixture(), storetest.LongQuad())
	require.NoError(t, s.Add(context.Background(), want...))

	for _, idx := range indexes {
		_, got := indexKeys(t, s, idx)
		assert.ElementsMatch(t, want, got, "index %c", idx.tag)
	}
}

func TestLongTermsAreKeyedByDigest(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()

	long := storetest.LongQuad()
	require.Greater(t, len(graph.FormatTerm(long.Object)), 65000)
	require.NoError(t, s.Add(context.Background(), long))

	for _, idx := range indexes {
		keys, _ := indexKeys(t, s, idx)
		require.Len(t, keys, 1)
		assert.Less(t, len(keys[0]), 4*(storage.MaxInlineTerm+1)+2, "index %c", idx.tag)
		assert.Contains(t, string(keys[0]), storage.DigestPrefix)
	}

	parts, value := encode(storetest.Fixture()[0])
	assert.Nil(t, value)
	assert.Equal(t, "<https://example.org/alice>", string(parts[compSubject]))
}

func TestGCRunnerValidation(t *testing.T) {
	_, err := newGCRunner(nil, 0, 0.5, nil)
	assert.Error(t, err)
	_, err = newGCRunner(nil, time.Minute, 1.5, nil)
	assert.Error(t, err)

	r, err := newGCRunner(nil, time.Minute, 0.5, nil)
	require.NoError(t, err)
	assert.NotNil(t, r.logger)
}

func TestGCRunnerStartStop(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Path = dir
	cfg.GCInterval = 10 * time.Millisecond

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NotNil(t, s.gc)
	time.Sleep(30 * time.Millisecond)
	assert.NoError(t, s.Close())
}
