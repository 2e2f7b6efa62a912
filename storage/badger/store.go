package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/c360studio/semprov/graph"
	"github.com/c360studio/semprov/storage"
)

const sep = 0x00

// component positions inside a Quad.
const (
	compSubject = iota
	compPredicate
	compObject
	compGraph
)

type index struct {
	tag   byte
	order [4]int
}

// indexes in preference order for ties.
var indexes = []index{
	{'s', [4]int{compSubject, compPredicate, compObject, compGraph}},
	{'p', [4]int{compPredicate, compObject, compSubject, compGraph}},
	{'o', [4]int{compObject, compSubject, compPredicate, compGraph}},
	{'g', [4]int{compGraph, compSubject, compPredicate, compObject}},
}

// Store is a quad store backed by BadgerDB. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	gc     *gcRunner
	closed atomic.Bool
}

var _ storage.Store = (*Store)(nil)

// Open opens or creates a store with cfg.
func Open(cfg Config) (*Store, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		runner, err := newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create GC runner: %w", err)
		}
		s.gc = runner
		runner.start()
	}
	return s, nil
}

// Add writes quads under every index. Rewriting an existing quad sets the
// same keys again, so duplicates are ignored. Terms longer than
// storage.MaxInlineTerm are keyed by digest and the whole quad is stored as
// the value of each key.
func (s *Store) Add(ctx context.Context, quads ...graph.Quad) error {
	for i, q := range quads {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("quad %d: %w", i, err)
		}
	}
	if s.closed.Load() {
		return storage.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, q := range quads {
		parts, value := encode(q)
		for _, idx := range indexes {
			if err := wb.Set(idx.key(parts), value); err != nil {
				return s.wrap(fmt.Errorf("write quad: %w", err))
			}
		}
	}
	if err := wb.Flush(); err != nil {
		return s.wrap(fmt.Errorf("flush quads: %w", err))
	}
	return nil
}

// Match yields the quads matching p in index key order.
func (s *Store) Match(ctx context.Context, p graph.Pattern) iter.Seq2[graph.Quad, error] {
	return func(yield func(graph.Quad, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(graph.Quad{}, err)
			return
		}
		if s.closed.Load() {
			yield(graph.Quad{}, storage.ErrClosed)
			return
		}

		idx, prefix := choose(p)
		stopped := false
		err := s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				q, err := idx.decode(it.Item())
				if err != nil {
					return err
				}
				if !p.Matches(q) {
					continue
				}
				if !yield(q, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(graph.Quad{}, s.wrap(err))
		}
	}
}

// Close stops garbage collection and closes the database. Later calls are
// no-ops.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.gc != nil {
		s.gc.stop()
	}
	return s.db.Close()
}

func (s *Store) wrap(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return fmt.Errorf("%w: %w", storage.ErrClosed, err)
	}
	return err
}

// encode renders the four key components of q, indexed by comp* constants.
// The value is nil unless a component had to be replaced by a digest.
func encode(q graph.Quad) ([4][]byte, []byte) {
	var parts [4][]byte
	var hashed bool
	put := func(c int, t graph.Term) {
		k, digest := storage.KeyTerm(t)
		parts[c] = []byte(k)
		hashed = hashed || digest
	}
	put(compSubject, q.Subject)
	put(compPredicate, q.Predicate)
	put(compObject, q.Object)
	if !q.Graph.IsZero() {
		put(compGraph, q.Graph)
	}
	if hashed {
		return parts, storage.EncodeQuad(q)
	}
	return parts, nil
}

func (idx index) key(parts [4][]byte) []byte {
	key := []byte{idx.tag, sep}
	for i, c := range idx.order {
		if i > 0 {
			key = append(key, sep)
		}
		key = append(key, parts[c]...)
	}
	return key
}

func (idx index) decode(item *badger.Item) (graph.Quad, error) {
	key := item.Key()
	fields := bytes.Split(key[2:], []byte{sep})
	if len(fields) != 4 {
		return graph.Quad{}, fmt.Errorf("corrupt index key %q", key)
	}

	var parts [4][]byte
	for i, c := range idx.order {
		if storage.IsDigest(fields[i]) {
			return decodeValue(item)
		}
		parts[c] = fields[i]
	}

	subject, err := parseNode(parts[compSubject])
	if err != nil {
		return graph.Quad{}, err
	}
	predicate, err := parseNode(parts[compPredicate])
	if err != nil {
		return graph.Quad{}, err
	}
	object, err := graph.ParseTerm(string(parts[compObject]))
	if err != nil {
		return graph.Quad{}, fmt.Errorf("decode object: %w", err)
	}
	q := graph.Quad{Subject: subject, Predicate: predicate, Object: object}
	if len(parts[compGraph]) > 0 {
		if q.Graph, err = parseNode(parts[compGraph]); err != nil {
			return graph.Quad{}, err
		}
	}
	return q, nil
}

func decodeValue(item *badger.Item) (graph.Quad, error) {
	value, err := item.ValueCopy(nil)
	if err != nil {
		return graph.Quad{}, fmt.Errorf("read quad value: %w", err)
	}
	q, err := storage.DecodeQuad(value)
	if err != nil {
		return graph.Quad{}, fmt.Errorf("decode quad value: %w", err)
	}
	return q, nil
}

func parseNode(b []byte) (graph.NamedNode, error) {
	t, err := graph.ParseTerm(string(b))
	if err != nil {
		return graph.NamedNode{}, fmt.Errorf("decode node: %w", err)
	}
	n, ok := t.(graph.NamedNode)
	if !ok {
		return graph.NamedNode{}, fmt.Errorf("decode node: %s is not an IRI", b)
	}
	return n, nil
}

// choose picks the index with the longest run of bound leading components
// and returns the key prefix for that run.
func choose(p graph.Pattern) (index, []byte) {
	var bound [4][]byte
	var isBound [4]bool
	set := func(c int, t graph.Term) {
		k, _ := storage.KeyTerm(t)
		bound[c], isBound[c] = []byte(k), true
	}
	if !p.Subject.IsZero() {
		set(compSubject, p.Subject)
	}
	if !p.Predicate.IsZero() {
		set(compPredicate, p.Predicate)
	}
	if p.Object != nil {
		set(compObject, p.Object)
	}
	if !p.Graph.IsZero() {
		set(compGraph, p.Graph)
	}

	best, bestRun := indexes[0], -1
	for _, idx := range indexes {
		run := 0
		for _, c := range idx.order {
			if !isBound[c] {
				break
			}
			run++
		}
		if run > bestRun {
			best, bestRun = idx, run
		}
	}

	prefix := []byte{best.tag, sep}
	for i, c := range best.order[:bestRun] {
		prefix = append(prefix, bound[c]...)
		if i < len(best.order)-1 {
			prefix = append(prefix, sep)
		}
	}
	return best, prefix
}
