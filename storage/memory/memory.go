// Package memory provides an in-process quad store with subject, predicate
// and object indexes. Quads are returned in insertion order.
package memory

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/c360studio/semprov/graph"
	"github.com/c360studio/semprov/storage"
)

// Store is an indexed in-memory quad store. It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	quads   []graph.Quad
	present map[graph.Quad]struct{}

	// Index positions into quads, ascending.
	bySubject   map[graph.NamedNode][]int
	byPredicate map[graph.NamedNode][]int
	byObject    map[graph.Term][]int

	closed bool
}

var _ storage.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		present:     make(map[graph.Quad]struct{}),
		bySubject:   make(map[graph.NamedNode][]int),
		byPredicate: make(map[graph.NamedNode][]int),
		byObject:    make(map[graph.Term][]int),
	}
}

// NewWithQuads creates a store holding quads.
func NewWithQuads(quads ...graph.Quad) (*Store, error) {
	s := New()
	if err := s.Add(context.Background(), quads...); err != nil {
		return nil, err
	}
	return s, nil
}

// Add inserts quads. Duplicates are ignored.
func (s *Store) Add(_ context.Context, quads ...graph.Quad) error {
	for i, q := range quads {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("quad %d: %w", i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	for _, q := range quads {
		if _, ok := s.present[q]; ok {
			continue
		}
		pos := len(s.quads)
		s.quads = append(s.quads, q)
		s.present[q] = struct{}{}
		s.bySubject[q.Subject] = append(s.bySubject[q.Subject], pos)
		s.byPredicate[q.Predicate] = append(s.byPredicate[q.Predicate], pos)
		s.byObject[q.Object] = append(s.byObject[q.Object], pos)
	}
	return nil
}

// Len returns the number of stored quads.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quads)
}

// Match yields the quads matching p in insertion order. The result set is
// snapshotted when iteration starts; later Adds are not observed.
func (s *Store) Match(ctx context.Context, p graph.Pattern) iter.Seq2[graph.Quad, error] {
	return func(yield func(graph.Quad, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(graph.Quad{}, err)
			return
		}
		matched, err := s.snapshot(p)
		if err != nil {
			yield(graph.Quad{}, err)
			return
		}
		for _, q := range matched {
			if !yield(q, nil) {
				return
			}
		}
	}
}

func (s *Store) snapshot(p graph.Pattern) ([]graph.Quad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}

	candidates, indexed := s.candidates(p)
	var matched []graph.Quad
	if !indexed {
		for _, q := range s.quads {
			if p.Matches(q) {
				matched = append(matched, q)
			}
		}
		return matched, nil
	}
	for _, pos := range candidates {
		if q := s.quads[pos]; p.Matches(q) {
			matched = append(matched, q)
		}
	}
	return matched, nil
}

// candidates returns the shortest index list for the bound components of p.
func (s *Store) candidates(p graph.Pattern) ([]int, bool) {
	var (
		best    []int
		indexed bool
	)
	consider := func(list []int) {
		if !indexed || len(list) < len(best) {
			best, indexed = list, true
		}
	}
	if !p.Subject.IsZero() {
		consider(s.bySubject[p.Subject])
	}
	if !p.Predicate.IsZero() {
		consider(s.byPredicate[p.Predicate])
	}
	if p.Object != nil {
		consider(s.byObject[p.Object])
	}
	return best, indexed
}

// Close releases the store. Further calls fail with storage.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.quads = nil
	s.present = nil
	s.bySubject = nil
	s.byPredicate = nil
	s.byObject = nil
	return nil
}
