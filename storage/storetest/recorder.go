package storetest

import (
	"context"
	"iter"
	"sync"

	"github.com/c360studio/semprov/graph"
)

// Recorder wraps a Source, records every pattern it is asked for and can
// fail a chosen query.
type Recorder struct {
	Source graph.Source

	// FailAt makes the FailAt-th query (1-based) yield Err. Zero disables it.
	FailAt int
	Err    error

	mu       sync.Mutex
	patterns []graph.Pattern
	open     int
	maxOpen  int
}

// NewRecorder wraps src.
func NewRecorder(src graph.Source) *Recorder {
	return &Recorder{Source: src}
}

// Match records p and delegates to the wrapped source.
func (r *Recorder) Match(ctx context.Context, p graph.Pattern) iter.Seq2[graph.Quad, error] {
	return func(yield func(graph.Quad, error) bool) {
		r.mu.Lock()
		r.patterns = append(r.patterns, p)
		n := len(r.patterns)
		r.open++
		if r.open > r.maxOpen {
			r.maxOpen = r.open
		}
		r.mu.Unlock()

		defer func() {
			r.mu.Lock()
			r.open--
			r.mu.Unlock()
		}()

		if r.FailAt > 0 && n == r.FailAt {
			yield(graph.Quad{}, r.Err)
			return
		}
		for q, err := range r.Source.Match(ctx, p) {
			if !yield(q, err) {
				return
			}
		}
	}
}

// Queries returns the number of Match calls that started iterating.
func (r *Recorder) Queries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.patterns)
}

// Patterns returns a copy of the recorded patterns in call order.
func (r *Recorder) Patterns() []graph.Pattern {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]graph.Pattern(nil), r.patterns...)
}

// MaxOpen returns the largest number of scans that were open at once.
func (r *Recorder) MaxOpen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxOpen
}
