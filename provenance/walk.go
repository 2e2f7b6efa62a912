package provenance

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/c360studio/semprov/graph"
)

// Track walks downstream from start. It is Walk with Forward.
func Track(ctx context.Context, src graph.Source, start graph.Identifier, opts ...Option) iter.Seq2[ResultNode, error] {
	return Walk(ctx, src, start, Forward, opts...)
}

// Trace walks upstream from start. It is Walk with Backward.
func Trace(ctx context.Context, src graph.Source, start graph.Identifier, opts ...Option) iter.Seq2[ResultNode, error] {
	return Walk(ctx, src, start, Backward, opts...)
}

// Walk returns the nodes reachable from start in direction dir, depth first,
// in the order src returns neighbours.
//
// Nothing runs until the sequence is ranged over, and every range starts a
// fresh walk. An invalid start identifier is yielded as an error wrapping
// graph.ErrInvalidIRI before src is queried. A store error is yielded
// unchanged and ends the sequence.
func Walk(ctx context.Context, src graph.Source, start graph.Identifier, dir Direction, opts ...Option) iter.Seq2[ResultNode, error] {
	o := newOptions(opts)
	return func(yield func(ResultNode, error) bool) {
		root, err := graph.Resolve(start)
		if err != nil {
			yield(ResultNode{}, fmt.Errorf("resolve start node: %w", err))
			return
		}

		w := &walker{
			ctx:     ctx,
			src:     src,
			dir:     dir,
			opts:    o,
			yield:   yield,
			visited: make(map[graph.NamedNode]struct{}),
		}
		begin := time.Now()
		w.visit(root, 0)

		o.logger.Debug("Provenance walk finished",
			slog.String("direction", dir.String()),
			slog.String("start", root.Value()),
			slog.Int("emitted", w.emitted),
			slog.Int("visited", len(w.visited)),
			slog.Int("queries", w.queries),
			slog.Bool("stopped", w.stopped),
			slog.Duration("elapsed", time.Since(begin)))
	}
}

// Collect drains seq. It returns the results gathered before the first error
// together with that error.
func Collect(seq iter.Seq2[ResultNode, error]) ([]ResultNode, error) {
	var out []ResultNode
	for node, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, node)
	}
	return out, nil
}

// walker holds the state of one walk. It is never shared between calls.
type walker struct {
	ctx   context.Context
	src   graph.Source
	dir   Direction
	opts  options
	yield func(ResultNode, error) bool

	visited map[graph.NamedNode]struct{}

	emitted int
	queries int
	// stopped is set once the consumer stops pulling or an error was yielded.
	stopped bool
}

// visit enters node and everything reachable from it. It returns false when
// the walk must end.
func (w *walker) visit(node graph.NamedNode, distance int) bool {
	if _, seen := w.visited[node]; seen {
		return true
	}
	w.visited[node] = struct{}{}

	types, ok := w.outgoing(node, rdfType)
	if !ok {
		return false
	}

	for _, st := range Classify(types) {
		if !w.emit(ResultNode{Type: st, IRI: node.Value(), Distance: distance}) {
			return false
		}
		if !w.expand(st, node, distance) {
			return false
		}
	}
	return true
}

// expand follows the relations of one semantic type of node.
func (w *walker) expand(st SemanticType, node graph.NamedNode, distance int) bool {
	if w.opts.maxDepth > 0 && distance >= w.opts.maxDepth {
		return true
	}
	next := distance + 1

	switch st {
	case EconomicResource:
		events, ok := w.incoming(node, affects)
		return ok && w.visitAll(events, next)

	case Process:
		events, ok := w.incoming(node, w.dir.processEvents)
		return ok && w.visitAll(events, next)

	case EconomicEvent:
		processes, ok := w.outgoing(node, w.dir.eventProcesses)
		if !ok || !w.visitAll(processes, next) {
			return false
		}
		// Affected resources are only reachable through events linked to a
		// process in the walk direction.
		if len(processes) == 0 {
			return true
		}
		resources, ok := w.outgoing(node, affects)
		return ok && w.visitAll(resources, next)
	}
	return true
}

func (w *walker) visitAll(nodes []graph.NamedNode, distance int) bool {
	for _, n := range nodes {
		if !w.visit(n, distance) {
			return false
		}
	}
	return true
}

func (w *walker) emit(node ResultNode) bool {
	w.emitted++
	if !w.yield(node, nil) {
		w.stopped = true
		return false
	}
	return true
}

func (w *walker) fail(err error) {
	w.stopped = true
	w.yield(ResultNode{}, err)
}

func (w *walker) outgoing(node, relation graph.NamedNode) ([]graph.NamedNode, bool) {
	return w.lookup(graph.Outgoing, node, relation)
}

func (w *walker) incoming(node, relation graph.NamedNode) ([]graph.NamedNode, bool) {
	return w.lookup(graph.Incoming, node, relation)
}

type lookupFunc func(context.Context, graph.Source, graph.NamedNode, graph.NamedNode) ([]graph.NamedNode, error)

func (w *walker) lookup(fn lookupFunc, node, relation graph.NamedNode) ([]graph.NamedNode, bool) {
	if err := w.ctx.Err(); err != nil {
		w.fail(err)
		return nil, false
	}
	w.queries++
	nodes, err := fn(w.ctx, w.src, node, relation)
	if err != nil {
		w.fail(err)
		return nil, false
	}
	return nodes, true
}
