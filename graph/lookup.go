package graph

import "context"

// Outgoing returns every node O such that (node, relation, O) is in src, in
// the order src yields them. Literal objects are skipped. Errors from src are
// returned as they are.
func Outgoing(ctx context.Context, src Source, node, relation NamedNode) ([]NamedNode, error) {
	return collect(ctx, src, Pattern{Subject: node, Predicate: relation}, func(q Quad) (NamedNode, bool) {
		n, ok := q.Object.(NamedNode)
		return n, ok
	})
}

// Incoming returns every node S such that (S, relation, node) is in src, in
// the order src yields them. Errors from src are returned as they are.
func Incoming(ctx context.Context, src Source, node, relation NamedNode) ([]NamedNode, error) {
	return collect(ctx, src, Pattern{Predicate: relation, Object: node}, func(q Quad) (NamedNode, bool) {
		return q.Subject, true
	})
}

// collect drains the whole match before returning so that no scan stays open
// while the caller recurses.
func collect(ctx context.Context, src Source, p Pattern, pick func(Quad) (NamedNode, bool)) ([]NamedNode, error) {
	var nodes []NamedNode
	for q, err := range src.Match(ctx, p) {
		if err != nil {
			return nil, err
		}
		if n, ok := pick(q); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}
