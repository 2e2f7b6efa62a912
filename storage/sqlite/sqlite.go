// Package sqlite stores quads in a SQLite database. Terms are kept in their
// N-Triples encoding; the default graph is the empty string. Matches are
// returned in insertion order.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"

	"github.com/c360studio/semprov/graph"
	"github.com/c360studio/semprov/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS quads (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	graph TEXT NOT NULL DEFAULT '',
	subject TEXT NOT NULL,
	predicate TEXT NOT NULL,
	object TEXT NOT NULL,
	UNIQUE (graph, subject, predicate, object)
);
CREATE INDEX IF NOT EXISTS quads_sp ON quads (subject, predicate);
CREATE INDEX IF NOT EXISTS quads_po ON quads (predicate, object);
CREATE INDEX IF NOT EXISTS quads_os ON quads (object, subject);
`

const (
	insertQuad  = `INSERT OR IGNORE INTO quads (graph, subject, predicate, object) VALUES (?, ?, ?, ?)`
	selectQuads = `SELECT graph, subject, predicate, object FROM quads`
)

// Store is a quad store backed by SQLite. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
}

var _ storage.Store = (*Store)(nil)

// Open opens the database at path, creating the schema if needed. Use
// ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Opening quad database", slog.String("path", path))

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info("Quad database opened", slog.String("path", path))
	return New(db), nil
}

// New wraps an open database whose schema already exists. The store takes
// ownership of db.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Add inserts quads in one transaction. Duplicates are ignored.
func (s *Store) Add(ctx context.Context, quads ...graph.Quad) error {
	for i, q := range quads {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("quad %d: %w", i, err)
		}
	}
	if s.closed.Load() {
		return storage.ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range quads {
		g, subject, predicate, object := encode(q)
		if _, err := tx.ExecContext(ctx, insertQuad, g, subject, predicate, object); err != nil {
			return fmt.Errorf("insert quad: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// Match yields the quads matching p in insertion order.
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

		query, args := buildQuery(p)
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(graph.Quad{}, fmt.Errorf("query quads: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var g, subject, predicate, object string
			if err := rows.Scan(&g, &subject, &predicate, &object); err != nil {
				yield(graph.Quad{}, fmt.Errorf("scan quad: %w", err))
				return
			}
			q, err := decode(g, subject, predicate, object)
			if err != nil {
				yield(graph.Quad{}, err)
				return
			}
			if !yield(q, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(graph.Quad{}, fmt.Errorf("read quads: %w", err))
		}
	}
}

// Close closes the database. Later calls are no-ops.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}

func buildQuery(p graph.Pattern) (string, []any) {
	var (
		where []string
		args  []any
	)
	if !p.Subject.IsZero() {
		where = append(where, "subject = ?")
		args = append(args, graph.FormatTerm(p.Subject))
	}
	if !p.Predicate.IsZero() {
		where = append(where, "predicate = ?")
		args = append(args, graph.FormatTerm(p.Predicate))
	}
	if p.Object != nil {
		where = append(where, "object = ?")
		args = append(args, graph.FormatTerm(p.Object))
	}
	if !p.Graph.IsZero() {
		where = append(where, "graph = ?")
		args = append(args, graph.FormatTerm(p.Graph))
	}

	query := selectQuads
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY seq", args
}

func encode(q graph.Quad) (g, subject, predicate, object string) {
	if !q.Graph.IsZero() {
		g = graph.FormatTerm(q.Graph)
	}
	return g, graph.FormatTerm(q.Subject), graph.FormatTerm(q.Predicate), graph.FormatTerm(q.Object)
}

func decode(g, subject, predicate, object string) (graph.Quad, error) {
	var q graph.Quad
	var err error
	if q.Subject, err = parseNode(subject); err != nil {
		return graph.Quad{}, err
	}
	if q.Predicate, err = parseNode(predicate); err != nil {
		return graph.Quad{}, err
	}
	if q.Object, err = graph.ParseTerm(object); err != nil {
		return graph.Quad{}, fmt.Errorf("decode object: %w", err)
	}
	if g != "" {
		if q.Graph, err = parseNode(g); err != nil {
			return graph.Quad{}, err
		}
	}
	return q, nil
}

func parseNode(s string) (graph.NamedNode, error) {
	t, err := graph.ParseTerm(s)
	if err != nil {
		return graph.NamedNode{}, fmt.Errorf("decode node: %w", err)
	}
	n, ok := t.(graph.NamedNode)
	if !ok {
		return graph.NamedNode{}, fmt.Errorf("decode node: %s is not an IRI", s)
	}
	return n, nil
}
