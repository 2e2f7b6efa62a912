// Package natskv stores quads as keys of a NATS JetStream key-value bucket.
//
// A quad is stored under
//
//	q.<graph>.<subject>.<predicate>.<object>
//
// where each token is the base64url encoding of the term's N-Triples form and
// the default graph is "_". Terms longer than storage.MaxInlineTerm are
// tokenized by digest. The entry value holds the whole quad. Match turns a
// pattern into a key filter with "*" for unbound components and decodes the
// quads from the keys, in the order the bucket lists them, reading the value
// only for keys that carry a digest.
package natskv

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semprov/graph"
	"github.com/c360studio/semprov/storage"
)

// DefaultBucket is the bucket used when none is configured.
const DefaultBucket = "SEMPROV_QUADS"

const (
	keyPrefix    = "q"
	defaultGraph = "_"
	wildcard     = "*"
)

var encoding = base64.RawURLEncoding

// ErrDigestKey is returned by ParseKey for keys whose terms were too long to
// inline. The quad must be read from the entry value.
var ErrDigestKey = errors.New("key holds a term digest")

// keyValue is the part of jetstream.KeyValue the store uses.
type keyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Update(ctx context.Context, key string, value []byte, revision uint64) (uint64, error)
	ListKeysFiltered(ctx context.Context, filters ...string) (jetstream.KeyLister, error)
}

// Store is a quad store backed by a JetStream KV bucket.
type Store struct {
	kv     keyValue
	conn   *nats.Conn
	logger *slog.Logger
	closed atomic.Bool
}

var _ storage.Store = (*Store)(nil)

// Connect dials url and opens bucket, creating it if needed. The store owns
// the connection and drains it on Close.
func Connect(ctx context.Context, url, bucket string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url, nats.Name("semprov"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	s, err := Open(ctx, js, bucket, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	s.conn = nc
	return s, nil
}

// Open uses bucket in js, creating it if it does not exist.
func Open(ctx context.Context, js jetstream.JetStream, bucket string, logger *slog.Logger) (*Store, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	s := newStore(kv, logger)
	s.logger.Info("Quad bucket ready", slog.String("bucket", bucket))
	return s, nil
}

func newStore(kv keyValue, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger}
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Semprov quad store",
		History:     1,
	})
}

// Add creates one key per quad. Keys that already exist are left alone so
// the listing order stays the insertion order.
func (s *Store) Add(ctx context.Context, quads ...graph.Quad) error {
	for i, q := range quads {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("quad %d: %w", i, err)
		}
	}
	if s.closed.Load() {
		return storage.ErrClosed
	}

	for _, q := range quads {
		if _, err := s.kv.Update(ctx, Key(q), storage.EncodeQuad(q), 0); err != nil {
			if errors.Is(err, jetstream.ErrKeyExists) {
				continue
			}
			return s.wrap(fmt.Errorf("put quad: %w", err))
		}
	}
	return nil
}

// Match yields the quads whose keys match the filter for p.
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

		lister, err := s.kv.ListKeysFiltered(ctx, Filter(p))
		if err != nil {
			if errors.Is(err, jetstream.ErrNoKeysFound) {
				return
			}
			yield(graph.Quad{}, s.wrap(fmt.Errorf("list keys: %w", err)))
			return
		}
		defer func() { _ = lister.Stop() }()

		for key := range lister.Keys() {
			q, err := ParseKey(key)
			if errors.Is(err, ErrDigestKey) {
				q, err = s.get(ctx, key)
			}
			if err != nil {
				yield(graph.Quad{}, err)
				return
			}
			if !p.Matches(q) {
				continue
			}
			if !yield(q, nil) {
				return
			}
		}
		if err := ctx.Err(); err != nil {
			yield(graph.Quad{}, err)
		}
	}
}

// Close drains the owned connection, if any. Later calls are no-ops.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.conn != nil {
		return s.conn.Drain()
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (graph.Quad, error) {
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		return graph.Quad{}, s.wrap(fmt.Errorf("get quad %s: %w", key, err))
	}
	q, err := storage.DecodeQuad(entry.Value())
	if err != nil {
		return graph.Quad{}, fmt.Errorf("decode quad %s: %w", key, err)
	}
	return q, nil
}

func (s *Store) wrap(err error) error {
	if errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("%w: %w", storage.ErrClosed, err)
	}
	return err
}

// Key returns the bucket key of q.
func Key(q graph.Quad) string {
	g := defaultGraph
	if !q.Graph.IsZero() {
		g = token(q.Graph)
	}
	return strings.Join([]string{keyPrefix, g, token(q.Subject), token(q.Predicate), token(q.Object)}, ".")
}

// Filter returns the key filter selecting the quads p can match. An unbound
// graph matches every graph, the default one included.
func Filter(p graph.Pattern) string {
	parts := []string{keyPrefix, wildcard, wildcard, wildcard, wildcard}
	if !p.Graph.IsZero() {
		parts[1] = token(p.Graph)
	}
	if !p.Subject.IsZero() {
		parts[2] = token(p.Subject)
	}
	if !p.Predicate.IsZero() {
		parts[3] = token(p.Predicate)
	}
	if p.Object != nil {
		parts[4] = token(p.Object)
	}
	return strings.Join(parts, ".")
}

// ParseKey decodes a key written by Key. Keys with a digest token fail with
// ErrDigestKey.
func ParseKey(key string) (graph.Quad, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 5 || parts[0] != keyPrefix {
		return graph.Quad{}, fmt.Errorf("%w: malformed key %q", graph.ErrInvalidTerm, key)
	}

	var q graph.Quad
	var err error
	if parts[1] != defaultGraph {
		if q.Graph, err = parseNode(parts[1]); err != nil {
			return graph.Quad{}, err
		}
	}
	if q.Subject, err = parseNode(parts[2]); err != nil {
		return graph.Quad{}, err
	}
	if q.Predicate, err = parseNode(parts[3]); err != nil {
		return graph.Quad{}, err
	}
	if q.Object, err = parseToken(parts[4]); err != nil {
		return graph.Quad{}, err
	}
	return q, nil
}

func token(t graph.Term) string {
	k, _ := storage.KeyTerm(t)
	return encoding.EncodeToString([]byte(k))
}

func parseToken(tok string) (graph.Term, error) {
	raw, err := encoding.DecodeString(tok)
	if err != nil {
		return nil, fmt.Errorf("%w: bad key token %q: %w", graph.ErrInvalidTerm, tok, err)
	}
	if storage.IsDigest(raw) {
		return nil, ErrDigestKey
	}
	return graph.ParseTerm(string(raw))
}

func parseNode(tok string) (graph.NamedNode, error) {
	t, err := parseToken(tok)
	if err != nil {
		return graph.NamedNode{}, err
	}
	n, ok := t.(graph.NamedNode)
	if !ok {
		return graph.NamedNode{}, fmt.Errorf("%w: %s is not an IRI", graph.ErrInvalidTerm, t)
	}
	return n, nil
}
