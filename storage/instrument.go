package storage

import (
	"context"
	"iter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/c360studio/semprov/graph"
)

const instrumentationName = "github.com/c360studio/semprov/storage"

// Metrics holds the Prometheus collectors shared by instrumented stores.
type Metrics struct {
	queries  *prometheus.CounterVec
	quads    *prometheus.CounterVec
	added    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the store collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semprov",
			Subsystem: "store",
			Name:      "match_total",
			Help:      "Pattern queries by backend and outcome.",
		}, []string{"backend", "outcome"}),
		quads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semprov",
			Subsystem: "store",
			Name:      "match_quads_total",
			Help:      "Quads yielded by pattern queries.",
		}, []string{"backend"}),
		added: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semprov",
			Subsystem: "store",
			Name:      "added_quads_total",
			Help:      "Quads passed to Add without error.",
		}, []string{"backend"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "semprov",
			Subsystem: "store",
			Name:      "match_duration_seconds",
			Help:      "Time from the first pull to the end of a pattern query.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"backend"}),
	}
}

// InstrumentOption configures Instrument.
type InstrumentOption func(*instrumented)

// WithTracerProvider traces through tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) InstrumentOption {
	return func(s *instrumented) {
		s.tracer = tp.Tracer(instrumentationName)
	}
}

type instrumented struct {
	Store
	backend string
	metrics *Metrics
	tracer  trace.Tracer
}

// Instrument wraps s so every Match is counted, timed and traced, and every
// successful Add is counted. A nil m disables metrics.
func Instrument(s Store, backend Backend, m *Metrics, opts ...InstrumentOption) Store {
	is := &instrumented{
		Store:   s,
		backend: string(backend),
		metrics: m,
		tracer:  otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(is)
	}
	return is
}

func (s *instrumented) Add(ctx context.Context, quads ...graph.Quad) error {
	ctx, span := s.tracer.Start(ctx, "Store.Add", trace.WithAttributes(
		attribute.String("store.backend", s.backend),
		attribute.Int("store.quads", len(quads)),
	))
	defer span.End()

	if err := s.Store.Add(ctx, quads...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if s.metrics != nil {
		s.metrics.added.WithLabelValues(s.backend).Add(float64(len(quads)))
	}
	return nil
}

func (s *instrumented) Match(ctx context.Context, p graph.Pattern) iter.Seq2[graph.Quad, error] {
	return func(yield func(graph.Quad, error) bool) {
		ctx, span := s.tracer.Start(ctx, "Store.Match", trace.WithAttributes(patternAttributes(s.backend, p)...))
		defer span.End()

		var (
			begin   = time.Now()
			n       int
			failed  error
			stopped bool
		)
		for q, err := range s.Store.Match(ctx, p) {
			if err != nil {
				failed = err
				if !yield(q, err) {
					stopped = true
				}
				break
			}
			n++
			if !yield(q, nil) {
				stopped = true
				break
			}
		}

		outcome := "ok"
		switch {
		case failed != nil:
			outcome = "error"
			span.RecordError(failed)
			span.SetStatus(codes.Error, failed.Error())
		case stopped:
			outcome = "stopped"
		}
		span.SetAttributes(attribute.Int("store.results", n), attribute.String("store.outcome", outcome))

		if s.metrics != nil {
			s.metrics.queries.WithLabelValues(s.backend, outcome).Inc()
			s.metrics.quads.WithLabelValues(s.backend).Add(float64(n))
			s.metrics.duration.WithLabelValues(s.backend).Observe(time.Since(begin).Seconds())
		}
	}
}

func patternAttributes(backend string, p graph.Pattern) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("store.backend", backend)}
	if !p.Subject.IsZero() {
		attrs = append(attrs, attribute.String("pattern.subject", p.Subject.Value()))
	}
	if !p.Predicate.IsZero() {
		attrs = append(attrs, attribute.String("pattern.predicate", p.Predicate.Value()))
	}
	if p.Object != nil {
		attrs = append(attrs, attribute.String("pattern.object", graph.FormatTerm(p.Object)))
	}
	if !p.Graph.IsZero() {
		attrs = append(attrs, attribute.String("pattern.graph", p.Graph.Value()))
	}
	return attrs
}
