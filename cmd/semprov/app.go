package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/semprov/config"
	"github.com/c360studio/semprov/export"
	"github.com/c360studio/semprov/graph"
	"github.com/c360studio/semprov/provenance"
	"github.com/c360studio/semprov/source"
	"github.com/c360studio/semprov/storage"
	"github.com/c360studio/semprov/storage/backend"
	vf "github.com/c360studio/semprov/vocabulary/valueflows"
)

// globalFlags are the root command flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	backend    string
	storePath  string
	prefixes   []string
}

// WalkRequest describes one track or trace invocation.
type WalkRequest struct {
	Direction provenance.Direction
	// Start is a full IRI or a prefixed name.
	Start string
	// Format overrides output.format when set.
	Format string
	// MaxDepth overrides traversal.max_depth when not negative.
	MaxDepth int
}

// App is the main application that wires together all components.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	out      io.Writer
	registry *prometheus.Registry
	store    storage.Store
	prefixes map[string]string
}

// NewApp loads configuration and opens the configured store.
func NewApp(ctx context.Context, flags globalFlags, out, errOut io.Writer) (*App, error) {
	logger := newLogger(errOut, flags.logLevel, "text")

	cfg, err := config.NewLoader(logger).Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.backend != "" {
		cfg.Store.Backend = flags.backend
	}
	if flags.storePath != "" {
		cfg.Store.Path = flags.storePath
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger = newLogger(errOut, cfg.Log.Level, cfg.Log.Format)

	prefixes := vf.Prefixes()
	for name, ns := range cfg.Prefixes {
		prefixes[name] = ns
	}
	for _, p := range flags.prefixes {
		name, ns, ok := strings.Cut(p, "=")
		if !ok || name == "" || ns == "" {
			return nil, fmt.Errorf("invalid prefix %q: want name=IRI", p)
		}
		prefixes[name] = ns
	}

	store, err := backend.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := storage.NewMetrics(registry)

	logger.Debug("Store opened",
		slog.String("backend", cfg.Store.Backend),
		slog.String("path", cfg.Store.Path))

	return &App{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		registry: registry,
		store:    storage.Instrument(store, storage.Backend(cfg.Store.Backend), metrics),
		prefixes: prefixes,
	}, nil
}

// newLogger builds the stderr logger. Unknown levels fall back to info.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ResolveNode turns a prefixed name into an IRI. Anything else is returned
// unchanged and validated by the walk.
func (a *App) ResolveNode(name string) string {
	if iri, ok := vf.Expand(name, a.prefixes); ok {
		return iri
	}
	return name
}

// Walk runs a provenance walk and writes its results. It returns the number
// of results written.
func (a *App) Walk(ctx context.Context, req WalkRequest) (int, error) {
	formatName := req.Format
	if formatName == "" {
		formatName = a.cfg.Output.Format
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return 0, err
	}

	maxDepth := a.cfg.Traversal.MaxDepth
	if req.MaxDepth >= 0 {
		maxDepth = req.MaxDepth
	}

	w, err := export.NewResultWriter(a.out, format, export.WithPrefixes(a.prefixes))
	if err != nil {
		return 0, err
	}

	start := a.ResolveNode(req.Start)
	logger := a.logger.With(
		slog.String("walk_id", uuid.NewString()),
		slog.String("direction", req.Direction.String()))

	begin := time.Now()
	seq := provenance.Walk(ctx, a.store, graph.IRI(start), req.Direction,
		provenance.WithMaxDepth(maxDepth),
		provenance.WithLogger(logger))
	if err := w.WriteAll(seq); err != nil {
		return w.Count(), fmt.Errorf("%s %s: %w", req.Direction, start, err)
	}

	logger.Info("Walk complete",
		slog.String("start", start),
		slog.Int("results", w.Count()),
		slog.Duration("took", time.Since(begin)))
	return w.Count(), nil
}

// Load adds the files matching patterns to the store.
func (a *App) Load(ctx context.Context, patterns ...string) ([]source.FileResult, error) {
	return source.NewLoader(a.store, a.logger).Load(ctx, patterns...)
}

// Dump writes every stored quad as N-Quads.
func (a *App) Dump(ctx context.Context) (int, error) {
	w := export.NewNTriplesWriter(a.out)
	for q, err := range a.store.Match(ctx, graph.Pattern{}) {
		if err != nil {
			return w.Count(), errors.Join(fmt.Errorf("dump store: %w", err), w.Flush())
		}
		if err := w.WriteQuad(q); err != nil {
			return w.Count(), err
		}
	}
	return w.Count(), w.Flush()
}

// Close closes the store and writes the metrics textfile when configured.
func (a *App) Close() error {
	var errs []error
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		} else {
			a.logger.Debug("Wrote metrics", slog.String("path", path))
		}
	}
	return errors.Join(errs...)
}
