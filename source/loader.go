package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/semprov/storage"
)

// DefaultBatchSize is the number of quads passed to one Store.Add call.
const DefaultBatchSize = 1000

// FileResult reports one loaded document.
type FileResult struct {
	Path  string        `json:"path"`
	Quads int           `json:"quads"`
	Took  time.Duration `json:"took"`
}

// Loader parses documents matched by glob patterns into a store.
type Loader struct {
	store     storage.Store
	registry  *Registry
	logger    *slog.Logger
	batchSize int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithRegistry replaces DefaultRegistry.
func WithRegistry(r *Registry) LoaderOption {
	return func(l *Loader) {
		l.registry = r
	}
}

// WithBatchSize sets the number of quads per Add call.
func WithBatchSize(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// NewLoader creates a loader writing into store.
func NewLoader(store storage.Store, logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		store:     store,
		registry:  DefaultRegistry,
		logger:    logger,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load expands patterns (doublestar globs or plain paths) and loads every
// matched file once, in path order. It stops at the first failing file and
// returns the results of the files loaded before it.
func (l *Loader) Load(ctx context.Context, patterns ...string) ([]FileResult, error) {
	files, err := resolvePatterns(patterns)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := l.loadFile(ctx, path)
		if err != nil {
			return results, fmt.Errorf("load %s: %w", path, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (l *Loader) loadFile(ctx context.Context, path string) (FileResult, error) {
	start := time.Now()

	parser := l.registry.GetByExtension(path)
	if parser == nil {
		return FileResult{}, l.registry.noParser(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return FileResult{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	quads, err := parser.Parse(path, f)
	if err != nil {
		return FileResult{}, err
	}

	for begin := 0; begin < len(quads); begin += l.batchSize {
		end := min(begin+l.batchSize, len(quads))
		if err := l.store.Add(ctx, quads[begin:end]...); err != nil {
			return FileResult{}, fmt.Errorf("store quads: %w", err)
		}
	}

	res := FileResult{Path: path, Quads: len(quads), Took: time.Since(start)}
	l.logger.Info("Loaded file",
		slog.String("path", path),
		slog.String("mime_type", parser.MimeType()),
		slog.Int("quads", res.Quads),
		slog.Duration("took", res.Took))
	return res, nil
}

// resolvePatterns expands every pattern and returns the distinct files,
// sorted.
func resolvePatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := resolvePattern(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// resolvePattern expands a single glob pattern to regular files.
func resolvePattern(pattern string) ([]string, error) {
	if !containsGlob(pattern) {
		info, err := os.Stat(pattern)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("path is a directory: %s", pattern)
		}
		return []string{filepath.Clean(pattern)}, nil
	}

	// Use doublestar for ** support
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	var files []string
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() {
			files = append(files, match)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, pattern)
	}
	return files, nil
}

// containsGlob checks if a pattern contains glob characters.
func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
