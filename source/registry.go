package source

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/c360studio/semprov/graph"
)

// MIME types of the built-in parsers.
const (
	MimeNTriples = "application/n-triples"
	MimeNQuads   = "application/n-quads"
)

// Parser decodes one document into quads.
type Parser interface {
	// Parse reads every statement of the document named filename.
	Parse(filename string, r io.Reader) ([]graph.Quad, error)

	// CanParse returns true if this parser handles the given MIME type.
	CanParse(mimeType string) bool

	// MimeType returns the primary MIME type for this parser.
	MimeType() string
}

// LineParser parses line-based RDF with a Decoder.
type LineParser struct {
	syntax  Syntax
	mime    string
	aliases []string
	opts    []DecoderOption
}

// NewNTriplesParser returns the N-Triples parser.
func NewNTriplesParser(opts ...DecoderOption) *LineParser {
	return &LineParser{syntax: NTriples, mime: MimeNTriples, aliases: []string{"text/plain"}, opts: opts}
}

// NewNQuadsParser returns the N-Quads parser.
func NewNQuadsParser(opts ...DecoderOption) *LineParser {
	return &LineParser{syntax: NQuads, mime: MimeNQuads, aliases: []string{"text/x-nquads"}, opts: opts}
}

func (p *LineParser) Parse(filename string, r io.Reader) ([]graph.Quad, error) {
	quads, err := NewDecoder(r, p.syntax, p.opts...).DecodeAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s as %s: %w", filename, p.syntax, err)
	}
	return quads, nil
}

func (p *LineParser) CanParse(mimeType string) bool {
	if mimeType == p.mime {
		return true
	}
	for _, alias := range p.aliases {
		if mimeType == alias {
			return true
		}
	}
	return false
}

func (p *LineParser) MimeType() string {
	return p.mime
}

// Registry manages document parsers.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser // keyed by primary MIME type
}

// DefaultRegistry is the global parser registry with default parsers.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new parser registry with default parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[string]Parser),
	}

	r.Register(NewNTriplesParser())
	r.Register(NewNQuadsParser())

	return r
}

// Register adds a parser to the registry.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.MimeType()] = p
}

// GetByMimeType returns a parser for the given MIME type.
func (r *Registry) GetByMimeType(mimeType string) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.parsers[mimeType]; ok {
		return p
	}

	for _, t := range r.sortedTypes() {
		if p := r.parsers[t]; p.CanParse(mimeType) {
			return p
		}
	}

	return nil
}

// GetByExtension returns a parser for a file based on its extension.
func (r *Registry) GetByExtension(filename string) Parser {
	return r.GetByMimeType(MimeTypeFromExtension(filepath.Ext(filename)))
}

// Parse parses a document using the appropriate parser.
func (r *Registry) Parse(filename string, content io.Reader) ([]graph.Quad, error) {
	parser := r.GetByExtension(filename)
	if parser == nil {
		return nil, r.noParser(filename)
	}
	return parser.Parse(filename, content)
}

// ListMimeTypes returns all registered MIME types, sorted.
func (r *Registry) ListMimeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedTypes()
}

// Extensions returns the typical file extension of every registered parser.
func (r *Registry) Extensions() []string {
	var exts []string
	for _, t := range r.ListMimeTypes() {
		if ext := ExtensionFromMimeType(t); ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}

func (r *Registry) noParser(filename string) error {
	return fmt.Errorf("%w: %q (supported: %s)", ErrNoParser, filepath.Ext(filename),
		strings.Join(r.Extensions(), ", "))
}

func (r *Registry) sortedTypes() []string {
	types := make([]string, 0, len(r.parsers))
	for t := range r.parsers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// MimeTypeFromExtension returns the MIME type for a file extension.
func MimeTypeFromExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".nt", ".ntriples":
		return MimeNTriples
	case ".nq", ".nquads":
		return MimeNQuads
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// ExtensionFromMimeType returns a typical file extension for a MIME type.
func ExtensionFromMimeType(mimeType string) string {
	switch mimeType {
	case MimeNTriples:
		return ".nt"
	case MimeNQuads, "text/x-nquads":
		return ".nq"
	case "text/plain":
		return ".txt"
	default:
		return ""
	}
}
