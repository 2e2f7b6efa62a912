package export

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/c360studio/semprov/graph"
	"github.com/c360studio/semprov/provenance"
	vf "github.com/c360studio/semprov/vocabulary/valueflows"
)

var rdfType = graph.MustNamedNode(vf.RDFType)

// ResultWriter renders provenance results in one format. Table formats are
// rendered on Flush; the line formats are written as results arrive.
type ResultWriter struct {
	format   Format
	out      io.Writer
	prefixes map[string]string

	table table.Writer
	json  *json.Encoder
	nt    *NTriplesWriter
	count int
}

// ResultOption configures a ResultWriter.
type ResultOption func(*ResultWriter)

// WithPrefixes compacts IRIs in table output using prefixes.
func WithPrefixes(prefixes map[string]string) ResultOption {
	return func(w *ResultWriter) {
		w.prefixes = prefixes
	}
}

// NewResultWriter creates a writer for format on out.
func NewResultWriter(out io.Writer, format Format, opts ...ResultOption) (*ResultWriter, error) {
	w := &ResultWriter{format: format, out: out}
	for _, opt := range opts {
		opt(w)
	}

	switch format {
	case FormatTable, FormatMarkdown:
		t := table.NewWriter()
		if format == FormatTable {
			t.SetStyle(table.StyleLight)
		}
		t.AppendHeader(table.Row{"Distance", "Type", "IRI"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, Align: text.AlignRight},
		})
		w.table = t
	case FormatJSON:
		w.json = json.NewEncoder(out)
	case FormatNTriples:
		w.nt = NewNTriplesWriter(out)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return w, nil
}

// Write adds one result.
func (w *ResultWriter) Write(n provenance.ResultNode) error {
	w.count++
	switch {
	case w.table != nil:
		iri := n.IRI
		if w.prefixes != nil {
			iri = vf.Compact(iri, w.prefixes)
		}
		w.table.AppendRow(table.Row{n.Distance, n.Type.String(), strings.Repeat("  ", n.Distance) + iri})
		return nil
	case w.json != nil:
		return w.json.Encode(n)
	default:
		subject, err := n.Node()
		if err != nil {
			return err
		}
		class, err := graph.NewNamedNode(n.Type.IRI())
		if err != nil {
			return fmt.Errorf("result %s has no class: %w", n.IRI, err)
		}
		return w.nt.WriteTypeTriple(subject, class)
	}
}

// Count returns the number of results written.
func (w *ResultWriter) Count() int {
	return w.count
}

// Flush renders buffered output.
func (w *ResultWriter) Flush() error {
	switch {
	case w.table != nil:
		var rendered string
		if w.format == FormatMarkdown {
			rendered = w.table.RenderMarkdown()
		} else {
			rendered = w.table.Render()
		}
		_, err := io.WriteString(w.out, rendered+"\n")
		return err
	case w.nt != nil:
		return w.nt.Flush()
	default:
		return nil
	}
}

// WriteAll drains seq into w and flushes. Results received before an error
// are still rendered; the error from seq is returned.
func (w *ResultWriter) WriteAll(seq iter.Seq2[provenance.ResultNode, error]) error {
	var walkErr error
	for n, err := range seq {
		if err != nil {
			walkErr = err
			break
		}
		if err := w.Write(n); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return walkErr
}
