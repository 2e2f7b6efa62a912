// Package export renders provenance results and stored quads.
package export

import (
	"fmt"
	"sort"
	"strings"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatTable renders an aligned terminal table.
	FormatTable Format = "table"

	// FormatMarkdown renders a GitHub-flavoured Markdown table.
	FormatMarkdown Format = "markdown"

	// FormatJSON produces one JSON object per line.
	FormatJSON Format = "json"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatTable: {
		Name:        FormatTable,
		MIMEType:    "text/plain",
		Extension:   ".txt",
		Description: "Table - aligned columns for terminals",
	},
	FormatMarkdown: {
		Name:        FormatMarkdown,
		MIMEType:    "text/markdown",
		Extension:   ".md",
		Description: "Markdown - pipe table",
	},
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/x-ndjson",
		Extension:   ".jsonl",
		Description: "JSON Lines - one result object per line",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// Formats returns every registered format name, sorted.
func Formats() []Format {
	names := make([]Format, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, f)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// FormatList joins the registered format names for help and error text.
func FormatList() string {
	names := make([]string, 0, len(FormatRegistry))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	info, ok := GetFormatInfo(Format(strings.ToLower(s)))
	if !ok {
		return "", fmt.Errorf("unsupported format: %s (want one of %s)", s, FormatList())
	}
	return info.Name, nil
}
