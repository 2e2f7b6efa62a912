package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semprov/graph"
	"github.com/c360studio/semprov/provenance"
)

const bakery = `# flour goes into baking, bread comes out
<https://example.org/flour> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://w3id.org/valueflows#EconomicResource> .
<https://example.org/mix-in> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://w3id.org/valueflows#EconomicEvent> .
<https://example.org/mix-in> <https://w3id.org/valueflows#affects> <https://example.org/flour> .
<https://example.org/mix-in> <https://w3id.org/valueflows#inputOf> <https://example.org/baking> .
<https://example.org/baking> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://w3id.org/valueflows#Process> .
<https://example.org/bake-out> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://w3id.org/valueflows#EconomicEvent> .
<https://example.org/bake-out> <https://w3id.org/valueflows#outputOf> <https://example.org/baking> .
<https://example.org/bake-out> <https://w3id.org/valueflows#affects> <https://example.org/bread> .
<https://example.org/bread> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://w3id.org/valueflows#EconomicResource> .
`

// setup isolates config discovery in a fresh directory holding the bakery
// fixture and returns that directory.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bakery.nt"), []byte(bakery), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bakery.ttl"), []byte(bakery), 0644))
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func decodeResults(t *testing.T, out string) []provenance.ResultNode {
	t.Helper()
	var nodes []provenance.ResultNode
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var n provenance.ResultNode
		require.NoError(t, json.Unmarshal([]byte(line), &n), line)
		nodes = append(nodes, n)
	}
	return nodes
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "semprov version "+Version+" (build: "+BuildTime+")\n", out)
}

func TestInitWritesUserConfig(t *testing.T) {
	dir := setup(t)
	path := filepath.Join(dir, ".config", "semprov", "config.yaml")

	out, _, err := execute(t, "init")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)
	require.FileExists(t, path)

	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: memory\noutput:\n  format: json\n"), 0644))
	out, _, err = execute(t, "init")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	out, _, err = execute(t, "trace", "https://example.org/bread", "--load", "bakery.nt", "--max-depth", "1")
	require.NoError(t, err)
	assert.Len(t, decodeResults(t, out), 2)
}

func TestOutputFlagListsFormats(t *testing.T) {
	cmd := rootCmd()
	track, _, err := cmd.Find([]string{"track"})
	require.NoError(t, err)
	assert.Equal(t, "Output format (json, markdown, ntriples, table)", track.Flags().Lookup("output").Usage)
}

func TestTrackWithMemoryBackend(t *testing.T) {
	setup(t)

	out, _, err := execute(t, "track", "ex:flour",
		"--backend", "memory",
		"--prefix", "ex=https://example.org/",
		"--load", "*.nt",
		"-o", "json")
	require.NoError(t, err)

	assert.Equal(t, []provenance.ResultNode{
		{Type: provenance.EconomicResource, IRI: "https://example.org/flour", Distance: 0},
		{Type: provenance.EconomicEvent, IRI: "https://example.org/mix-in", Distance: 1},
		{Type: provenance.Process, IRI: "https://example.org/baking", Distance: 2},
		{Type: provenance.EconomicEvent, IRI: "https://example.org/bake-out", Distance: 3},
	}, decodeResults(t, out))
}

func TestTraceMaxDepth(t *testing.T) {
	setup(t)

	out, _, err := execute(t, "trace", "https://example.org/bread",
		"--backend", "memory",
		"--load", "bakery.nt",
		"--max-depth", "1",
		"-o", "json")
	require.NoError(t, err)

	assert.Equal(t, []provenance.ResultNode{
		{Type: provenance.EconomicResource, IRI: "https://example.org/bread", Distance: 0},
		{Type: provenance.EconomicEvent, IRI: "https://example.org/bake-out", Distance: 1},
	}, decodeResults(t, out))
}

func TestLoadThenTraceWithSQLite(t *testing.T) {
	dir := setup(t)
	cfg := `store:
  backend: sqlite
  path: prov.db
output:
  format: json
metrics:
  textfile: metrics.prom
prefixes:
  ex: https://example.org/
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "semprov.yaml"), []byte(cfg), 0644))

	out, _, err := execute(t, "load", "**/*.nt")
	require.NoError(t, err)
	assert.Equal(t, "bakery.nt\t9 quads\n", out)
	assert.FileExists(t, filepath.Join(dir, "prov.db"))

	out, _, err = execute(t, "trace", "ex:bread")
	require.NoError(t, err)
	var iris []string
	for _, n := range decodeResults(t, out) {
		iris = append(iris, n.IRI)
	}
	assert.Equal(t, []string{
		"https://example.org/bread",
		"https://example.org/bake-out",
		"https://example.org/baking",
		"https://example.org/mix-in",
	}, iris)

	metrics, err := os.ReadFile(filepath.Join(dir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `semprov_store_match_total{backend="sqlite",outcome="ok"}`)

	out, _, err = execute(t, "dump")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 9)
	assert.Equal(t, "<https://example.org/flour> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <https://w3id.org/valueflows#EconomicResource> .", lines[0])
}

func TestTableOutputCompactsIRIs(t *testing.T) {
	setup(t)

	out, _, err := execute(t, "trace", "ex:bread",
		"--backend", "memory",
		"--prefix", "ex=https://example.org/",
		"--load", "bakery.nt")
	require.NoError(t, err)

	assert.Contains(t, out, "ex:bread")
	assert.Contains(t, out, "    ex:baking")
	assert.NotContains(t, out, "https://example.org/")
}

func TestWalkErrors(t *testing.T) {
	setup(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "invalid start node",
			args:    []string{"track", "not an iri", "--backend", "memory"},
			wantErr: "invalid IRI",
		},
		{
			name:    "unknown output format",
			args:    []string{"track", "ex:a", "--backend", "memory", "-o", "turtle"},
			wantErr: "unsupported format",
		},
		{
			name:    "malformed prefix flag",
			args:    []string{"track", "ex:a", "--backend", "memory", "--prefix", "ex"},
			wantErr: "invalid prefix",
		},
		{
			name:    "unsupported file type",
			args:    []string{"track", "ex:a", "--backend", "memory", "--load", "bakery.ttl"},
			wantErr: "(supported: .nq, .nt)",
		},
		{
			name:    "unknown backend",
			args:    []string{"dump", "--backend", "cassandra"},
			wantErr: "store.backend must be one of",
		},
		{
			name:    "missing argument",
			args:    []string{"trace"},
			wantErr: "accepts 1 arg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInvalidStartWrapsSentinel(t *testing.T) {
	setup(t)
	app, err := NewApp(context.Background(), globalFlags{backend: "memory"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	n, err := app.Walk(context.Background(), WalkRequest{Direction: provenance.Forward, Start: "nope", MaxDepth: -1})
	assert.Zero(t, n)
	assert.True(t, errors.Is(err, graph.ErrInvalidIRI), "got %v", err)
}

func TestResolveNode(t *testing.T) {
	setup(t)
	app, err := NewApp(context.Background(), globalFlags{
		backend:  "memory",
		prefixes: []string{"ex=https://example.org/"},
	}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	assert.Equal(t, "https://example.org/flour", app.ResolveNode("ex:flour"))
	assert.Equal(t, "https://w3id.org/valueflows#Process", app.ResolveNode("vf:Process"))
	assert.Equal(t, "https://other.org/x", app.ResolveNode("https://other.org/x"))
	assert.Equal(t, "unknown:thing", app.ResolveNode("unknown:thing"))
}

func TestJSONLogging(t *testing.T) {
	dir := setup(t)
	cfg := "store:\n  backend: memory\nlog:\n  format: json\n  level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "semprov.yaml"), []byte(cfg), 0644))

	_, stderr, err := execute(t, "track", "https://example.org/flour", "--load", "bakery.nt", "-o", "json")
	require.NoError(t, err)

	var sawWalk bool
	for _, line := range strings.Split(strings.TrimSpace(stderr), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		if rec["msg"] == "Walk complete" {
			sawWalk = true
			assert.Equal(t, "track", rec["direction"])
			assert.EqualValues(t, 4, rec["results"])
			assert.NotEmpty(t, rec["walk_id"])
		}
	}
	assert.True(t, sawWalk, "missing walk log in:\n%s", stderr)
}
