package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{"json object", `{"name": "test"}`, FormatJSON},
		{"json array", `[1, 2, 3]`, FormatJSON},
		{"yaml", "name: test\nvalue: 42", FormatYAML},
		{"multi-doc yaml", "a: 1\n---\nb: 2", FormatMultiDoc},
		{"leading separator", "---\na: 1", FormatMultiDoc},
		{"ndjson", "{\"id\": 1}\n{\"id\": 2}", FormatNDJSON},
		{"toml section", "[server]\nhost = \"localhost\"", FormatTOML},
		{"toml key values", "name = \"test\"\nvalue = 42", FormatTOML},
		{"yaml list", "- a\n- b\n- c", FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.input))
		})
	}
}

func TestLoadData(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
	}{
		{"single object", `{"name": "test", "value": 42}`, 1},
		{"single array", `[1, 2, 3]`, 1},
		{"yaml object", "person:\n  name: Alice\n  age: 30", 1},
		{"multi-doc yaml", "name: Alice\n---\nname: Bob\n---\nname: Charlie", 3},
		{"empty documents skipped", "---\nname: Alice\n---\n---\nname: Bob", 2},
		{"ndjson", "{\"id\": 1}\n{\"id\": 2}\n{\"id\": 3}", 3},
		{"ndjson with blank lines", "{\"id\": 1}\n\n{\"id\": 2}\n\n{\"id\": 3}", 3},
		{"ndjson with CRLF", "{\"id\":1}\r\n{\"id\":2}\r\n{\"id\":3}", 3},
		{"ndjson with mixed line endings", "{\"a\":1}\n{\"b\":2}\r\n{\"c\":3}\r{\"d\":4}", 4},
		{"toml array of tables", "[[users]]\nname = \"Alice\"\n\n[[users]]\nname = \"Bob\"", 1},
		{"plain lines fall through to yaml", "hello world\nfoo bar\nbaz qux", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadData(tt.input)
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestLoadDataErrors(t *testing.T) {
	_, err := LoadData("   \n ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty input")

	_, err = LoadData("---\n---\n")
	require.Error(t, err)

	_, err = LoadData("{\"a\": [1, 2}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestLoadDataFallbacks(t *testing.T) {
	t.Run("invalid JSON falls back to YAML", func(t *testing.T) {
		got, err := LoadData(`{invalid}`)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, map[string]any{"invalid": nil}, got[0])
	})

	t.Run("indented JSON-style arrays stay YAML", func(t *testing.T) {
		input := `items:
  - when: arch == "2.0"
    expression: |
      ["legacy"]
  - when: arch == "3.0"
    expression: |
      ["modern"]`
		got, err := LoadData(input)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.IsType(t, map[string]any{}, got[0])
	})

	t.Run("ndjson keeps plain lines as strings", func(t *testing.T) {
		input := "{\"level\":\"debug\"}\r❌ error message\n{\"level\":\"info\"}"
		got, err := LoadData(input)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.IsType(t, map[string]any{}, got[0])
		assert.Equal(t, "❌ error message", got[1])
		assert.IsType(t, map[string]any{}, got[2])
	})

	t.Run("many bare list items are not ndjson", func(t *testing.T) {
		input := "linters:\n  enable:\n    - asciicheck\n    - bodyclose\n    - dogsled\n    - dupl\n    - errcheck"
		got, err := LoadData(input)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.IsType(t, map[string]any{}, got[0])
	})
}

func TestLoadDataTOML(t *testing.T) {
	input := `title = "Sample"

[server]
host = "localhost"
port = 8080

[[users]]
name = "Alice"
roles = ["admin", "user"]

[[users]]
name = "Bob"
roles = ["user"]`

	got, err := LoadData(input)
	require.NoError(t, err)
	require.Len(t, got, 1)

	m, ok := got[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Sample", m["title"])
	server, ok := m["server"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "localhost", server["host"])
	assert.Equal(t, int64(8080), server["port"])
	users, ok := m["users"].([]any)
	require.True(t, ok)
	assert.Len(t, users, 2)
}

func TestIsLikelyTOML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{
			name: "TOML with section header",
			input: `[server]
host = "localhost"`,
			want: true,
		},
		{
			name: "TOML with array of tables",
			input: `[[items]]
name = "item1"`,
			want: true,
		},
		{
			name: "key-value assignments",
			input: `name = "test"
value = 42
enabled = true`,
			want: true,
		},
		{
			name: "YAML syntax",
			input: `name: test
value: 42`,
			want: false,
		},
		{
			name:  "JSON object",
			input: `{"name": "test"}`,
			want:  false,
		},
		{
			name: "YAML list",
			input: `- item1
- item2`,
			want: false,
		},
		{
			name: "quoted key assignment",
			input: `"table name" = "value"
"another-key" = 42`,
			want: true,
		},
		{
			name: "dotted key assignment",
			input: `database.host = "localhost"
database.port = 5432`,
			want: true,
		},
		{
			name: "quoted section header",
			input: `["table name"]
key = "value"`,
			want: true,
		},
		{
			name: "dotted section header",
			input: `[database.credentials]
username = "admin"`,
			want: true,
		},
		{
			name: "mixed dotted and quoted section",
			input: `[server."host.name"]
value = "test"`,
			want: true,
		},
		{
			name:  "JSON array should not match",
			input: `[1, 2, 3]`,
			want:  false,
		},
		{
			name: "indented JSON-style array not mistaken for TOML section",
			input: `            - when: _.gcpArchitecture == "2.0"
              expression: |
                ["legacy"]`,
			want: false,
		},
		{
			name: "section header alone without key-value lines",
			input: `[server]
some text that is not a kv pair`,
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isLikelyTOML(tt.input)
			assert.Equal(t, tt.want, got, "isLikelyTOML(%q)", tt.input)
		})
	}
}

func TestLoadRoot(t *testing.T) {
	root, err := LoadRoot(`{"name":"test"}`)
	require.NoError(t, err)
	assert.IsType(t, map[string]any{}, root)

	root, err = LoadRoot("name: Alice\n---\nname: Bob")
	require.NoError(t, err)
	arr, ok := root.([]any)
	require.True(t, ok, "expected []any, got %T", root)
	assert.Len(t, arr, 2)

	root, err = LoadRootBytes([]byte("a = 1"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1)}, root)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"data.yaml": "name: test\nvalue: 42\n",
		"data.json": `{"name":"test"}`,
		"data.toml": "[server]\nhost = \"localhost\"\n",
		// content decides the format, not the extension
		"oops.toml": `{"key":"val"}`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		root, err := LoadFile(path)
		require.NoError(t, err, name)
		assert.IsType(t, map[string]any{}, root, name)
	}

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFileWithLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a": 1}`), 0o644))

	var messages []string
	lgr := funcr.New(func(_, args string) {
		messages = append(messages, args)
	}, funcr.Options{Verbosity: 1})

	root, err := LoadFileWithLogger(path, lgr)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, root)
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], "read input file")
	assert.Contains(t, messages[1], `"format"="json"`)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"a": [}`), 0o644))
	_, err = LoadFileWithLogger(bad, logr.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}
