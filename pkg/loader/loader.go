// Package loader parses structured text (YAML, JSON, NDJSON, TOML) and
// builds node trees from the decoded data.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	// TOML section headers: [server], [[items]], ["table name"], [db.credentials].
	// Must start the line; indented ["x"] inside YAML block scalars and JSON
	// arrays like [1, 2, 3] do not match.
	tomlSectionPattern = regexp.MustCompile(`^\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	// TOML key = value (YAML uses key: value).
	tomlKeyValuePattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// Format names a detected input format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatNDJSON   Format = "ndjson"
	FormatYAML     Format = "yaml"
	FormatMultiDoc Format = "yaml-multidoc"
	FormatTOML     Format = "toml"
)

// Detect reports the format LoadData would parse input as.
// Detection order: multi-doc YAML, NDJSON, TOML, JSON, YAML.
func Detect(input string) Format {
	input = strings.TrimSpace(input)
	switch {
	case strings.Contains(input, "\n---") || strings.HasPrefix(input, "---"):
		return FormatMultiDoc
	case isLikelyNDJSON(strings.Split(input, "\n")):
		return FormatNDJSON
	case isLikelyTOML(input):
		// checked before JSON: "[server]" looks like a JSON array
		return FormatTOML
	case strings.HasPrefix(input, "{") || strings.HasPrefix(input, "["):
		return FormatJSON
	default:
		return FormatYAML
	}
}

// LoadData loads structured data from a string, auto-detecting format.
// Every format returns one element per parsed document; single-document
// inputs yield a one-element slice.
func LoadData(input string) ([]any, error) {
	return LoadDataWithLogger(input, logr.Discard())
}

// LoadDataWithLogger is LoadData with debug logging of the detected format.
func LoadDataWithLogger(input string, lgr logr.Logger) ([]any, error) {
	input = strings.TrimSpace(normalizeLineEndings(input))
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}

	format := Detect(input)
	lgr.V(1).Info("detected input format", "format", format, "bytes", len(input))

	switch format {
	case FormatMultiDoc:
		return loadMultiDocYAML(input)
	case FormatNDJSON:
		return loadNDJSON(input)
	case FormatTOML:
		docs, err := loadTOML(input)
		if err != nil {
			lgr.V(1).Info("TOML parse failed, retrying as YAML", "error", err.Error())
			if docs, yerr := loadYAML(input); yerr == nil {
				return docs, nil
			}
		}
		return docs, err
	case FormatJSON:
		docs, err := loadJSON(input)
		if err != nil {
			// "[a, b]" and "{a: 1}" are valid YAML flow collections
			lgr.V(1).Info("JSON parse failed, retrying as YAML", "error", err.Error())
			if docs, yerr := loadYAML(input); yerr == nil {
				return docs, nil
			}
		}
		return docs, err
	default:
		return loadYAML(input)
	}
}

// LoadRoot parses input into a single root value. Multi-document inputs are
// returned as a slice.
func LoadRoot(input string) (any, error) {
	return LoadRootWithLogger(input, logr.Discard())
}

// LoadRootWithLogger is LoadRoot with debug logging.
func LoadRootWithLogger(input string, lgr logr.Logger) (any, error) {
	results, err := LoadDataWithLogger(input, lgr)
	if err != nil {
		return nil, err
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

// LoadRootBytes parses input bytes into a single root value.
func LoadRootBytes(data []byte) (any, error) {
	return LoadRoot(string(data))
}

// LoadFile reads a file and parses it into a single root value.
func LoadFile(path string) (any, error) {
	return LoadFileWithLogger(path, logr.Discard())
}

// LoadFileWithLogger is LoadFile with debug logging.
func LoadFileWithLogger(path string, lgr logr.Logger) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lgr.V(1).Info("read input file", "path", path, "bytes", len(data))
	root, err := LoadRootWithLogger(string(data), lgr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// normalizeLineEndings turns CRLF and bare CR (progress-bar output) into LF.
func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func loadJSON(input string) ([]any, error) {
	var data any
	if err := json.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return []any{data}, nil
}

func loadYAML(input string) ([]any, error) {
	var data any
	if err := yaml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return []any{data}, nil
}

// loadMultiDocYAML decodes "---" separated documents, skipping empty ones.
func loadMultiDocYAML(input string) ([]any, error) {
	var results []any
	decoder := yaml.NewDecoder(strings.NewReader(input))
	for {
		var doc any
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid multi-document YAML: %w", err)
		}
		if doc != nil {
			results = append(results, doc)
		}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no documents found in multi-document YAML")
	}
	return results, nil
}

// loadNDJSON parses one JSON value per line. Lines that are not valid JSON
// are kept as plain strings.
func loadNDJSON(input string) ([]any, error) {
	lines := strings.Split(input, "\n")
	results := make([]any, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var obj any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			results = append(results, line)
			continue
		}
		results = append(results, obj)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no data found in input")
	}
	return results, nil
}

// isLikelyNDJSON requires several non-empty lines with a majority starting
// with '{' or '['. YAML lists ("- name") never qualify.
func isLikelyNDJSON(lines []string) bool {
	jsonCount, nonEmpty := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}
	return nonEmpty > 1 && jsonCount > nonEmpty/2
}

// isLikelyTOML is true when input has a section header or a majority of
// key = value lines.
func isLikelyTOML(input string) bool {
	sections, keyValues, nonEmpty := 0, 0, 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmpty++
		if tomlSectionPattern.MatchString(line) {
			sections++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValues++
		}
	}
	return sections > 0 || (nonEmpty > 0 && keyValues > nonEmpty/2)
}

func loadTOML(input string) ([]any, error) {
	var data any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []any{data}, nil
}
