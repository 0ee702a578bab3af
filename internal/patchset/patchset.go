// Package patchset reads global string patches from JSON, YAML or TOML files and
// dumps string tables in the same shape, so a dump can be edited and fed
// back to the patch command.
package patchset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/dsotools/pkg/dso"
)

// Format selects the patch file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var (
	ErrInvalidKey   = errors.New("patchset: key is not a string index")
	ErrInvalidValue = errors.New("patchset: value is not a string")
	ErrInvalidUTF8  = errors.New("patchset: entry is not valid UTF-8")
)

// FormatFor picks the format from a file extension: .yaml and .yml are YAML,
// .toml is TOML, anything else is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatTOML:
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, yaml or toml)", s)
	}
}

// Load reads the patch file at path.
func Load(path string) (map[int]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	patches, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return patches, nil
}

// Parse decodes a mapping from decimal string index to replacement text.
func Parse(data []byte, format Format) (map[int]string, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatTOML:
		return parseTOML(data)
	default:
		return parseJSON(data)
	}
}

func parseJSON(data []byte) (map[int]string, error) {
	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("patchset: decode json: %w", err)
	}
	out := make(map[int]string, len(raw))
	for key, val := range raw {
		if val == nil {
			return nil, fmt.Errorf("%w: %q is null", ErrInvalidValue, key)
		}
		if err := put(out, key, *val); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseYAML(data []byte) (map[int]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("patchset: decode yaml: %w", err)
	}
	out := map[int]string{}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return out, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("patchset: yaml line %d: expected a mapping", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: yaml line %d", ErrInvalidKey, k.Line)
		}
		if v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
			return nil, fmt.Errorf("%w: %q (yaml line %d)", ErrInvalidValue, k.Value, v.Line)
		}
		if err := put(out, k.Value, v.Value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Indices converts string keys, as found in JSON request bodies, to table
// indices with the same rules as patch files.
func Indices(raw map[string]string) (map[int]string, error) {
	out := make(map[int]string, len(raw))
	for key, val := range raw {
		if err := put(out, key, val); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseTOML(data []byte) (map[int]string, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("patchset: decode toml: %w", err)
	}
	out := make(map[int]string, len(raw))
	for key, val := range raw {
		text, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %q is %T", ErrInvalidValue, key, val)
		}
		if err := put(out, key, text); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func put(out map[int]string, key, val string) error {
	idx, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if _, dup := out[idx]; dup {
		return fmt.Errorf("%w: %q duplicates index %d", ErrInvalidKey, key, idx)
	}
	out[idx] = val
	return nil
}

// Dump writes t as a JSON object keyed by index, in index order, indented
// with four spaces.
func Dump(w io.Writer, t dso.StringTable) error {
	if err := checkUTF8(t); err != nil {
		return err
	}
	var buf bytes.Buffer
	if len(t) == 0 {
		buf.WriteString("{}\n")
		_, err := w.Write(buf.Bytes())
		return err
	}

	var val bytes.Buffer
	enc := json.NewEncoder(&val)
	enc.SetEscapeHTML(false)

	buf.WriteString("{\n")
	for i, entry := range t {
		val.Reset()
		if err := enc.Encode(string(entry)); err != nil {
			return fmt.Errorf("patchset: encode entry %d: %w", i, err)
		}
		fmt.Fprintf(&buf, "    %q: %s", strconv.Itoa(i), bytes.TrimRight(val.Bytes(), "\n"))
		if i < len(t)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// DumpYAML writes t as a YAML mapping keyed by index, in index order.
func DumpYAML(w io.Writer, t dso.StringTable) error {
	if err := checkUTF8(t); err != nil {
		return err
	}
	root := &yaml.Node{Kind: yaml.MappingNode}
	for i, entry := range t {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: strconv.Itoa(i), Style: yaml.DoubleQuotedStyle},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(entry)},
		)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("patchset: encode yaml: %w", err)
	}
	return enc.Close()
}

// DumpTOML writes t as a TOML table of quoted index keys. The encoder sorts
// keys as strings, so "10" comes before "2".
func DumpTOML(w io.Writer, t dso.StringTable) error {
	if err := checkUTF8(t); err != nil {
		return err
	}
	m := make(map[string]string, len(t))
	for i, entry := range t {
		m[strconv.Itoa(i)] = string(entry)
	}
	if err := toml.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("patchset: encode toml: %w", err)
	}
	return nil
}

// Write dumps t in the given format.
func Write(w io.Writer, t dso.StringTable, format Format) error {
	switch format {
	case FormatYAML:
		return DumpYAML(w, t)
	case FormatTOML:
		return DumpTOML(w, t)
	default:
		return Dump(w, t)
	}
}

func checkUTF8(t dso.StringTable) error {
	for i, entry := range t {
		if !utf8.Valid(entry) {
			return fmt.Errorf("%w: index %d", ErrInvalidUTF8, i)
		}
	}
	return nil
}
