package merge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/anthropics/jin/internal/jinerr"
)

// Decode parses content of the given format into a generic tree of
// map[string]interface{} / []interface{} / scalars, suitable for
// mergeValue. A parse failure is reported as jinerr.ParseError.
func Decode(format Format, layer string, content []byte) (interface{}, error) {
	switch format {
	case FormatJSON:
		if len(bytes.TrimSpace(content)) == 0 {
			return map[string]interface{}{}, nil
		}
		var v interface{}
		if err := json.Unmarshal(content, &v); err != nil {
			return nil, &jinerr.ParseError{Format: "json", Layer: layer, Message: err.Error()}
		}
		return v, nil
	case FormatYAML:
		if len(bytes.TrimSpace(content)) == 0 {
			return map[string]interface{}{}, nil
		}
		var v interface{}
		if err := yaml.Unmarshal(content, &v); err != nil {
			return nil, &jinerr.ParseError{Format: "yaml", Layer: layer, Message: err.Error()}
		}
		return normalizeYAML(v), nil
	case FormatTOML:
		m := map[string]interface{}{}
		if len(bytes.TrimSpace(content)) > 0 {
			if err := toml.Unmarshal(content, &m); err != nil {
				return nil, &jinerr.ParseError{Format: "toml", Layer: layer, Message: err.Error()}
			}
		}
		return m, nil
	case FormatINI:
		return decodeINI(layer, content)
	default:
		return nil, fmt.Errorf("format %s is not structured", format)
	}
}

// Encode serialises a merged generic tree back to the given format's
// textual representation.
func Encode(format Format, v interface{}) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		m, ok := asMap(v)
		if !ok {
			return nil, fmt.Errorf("toml output must be a table at the root, got %T", v)
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(m); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatINI:
		m, ok := asMap(v)
		if !ok {
			return nil, fmt.Errorf("ini output must be a table at the root, got %T", v)
		}
		return encodeINI(m)
	default:
		return nil, fmt.Errorf("format %s is not structured", format)
	}
}

// normalizeYAML walks a yaml.v3-decoded value and converts any
// map[interface{}]interface{} nodes (can appear from merge keys or
// certain anchors) to map[string]interface{}, so the rest of the
// merge engine only ever deals with one map shape.
func normalizeYAML(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}

// decodeINI flattens an INI file into a two-level generic tree: the
// unnamed/DEFAULT section's keys sit at the root, every other section
// becomes a nested map[string]interface{} of string values.
func decodeINI(layer string, content []byte) (interface{}, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return map[string]interface{}{}, nil
	}
	f, err := ini.Load(content)
	if err != nil {
		return nil, &jinerr.ParseError{Format: "ini", Layer: layer, Message: err.Error()}
	}
	out := map[string]interface{}{}
	for _, sec := range f.Sections() {
		keys := sec.Keys()
		if len(keys) == 0 {
			continue
		}
		if sec.Name() == ini.DefaultSection {
			for _, k := range keys {
				out[k.Name()] = k.Value()
			}
			continue
		}
		section := make(map[string]interface{}, len(keys))
		for _, k := range keys {
			section[k.Name()] = k.Value()
		}
		out[sec.Name()] = section
	}
	return out, nil
}

// encodeINI re-expands a merged generic tree back into INI text.
// Top-level scalar keys become the DEFAULT section; top-level
// map-valued keys become named sections.
func encodeINI(m map[string]interface{}) ([]byte, error) {
	f := ini.Empty()

	keys := sortedKeys(m)
	for _, k := range keys {
		if sub, ok := asMap(m[k]); ok {
			sec, err := f.NewSection(k)
			if err != nil {
				return nil, err
			}
			for _, sk := range sortedKeys(sub) {
				sec.NewKey(sk, fmt.Sprintf("%v", sub[sk]))
			}
			continue
		}
		f.Section(ini.DefaultSection).NewKey(k, fmt.Sprintf("%v", m[k]))
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
