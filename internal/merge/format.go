package merge

import (
	"strings"
	"unicode/utf8"
)

// Format is the recognised content shape of a file, used to pick a
// merge strategy.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatTOML
	FormatINI
	FormatText
	FormatBinary
)

// DetectFormat classifies a file by extension first, falling back to a
// content sniff for extensionless files. Bytes that fail a UTF-8 check
// are treated as binary regardless of extension.
func DetectFormat(path string, content []byte) Format {
	if ext := extOf(path); ext != "" {
		switch ext {
		case "json":
			return FormatJSON
		case "yaml", "yml":
			return FormatYAML
		case "toml":
			return FormatTOML
		case "ini", "cfg", "conf":
			return FormatINI
		}
	}
	if !utf8.Valid(content) {
		return FormatBinary
	}
	return sniff(content)
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i == -1 || i == len(path)-1 {
		return ""
	}
	return strings.ToLower(path[i+1:])
}

// sniff makes a best-effort structured-format guess from content alone,
// used for extensionless files. Anything it can't confidently classify
// falls back to plain text.
func sniff(content []byte) Format {
	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return FormatText
	}
	switch trimmed[0] {
	case '{', '[':
		return FormatJSON
	}
	if strings.HasPrefix(trimmed, "---") {
		return FormatYAML
	}
	if strings.HasPrefix(trimmed, "[") && strings.Contains(trimmed, "]") {
		return FormatINI
	}
	return FormatText
}

// IsStructured reports whether a format uses the deep-merge path rather
// than the 3-way text/binary path.
func (f Format) IsStructured() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatTOML, FormatINI:
		return true
	default:
		return false
	}
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	case FormatINI:
		return "ini"
	case FormatText:
		return "text"
	default:
		return "binary"
	}
}
