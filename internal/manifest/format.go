package manifest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatAuto Format = "auto"
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a configuration string to a Format. "" selects FormatAuto.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatXML, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// DetectFormat picks a format from the file extension, falling back to the first
// non-blank byte of data: '<' is XML, anything else YAML.
func DetectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML
	case ".yaml", ".yml":
		return FormatYAML
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return FormatXML
	}
	return FormatYAML
}
