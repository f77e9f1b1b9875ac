package output

import (
	"fmt"
	"strings"

	"github.com/namelens/genproxy/internal/config"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formatter renders an effective configuration.
type Formatter interface {
	FormatConfig(cfg *config.Config) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// RenderConfig redacts secrets and renders cfg in format.
func RenderConfig(format Format, cfg *config.Config) (string, error) {
	if cfg == nil {
		return "", nil
	}
	redacted := cfg.Redacted()
	return NewFormatter(format).FormatConfig(&redacted)
}
