// Package export renders session summaries as JSON or YAML and archives
// historical sessions into a SQLite database.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"tools.zach/dev/runtracker/internal/session"
)

// Exporter writes a summary in one format.
type Exporter interface {
	Export(sum session.Summary, w io.Writer) error
	Extension() string
}

// NewExporter returns the exporter for format.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "json":
		return JSONExporter{}, nil
	case "yaml", "yml":
		return YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, yaml)", format)
	}
}

// JSONExporter writes indented JSON.
type JSONExporter struct{}

func (JSONExporter) Export(sum session.Summary, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

func (JSONExporter) Extension() string { return "json" }

// YAMLExporter writes a YAML document.
type YAMLExporter struct{}

func (YAMLExporter) Export(sum session.Summary, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sum); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func (YAMLExporter) Extension() string { return "yaml" }
