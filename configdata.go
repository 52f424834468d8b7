// Package runtracker embeds the annotated default configuration.
//
// The daemon writes [DefaultConfigTOML] to the data directory on first run.
package runtracker

import _ "embed"

// DefaultConfigTOML holds config.default.toml as generated by cmd/genconfig.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
