// Package migrate upgrades versioned on-disk documents one schema version at a
// time. Each document kind owns a [Registry]; the config and session packages
// register their upgrades against [Config] and [Session].
package migrate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Migration upgrades a document from Version-1 to Version.
type Migration struct {
	// Version is the schema version this migration produces.
	Version int
	// Description is a short label for log output.
	Description string
	// Upgrade transforms the raw document bytes.
	Upgrade func(data []byte) ([]byte, error)
}

// ///////////////////////////////////////////////
// Running
// ///////////////////////////////////////////////

// Run applies every migration with fromVersion < m.Version in version order.
// It returns the transformed data and the last version reached; on error the
// version is the last one that succeeded.
func Run(data []byte, fromVersion int, migrations []Migration) ([]byte, int, error) {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	version := fromVersion
	for _, m := range sorted {
		if version >= m.Version {
			continue
		}
		slog.Info("applying migration", "version", m.Version, "description", m.Description)
		out, err := m.Upgrade(data)
		if err != nil {
			return nil, version, fmt.Errorf("migration to v%d failed: %w", m.Version, err)
		}
		data, version = out, m.Version
	}
	return data, version, nil
}

// NeedsMigration reports whether a document at fileVersion differs from
// currentVersion or has pending migrations.
func NeedsMigration(fileVersion, currentVersion int, migrations []Migration) bool {
	if fileVersion != currentVersion {
		return true
	}
	for _, m := range migrations {
		if fileVersion < m.Version {
			return true
		}
	}
	return false
}

// ///////////////////////////////////////////////
// JSON Helpers
// ///////////////////////////////////////////////

// JSONObject adapts fn into an Upgrade function operating on a decoded JSON
// object. The version key is left for the caller to restamp.
func JSONObject(fn func(doc map[string]any) error) func([]byte) ([]byte, error) {
	return func(data []byte) ([]byte, error) {
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
		if doc == nil {
			return nil, fmt.Errorf("document is not an object")
		}
		if err := fn(doc); err != nil {
			return nil, err
		}
		return json.Marshal(doc)
	}
}

// PeekJSONVersion reads the "$version" key without decoding the rest of the
// document. A missing key reads as version 1.
func PeekJSONVersion(data []byte) (int, error) {
	var partial struct {
		Version int `json:"$version"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return 0, fmt.Errorf("peeking version: %w", err)
	}
	if partial.Version == 0 {
		return 1, nil
	}
	return partial.Version, nil
}
