package migrate

import "fmt"

// Registry holds the current version and upgrades of one document kind.
type Registry struct {
	// CurrentVersion is the version that fully migrated documents carry.
	CurrentVersion int
	// Migrations is exported so tests can swap the list.
	Migrations []Migration
}

// Register adds m. It panics when m.Version is already registered.
func (r *Registry) Register(m Migration) {
	for _, existing := range r.Migrations {
		if existing.Version == m.Version {
			panic(fmt.Sprintf("migrate: duplicate migration version %d (description: %q)", m.Version, m.Description))
		}
	}
	r.Migrations = append(r.Migrations, m)
}

// NeedsMigration reports whether a document at fileVersion has work to do.
func (r *Registry) NeedsMigration(fileVersion int) bool {
	return NeedsMigration(fileVersion, r.CurrentVersion, r.Migrations)
}

// Run applies the registered migrations from fromVersion.
func (r *Registry) Run(data []byte, fromVersion int) ([]byte, int, error) {
	return Run(data, fromVersion, r.Migrations)
}

// Config is the registry for config.toml.
var Config = &Registry{CurrentVersion: 1}

// Session is the registry for session documents, both current and historical.
// Version 2 added "$version" and guarantees every counter and series key.
var Session = &Registry{CurrentVersion: 2}
