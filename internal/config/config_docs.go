package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "records.strategy")
// to their [FieldDoc] entries.
var ConfigDocs = map[string]FieldDoc{
	// ── Root ──────────────────────────────────────────────────────
	"version": {
		Comment: "Config schema version, do not edit.",
	},

	// ── Records ──────────────────────────────────────────────────
	"records.strategy": {
		Comment: "How new run records are found.\nreactive: watch records_dir for new files (falls back to directory polling if watching fails)\npolling: follow each instance's attempt counter and read the world's record file",
		Alternatives: []string{
			`strategy = "polling"`,
		},
	},
	"records.records_dir": {
		Comment: "Shared directory the timer mod writes one record per run into.\nA leading ~ expands to your home directory.",
	},

	// ── Instances ────────────────────────────────────────────────
	"instances.paths": {
		Comment: "Instance directories scanned by the polling strategy.\nDoublestar globs are supported (** matches any depth).",
		Alternatives: []string{
			`paths = ["~/.local/share/PrismLauncher/instances/*/.minecraft"]`,
			`paths = ["C:/MultiMC/instances/**/.minecraft"]`,
		},
	},
	"instances.attempts_file": {
		Comment: "Properties file holding the attempt counter, relative to an instance.",
	},
	"instances.attempts_key": {},
	"instances.world_name_format": {
		Comment: "World folder name; %d is replaced with the attempt index.",
	},
	"instances.record_path": {
		Comment: "Record file relative to a world folder.",
	},

	// ── Behavior ─────────────────────────────────────────────────
	"behavior.tick_interval_seconds": {
		Comment: "Minimum spacing between processing passes.",
	},
	"behavior.break_threshold_seconds": {
		Comment: "Inactivity longer than this is recorded as a break.",
	},
	"behavior.resume_window_minutes": {
		Comment: "On startup, resume the last session if it was saved this recently and has a gold run.",
	},
	"behavior.benchmark_marker": {
		Comment: "While this file exists, discovered runs are discarded instead of tracked.",
		Alternatives: []string{
			`benchmark_marker = "~/.runtracker/benchmark"`,
		},
	},

	// ── Log ──────────────────────────────────────────────────────
	"log.level": {
		Comment: "Log level: trace, debug, info, warn, error",
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in MB before rotation.",
	},
}
