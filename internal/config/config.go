// Package config provides configuration loading and defaults for the
// runtracker daemon.
//
// Configuration is loaded from a TOML file in the user's data directory. It
// selects the discovery strategy, locates game instances, tunes the tracking
// cycle and controls logging.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/mitchellh/go-homedir"

	"tools.zach/dev/runtracker/internal/atomicfile"
	"tools.zach/dev/runtracker/internal/discovery"
	"tools.zach/dev/runtracker/internal/migrate"
	"tools.zach/dev/runtracker/internal/paths"
)

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version used for migrations.
	Version int `toml:"version"`
	// Records selects how new run records are discovered.
	Records RecordsConfig `toml:"records"`
	// Instances locates game instances for polling discovery.
	Instances InstancesConfig `toml:"instances"`
	// Behavior tunes the tracking cycle.
	Behavior BehaviorConfig `toml:"behavior"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// RecordsConfig holds discovery settings.
type RecordsConfig struct {
	// Strategy is "reactive" (watch RecordsDir) or "polling" (follow attempt counters).
	Strategy string `toml:"strategy"`
	// RecordsDir is the shared directory the game writes one record per run into.
	RecordsDir string `toml:"records_dir"`
}

// InstancesConfig locates game instances and the files inside them.
type InstancesConfig struct {
	// Paths are doublestar glob patterns matching instance directories.
	Paths []string `toml:"paths"`
	// AttemptsFile is the properties file holding the attempt counter.
	AttemptsFile string `toml:"attempts_file"`
	// AttemptsKey is the property carrying the counter.
	AttemptsKey string `toml:"attempts_key"`
	// WorldNameFormat names world folders; %d is the attempt index.
	WorldNameFormat string `toml:"world_name_format"`
	// RecordPath is the record file relative to a world folder.
	RecordPath string `toml:"record_path"`
}

// BehaviorConfig holds tracking cycle settings.
type BehaviorConfig struct {
	// TickIntervalSeconds is the minimum spacing between processing passes.
	TickIntervalSeconds int `toml:"tick_interval_seconds"`
	// BreakThresholdSeconds is the inactivity gap recorded as a break.
	BreakThresholdSeconds int `toml:"break_threshold_seconds"`
	// ResumeWindowMinutes is how recently a session must have been saved to resume it.
	ResumeWindowMinutes int `toml:"resume_window_minutes"`
	// BenchmarkMarker is a path whose existence turns benchmark mode on.
	BenchmarkMarker string `toml:"benchmark_marker,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: migrate.Config.CurrentVersion,
		Records: RecordsConfig{
			Strategy:   string(discovery.StrategyReactive),
			RecordsDir: "~/" + paths.RecordsDirRel,
		},
		Instances: InstancesConfig{
			Paths:           []string{},
			AttemptsFile:    paths.AttemptsFile,
			AttemptsKey:     paths.AttemptsKey,
			WorldNameFormat: paths.WorldNameFormat,
			RecordPath:      paths.WorldRecordFile,
		},
		Behavior: BehaviorConfig{
			TickIntervalSeconds:   5,
			BreakThresholdSeconds: 120,
			ResumeWindowMinutes:   5,
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ExampleConfig returns a Config suitable for generating config.default.toml.
func ExampleConfig() *Config {
	cfg := DefaultConfig()
	cfg.Instances.Paths = []string{"~/MultiMC/instances/*/.minecraft"}
	return cfg
}

// ///////////////////////////////////////////////
// PeekVersion
// ///////////////////////////////////////////////

// PeekVersion reads just the version field from raw TOML bytes.
// Returns 1 if the version field is missing, zero or unreadable.
func PeekVersion(data []byte) int {
	var v struct {
		Version int `toml:"version"`
	}
	if err := toml.Unmarshal(data, &v); err != nil || v.Version == 0 {
		return 1
	}
	return v.Version
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses dataDir/config.toml over [DefaultConfig]. A missing
// file yields the defaults. Files at an older version are backed up to
// config.toml.bak, migrated and saved back.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, paths.ConfigFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	version := PeekVersion(data)
	migrated := false
	if migrate.Config.NeedsMigration(version) && version < migrate.Config.CurrentVersion {
		if backupErr := os.WriteFile(path+".bak", data, 0o644); backupErr != nil {
			slog.Warn("failed to write config backup", "error", backupErr)
		}
		if data, _, err = migrate.Config.Run(data, version); err != nil {
			return nil, fmt.Errorf("migrate config: %w", err)
		}
		migrated = true
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Version = migrate.Config.CurrentVersion

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if migrated {
		if err := cfg.Save(path); err != nil {
			slog.Warn("failed to save migrated config", "error", err)
		}
	}
	return cfg, nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// worldFormatRe matches a template with exactly one integer verb.
var worldFormatRe = regexp.MustCompile(`^[^%]*%d[^%]*$`)

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if !discovery.Strategy(c.Records.Strategy).Valid() {
		return fmt.Errorf("invalid records.strategy %q: must be reactive or polling", c.Records.Strategy)
	}
	if c.Records.Strategy == string(discovery.StrategyReactive) && c.Records.RecordsDir == "" {
		return fmt.Errorf("records.records_dir is required for the reactive strategy")
	}

	for _, p := range c.Instances.Paths {
		if !doublestar.ValidatePathPattern(p) {
			return fmt.Errorf("invalid instances.paths pattern %q", p)
		}
	}
	if c.Instances.AttemptsFile == "" || c.Instances.AttemptsKey == "" || c.Instances.RecordPath == "" {
		return fmt.Errorf("instances.attempts_file, attempts_key and record_path must be set")
	}
	if !worldFormatRe.MatchString(c.Instances.WorldNameFormat) {
		return fmt.Errorf("invalid instances.world_name_format %q: must contain exactly one %%d", c.Instances.WorldNameFormat)
	}

	if c.Behavior.TickIntervalSeconds <= 0 {
		return fmt.Errorf("tick_interval_seconds must be > 0, got %d", c.Behavior.TickIntervalSeconds)
	}
	if c.Behavior.BreakThresholdSeconds <= 0 {
		return fmt.Errorf("break_threshold_seconds must be > 0, got %d", c.Behavior.BreakThresholdSeconds)
	}
	if c.Behavior.ResumeWindowMinutes <= 0 {
		return fmt.Errorf("resume_window_minutes must be > 0, got %d", c.Behavior.ResumeWindowMinutes)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}
	return nil
}

// ///////////////////////////////////////////////
// Derived Values
// ///////////////////////////////////////////////

// TickInterval returns the configured tick spacing.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Behavior.TickIntervalSeconds) * time.Second
}

// BreakThreshold returns the configured break gap.
func (c *Config) BreakThreshold() time.Duration {
	return time.Duration(c.Behavior.BreakThresholdSeconds) * time.Second
}

// ResumeWindow returns the configured resume window.
func (c *Config) ResumeWindow() time.Duration {
	return time.Duration(c.Behavior.ResumeWindowMinutes) * time.Minute
}

// Strategy returns the configured discovery strategy.
func (c *Config) Strategy() discovery.Strategy {
	return discovery.Strategy(c.Records.Strategy)
}

// RecordsPath returns RecordsDir with a leading ~ expanded.
func (c *Config) RecordsPath() string {
	return expandHome(c.Records.RecordsDir)
}

// Layout returns the instance layout for polling discovery.
func (c *Config) Layout() discovery.Layout {
	l := discovery.DefaultLayout()
	l.AttemptsFile = c.Instances.AttemptsFile
	l.AttemptsKey = c.Instances.AttemptsKey
	l.WorldNameFormat = c.Instances.WorldNameFormat
	l.RecordPath = c.Instances.RecordPath
	return l
}

// BenchmarkActive reports whether the benchmark marker file exists.
func (c *Config) BenchmarkActive() bool {
	if c.Behavior.BenchmarkMarker == "" {
		return false
	}
	_, err := os.Stat(expandHome(c.Behavior.BenchmarkMarker))
	return err == nil
}

// ExpandInstances resolves the instance patterns to existing directories,
// deduplicated and sorted. Invalid patterns are logged and skipped.
func (c *Config) ExpandInstances() []string {
	seen := map[string]bool{}
	var out []string
	for _, pattern := range c.Instances.Paths {
		matches, err := doublestar.FilepathGlob(expandHome(pattern))
		if err != nil {
			slog.Warn("invalid glob pattern", "pattern", pattern, "error", err)
			continue
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil || seen[abs] {
				continue
			}
			if info, err := os.Stat(abs); err != nil || !info.IsDir() {
				continue
			}
			seen[abs] = true
			out = append(out, abs)
		}
	}
	sort.Strings(out)
	return out
}

// expandHome expands a leading ~ to the user's home directory, returning the
// input unchanged when that fails.
func expandHome(p string) string {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return p
	}
	return expanded
}
