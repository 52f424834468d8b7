// Package paths centralizes file and directory names used across the project.
// All data directory file names are defined here as the single source of truth.
package paths

import (
	"path/filepath"
	"strconv"
)

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Data directory file names.
const (
	PIDFile         = "tracker.pid"
	ConfigFile      = "config.toml"
	LogFile         = "tracker.log"
	CurrentSession  = "session.json"
	SessionsDir     = "sessions"
	SessionExt      = ".json"
	ArchiveDatabase = "archive.db"
	BinaryName      = "runtracker"
	DataDirRel      = ".runtracker" // relative to $HOME
)

// Game-side defaults, relative to an instance's working directory unless noted.
const (
	RecordsDirRel   = "speedrunigt/records" // relative to $HOME
	AttemptsFile    = "config/atum/atum.properties"
	AttemptsKey     = "rsgAttempts"
	SavesDir        = "saves"
	WorldNameFormat = "Random Speedrun #%d"
	WorldRecordFile = "speedrunigt/record.json"
)

// SessionFileName returns the historical file name for a session identified by
// its start timestamp. For example, SessionFileName(1700000000000) returns
// "1700000000000.json".
func SessionFileName(start int64) string {
	return strconv.FormatInt(start, 10) + SessionExt
}

// ///////////////////////////////////////////////
// DataDir
// ///////////////////////////////////////////////

// DataDir provides path construction methods rooted at a data directory.
type DataDir struct {
	Root string
}

// PID returns the full path to the PID file.
func (d DataDir) PID() string { return filepath.Join(d.Root, PIDFile) }

// Config returns the full path to the config file.
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }

// Log returns the full path to the log file.
func (d DataDir) Log() string { return filepath.Join(d.Root, LogFile) }

// Current returns the full path to the always-overwritten current session file.
func (d DataDir) Current() string { return filepath.Join(d.Root, CurrentSession) }

// Sessions returns the full path to the historical sessions directory.
func (d DataDir) Sessions() string { return filepath.Join(d.Root, SessionsDir) }

// Session returns the full path to the historical file for the session that
// started at start.
func (d DataDir) Session(start int64) string {
	return filepath.Join(d.Sessions(), SessionFileName(start))
}

// Archive returns the default path of the SQLite export archive.
func (d DataDir) Archive() string { return filepath.Join(d.Root, ArchiveDatabase) }
