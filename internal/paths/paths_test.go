package paths

import (
	"path/filepath"
	"testing"
)

// ///////////////////////////////////////////////
// Constant Value Tests
// ///////////////////////////////////////////////

func TestConstantValues(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"DataDirRel", DataDirRel, ".runtracker"},
		{"PIDFile", PIDFile, "tracker.pid"},
		{"ConfigFile", ConfigFile, "config.toml"},
		{"LogFile", LogFile, "tracker.log"},
		{"CurrentSession", CurrentSession, "session.json"},
		{"SessionsDir", SessionsDir, "sessions"},
		{"AttemptsKey", AttemptsKey, "rsgAttempts"},
		{"WorldNameFormat", WorldNameFormat, "Random Speedrun #%d"},
		{"BinaryName", BinaryName, "runtracker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

// ///////////////////////////////////////////////
// DataDir Method Tests
// ///////////////////////////////////////////////

func TestDataDirMethods(t *testing.T) {
	root := filepath.Join("home", "user", ".runtracker")
	d := DataDir{Root: root}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"PID", d.PID(), filepath.Join(root, "tracker.pid")},
		{"Config", d.Config(), filepath.Join(root, "config.toml")},
		{"Log", d.Log(), filepath.Join(root, "tracker.log")},
		{"Current", d.Current(), filepath.Join(root, "session.json")},
		{"Sessions", d.Sessions(), filepath.Join(root, "sessions")},
		{"Session", d.Session(1700000000000), filepath.Join(root, "sessions", "1700000000000.json")},
		{"Archive", d.Archive(), filepath.Join(root, "archive.db")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestSessionFileName(t *testing.T) {
	if got := SessionFileName(42); got != "42.json" {
		t.Errorf("SessionFileName(42) = %q, want %q", got, "42.json")
	}
}
