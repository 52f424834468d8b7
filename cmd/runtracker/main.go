// Package main implements runtracker, a daemon that turns per-run timer
// records into practice session statistics, plus the commands that inspect,
// clear and archive the sessions it writes.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"

	"tools.zach/dev/runtracker/internal/logger"
	"tools.zach/dev/runtracker/internal/paths"
)

// ///////////////////////////////////////////////
// Version
// ///////////////////////////////////////////////

// version is set at build time via -ldflags "-X main.version=...". Bare
// builds fall back to the VCS info embedded by the toolchain.
var version = "dev"

// resolveVersion returns [version] when set via ldflags, otherwise a
// "dev+<hash>" tag built from the embedded VCS revision.
func resolveVersion() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version
	}
	var revision string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if revision == "" {
		return version
	}
	hash := revision[:min(7, len(revision))]
	if dirty {
		return "dev+" + hash + ".dirty"
	}
	return "dev+" + hash
}

// ///////////////////////////////////////////////
// Default Data Directory
// ///////////////////////////////////////////////

// defaultDataDir returns ~/.runtracker, or ./.runtracker when the home
// directory cannot be determined.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", paths.DataDirRel)
	}
	return filepath.Join(home, paths.DataDirRel)
}

// ///////////////////////////////////////////////
// Root Command
// ///////////////////////////////////////////////

// app carries the persistent flags shared by every subcommand.
type app struct {
	dataDir  string
	logLevel string
}

func (a *app) paths() DataPaths { return DataPaths{Root: a.dataDir} }

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   paths.BinaryName,
		Short: "Track speedrun practice sessions from timer records",
		Long: `runtracker watches the per-run records written by the in-game timer and
keeps running statistics for the current practice session: how many runs
reached each milestone, how long each split took on average, resets and
breaks. Sessions are saved to the data directory and can be listed, shown,
cleared and archived to SQLite.`,
		Version:       resolveVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// The daemon installs its own file logger.
			if cmd.Name() != "run" {
				slog.SetDefault(logger.NewConsole(cmd.ErrOrStderr(), logger.ParseLevel(a.logLevel)))
			}
		},
	}
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", defaultDataDir(), "Data directory for config, sessions, and logs")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Console log level for commands other than run")
	root.SetVersionTemplate("{{printf \"%s\\n\" .Version}}")

	root.AddCommand(
		newRunCmd(a),
		newShowCmd(a),
		newListCmd(a),
		newClearCmd(a),
		newResetCmd(a),
		newExportCmd(a),
		newLogsCmd(a),
	)
	return root
}

// ///////////////////////////////////////////////
// Main
// ///////////////////////////////////////////////

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
