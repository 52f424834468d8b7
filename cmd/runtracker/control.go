package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"tools.zach/dev/runtracker/internal/session"
)

// errNotRunning is returned when a control needs a daemon and none holds the
// PID lock.
var errNotRunning = errors.New("no running daemon")

// ///////////////////////////////////////////////
// reset / clear Commands
// ///////////////////////////////////////////////

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Signal a manual reset to the running daemon",
		Long: `Signal a manual reset to the running daemon. Bind this to the same key as the
in-game reset so the daemon knows you are playing: resets start counting and
gaps between resets longer than the break threshold are recorded as breaks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			alive, pid := checkStalePID(a.paths())
			if !alive || pid == 0 {
				return errNotRunning
			}
			return sendControl(pid, controlReset)
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "End the current session and start a fresh one",
		Long: `End the current session and start a fresh one. With a daemon running, the
daemon clears its live session. Otherwise the files on disk are cleared
directly. The historical copy is kept unless the session had no gold runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if alive, pid := checkStalePID(a.paths()); alive && pid != 0 {
				if err := sendControl(pid, controlClear); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Sent clear to daemon (pid %d).\n", pid)
				return nil
			}
			if err := clearOffline(session.NewStore(a.paths(), 0), time.Now().UnixMilli()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared.")
			return nil
		},
	}
}

// clearOffline clears the on-disk current session without a daemon.
func clearOffline(st *session.Store, now int64) error {
	cur, err := st.LoadCurrent()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("current session unreadable", "error", err)
		}
		cur = nil
	}
	_, err = st.Clear(cur, now)
	return err
}
