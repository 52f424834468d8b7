package main

import (
	"fmt"
	"log/slog"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tools.zach/dev/runtracker/internal/classify"
	"tools.zach/dev/runtracker/internal/session"
)

// ///////////////////////////////////////////////
// list Command
// ///////////////////////////////////////////////

func newListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List historical sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := session.NewStore(a.paths(), 0)
			ids, err := st.ListHistorical()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded.")
				return nil
			}
			if limit > 0 && len(ids) > limit {
				ids = ids[len(ids)-limit:]
			}
			slices.Reverse(ids)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tLENGTH\tRESETS\tGOLD")
			now := time.Now()
			for _, id := range ids {
				started := time.UnixMilli(id)
				when := started.Format(sessionDateLayout) + " (" + humanize.RelTime(started, now, "ago", "from now") + ")"
				s, err := st.LoadHistorical(id)
				if err != nil {
					slog.Warn("unreadable session", "id", id, "error", err)
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", id, when, "-", "-", "unreadable")
					continue
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\n", id, when,
					session.FormatMillis(s.Length(s.EndTime)), s.Resets, s.Count(classify.BucketGold))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the most recent n sessions")
	return cmd
}
