package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tools.zach/dev/runtracker/internal/export"
	"tools.zach/dev/runtracker/internal/session"
)

func newExportCmd(a *app) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Archive all historical sessions into a SQLite database",
		Long: `Archive all historical sessions into a SQLite database. Re-running the export
replaces each session's rows, so it is safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = a.paths().Archive()
			}
			archive, err := export.OpenArchive(dbPath)
			if err != nil {
				return err
			}
			defer archive.Close()

			n, err := export.ArchiveAll(cmd.Context(), session.NewStore(a.paths(), 0), archive)
			if err != nil {
				return fmt.Errorf("archive sessions: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d sessions to %s\n", n, dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default <data-dir>/archive.db)")
	return cmd
}
