package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/cuecard/internal/sync"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Import new scripts from all sources",
		Long: `Scan every source for scripts that have not been imported yet.

Git sources are cloned or pulled first. Scripts already imported are never
changed; an edited file is imported as a new script and the old one is
listed as no longer in its source.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := sync.New(db, a.logger, a.cfg.ReposDir).Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range report.Imported {
				fmt.Fprintf(out, "imported  %s  %s (%s)\n", s.ID, s.Title, s.MyCharacter)
			}
			for _, s := range report.Stale {
				fmt.Fprintf(out, "missing   %s  %s\n", s.ID, s.Title)
			}
			for _, err := range report.Errors {
				fmt.Fprintf(out, "error     %v\n", err)
			}
			fmt.Fprintf(out, "%d sources: %d imported, %d skipped, %d missing, %d errors\n",
				report.Sources, len(report.Imported), report.Skipped, len(report.Stale), len(report.Errors))
			return nil
		},
	}
}
