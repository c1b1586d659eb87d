package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conorfennell/cuecard/internal/learning"
)

// NewScriptsCmd creates the scripts command and its subcommands.
func NewScriptsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "Manage imported scripts",
	}
	cmd.AddCommand(newScriptsListCmd(a), newScriptsRmCmd(a))
	return cmd
}

func newScriptsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List scripts with their progress, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			overviews, err := a.reviewService(db).Overviews(cmd.Context())
			if err != nil {
				return err
			}
			if len(overviews) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scripts yet. Import one with: cuecard import <file> --character NAME")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tCHARACTER\tMASTERED\tDUE\tSTATUS")
			for _, o := range overviews {
				status := o.Summary.Label
				if o.Phase == learning.PhaseComplete {
					status = "complete"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d (%d%%)\t%d\t%s\n",
					o.Script.ID, o.Script.Title, o.Script.MyCharacter,
					o.MasteredLines, o.TotalLines, o.Percent(), o.DueLines, status)
			}
			return w.Flush()
		},
	}
}

func newScriptsRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <script-id>",
		Short: "Delete a script and all of its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			script, err := db.FindScript(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if script == nil {
				return fmt.Errorf("no script with ID %s", args[0])
			}
			if err := db.DeleteScript(cmd.Context(), script.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", script.Title)
			return nil
		},
	}
}
