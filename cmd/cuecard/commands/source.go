package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conorfennell/cuecard/internal/domain"
)

// NewSourceCmd creates the source command and its subcommands.
func NewSourceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage directories and git repositories that scripts sync from",
	}
	cmd.AddCommand(newSourceAddCmd(a), newSourceListCmd(a), newSourceRmCmd(a))
	return cmd
}

func newSourceAddCmd(a *app) *cobra.Command {
	var character string

	cmd := &cobra.Command{
		Use:   "add <path-or-git-url>",
		Short: "Add a source",
		Long: `Add a local directory or git repository as a source.

Examples:
  cuecard source add ~/scripts --character HAMLET
  cuecard source add https://github.com/me/plays.git -c Viola --chunk-size 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			kind := domain.SourceType(path)
			if kind == domain.SourceLocal {
				abs, err := filepath.Abs(path)
				if err != nil {
					return err
				}
				path = abs
			}

			source := domain.Source{Path: path, Type: kind, Character: character, ChunkSize: a.cfg.ChunkSize}
			if err := domain.Validate(source); err != nil {
				return errors.New("a path and --character are required")
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			existing, err := db.FindSourceByPath(cmd.Context(), path)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("source %s already exists with ID %d", path, existing.ID)
			}

			id, err := db.InsertSource(cmd.Context(), source)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s source %d: %s\n", kind, id, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&character, "character", "c", "", "character to learn in this source's scripts")
	return cmd
}

func newSourceListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List sources",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			sources, err := db.ListSources(cmd.Context())
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sources configured.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tCHARACTER\tCHUNK\tLAST SCANNED\tPATH")
			for _, s := range sources {
				scanned := "never"
				if s.LastScanned != nil {
					scanned = s.LastScanned.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", s.ID, s.Type, s.Character, s.ChunkSize, scanned, s.Path)
			}
			return w.Flush()
		},
	}
}

func newSourceRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <source-id>",
		Short: "Remove a source; its imported scripts are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid source ID %q", args[0])
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			source, err := db.FindSource(cmd.Context(), id)
			if err != nil {
				return err
			}
			if source == nil {
				return fmt.Errorf("no source with ID %d", id)
			}
			if err := db.DeleteSource(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed source %d: %s\n", id, source.Path)
			return nil
		},
	}
}
