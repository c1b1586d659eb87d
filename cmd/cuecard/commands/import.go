package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/cuecard/internal/fingerprint"
	"github.com/conorfennell/cuecard/internal/learning"
	"github.com/conorfennell/cuecard/internal/parser"
)

// NewImportCmd creates the import command.
func NewImportCmd(a *app) *cobra.Command {
	var (
		character string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a script for one character",
		Long: `Import a markdown, CSV or XLSX script and create cue cards for one character.

Each of the character's lines becomes a card cued by the line before it.
Run "cuecard characters <file>" to see who speaks in a script.

Examples:
  cuecard import hamlet.md --character HAMLET
  cuecard import scenes.xlsx -c Viola --chunk-size 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parser.ParseFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			if character == "" {
				printCharacters(cmd, p)
				return errors.New("choose a character with --character")
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if !force {
				existing, err := db.FindScriptByFingerprint(ctx, fingerprint.Of(p.Source, character))
				if err != nil {
					return err
				}
				if existing != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "Already imported as %s (%s). Use --force to import again.\n", existing.Title, existing.ID)
					return nil
				}
			}

			b, err := parser.Build(p, character, a.cfg.ChunkSize, time.Now())
			if err != nil {
				return err
			}
			if err := db.CommitScript(ctx, b.Script, b.Scenes, b.Lines); err != nil {
				return err
			}

			chunks := len(learning.ChunksOf(b.Lines, b.Script.ChunkSize))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q as %s: %d lines in %d chunks.\n",
				b.Script.Title, character, len(b.Lines), chunks)
			fmt.Fprintf(cmd.OutOrStdout(), "Start with: cuecard review %s\n", b.Script.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&character, "character", "c", "", "character whose lines you are learning")
	cmd.Flags().BoolVar(&force, "force", false, "import even if this script was imported before")
	return cmd
}

// NewCharactersCmd creates the characters command.
func NewCharactersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "characters <file>",
		Short: "List the characters in a script and their line counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parser.ParseFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			if len(p.Characters) == 0 {
				return parser.ErrNoDialogue
			}
			printCharacters(cmd, p)
			return nil
		},
	}
}

func printCharacters(cmd *cobra.Command, p *parser.ParsedScript) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\n", p.Title)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHARACTER\tLINES")
	for _, c := range p.LineCounts() {
		fmt.Fprintf(w, "%s\t%d\n", c.Character, c.Lines)
	}
	w.Flush()
}
