// Package commands implements the cuecard command line.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/conorfennell/cuecard/internal/config"
	"github.com/conorfennell/cuecard/internal/review"
	"github.com/conorfennell/cuecard/internal/storage"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) openDB() (*storage.DB, error) {
	db, err := storage.Open(a.cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func (a *app) reviewService(db *storage.DB) *review.Service {
	return review.NewService(db, a.logger)
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "cuecard",
		Short: "Learn your lines, one chunk at a time",
		Long: `cuecard helps actors memorize a script.

Import a script, pick your character, and review your lines as cue cards.
Lines are learned in small chunks: a chunk unlocks once every line before it
has been recalled correctly three times in a row. Each line is also scheduled
with SM-2 so mastered scripts come back for review.

Settings come from flags, CUECARD_* environment variables or cuecard.yaml.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.Logger(cmd.ErrOrStderr())
			return nil
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		NewImportCmd(a),
		NewCharactersCmd(a),
		NewScriptsCmd(a),
		NewReviewCmd(a),
		NewServeCmd(a),
		NewSyncCmd(a),
		NewSourceCmd(a),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
