package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conorfennell/cuecard/internal/autosync"
	"github.com/conorfennell/cuecard/internal/sync"
	"github.com/conorfennell/cuecard/internal/web"
)

// NewServeCmd creates the serve command.
func NewServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Long: `Run the web interface.

With --sync-interval set, sources are synced in the background on that
schedule, starting immediately.

Examples:
  cuecard serve --addr :3000
  cuecard serve --sync-interval 15m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			syncer := sync.New(db, a.logger, a.cfg.ReposDir)
			srv, err := web.NewServer(db, a.reviewService(db), syncer, a.logger, a.cfg.ChunkSize)
			if err != nil {
				return err
			}

			if a.cfg.SyncInterval > 0 {
				scheduler, err := autosync.New(a.cfg.SyncInterval, func(ctx context.Context) error {
					_, err := syncer.Run(ctx)
					return err
				}, a.logger)
				if err != nil {
					return err
				}
				if err := scheduler.Start(ctx); err != nil {
					return err
				}
				defer scheduler.Stop()
			}

			return srv.ListenAndServe(ctx, a.cfg.Addr)
		},
	}
}
