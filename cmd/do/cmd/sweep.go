package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/voicememo/server/internal/config"
	"github.com/voicememo/server/internal/repository"
	"github.com/voicememo/server/internal/service"
)

func SweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark recordings stuck in uploaded or processing as failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, database *sqlx.DB) error {
				sweeper := service.NewSweeper(repository.NewRecordingRepository(database), cfg.ProcessingStaleAfter)

				swept, err := sweeper.Sweep(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "marked %d stale recordings failed (older than %s)\n", swept, cfg.ProcessingStaleAfter)
				return nil
			})
		},
	}
}
