package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"fueltrack/db/pg"
	migrations "fueltrack/migration"
)

func migrateCommand(s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "migrate the PostgreSQL store",
		Long:  `This command migrates the database named by FUELTRACK_DATABASE_URL with goose`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			up, _ := cmd.Flags().GetBool("up")
			down, _ := cmd.Flags().GetBool("down")
			if down {
				up = false
			}

			if err := goose.SetDialect("postgres"); err != nil {
				return fmt.Errorf("failed to set goose dialect: %w", err)
			}
			goose.SetBaseFS(migrations.FS)

			db, err := sql.Open("postgres", pg.CreateDSN(s.cfg.DatabaseURL, s.cfg.Schema))
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			ctx := cmd.Context()
			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			defer pingCancel()
			if err := db.PingContext(pingCtx); err != nil {
				return fmt.Errorf("failed to ping database: %w", err)
			}
			log.Info().Msg("Successfully connected to the database.")

			if up {
				log.Info().Msg("Running 'up' migrations...")
				if err := goose.UpContext(ctx, db, "."); err != nil {
					return fmt.Errorf("goose up failed: %w", err)
				}
			} else if down {
				log.Info().Msg("Rolling back the last migration...")
				if err := goose.DownContext(ctx, db, "."); err != nil {
					return fmt.Errorf("goose down failed: %w", err)
				}
			}
			return goose.StatusContext(ctx, db, ".")
		},
	}

	cmd.Flags().BoolP("up", "u", true, "up the version of db")
	cmd.Flags().BoolP("down", "d", false, "down the version of db")

	return cmd
}
