package db

import (
	"context"
	"database/sql"

	"github.com/SafeMPC/custody-engine/internal/config"
	"github.com/SafeMPC/custody-engine/internal/infra/storage"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Applies the blob storage schema to the configured database",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.DefaultServiceConfigFromEnv()

			if cfg.Storage.DatabaseDSN == "" {
				log.Fatal().Msg("STORAGE_DATABASE_DSN is not configured")
			}

			db, err := sql.Open("postgres", cfg.Storage.DatabaseDSN)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to open database")
			}
			defer db.Close()

			if err := storage.NewPostgreSQLStore(db).Migrate(context.Background()); err != nil {
				log.Fatal().Err(err).Msg("Failed to apply migrations")
			}

			log.Info().Msg("Migrations applied")
		},
	}
}
