package cli

import (
	"context"
	"time"

	mongoMigration "autoquote/internal/migrations/mongo"
	postgresMigration "autoquote/internal/migrations/postgres"
	"autoquote/pkg/client"
	"autoquote/pkg/config"

	"github.com/spf13/cobra"
)

const defaultMigrateTimeout = 2 * time.Minute

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema of the configured store (STORE_DRIVER)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")

			cfg, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			cfg.Log.Info("Starting migration job", "driver", cfg.StoreDriver)
			if cfg.StoreDriver == config.StorePostgres {
				return postgresMigration.RunMigration(ctx, cfg.PostgresDSN, cfg.Log)
			}

			cfg.Client = client.NewClient()
			cfg.SetMongo()
			defer func() {
				if err := cfg.Client.GracefulShutdown(context.Background()); err != nil {
					cfg.Log.Warn("Failed to close Mongo connection", "error", err)
				}
			}()
			return mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log)
		},
	}

	cmd.Flags().Duration("timeout", defaultMigrateTimeout, "Deadline for the whole migration")
	return cmd
}
