package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/campus-bazaar/internal/config"
	"github.com/Veraticus/campus-bazaar/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the local database schema.

The database holds the last listing snapshot per network, the operation
journal and preferences such as the theme.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbPath := config.DatabasePath()
			slog.Info("🗄️  Running database migrations...", "database", dbPath)

			store, err := storage.NewSQLiteStorage(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			slog.Info("✅ Database migrations completed successfully!")
			return nil
		},
	}
}
