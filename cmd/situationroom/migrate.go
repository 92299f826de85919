package main

import (
	"situationroom/internal/db"

	"github.com/spf13/cobra"
)

var migrateStatus bool

// migrateCmd applies the embedded goose migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateStatus {
			return db.MigrationStatus(cmd.Context(), cfg.DatabaseURL)
		}
		if err := db.Migrate(cmd.Context(), cfg.DatabaseURL); err != nil {
			return err
		}
		cmd.Println("Migrations applied")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Print migration status instead of applying")
}
