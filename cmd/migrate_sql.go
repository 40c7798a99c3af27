package cmd

import (
	"github.com/spf13/cobra"
)

// migrateSQLCmd represents the migrate sql command
var migrateSQLCmd = &cobra.Command{
	Use:   "sql [database-url]",
	Short: "Create SQL schemas and apply migration plans",
	Long: `Applies the SQL migrations to the event database. Without an argument
the DATABASE_URL setting is used.`,
	Run: cmdHandler.Migration.MigrateSQL,
}

func init() {
	migrateSQLCmd.Flags().String("dir", "db/migrations", "directory containing the migration files")
	migrateSQLCmd.Flags().Bool("down", false, "roll the migrations back instead of applying them")
	migrateCmd.AddCommand(migrateSQLCmd)
}
