package cli

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the postgres driver
	colorable "github.com/mattn/go-colorable"
	"github.com/oneilljw/homecontrol/config"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultMigrationsDir = "db/migrations"

type MigrateHandler struct {
	c *config.Config
}

func newMigrateHandler(c *config.Config) *MigrateHandler {
	return &MigrateHandler{c: c}
}

// databaseURL prefers the positional argument over the configured url.
func (h *MigrateHandler) databaseURL(args []string, position int) string {
	if len(args) > position && args[position] != "" {
		return args[position]
	}
	return h.c.DatabaseURL
}

func (h *MigrateHandler) MigrateSQL(cmd *cobra.Command, args []string) {
	url := h.databaseURL(args, 0)
	if url == "" {
		fmt.Println(cmd.UsageString())
		os.Exit(2) // Return missing keyword or command
	}

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = defaultMigrationsDir
	}
	down, _ := cmd.Flags().GetBool("down")

	log.SetLevel(log.DebugLevel)
	log.SetFormatter(&log.TextFormatter{
		ForceColors: true,
	})
	log.SetOutput(colorable.NewColorableStdout())

	log.WithField("dir", dir).Info("Applying SQL migration...")

	n, err := runMigrations(url, dir, down)
	if err != nil {
		log.Errorf("An error occurred while running the migrations: %s", err)
		os.Exit(1)
	}
	log.Infof("Migration successful! Applied a total of %d migrations.", n)
}

func runMigrations(url, dir string, down bool) (int, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return 0, errors.Wrap(err, "failed to open database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return 0, errors.Wrap(err, "failed to connect to database")
	}

	direction := migrate.Up
	if down {
		direction = migrate.Down
	}

	migrations := &migrate.FileMigrationSource{
		Dir: dir,
	}

	n, err := migrate.Exec(db.DB, "postgres", migrations, direction)
	if err != nil {
		return 0, errors.Wrap(err, "failed to execute migrations")
	}
	return n, nil
}
