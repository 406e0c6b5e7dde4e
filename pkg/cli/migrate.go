package cli

import (
	"context"
	"database/sql"
	"flag"

	"github.com/campushub/campushub/pkg/directory"
)

func newMigrateCommand() *Command {
	cmd := &Command{
		Name:        "migrate",
		Description: "Apply pending database migrations",
		Flags:       flag.NewFlagSet("migrate", flag.ExitOnError),
		Run:         runMigrate,
	}
	return cmd
}

func runMigrate(args []string) error {
	return withDB(func(ctx context.Context, db *sql.DB) error {
		if err := directory.RunMigrations(ctx, db); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	})
}
