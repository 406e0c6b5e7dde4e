package cli

import (
	"context"
	"database/sql"
	"flag"
	"time"

	"github.com/campushub/campushub/pkg/auth"
)

func newPurgeSessionsCommand() *Command {
	cmd := &Command{
		Name:        "purge-sessions",
		Description: "Delete expired session rows now",
		Flags:       flag.NewFlagSet("purge-sessions", flag.ExitOnError),
		Run:         runPurgeSessions,
	}
	return cmd
}

func runPurgeSessions(args []string) error {
	return withDB(func(ctx context.Context, db *sql.DB) error {
		purged, err := auth.NewSQLSessionStore(db).PurgeExpired(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		log.WithField("purged", purged).Info("expired sessions deleted")
		return nil
	})
}
