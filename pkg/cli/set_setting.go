package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/campushub/campushub/pkg/settings"
)

func newSetSettingCommand() *Command {
	cmd := &Command{
		Name:        "set-setting",
		Description: "Write a platform setting",
		Flags:       flag.NewFlagSet("set-setting", flag.ExitOnError),
		Run:         runSetSetting,
	}
	return cmd
}

func runSetSetting(args []string) error {
	fs := flag.NewFlagSet("set-setting", flag.ExitOnError)
	key := fs.String("key", "", "Setting key")
	value := fs.String("value", "", "Setting value")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *key == "" {
		return fmt.Errorf("-key is required")
	}

	return withDB(func(ctx context.Context, db *sql.DB) error {
		if err := settings.NewSQLStore(db).Set(ctx, *key, *value); err != nil {
			return err
		}
		log.WithField("key", *key).Info("setting written; cached readers converge within the cache TTL")
		return nil
	})
}
