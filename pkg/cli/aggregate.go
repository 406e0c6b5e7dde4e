package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"time"

	"github.com/campushub/campushub/pkg/analytics"
)

func newAggregateCommand() *Command {
	cmd := &Command{
		Name:        "aggregate",
		Description: "Run analytics rollups for a date (default yesterday)",
		Flags:       flag.NewFlagSet("aggregate", flag.ExitOnError),
		Run:         runAggregate,
	}
	return cmd
}

func runAggregate(args []string) error {
	fs := flag.NewFlagSet("aggregate", flag.ExitOnError)
	dateStr := fs.String("date", "", "Date to aggregate (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	date := time.Now().UTC().AddDate(0, 0, -1)
	if *dateStr != "" {
		parsed, err := time.Parse("2006-01-02", *dateStr)
		if err != nil {
			return fmt.Errorf("invalid -date: %w", err)
		}
		date = parsed
	}

	return withDB(func(ctx context.Context, db *sql.DB) error {
		if err := analytics.NewAggregator(db).AggregateAll(ctx, date); err != nil {
			return err
		}
		log.WithField("date", date.Format("2006-01-02")).Info("rollups computed")
		return nil
	})
}
