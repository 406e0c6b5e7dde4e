package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/campushub/campushub/pkg/config"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "campushub-admin",
		Description: "CampusHub platform administration",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("campushub-admin", flag.ExitOnError),
	}

	root.Subcommands["migrate"] = newMigrateCommand()
	root.Subcommands["set-role"] = newSetRoleCommand()
	root.Subcommands["set-setting"] = newSetSettingCommand()
	root.Subcommands["purge-sessions"] = newPurgeSessionsCommand()
	root.Subcommands["aggregate"] = newAggregateCommand()

	return root
}

// Execute runs the command
func (c *Command) Execute() error {
	args := os.Args[1:]
	if len(args) == 0 {
		return c.usage()
	}

	if args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	fmt.Printf("Commands:\n")
	for name, cmd := range c.Subcommands {
		fmt.Printf("  %-15s %s\n", name, cmd.Description)
	}
	fmt.Printf("\nDatabase connection comes from CAMPUSHUB_DATABASE_URL.\n")
	return nil
}

// withDB opens the database, pings it, and runs fn with a bounded
// context.
func withDB(fn func(ctx context.Context, db *sql.DB) error) error {
	db, err := sql.Open("postgres", config.DatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return fn(ctx, db)
}
