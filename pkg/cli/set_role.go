package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/campushub/campushub/pkg/auth"
	"github.com/campushub/campushub/pkg/directory"
)

func newSetRoleCommand() *Command {
	cmd := &Command{
		Name:        "set-role",
		Description: "Assign a role (and scope) to a user",
		Flags:       flag.NewFlagSet("set-role", flag.ExitOnError),
		Run:         runSetRole,
	}
	return cmd
}

func runSetRole(args []string) error {
	fs := flag.NewFlagSet("set-role", flag.ExitOnError)
	userID := fs.Int64("user", 0, "User id")
	roleName := fs.String("role", "", "Role: user, club_admin, college_admin or super_admin")
	collegeID := fs.Int64("college", 0, "College id (required for college_admin)")
	clubID := fs.Int64("club", 0, "Club id (required for club_admin)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID <= 0 || *roleName == "" {
		return fmt.Errorf("both -user and -role are required")
	}

	role, err := auth.ParseRole(*roleName)
	if err != nil {
		return err
	}

	var college, club *int64
	if *collegeID > 0 {
		college = collegeID
	}
	if *clubID > 0 {
		club = clubID
	}

	return withDB(func(ctx context.Context, db *sql.DB) error {
		if err := directory.NewStore(db).SetUserRole(ctx, *userID, role, college, club); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"user": *userID,
			"role": role,
		}).Info("role updated; takes effect on the user's next request")
		return nil
	})
}
