package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// RollbackCommand restores an earlier snapshot as a new version.
func RollbackCommand() *cli.Command {
	return &cli.Command{
		Name:      "rollback",
		Usage:     "Create a new current version with the snapshot of VERSION_ID",
		ArgsUsage: "VERSION_ID",
		Action:    rollback,
	}
}

func rollback(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("version ID required")
	}
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := s.RollbackToVersion(c.Context, id)
	if v == nil {
		return err
	}
	if rerr := render(c, newVersionView(v)); rerr != nil {
		return rerr
	}
	return err
}
