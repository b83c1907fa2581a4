package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// DiffCommand prints the top-level difference between two versions.
func DiffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Compare the snapshots of two versions",
		ArgsUsage: "FROM_ID TO_ID",
		Action:    diff,
	}
}

func diff(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("diff requires FROM_ID and TO_ID")
	}
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := s.GetVersionDiff(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	return render(c, diffView{d})
}
