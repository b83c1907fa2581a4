package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// HistoryCommand lists version ids newest first.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"log"},
		Usage:   "List versions, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "show at most N versions (0 for all)",
			},
		},
		Action: history,
	}
}

func history(c *cli.Context) error {
	if c.Int("limit") < 0 {
		return fmt.Errorf("--limit must not be negative")
	}
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	return render(c, historyView(s.GetVersionHistory(c.Int("limit"))))
}

// ShowCommand prints one version.
func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a version (the current one when no id is given)",
		ArgsUsage: "[VERSION_ID]",
		Action:    show,
	}
}

func show(c *cli.Context) error {
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	id := c.Args().First()
	if id == "" {
		cur := s.CurrentVersion()
		if cur == nil {
			return fmt.Errorf("store is empty")
		}
		return render(c, newVersionView(cur))
	}

	v, err := s.LoadVersion(c.Context, id)
	if err != nil {
		return err
	}
	return render(c, newVersionView(v))
}
