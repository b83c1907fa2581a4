package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/statevault/internal/cli/output"
	"github.com/yndnr/statevault/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			return render(c, buildView(buildinfo.Get()))
		},
	}
}

type buildView buildinfo.Info

func (b buildView) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("version", b.Version)
	t.AddRow("commit", b.Commit)
	t.AddRow("build_time", b.BuildTime)
	t.AddRow("go_version", b.GoVersion)
	return t
}
