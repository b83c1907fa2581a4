package command

import (
	"github.com/prometheus/common/expfmt"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/statevault/internal/telemetry/metric"
)

// StatsCommand prints store statistics and, optionally, the Prometheus metrics.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show store statistics",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "print all metrics in the Prometheus text format instead",
			},
		},
		Action: stats,
	}
}

func stats(c *cli.Context) error {
	e := getEnv(c)
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	if c.Bool("metrics") {
		if err := e.registry.Register(metric.NewCollector(s)); err != nil {
			return err
		}
		families, err := e.registry.Gather()
		if err != nil {
			return err
		}
		for _, mf := range families {
			if _, err := expfmt.MetricFamilyToText(c.App.Writer, mf); err != nil {
				return err
			}
		}
		return nil
	}

	st := s.Stats()
	view := statsView{
		Backend:         e.cfg.Storage.Backend,
		Root:            e.cfg.Storage.Root,
		HistoryLength:   st.HistoryLength,
		IndexedVersions: st.IndexedVersions,
		MaxVersions:     st.MaxVersions,
		CurrentCreated:  st.CurrentCreatedAt,
	}
	if cur := s.CurrentVersion(); cur != nil {
		view.CurrentID = cur.ID
	}
	return render(c, view)
}
