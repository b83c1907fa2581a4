package command

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/statevault/internal/cli/output"
	"github.com/yndnr/statevault/internal/config"
	"github.com/yndnr/statevault/internal/infra/buildinfo"
	"github.com/yndnr/statevault/internal/telemetry/logger"
	"github.com/yndnr/statevault/internal/telemetry/metric"
)

const envKey = "env"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "statevault",
		Usage:                "inspect and manage a versioned snapshot store",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			CreateCommand(),
			HistoryCommand(),
			ShowCommand(),
			DiffCommand(),
			RollbackCommand(),
			VerifyCommand(),
			WatchCommand(),
			StatsCommand(),
			VersionCommand(),
		},
		Before: setup,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML configuration file",
			EnvVars: []string{"STATEVAULT_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "root",
			Usage: "storage root directory",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "record store: file, badger, sqlite, memory",
		},
		&cli.IntFlag{
			Name:  "max-versions",
			Usage: "retention bound, 0 for unbounded",
		},
		&cli.StringFlag{
			Name:  "hash",
			Usage: "checksum algorithm for new versions: sha256, blake3",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
			Value:   string(output.FormatTable),
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn, error",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "shorthand for --log-level debug",
		},
	}
}

// flagKeys maps global flags onto configuration keys.
var flagKeys = map[string]string{
	"root":         "storage.root",
	"backend":      "storage.backend",
	"max-versions": "storage.max_versions",
	"hash":         "storage.hash",
	"log-level":    "log.level",
}

// overrides collects the global flags the user set explicitly.
func overrides(c *cli.Context) map[string]any {
	out := make(map[string]any)
	for flag, key := range flagKeys {
		if !c.IsSet(flag) {
			continue
		}
		if flag == "max-versions" {
			out[key] = c.Int(flag)
		} else {
			out[key] = c.String(flag)
		}
	}
	if c.Bool("verbose") {
		out["log.level"] = "debug"
	}
	return out
}

// env is the per-invocation state shared by commands.
type env struct {
	cfg      *config.Config
	log      logger.Logger
	registry *prometheus.Registry
	metrics  *metric.Metrics
	format   output.Format
}

func setup(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.String("config"), overrides(c))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return err
	}
	log.Debug("configuration loaded", "config", config.Sanitize(cfg))

	registry := prometheus.NewRegistry()
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[envKey] = &env{
		cfg:      cfg,
		log:      log,
		registry: registry,
		metrics:  metric.New(registry),
		format:   format,
	}
	return nil
}

func getEnv(c *cli.Context) *env {
	if e, ok := c.App.Metadata[envKey].(*env); ok {
		return e
	}
	return nil
}

// render writes data to the app writer in the selected format.
func render(c *cli.Context, data any) error {
	return output.NewFormatter(getEnv(c).format).Format(c.App.Writer, data)
}
