package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/statevault/internal/core/domain"
	"github.com/yndnr/statevault/internal/core/migration"
)

// MetaSchemaVersion is the metadata key recording the snapshot schema.
const MetaSchemaVersion = "schema_version"

// CreateCommand captures a JSON snapshot as a new version.
func CreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a version from a JSON object",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "snapshot file, - for stdin",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "meta",
				Aliases: []string{"m"},
				Usage:   "metadata as KEY=VALUE (repeatable)",
			},
			&cli.StringFlag{
				Name:  "schema",
				Usage: "schema version the snapshot was written under; migrated to schema.current",
			},
		},
		Action: create,
	}
}

func create(c *cli.Context) error {
	e := getEnv(c)

	snapshot, err := readSnapshot(c, c.String("file"))
	if err != nil {
		return err
	}
	meta, err := parseMeta(c.StringSlice("meta"))
	if err != nil {
		return err
	}

	schema := e.cfg.Schema.Current
	if from := c.String("schema"); from != "" {
		engine, err := migration.New(e.cfg.Schema.Current,
			migration.WithLogger(e.log),
			migration.WithMetrics(e.metrics),
		)
		if err != nil {
			return err
		}
		if snapshot, err = engine.Migrate(snapshot, from); err != nil {
			return err
		}
		schema = engine.Current().String()
	}
	if _, ok := meta[MetaSchemaVersion]; !ok {
		meta[MetaSchemaVersion] = schema
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := s.CreateVersion(c.Context, snapshot, meta)
	if v == nil {
		return err
	}
	if rerr := render(c, newVersionView(v)); rerr != nil {
		return rerr
	}
	return err
}

func readSnapshot(c *cli.Context, path string) (domain.Snapshot, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(c.App.Reader)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var snapshot map[string]any
	if err := dec.Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("snapshot must be a JSON object: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("snapshot must contain a single JSON object")
	}
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	return domain.Snapshot(snapshot), nil
}

// parseMeta parses KEY=VALUE pairs. Values that are valid JSON keep their
// type; anything else is a string.
func parseMeta(pairs []string) (map[string]any, error) {
	meta := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta %q, want KEY=VALUE", p)
		}
		dec := json.NewDecoder(strings.NewReader(value))
		dec.UseNumber()
		var parsed any
		if err := dec.Decode(&parsed); err == nil && !dec.More() {
			meta[key] = parsed
		} else {
			meta[key] = value
		}
	}
	return meta, nil
}
