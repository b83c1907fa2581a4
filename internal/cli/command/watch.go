package command

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/statevault/internal/core/service"
	"github.com/yndnr/statevault/internal/infra/confloader"
	"github.com/yndnr/statevault/internal/storage"
)

// WatchCommand reports versions as other processes create them.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print new versions as they are written (file backend)",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "exit after N versions (0 to run until interrupted)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "exit after this long (0 for no limit)",
			},
		},
		Action: watch,
	}
}

func watch(c *cli.Context) error {
	e := getEnv(c)
	if b := e.cfg.Storage.Backend; b != "" && b != storage.BackendFile {
		return fmt.Errorf("watch supports the file backend only, not %q", b)
	}

	opts, err := storeOptions(e)
	if err != nil {
		return err
	}
	backend, err := openBackend(e)
	if err != nil {
		return err
	}
	s := service.NewVersionStore(backend, opts...)
	defer s.Close()

	w, err := confloader.NewWatcher(
		confloader.WithWatcherLogger(e.log),
		confloader.WithFilter(func(path string) bool {
			_, ok := storage.VersionIDFromFileName(filepath.Base(path))
			return ok
		}),
	)
	if err != nil {
		return err
	}
	defer w.Stop()

	ids := make(chan string, 64)
	w.OnChange(func(path string) {
		id, _ := storage.VersionIDFromFileName(filepath.Base(path))
		select {
		case ids <- id:
		default:
			e.log.Warn("watch backlog full, dropping event", "version_id", id)
		}
	})
	if err := w.WatchDir(e.cfg.Storage.Root); err != nil {
		return err
	}
	w.StartAsync()
	e.log.Info("watching for new versions", "root", e.cfg.Storage.Root)

	var timeout <-chan time.Time
	if d := c.Duration("timeout"); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}

	seen := make(map[string]bool)
	limit := c.Int("count")
	for {
		select {
		case <-c.Context.Done():
			return nil
		case <-timeout:
			return nil
		case id := <-ids:
			if seen[id] {
				continue
			}
			v, err := s.LoadVersion(c.Context, id)
			if err != nil {
				e.log.Warn("new record failed to load", "version_id", id, "error", err)
				continue
			}
			seen[id] = true
			if err := render(c, historyView{{VersionID: v.ID, CreatedAt: v.CreatedAt}}); err != nil {
				return err
			}
			if limit > 0 && len(seen) >= limit {
				return nil
			}
		}
	}
}
