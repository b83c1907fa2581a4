package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/statevault/internal/cli/output"
	"github.com/yndnr/statevault/internal/core/domain"
	"github.com/yndnr/statevault/internal/core/service"
)

// Verification statuses.
const (
	statusOK      = "ok"
	statusCorrupt = "corrupt"
	statusMissing = "missing"
	statusError   = "error"
)

// VerifyCommand recomputes the checksum of every durable record.
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Check the integrity of every stored version",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "only report failures",
			},
		},
		Action: verify,
	}
}

func verify(c *cli.Context) error {
	e := getEnv(c)
	opts, err := storeOptions(e)
	if err != nil {
		return err
	}
	backend, err := openBackend(e)
	if err != nil {
		return err
	}

	// No recovery: verification must not evict anything.
	s := service.NewVersionStore(backend, opts...)
	defer s.Close()

	ids, err := backend.List(c.Context)
	if err != nil {
		return domain.ErrStorageIO.WithDetails("list records").WithCause(err)
	}

	var bar *output.Progress
	if e.format == output.FormatTable && len(ids) > 0 {
		bar = output.NewProgress(c.App.ErrWriter, "verifying", len(ids))
	}

	report := verifyReport{Checked: len(ids), Results: []verifyResult{}}
	for _, id := range ids {
		res := verifyResult{ID: id, Status: statusOK}
		if _, err := s.LoadVersion(c.Context, id); err != nil {
			res.Error = err.Error()
			switch {
			case errors.Is(err, domain.ErrIntegrityViolation):
				res.Status = statusCorrupt
			case errors.Is(err, domain.ErrVersionNotFound):
				res.Status = statusMissing
			default:
				res.Status = statusError
			}
			report.Failed++
		}
		if res.Status != statusOK || !c.Bool("quiet") {
			report.Results = append(report.Results, res)
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if err := render(c, report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d records failed verification", report.Failed, report.Checked)
	}
	return nil
}
