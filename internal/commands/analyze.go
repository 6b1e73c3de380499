package commands

import (
	"context"
	"fmt"

	"github.com/veridock/text2api/internal/analyzer"
)

// Analyze runs the analysis only and prints the result, including the
// validated specification, the diagnostics and the source of every element,
// as JSON. Rejected specifications are printed before the error is
// returned.
func (c *Controller) Analyze(ctx context.Context, opts RequestOptions) error {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	text, err := c.readDescription(opts.Text, opts.File)
	if err != nil {
		return err
	}
	genOpts, err := opts.apply(cfg)
	if err != nil {
		return err
	}
	svc, err := c.newService(ctx, cfg)
	if err != nil {
		return err
	}

	res, err := svc.Analyze(ctx, text, genOpts)
	if res != nil {
		if perr := c.printJSON(res); perr != nil {
			return perr
		}
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if res.State != analyzer.StateReady {
		return fmt.Errorf("analysis ended in state %s", res.State)
	}
	return nil
}
