package commands

import (
	"context"
	"fmt"

	"github.com/veridock/text2api/internal/llm"
)

// RegenerateOptions are the options of the regenerate command
type RegenerateOptions struct {
	// Snapshot is the text2api.spec.json of an earlier generation
	Snapshot  string
	Protocol  string
	Framework string
	OutputDir string
	Project   string
	JSON      bool
}

// Regenerate renders a saved specification again, usually with another
// framework. No model is queried.
func (c *Controller) Regenerate(ctx context.Context, opts RegenerateOptions) error {
	if opts.Snapshot == "" {
		return fmt.Errorf("no snapshot given")
	}
	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	genOpts, err := RequestOptions{
		Protocol:  opts.Protocol,
		OutputDir: opts.OutputDir,
		Project:   opts.Project,
	}.apply(cfg)
	if err != nil {
		return err
	}
	// the configured framework applies to new descriptions only
	genOpts.Framework = opts.Framework

	svc, err := c.serviceFor(llm.NewNoop(), cfg)
	if err != nil {
		return err
	}

	res, genErr := svc.Regenerate(ctx, opts.Snapshot, genOpts)
	if opts.JSON {
		if err := c.printJSON(res); err != nil {
			return err
		}
	} else {
		c.printResult(res)
	}
	if genErr != nil {
		return fmt.Errorf("regeneration failed: %w", genErr)
	}
	return nil
}
