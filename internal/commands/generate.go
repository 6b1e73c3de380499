package commands

import (
	"context"
	"fmt"
)

// GenerateOptions are the options of the generate command
type GenerateOptions struct {
	RequestOptions

	// JSON prints the result as JSON instead of text
	JSON bool
}

// Generate turns a description into a project
func (c *Controller) Generate(ctx context.Context, opts GenerateOptions) error {
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

	res, genErr := svc.Generate(ctx, text, genOpts)
	if opts.JSON {
		if err := c.printJSON(res); err != nil {
			return err
		}
	} else {
		c.printResult(res)
	}
	if genErr != nil {
		return fmt.Errorf("generation failed: %w", genErr)
	}
	return nil
}
