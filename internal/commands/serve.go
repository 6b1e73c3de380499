package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/veridock/text2api/internal/serve"
)

// defaultServeAddr is the listen address of the serve command
const defaultServeAddr = ":8080"

// ServeOptions contains options for the serve command
type ServeOptions struct {
	Addr      string
	Provider  string
	OutputDir string
}

// Serve exposes analysis and generation over HTTP until interrupted
func (c *Controller) Serve(ctx context.Context, opts ServeOptions) error {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	genOpts, err := RequestOptions{Provider: opts.Provider, OutputDir: opts.OutputDir}.apply(cfg)
	if err != nil {
		return err
	}
	svc, err := c.newService(ctx, cfg)
	if err != nil {
		return err
	}
	addr := opts.Addr
	if addr == "" {
		addr = defaultServeAddr
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	c.deps.SignalNotifier.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer c.deps.SignalNotifier.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			c.deps.Output.Println("\nShutting down API server...")
			cancel()
		case <-ctx.Done():
		}
	}()

	c.deps.Output.Printf("Serving the text2api API on %s, projects are written to %s\n", addr, genOpts.OutputDir)
	server := serve.NewServer(svc, c.registry, genOpts.OutputDir, c.logger)
	if err := server.Start(ctx, addr); err != nil {
		return fmt.Errorf("api server error: %w", err)
	}
	return nil
}
