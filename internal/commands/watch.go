package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// WatchOptions are the options of the watch command
type WatchOptions struct {
	RequestOptions

	// Dir is the directory to watch; empty means the directory of the
	// configuration file, or the working directory
	Dir string
}

// Watch regenerates the project whenever a description file below the
// watched directory changes. It returns nil when interrupted.
func (c *Controller) Watch(ctx context.Context, opts WatchOptions) error {
	cfg, root, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.Dir != "" {
		root = opts.Dir
	}
	if root == "" {
		root = "."
	}
	genOpts, err := opts.apply(cfg)
	if err != nil {
		return err
	}
	svc, err := c.newService(ctx, cfg)
	if err != nil {
		return err
	}

	devCfg := cfg.Dev
	if rel, ok := relativeTo(root, genOpts.OutputDir); ok {
		devCfg.Exclude = append(append([]string(nil), devCfg.Exclude...), rel+"/**")
	}

	out := c.deps.Output
	rebuild := func(ctx context.Context, path string) error {
		data, err := c.deps.FileSystem.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		out.Printf("%s %s changed\n", dimColor.Sprint("~"), path)
		res, err := svc.Generate(ctx, string(data), genOpts)
		c.printResult(res)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	c.deps.SignalNotifier.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer c.deps.SignalNotifier.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			out.Println("\nStopping watch mode...")
			cancel()
		case <-ctx.Done():
		}
	}()

	out.Printf("Watching %s for description changes (%s)\n", root, strings.Join(devCfg.Watch, ", "))
	watcher := c.deps.WatcherFactory.NewWatcher(root, devCfg, rebuild, c.logger)
	if err := watcher.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("watch error: %w", err)
	}
	return nil
}

// relativeTo returns target relative to root in slash form when it lies
// below root
func relativeTo(root, target string) (string, bool) {
	if target == "" {
		return "", false
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
