// Package commands contains the CLI commands for the application
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/veridock/text2api/internal/analyzer"
	"github.com/veridock/text2api/internal/codegen"
	"github.com/veridock/text2api/internal/config"
	"github.com/veridock/text2api/internal/dev"
	"github.com/veridock/text2api/internal/generate"
	"github.com/veridock/text2api/internal/llm"
	"github.com/veridock/text2api/internal/spec"
)

// Flags are the global command line flags
type Flags struct {
	LogLevel string

	// Config is an explicit configuration file; empty searches the working
	// directory and its parents
	Config string
}

// Interfaces for dependency injection
type ConfigLoader interface {
	LoadConfig(path string) (*config.Config, string, error)
}

type ClientFactory interface {
	NewClient(ctx context.Context, cfg config.LLMConfig, logger zerolog.Logger) (llm.Client, error)
}

type WatcherFactory interface {
	NewWatcher(root string, cfg config.DevConfig, rebuild dev.RebuildFunc, logger zerolog.Logger) Watcher
}

type Watcher interface {
	Run(ctx context.Context) error
}

type SignalNotifier interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// Dependencies are the collaborators shared by the commands
type Dependencies struct {
	ConfigLoader   ConfigLoader
	ClientFactory  ClientFactory
	WatcherFactory WatcherFactory
	FileSystem     codegen.FileSystem
	SignalNotifier SignalNotifier
	Output         Output
	Stdin          io.Reader
}

// Default implementations
type defaultConfigLoader struct{}

func (defaultConfigLoader) LoadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		return config.Load()
	}
	cfg, err := config.LoadFromPath(path, os.LookupEnv)
	if err != nil {
		return nil, "", err
	}
	return cfg, filepath.Dir(path), nil
}

type defaultClientFactory struct{}

func (defaultClientFactory) NewClient(ctx context.Context, cfg config.LLMConfig, logger zerolog.Logger) (llm.Client, error) {
	return llm.New(ctx, llm.Options{
		Provider:    cfg.Provider,
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Timeout:     cfg.Timeout,
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     cfg.Backoff,
		Logger:      logger,
	})
}

type defaultWatcherFactory struct{}

func (defaultWatcherFactory) NewWatcher(root string, cfg config.DevConfig, rebuild dev.RebuildFunc, logger zerolog.Logger) Watcher {
	return dev.NewSession(root, cfg, rebuild, logger)
}

type defaultSignalNotifier struct{}

func (defaultSignalNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }
func (defaultSignalNotifier) Stop(c chan<- os.Signal)                     { signal.Stop(c) }

// Controller holds the actions of the CLI commands
type Controller struct {
	Flags    *Flags
	logger   zerolog.Logger
	deps     Dependencies
	registry *codegen.Registry
}

// NewController creates a controller with the default dependencies
func NewController(flags *Flags, logger zerolog.Logger) *Controller {
	if flags == nil {
		flags = &Flags{}
	}
	return &Controller{
		Flags:  flags,
		logger: logger,
		deps: Dependencies{
			ConfigLoader:   defaultConfigLoader{},
			ClientFactory:  defaultClientFactory{},
			WatcherFactory: defaultWatcherFactory{},
			FileSystem:     codegen.OSFileSystem{},
			SignalNotifier: defaultSignalNotifier{},
			Output:         newOutput(os.Stdout),
			Stdin:          os.Stdin,
		},
		registry: codegen.DefaultRegistry,
	}
}

// WithDependencies replaces the non-nil dependencies in deps
func (c *Controller) WithDependencies(deps Dependencies) *Controller {
	if deps.ConfigLoader != nil {
		c.deps.ConfigLoader = deps.ConfigLoader
	}
	if deps.ClientFactory != nil {
		c.deps.ClientFactory = deps.ClientFactory
	}
	if deps.WatcherFactory != nil {
		c.deps.WatcherFactory = deps.WatcherFactory
	}
	if deps.FileSystem != nil {
		c.deps.FileSystem = deps.FileSystem
	}
	if deps.SignalNotifier != nil {
		c.deps.SignalNotifier = deps.SignalNotifier
	}
	if deps.Output != nil {
		c.deps.Output = deps.Output
	}
	if deps.Stdin != nil {
		c.deps.Stdin = deps.Stdin
	}
	return c
}

// loadConfig loads the configuration. A missing file is only an error when
// it was named explicitly.
func (c *Controller) loadConfig() (*config.Config, string, error) {
	cfg, dir, err := c.deps.ConfigLoader.LoadConfig(c.Flags.Config)
	if err != nil {
		if c.Flags.Config == "" && errors.Is(err, config.ErrNoConfig) && cfg != nil {
			c.logger.Debug().Msg("no configuration file, using defaults")
			return cfg, dir, nil
		}
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, dir, nil
}

// RequestOptions are the overrides shared by the commands that run an
// analysis
type RequestOptions struct {
	Text      string
	File      string
	Protocol  string
	Framework string
	Provider  string
	OutputDir string
	Project   string
}

// apply merges the overrides into cfg
func (o RequestOptions) apply(cfg *config.Config) (generate.Options, error) {
	if o.Provider != "" {
		cfg.LLM.Provider = o.Provider
	}
	if o.Protocol != "" {
		cfg.Generation.Protocol = o.Protocol
	}
	if o.Framework != "" {
		cfg.Generation.Framework = o.Framework
	}
	if o.OutputDir != "" {
		cfg.OutputDir = o.OutputDir
	}

	protocol := cfg.Protocol()
	if protocol != "" && !protocol.Valid() {
		return generate.Options{}, fmt.Errorf("unknown protocol %q (expected one of %s)", cfg.Generation.Protocol, protocolList())
	}
	return generate.Options{
		Protocol:  protocol,
		Framework: cfg.Generation.Framework,
		OutputDir: cfg.OutputDir,
		Project:   o.Project,
	}, nil
}

func protocolList() string {
	names := make([]string, len(spec.Protocols))
	for i, p := range spec.Protocols {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// readDescription returns the inline text, or the content of file. "-"
// reads standard input.
func (c *Controller) readDescription(text, file string) (string, error) {
	switch {
	case text != "" && file != "":
		return "", errors.New("pass either a description or --file, not both")
	case file == "-":
		data, err := io.ReadAll(c.deps.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read description from stdin: %w", err)
		}
		return string(data), nil
	case file != "":
		data, err := c.deps.FileSystem.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read description: %w", err)
		}
		return string(data), nil
	case strings.TrimSpace(text) == "":
		return "", errors.New("no description given")
	}
	return text, nil
}

// newService builds the analysis and generation pipeline for cfg
func (c *Controller) newService(ctx context.Context, cfg *config.Config) (*generate.Service, error) {
	client, err := c.deps.ClientFactory.NewClient(ctx, cfg.LLM, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	return c.serviceFor(client, cfg)
}

func (c *Controller) serviceFor(client llm.Client, cfg *config.Config) (*generate.Service, error) {
	a, err := analyzer.New(client, analyzer.Options{
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		Timeout:         cfg.LLM.Timeout,
		DefaultLanguage: cfg.Language.Default,
		Threshold:       cfg.Language.Threshold,
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}
	writer := codegen.NewFileWriter(c.deps.FileSystem, c.logger)
	return generate.NewService(a, c.registry, writer, c.logger), nil
}
