package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/veridock/text2api/internal/commands"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func requestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "read the description from `FILE` (- for stdin)",
		},
		&cli.StringFlag{
			Name:    "protocol",
			Aliases: []string{"p"},
			Usage:   "force the protocol (rest, graphql, rpc, socket, cli)",
		},
		&cli.StringFlag{
			Name:    "framework",
			Aliases: []string{"F"},
			Usage:   "force the framework; see the frameworks command",
		},
		&cli.StringFlag{
			Name:  "provider",
			Usage: "model provider (ollama, gemini, noop)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "parent directory of the generated project",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "project name; derived from the description when empty",
		},
	}
}

func requestOptions(c *cli.Command) commands.RequestOptions {
	return commands.RequestOptions{
		Text:      c.Args().First(),
		File:      c.String("file"),
		Protocol:  c.String("protocol"),
		Framework: c.String("framework"),
		Provider:  c.String("provider"),
		OutputDir: c.String("output"),
		Project:   c.String("name"),
	}
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	flags := &commands.Flags{}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var ctrl *commands.Controller

	app := &cli.Command{
		Name:    "text2api",
		Usage:   "Generate API projects from natural-language descriptions",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TEXT2API_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "configuration file; searched in the current and parent directories by default",
				Destination: &flags.Config,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(flags.LogLevel)
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)
			ctrl = commands.NewController(flags, log.Logger)

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Aliases:   []string{"gen"},
				Usage:     "Generate a project from a description",
				ArgsUsage: "[description]",
				Flags: append(requestFlags(), &cli.BoolFlag{
					Name:  "json",
					Usage: "print the result as JSON",
				}),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Generate(ctx, commands.GenerateOptions{
						RequestOptions: requestOptions(c),
						JSON:           c.Bool("json"),
					})
				},
			},
			{
				Name:      "analyze",
				Usage:     "Print the specification extracted from a description without generating",
				ArgsUsage: "[description]",
				Flags:     requestFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Analyze(ctx, requestOptions(c))
				},
			},
			{
				Name:      "regenerate",
				Usage:     "Generate a project again from its text2api.spec.json",
				ArgsUsage: "<snapshot>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "protocol", Aliases: []string{"p"}, Usage: "expected protocol of the snapshot"},
					&cli.StringFlag{Name: "framework", Aliases: []string{"F"}, Usage: "framework to render with"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "parent directory of the generated project"},
					&cli.StringFlag{Name: "name", Usage: "project name; defaults to the snapshot directory"},
					&cli.BoolFlag{Name: "json", Usage: "print the result as JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Regenerate(ctx, commands.RegenerateOptions{
						Snapshot:  c.Args().First(),
						Protocol:  c.String("protocol"),
						Framework: c.String("framework"),
						OutputDir: c.String("output"),
						Project:   c.String("name"),
						JSON:      c.Bool("json"),
					})
				},
			},
			{
				Name:  "frameworks",
				Usage: "List the supported protocols and frameworks",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Frameworks(ctx)
				},
			},
			{
				Name:      "watch",
				Usage:     "Regenerate whenever a description file changes",
				ArgsUsage: "[dir]",
				Flags:     requestFlags()[1:],
				Action: func(ctx context.Context, c *cli.Command) error {
					opts := requestOptions(c)
					opts.Text = ""
					return ctrl.Watch(ctx, commands.WatchOptions{
						RequestOptions: opts,
						Dir:            c.Args().First(),
					})
				},
			},
			{
				Name:  "serve",
				Usage: "Serve analysis and generation over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "listen address", Sources: cli.EnvVars("TEXT2API_ADDR")},
					&cli.StringFlag{Name: "provider", Usage: "model provider (ollama, gemini, noop)"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "directory receiving the generated projects"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Serve(ctx, commands.ServeOptions{
						Addr:      c.String("addr"),
						Provider:  c.String("provider"),
						OutputDir: c.String("output"),
					})
				},
			},
			{
				Name:      "init",
				Usage:     "Create text2api.yaml and a description interactively",
				ArgsUsage: "[dir]",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx, c.Args().First())
				},
			},
		},
	}

	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run text2api")
	}
}
