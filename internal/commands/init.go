package commands

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"text/template"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/veridock/text2api/internal/codegen"
	"github.com/veridock/text2api/internal/config"
	"github.com/veridock/text2api/internal/generate"
	"github.com/veridock/text2api/internal/llm"
	"github.com/veridock/text2api/internal/naming"
	"github.com/veridock/text2api/internal/spec"
)

//go:embed templates/*
var templatesFS embed.FS

// DescriptionFile is the description written by init
const DescriptionFile = "description.md"

// autoProtocol leaves the protocol to the analysis
const autoProtocol = "auto"

type InitOptions struct {
	Description string
	Protocol    string
	Provider    string
	OutputDir   string
}

type InitCommand struct {
	dir         string
	filesystem  codegen.FileSystem
	output      Output
	templatesFS fs.FS
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand(dir string, filesystem codegen.FileSystem, output Output) *InitCommand {
	return &InitCommand{
		dir:         dir,
		filesystem:  filesystem,
		output:      output,
		templatesFS: templatesFS,
	}
}

// Init writes text2api.yaml and description.md to dir after asking for
// the description and the main settings
func (c *Controller) Init(ctx context.Context, dir string) error {
	if dir == "" {
		dir = "."
	}
	cmd := NewInitCommand(dir, c.deps.FileSystem, c.deps.Output)
	return cmd.Run(ctx)
}

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	if existing := ic.existingConfig(); existing != "" {
		return fmt.Errorf("%s already exists", existing)
	}

	var options *InitOptions
	var err error

	// For testing: use provided options instead of prompting
	if ic.testOptions != nil {
		options = ic.testOptions
	} else {
		options, err = ic.promptInitOptions(opts...)
		if err != nil {
			return fmt.Errorf("failed to get init options: %w", err)
		}
	}
	if err := validateDescription(options.Description); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := ic.filesystem.MkdirAll(ic.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", ic.dir, err)
	}

	cfg := config.Default()
	if options.Protocol != "" && options.Protocol != autoProtocol {
		cfg.Generation.Protocol = options.Protocol
	}
	if options.Provider != "" {
		cfg.LLM.Provider = options.Provider
	}
	if options.OutputDir != "" {
		cfg.OutputDir = options.OutputDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	configPath := filepath.Join(ic.dir, config.FileNames[0])
	if err := ic.filesystem.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	description, err := ic.renderDescription(options.Description)
	if err != nil {
		return fmt.Errorf("failed to render description: %w", err)
	}
	descriptionPath := filepath.Join(ic.dir, DescriptionFile)
	if err := ic.filesystem.WriteFile(descriptionPath, description, 0o644); err != nil {
		return fmt.Errorf("failed to write description: %w", err)
	}

	ic.output.Printf("%s Created %s\n", okColor.Sprint("✓"), configPath)
	ic.output.Printf("%s Created %s\n", okColor.Sprint("✓"), descriptionPath)
	ic.output.Printf("\nNext: text2api generate --file %s\n", descriptionPath)
	return nil
}

func (ic *InitCommand) existingConfig() string {
	for _, name := range config.FileNames {
		path := filepath.Join(ic.dir, name)
		if _, err := ic.filesystem.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func validateDescription(s string) error {
	if n := len(strings.Fields(s)); n < generate.MinWords {
		return fmt.Errorf("%w: describe the API in at least %d words", generate.ErrDescriptionTooShort, generate.MinWords)
	}
	return nil
}

func (ic *InitCommand) renderDescription(description string) ([]byte, error) {
	t, err := template.ParseFS(ic.templatesFS, "templates/description.md.tmpl")
	if err != nil {
		return nil, err
	}
	title := strings.ReplaceAll(naming.ProjectName(description), "_", " ")
	var buf bytes.Buffer
	err = t.Execute(&buf, map[string]string{
		"Title":       title,
		"Description": strings.TrimSpace(description),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (ic *InitCommand) promptInitOptions(opts ...tea.ProgramOption) (*InitOptions, error) {
	options := &InitOptions{Protocol: autoProtocol, Provider: llm.ProviderOllama, OutputDir: config.Default().OutputDir}

	form := ic.createInitForm(options)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		if err := form.Run(); err != nil {
			return nil, err
		}
	}
	return options, nil
}

func (ic *InitCommand) createInitForm(options *InitOptions) *huh.Form {
	protocols := []huh.Option[string]{huh.NewOption("Detect from the description", autoProtocol)}
	for _, p := range spec.Protocols {
		protocols = append(protocols, huh.NewOption(string(p), string(p)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Description").
				Description("What should the API do? Name the entities and their fields.").
				Value(&options.Description).
				Validate(validateDescription),

			huh.NewSelect[string]().
				Title("Protocol").
				Options(protocols...).
				Value(&options.Protocol),

			huh.NewSelect[string]().
				Title("Model provider").
				Description("Used to analyze the description; without one only keyword extraction runs").
				Options(
					huh.NewOption("Ollama (local)", llm.ProviderOllama),
					huh.NewOption("Gemini", llm.ProviderGemini),
					huh.NewOption("None", llm.ProviderNoop),
				).
				Value(&options.Provider),

			huh.NewInput().
				Title("Output directory").
				Value(&options.OutputDir).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("output directory cannot be empty")
					}
					return nil
				}),
		),
	)
}
