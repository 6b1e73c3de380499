package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/veridock/text2api/internal/generate"
)

// Output receives the user-facing lines of a command
type Output interface {
	Printf(format string, args ...any)
	Println(args ...any)
}

type defaultOutput struct {
	w io.Writer
}

func newOutput(w io.Writer) *defaultOutput {
	return &defaultOutput{w: w}
}

func (o *defaultOutput) Printf(format string, args ...any) {
	fmt.Fprintf(o.w, format, args...)
}

func (o *defaultOutput) Println(args ...any) {
	fmt.Fprintln(o.w, args...)
}

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
)

// printResult prints a generation result in the form
//
//	✓ REST/nethttp project written to generated/note_api (8 files)
//	  ! MODEL_UNAVAILABLE: ...
func (c *Controller) printResult(res *generate.Result) {
	out := c.deps.Output
	if res.Success {
		out.Printf("%s %s/%s project written to %s (%d files)\n",
			okColor.Sprint("✓"), res.Protocol, res.Framework, res.OutputPath, len(res.Files))
	} else {
		out.Printf("%s generation failed\n", failColor.Sprint("✗"))
	}
	for _, e := range res.Errors {
		out.Printf("  %s %s\n", failColor.Sprint("-"), e)
	}
	for _, w := range res.Warnings {
		out.Printf("  %s %s\n", warnColor.Sprint("!"), w)
	}
	if res.RequestID != "" {
		out.Printf("  %s\n", dimColor.Sprint("request "+res.RequestID))
	}
}

// printJSON prints v as indented JSON
func (c *Controller) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	c.deps.Output.Println(string(data))
	return nil
}
