package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
	Out     io.Writer
}

// CLI represents the command-line interface
var CLI struct {
	Config  string     `help:"Configuration file path" default:"dynquery.yaml"`
	Verbose bool       `help:"Enable verbose output" short:"v"`
	Quiet   bool       `help:"Suppress output" short:"q"`
	Eval    EvalCmd    `cmd:"" help:"Evaluate an expression"`
	Check   CheckCmd   `cmd:"" help:"Parse an expression and show its tree and type"`
	Query   QueryCmd   `cmd:"" help:"Query a data file or database table"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	_, err := fmt.Fprintln(ctx.Out, "dynquery v0.1.0")
	return err
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("dynquery"),
		kong.Description("Parse, check and run dynamic query expressions"),
	)

	// status messages go to stderr
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		color.NoColor = true
	}

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
		Out:     os.Stdout,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
