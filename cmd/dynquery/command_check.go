package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/shibukawa/dynquery"
	"github.com/shibukawa/dynquery/expr"
	"github.com/shibukawa/dynquery/parser"
	"github.com/shibukawa/dynquery/typesys"
)

// CheckCmd represents the check command
type CheckCmd struct {
	Expression string   `arg:"" help:"Expression to check"`
	ItType     string   `long:"it-type" help:"Type of the implicit receiver it (e.g. String, Int32?)"`
	Source     string   `long:"source" short:"s" help:"Use the element type of a data source as the type of it"`
	Type       string   `long:"type" short:"t" help:"Result type the expression must be promotable to"`
	Values     []string `long:"value" help:"Values bound to @0, @1, ..."`
	Param      []string `long:"param" short:"p" help:"Named value (key=value format)"`
}

// Run executes the check command
func (c *CheckCmd) Run(ctx *Context) error {
	values, err := buildValues(c.Values, c.Param)
	if err != nil {
		return err
	}

	var params []*expr.Parameter

	switch {
	case c.Source != "":
		config, err := dynquery.LoadConfig(ctx.Config)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		source, closer, err := openSource(context.Background(), ctx, config, c.Source)
		if err != nil {
			return err
		}
		defer closer()

		params = []*expr.Parameter{parser.NewParameter("", source.ElementType())}
	case c.ItType != "":
		it, err := typeByName(c.ItType)
		if err != nil {
			return err
		}

		params = []*expr.Parameter{parser.NewParameter("", it)}
	}

	var resultType *typesys.Type
	if c.Type != "" {
		if resultType, err = typeByName(c.Type); err != nil {
			return err
		}
	}

	n, err := parser.Default.Parse(params, resultType, c.Expression, values...)
	if err != nil {
		return err
	}

	if !ctx.Quiet {
		color.New(color.FgGreen).Fprintln(ctx.Out, "OK")
	}

	_, err = fmt.Fprintf(ctx.Out, "%s\n%s\n", n, n.Type())

	return err
}
