package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/shibukawa/dynquery/expr"
	"github.com/shibukawa/dynquery/parser"
	"github.com/shibukawa/dynquery/typesys"
)

// EvalCmd represents the eval command
type EvalCmd struct {
	Expression string   `arg:"" help:"Expression to evaluate"`
	Values     []string `arg:"" optional:"" help:"Values bound to @0, @1, ..."`
	Param      []string `long:"param" short:"p" help:"Named value (key=value format)"`
	Type       string   `long:"type" short:"t" help:"Result type the expression is promoted to (e.g. Int64, Decimal?)"`
}

// Run executes the eval command
func (e *EvalCmd) Run(ctx *Context) error {
	values, err := buildValues(e.Values, e.Param)
	if err != nil {
		return err
	}

	var resultType *typesys.Type
	if e.Type != "" {
		if resultType, err = typeByName(e.Type); err != nil {
			return err
		}
	}

	n, err := parser.Default.Parse(nil, resultType, e.Expression, values...)
	if err != nil {
		return err
	}

	if ctx.Verbose {
		color.Blue("Expression: %s", n)
	}

	v, err := expr.Eval(context.Background(), n, nil)
	if err != nil {
		return err
	}

	if ctx.Verbose {
		color.Blue("Type: %s", n.Type())
	}

	if v == nil {
		_, err = fmt.Fprintln(ctx.Out, "null")
		return err
	}

	_, err = fmt.Fprintln(ctx.Out, typesys.FormatAs(v, n.Type()))

	return err
}
