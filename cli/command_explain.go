package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/parser"
	"github.com/contentlake/lakeq/transpiler"
)

// ExplainCmd shows how a query would execute: the chosen strategy,
// what pushes to SQL and what stays in memory.
type ExplainCmd struct {
	QueryText string `arg:"" optional:"" help:"Query text"`
	File      string `short:"f" help:"Read the query from a file" type:"path"`
	Dialect   string `help:"SQL dialect to render (defaults to the configured one)"`
}

// Run executes the explain command
func (e *ExplainCmd) Run(ctx *Context) error {
	config, err := lakeq.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	queryText, err := readQueryText(e.QueryText, e.File)
	if err != nil {
		return err
	}

	params, err := ctx.Parameters()
	if err != nil {
		return err
	}

	dialectName := e.Dialect
	if dialectName == "" {
		dialectName = config.Dialect
	}

	dialect := lakeq.Dialect(dialectName)
	if !dialect.Valid() {
		return fmt.Errorf("%w: %s", lakeq.ErrUnsupportedDialect, dialectName)
	}

	root, err := parser.ParseWithLimits(queryText, config.Limits)
	if err != nil {
		return err
	}

	return printPlan(os.Stdout, transpiler.Analyze(root), dialect, params)
}

// printPlan renders one plan. SQL rendering needs parameter values for
// pushed comparisons, so a missing binding downgrades to a note
// instead of failing the whole explain.
func printPlan(w io.Writer, plan *transpiler.Plan, dialect lakeq.Dialect, params map[string]any) error {
	fmt.Fprintf(w, "strategy: %s\n", plan.Strategy)

	for _, reason := range plan.Reasons {
		fmt.Fprintf(w, "reason: %s\n", reason)
	}

	if plan.Strategy != transpiler.StrategyMemory {
		stmt, err := plan.Statement(dialect, lakeq.NormalizeParams(params))
		if err != nil {
			fmt.Fprintf(w, "sql: not renderable (%v)\n", err)
		} else {
			fmt.Fprintf(w, "sql (%s): %s\n", dialect.Normalize(), stmt.SQL)
			fmt.Fprintf(w, "args: dataset")

			for _, arg := range stmt.Args {
				fmt.Fprintf(w, ", %v", arg)
			}

			fmt.Fprintln(w)
		}
	}

	if plan.Residual != nil {
		fmt.Fprintf(w, "residual: %s\n", plan.Residual.String())
	}

	return nil
}
