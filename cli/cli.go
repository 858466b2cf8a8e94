// Package cli implements the lakeq command line. Commands stay thin:
// they load configuration and parameters, call the library, and print.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
)

// Context carries the global flags into every command's Run method.
type Context struct {
	Config     string
	Dataset    string
	Param      []string
	ParamsFile string
	Verbose    bool
	Quiet      bool
}

// Parameters merges the --params-file content with --param flags,
// flags winning on collision.
func (c *Context) Parameters() (map[string]any, error) {
	return loadParameters(c.ParamsFile, c.Param)
}

// CLI is the kong command tree.
var CLI struct {
	Config     string   `help:"Configuration file path" default:"lakeq.yaml"`
	Dataset    string   `short:"d" help:"Dataset to run against (overrides config)"`
	Param      []string `short:"p" help:"Query parameter (key=value format)"`
	ParamsFile string   `name:"params-file" help:"Parameters file (JSON/YAML)" type:"path"`
	Verbose    bool     `short:"v" help:"Enable verbose output"`
	Quiet      bool     `short:"q" help:"Suppress output"`

	Query   QueryCmd   `cmd:"" help:"Run a query against the store or a fixture file"`
	Parse   ParseCmd   `cmd:"" help:"Parse a query and dump its syntax tree"`
	Explain ExplainCmd `cmd:"" help:"Show the execution plan for a query"`
	Repl    ReplCmd    `cmd:"" help:"Interactive query shell"`
	Seed    SeedCmd    `cmd:"" help:"Load document fixtures into the store"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// Main parses arguments and runs the selected command.
func Main() {
	ctx := kong.Parse(&CLI)

	appCtx := &Context{
		Config:     CLI.Config,
		Dataset:    CLI.Dataset,
		Param:      CLI.Param,
		ParamsFile: CLI.ParamsFile,
		Verbose:    CLI.Verbose,
		Quiet:      CLI.Quiet,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// readQueryText returns the query from the positional argument or the
// --file flag, exactly one of which must be given.
func readQueryText(arg, file string) (string, error) {
	switch {
	case arg != "" && file != "":
		return "", ErrQueryTextAndFile
	case arg != "":
		return arg, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}

		return strings.TrimSpace(string(data)), nil
	default:
		return "", ErrQueryMissing
	}
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (cmd *VersionCmd) Run() error {
	fmt.Println("lakeq v0.1.0")
	return nil
}
