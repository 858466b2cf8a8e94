package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/parser"
	"github.com/contentlake/lakeq/query"
)

// ParseCmd parses a query and dumps its syntax tree.
type ParseCmd struct {
	QueryText string `arg:"" optional:"" help:"Query text"`
	File      string `short:"f" help:"Read the query from a file" type:"path"`
}

// Run executes the parse command
func (p *ParseCmd) Run(ctx *Context) error {
	config, err := lakeq.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	queryText, err := readQueryText(p.QueryText, p.File)
	if err != nil {
		return err
	}

	root, err := parser.ParseWithLimits(queryText, config.Limits)
	if err != nil {
		return err
	}

	if !ctx.Quiet {
		color.Blue("Canonical: %s", root.String())

		required := query.RequiredParameters(root)
		if len(required) > 0 {
			color.Blue("Parameters: $%s", strings.Join(required, ", $"))
		}

		fmt.Println()
	}

	dumpNode(os.Stdout, "", root, 0)

	return nil
}

// dumpNode writes an indented outline of the syntax tree, one node per
// line. role labels the node's position inside its parent.
func dumpNode(w io.Writer, role string, node parser.AstNode, depth int) {
	pad := strings.Repeat("  ", depth)
	if role != "" {
		pad += role + ": "
	}

	switch n := node.(type) {
	case *parser.Everything:
		fmt.Fprintf(w, "%severything\n", pad)
	case *parser.Filter:
		fmt.Fprintf(w, "%sfilter\n", pad)
		dumpNode(w, "base", n.Base, depth+1)
		dumpNode(w, "condition", n.Condition, depth+1)
	case *parser.Slice:
		dots := ".."
		if n.EndInclusive {
			dots = "..."
		}

		fmt.Fprintf(w, "%sslice %d%s%d\n", pad, n.Start, dots, n.End)
		dumpNode(w, "base", n.Base, depth+1)
	case *parser.Element:
		fmt.Fprintf(w, "%selement %d\n", pad, n.Index)
		dumpNode(w, "base", n.Base, depth+1)
	case *parser.Attribute:
		fmt.Fprintf(w, "%sattribute %q\n", pad, n.Name)

		if n.Base != nil {
			dumpNode(w, "base", n.Base, depth+1)
		}
	case *parser.Dereference:
		fmt.Fprintf(w, "%sdereference\n", pad)
		dumpNode(w, "base", n.Base, depth+1)
	case *parser.CurrentRef:
		fmt.Fprintf(w, "%scurrent\n", pad)
	case *parser.ParentRef:
		fmt.Fprintf(w, "%sparent\n", pad)
	case *parser.Projection:
		fmt.Fprintf(w, "%sprojection\n", pad)
		dumpNode(w, "base", n.Base, depth+1)
		dumpFields(w, n.Fields, depth+1)
	case *parser.ObjectLiteral:
		fmt.Fprintf(w, "%sobject\n", pad)
		dumpFields(w, n.Fields, depth+1)
	case *parser.Pipe:
		fmt.Fprintf(w, "%spipe %s\n", pad, n.Name)
		dumpNode(w, "base", n.Base, depth+1)

		for _, key := range n.Keys {
			direction := "asc"
			if key.Desc {
				direction = "desc"
			}

			dumpNode(w, direction, key.Expr, depth+1)
		}

		for _, arg := range n.Args {
			dumpNode(w, "arg", arg, depth+1)
		}
	case *parser.FunctionCall:
		name := n.Name
		if n.Namespace != "" {
			name = n.Namespace + "::" + n.Name
		}

		fmt.Fprintf(w, "%scall %s\n", pad, name)

		for _, arg := range n.Args {
			dumpNode(w, "arg", arg, depth+1)
		}
	case *parser.BinaryOp:
		fmt.Fprintf(w, "%sop %s\n", pad, n.Operator)
		dumpNode(w, "left", n.Left, depth+1)
		dumpNode(w, "right", n.Right, depth+1)
	case *parser.UnaryOp:
		fmt.Fprintf(w, "%sop %s\n", pad, n.Operator)
		dumpNode(w, "", n.Operand, depth+1)
	case *parser.Literal:
		fmt.Fprintf(w, "%sliteral %s\n", pad, n.String())
	case *parser.ParameterRef:
		fmt.Fprintf(w, "%sparam $%s\n", pad, n.Name)
	case *parser.ArrayLiteral:
		fmt.Fprintf(w, "%sarray\n", pad)

		for _, element := range n.Elements {
			dumpNode(w, "", element, depth+1)
		}
	default:
		fmt.Fprintf(w, "%s%s\n", pad, node.String())
	}
}

func dumpFields(w io.Writer, fields []parser.ObjectField, depth int) {
	pad := strings.Repeat("  ", depth)

	for _, field := range fields {
		switch {
		case field.Spread && field.Value == nil:
			fmt.Fprintf(w, "%sspread\n", pad)
		case field.Spread:
			fmt.Fprintf(w, "%sspread\n", pad)
			dumpNode(w, "", field.Value, depth+1)
		default:
			fmt.Fprintf(w, "%sfield %q\n", pad, field.Name)
			dumpNode(w, "", field.Value, depth+1)
		}
	}
}
