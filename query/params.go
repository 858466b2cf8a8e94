package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/parser"
)

// RequiredParameters lists every $parameter a query references,
// sorted and deduplicated.
func RequiredParameters(root parser.AstNode) []string {
	seen := map[string]struct{}{}
	collectParameters(root, seen)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// ValidateParameters reports all referenced parameters the bindings do
// not cover in one error. Execution itself binds lazily, so a query
// can legally run with fewer bindings when a branch short-circuits;
// this check is for front ends that want the full list up front.
func ValidateParameters(root parser.AstNode, params map[string]any) error {
	var missing []string

	for _, name := range RequiredParameters(root) {
		if _, ok := params[name]; !ok {
			missing = append(missing, "$"+name)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %s", lakeq.ErrUnknownParameter, strings.Join(missing, ", "))
}

func collectParameters(node parser.AstNode, seen map[string]struct{}) {
	switch n := node.(type) {
	case *parser.ParameterRef:
		seen[n.Name] = struct{}{}
	case *parser.Filter:
		collectParameters(n.Base, seen)
		collectParameters(n.Condition, seen)
	case *parser.Slice:
		collectParameters(n.Base, seen)
	case *parser.Element:
		collectParameters(n.Base, seen)
	case *parser.Attribute:
		if n.Base != nil {
			collectParameters(n.Base, seen)
		}
	case *parser.Dereference:
		collectParameters(n.Base, seen)
	case *parser.Projection:
		collectParameters(n.Base, seen)
		collectFieldParameters(n.Fields, seen)
	case *parser.ObjectLiteral:
		collectFieldParameters(n.Fields, seen)
	case *parser.Pipe:
		collectParameters(n.Base, seen)

		for _, key := range n.Keys {
			collectParameters(key.Expr, seen)
		}

		for _, arg := range n.Args {
			collectParameters(arg, seen)
		}
	case *parser.FunctionCall:
		for _, arg := range n.Args {
			collectParameters(arg, seen)
		}
	case *parser.BinaryOp:
		collectParameters(n.Left, seen)
		collectParameters(n.Right, seen)
	case *parser.UnaryOp:
		collectParameters(n.Operand, seen)
	case *parser.ArrayLiteral:
		for _, element := range n.Elements {
			collectParameters(element, seen)
		}
	}
}

func collectFieldParameters(fields []parser.ObjectField, seen map[string]struct{}) {
	for _, field := range fields {
		if field.Value != nil {
			collectParameters(field.Value, seen)
		}
	}
}
