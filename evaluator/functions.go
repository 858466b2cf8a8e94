package evaluator

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/parser"
)

type strictImpl func(ctx *EvalContext, args []any) (any, error)

type lazyImpl func(ctx *EvalContext, args []parser.AstNode) (any, error)

// functionImpl is one in-memory function body. Lazy functions receive
// the argument nodes and control evaluation order themselves; strict
// functions get the evaluated values.
type functionImpl struct {
	strict strictImpl
	lazy   lazyImpl
}

var (
	functionRegistry     map[string]functionImpl
	functionRegistryOnce sync.Once
)

// builtins returns the registry, built once. The names mirror
// lakeq.FunctionSignatures; the parser has already validated name and
// arity by the time evaluation starts.
func builtins() map[string]functionImpl {
	functionRegistryOnce.Do(func() {
		functionRegistry = map[string]functionImpl{
			"count":      {strict: fnCount},
			"defined":    {strict: fnDefined},
			"coalesce":   {lazy: fnCoalesce},
			"select":     {lazy: fnSelect},
			"references": {strict: fnReferences},
			"upper":      {strict: fnUpper},
			"lower":      {strict: fnLower},
			"length":     {strict: fnLength},
			"round":      {strict: fnRound},
			"now":        {strict: fnNow},
		}
	})

	return functionRegistry
}

func evalFunctionCall(ctx *EvalContext, node *parser.FunctionCall) (any, error) {
	impl, ok := builtins()[node.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", lakeq.ErrUnknownFunction, node.Name)
	}

	if impl.lazy != nil {
		return impl.lazy(ctx, node.Args)
	}

	args := make([]any, len(node.Args))

	for i, argNode := range node.Args {
		value, err := Evaluate(ctx, argNode)
		if err != nil {
			return nil, err
		}

		args[i] = value
	}

	return impl.strict(ctx, args)
}

// fnCount is the one function with a fatal type rule: counting
// anything but an array aborts the query instead of degrading.
func fnCount(_ *EvalContext, args []any) (any, error) {
	items, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: argument is %s, not an array", lakeq.ErrCountArgument, lakeq.KindOf(args[0]))
	}

	return float64(len(items)), nil
}

func fnDefined(_ *EvalContext, args []any) (any, error) {
	return args[0] != nil, nil
}

func fnCoalesce(ctx *EvalContext, args []parser.AstNode) (any, error) {
	for _, arg := range args {
		value, err := Evaluate(ctx, arg)
		if err != nil {
			return nil, err
		}

		if value != nil {
			return value, nil
		}
	}

	return nil, nil
}

// fnSelect walks condition => value pairs in order and returns the
// value of the first truthy condition. The first non-pair argument
// acts as the default. Conditions after a hit are never evaluated.
func fnSelect(ctx *EvalContext, args []parser.AstNode) (any, error) {
	for _, arg := range args {
		pair, ok := arg.(*parser.BinaryOp)
		if !ok || pair.Operator != parser.OpPair {
			return Evaluate(ctx, arg)
		}

		condition, err := Evaluate(ctx, pair.Left)
		if err != nil {
			return nil, err
		}

		if lakeq.IsTruthy(condition) {
			return Evaluate(ctx, pair.Right)
		}
	}

	return nil, nil
}

// fnReferences deep-scans the current document for _ref fields whose
// value is one of the given ids.
func fnReferences(ctx *EvalContext, args []any) (any, error) {
	ids := make(map[string]struct{})

	switch arg := args[0].(type) {
	case string:
		ids[arg] = struct{}{}
	case []any:
		for _, item := range arg {
			if id, ok := item.(string); ok {
				ids[id] = struct{}{}
			}
		}
	}

	if len(ids) == 0 {
		return false, nil
	}

	return containsReference(ctx.current, ids), nil
}

func containsReference(value any, ids map[string]struct{}) bool {
	switch v := value.(type) {
	case map[string]any:
		if ref, ok := v[lakeq.FieldRef].(string); ok {
			if _, hit := ids[ref]; hit {
				return true
			}
		}

		for _, nested := range v {
			if containsReference(nested, ids) {
				return true
			}
		}

	case []any:
		for _, item := range v {
			if containsReference(item, ids) {
				return true
			}
		}
	}

	return false
}

func fnUpper(_ *EvalContext, args []any) (any, error) {
	if s, ok := args[0].(string); ok {
		return strings.ToUpper(s), nil
	}

	return nil, nil
}

func fnLower(_ *EvalContext, args []any) (any, error) {
	if s, ok := args[0].(string); ok {
		return strings.ToLower(s), nil
	}

	return nil, nil
}

func fnLength(_ *EvalContext, args []any) (any, error) {
	switch v := args[0].(type) {
	case string:
		return float64(utf8.RuneCountInString(v)), nil
	case []any:
		return float64(len(v)), nil
	default:
		return nil, nil
	}
}

func fnRound(_ *EvalContext, args []any) (any, error) {
	number, ok := args[0].(float64)
	if !ok {
		return nil, nil
	}

	precision := 0.0

	if len(args) == 2 {
		precision, ok = args[1].(float64)
		if !ok {
			return nil, nil
		}
	}

	factor := math.Pow(10, math.Trunc(precision))

	return math.Round(number*factor) / factor, nil
}

// fnNow returns the root context's timestamp, so every call within one
// query sees the same instant.
func fnNow(ctx *EvalContext, _ []any) (any, error) {
	return ctx.Now().Format(time.RFC3339Nano), nil
}
