package evaluator

import (
	"fmt"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/parser"
)

// Evaluate computes the value of an AST node in the given context. It
// is total over the variant set: malformed data degrades to null and
// the query continues. Errors are reserved for fatal faults, which
// abort the whole query: count() on a non-array, scope depth breach,
// an unbound parameter and context cancellation.
func Evaluate(ctx *EvalContext, node parser.AstNode) (any, error) {
	if err := ctx.goCtx.Err(); err != nil {
		return nil, err
	}

	if ctx.depth > maxScopeDepth {
		return nil, fmt.Errorf("%w: scope nesting exceeds %d levels", lakeq.ErrEvaluationDepth, maxScopeDepth)
	}

	switch n := node.(type) {
	case *parser.Everything:
		return ctx.dataset, nil

	case *parser.CurrentRef:
		return ctx.current, nil

	case *parser.ParentRef:
		return ctx.ParentValue(), nil

	case *parser.Literal:
		return n.Value, nil

	case *parser.ParameterRef:
		value, ok := ctx.Param(n.Name)
		if !ok {
			return nil, fmt.Errorf("%w: $%s", lakeq.ErrUnknownParameter, n.Name)
		}

		return value, nil

	case *parser.Attribute:
		return evalAttribute(ctx, n)

	case *parser.Element:
		return evalElement(ctx, n)

	case *parser.Slice:
		return evalSlice(ctx, n)

	case *parser.Filter:
		return evalFilter(ctx, n)

	case *parser.Dereference:
		return evalDereference(ctx, n)

	case *parser.Projection:
		return evalProjection(ctx, n)

	case *parser.ObjectLiteral:
		return projectObject(ctx, n.Fields)

	case *parser.ArrayLiteral:
		return evalArrayLiteral(ctx, n)

	case *parser.Pipe:
		return evalPipe(ctx, n)

	case *parser.FunctionCall:
		return evalFunctionCall(ctx, n)

	case *parser.BinaryOp:
		return evalBinaryOp(ctx, n)

	case *parser.UnaryOp:
		return evalUnaryOp(ctx, n)

	default:
		return nil, nil
	}
}

// evalAttribute reads a named field. With no base the field comes from
// the current scope. A non-object base degrades to null, including
// arrays, which matches what a JSON path extraction returns in SQL.
func evalAttribute(ctx *EvalContext, node *parser.Attribute) (any, error) {
	source := ctx.current

	if node.Base != nil {
		base, err := Evaluate(ctx, node.Base)
		if err != nil {
			return nil, err
		}

		source = base
	}

	object, ok := source.(map[string]any)
	if !ok {
		return nil, nil
	}

	return object[node.Name], nil
}

func evalElement(ctx *EvalContext, node *parser.Element) (any, error) {
	base, err := Evaluate(ctx, node.Base)
	if err != nil {
		return nil, err
	}

	items, ok := base.([]any)
	if !ok {
		return nil, nil
	}

	index := node.Index
	if index < 0 {
		index += len(items)
	}

	if index < 0 || index >= len(items) {
		return nil, nil
	}

	return items[index], nil
}

func evalSlice(ctx *EvalContext, node *parser.Slice) (any, error) {
	base, err := Evaluate(ctx, node.Base)
	if err != nil {
		return nil, err
	}

	items, ok := base.([]any)
	if !ok {
		return nil, nil
	}

	low, high := sliceBounds(node, len(items))
	if low >= high {
		return []any{}, nil
	}

	return items[low:high], nil
}

// sliceBounds resolves negative indexes against the length, applies
// the inclusive flag and clamps to the available range.
func sliceBounds(node *parser.Slice, length int) (int, int) {
	low := node.Start
	if low < 0 {
		low += length
	}

	high := node.End
	if high < 0 {
		high += length
	}

	if node.EndInclusive {
		high++
	}

	if low < 0 {
		low = 0
	}

	if high > length {
		high = length
	}

	return low, high
}

func evalFilter(ctx *EvalContext, node *parser.Filter) (any, error) {
	base, err := Evaluate(ctx, node.Base)
	if err != nil {
		return nil, err
	}

	items, ok := base.([]any)
	if !ok {
		return nil, nil
	}

	kept := make([]any, 0, len(items))

	for _, item := range items {
		if err := ctx.goCtx.Err(); err != nil {
			return nil, err
		}

		verdict, err := Evaluate(ctx.Child(item), node.Condition)
		if err != nil {
			return nil, err
		}

		if lakeq.IsTruthy(verdict) {
			kept = append(kept, item)
		}
	}

	return kept, nil
}

func evalDereference(ctx *EvalContext, node *parser.Dereference) (any, error) {
	base, err := Evaluate(ctx, node.Base)
	if err != nil {
		return nil, err
	}

	reference, ok := base.(map[string]any)
	if !ok {
		return nil, nil
	}

	id, ok := reference[lakeq.FieldRef].(string)
	if !ok || ctx.fetcher == nil {
		return nil, nil
	}

	document, ok := ctx.fetcher.FetchByReference(ctx.goCtx, id)
	if !ok {
		return nil, nil
	}

	return document, nil
}

func evalProjection(ctx *EvalContext, node *parser.Projection) (any, error) {
	base, err := Evaluate(ctx, node.Base)
	if err != nil {
		return nil, err
	}

	switch source := base.(type) {
	case []any:
		results := make([]any, 0, len(source))

		for _, item := range source {
			if err := ctx.goCtx.Err(); err != nil {
				return nil, err
			}

			object, err := projectObject(ctx.Child(item), node.Fields)
			if err != nil {
				return nil, err
			}

			results = append(results, object)
		}

		return results, nil

	case map[string]any:
		return projectObject(ctx.Child(source), node.Fields)

	default:
		return nil, nil
	}
}

// projectObject builds one output object. Fields apply in source
// order, so a later field overrides an earlier one, including keys
// that a spread brought in.
func projectObject(ctx *EvalContext, fields []parser.ObjectField) (map[string]any, error) {
	out := make(map[string]any, len(fields))

	for _, field := range fields {
		if field.Spread {
			source := ctx.current

			if field.Value != nil {
				value, err := Evaluate(ctx, field.Value)
				if err != nil {
					return nil, err
				}

				source = value
			}

			if object, ok := source.(map[string]any); ok {
				for key, value := range object {
					out[key] = value
				}
			}

			continue
		}

		value, err := Evaluate(ctx, field.Value)
		if err != nil {
			return nil, err
		}

		out[field.Name] = value
	}

	return out, nil
}

func evalArrayLiteral(ctx *EvalContext, node *parser.ArrayLiteral) (any, error) {
	items := make([]any, 0, len(node.Elements))

	for _, element := range node.Elements {
		value, err := Evaluate(ctx, element)
		if err != nil {
			return nil, err
		}

		items = append(items, value)
	}

	return items, nil
}
