package evaluator

import (
	"sort"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/parser"
)

// FieldScore is the synthetic field score() adds to each element. It
// exists only in query results, never in stored documents.
const FieldScore = "_score"

func evalPipe(ctx *EvalContext, node *parser.Pipe) (any, error) {
	base, err := Evaluate(ctx, node.Base)
	if err != nil {
		return nil, err
	}

	items, ok := base.([]any)
	if !ok {
		return nil, nil
	}

	switch node.Name {
	case parser.PipeOrder:
		return SortItems(ctx, items, node.Keys)
	case parser.PipeScore:
		return scoreItems(ctx, items, node.Args)
	default:
		return nil, nil
	}
}

// SortItems orders a copy of items by the given keys under the shared
// total order, with the document id as the final ascending tiebreak.
// Exported because hybrid execution re-sorts merged candidate sets
// with exactly these rules.
func SortItems(ctx *EvalContext, items []any, keys []parser.OrderKey) ([]any, error) {
	type sortRow struct {
		item any
		keys []any
	}

	// Keys are evaluated up front so the comparison function is pure
	// and key faults surface before sorting starts.
	rows := make([]sortRow, len(items))

	for i, item := range items {
		if err := ctx.goCtx.Err(); err != nil {
			return nil, err
		}

		row := sortRow{item: item, keys: make([]any, len(keys))}
		child := ctx.Child(item)

		for j, key := range keys {
			value, err := Evaluate(child, key.Expr)
			if err != nil {
				return nil, err
			}

			row.keys[j] = value
		}

		rows[i] = row
	}

	sort.SliceStable(rows, func(a, b int) bool {
		for j, key := range keys {
			c := lakeq.Compare(rows[a].keys[j], rows[b].keys[j])
			if c != 0 {
				if key.Desc {
					return c > 0
				}

				return c < 0
			}
		}

		return documentID(rows[a].item) < documentID(rows[b].item)
	})

	result := make([]any, len(rows))
	for i, row := range rows {
		result[i] = row.item
	}

	return result, nil
}

func documentID(item any) string {
	object, ok := item.(map[string]any)
	if !ok {
		return ""
	}

	id, _ := object[lakeq.FieldID].(string)

	return id
}

// scoreItems returns a new array where every object element carries a
// _score field: one point per truthy score expression. Non-object
// elements pass through untouched.
func scoreItems(ctx *EvalContext, items []any, args []parser.AstNode) ([]any, error) {
	scored := make([]any, len(items))

	for i, item := range items {
		if err := ctx.goCtx.Err(); err != nil {
			return nil, err
		}

		object, ok := item.(map[string]any)
		if !ok {
			scored[i] = item
			continue
		}

		score := 0.0
		child := ctx.Child(item)

		for _, arg := range args {
			value, err := Evaluate(child, arg)
			if err != nil {
				return nil, err
			}

			if lakeq.IsTruthy(value) {
				score++
			}
		}

		copied := make(map[string]any, len(object)+1)
		for key, value := range object {
			copied[key] = value
		}

		copied[FieldScore] = score
		scored[i] = copied
	}

	return scored, nil
}
