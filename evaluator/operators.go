package evaluator

import (
	"math"
	"strings"
	"unicode"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/parser"
)

func evalBinaryOp(ctx *EvalContext, node *parser.BinaryOp) (any, error) {
	switch node.Operator {
	case parser.OpAnd:
		left, err := Evaluate(ctx, node.Left)
		if err != nil {
			return nil, err
		}

		if !lakeq.IsTruthy(left) {
			return false, nil
		}

		right, err := Evaluate(ctx, node.Right)
		if err != nil {
			return nil, err
		}

		return lakeq.IsTruthy(right), nil

	case parser.OpOr:
		left, err := Evaluate(ctx, node.Left)
		if err != nil {
			return nil, err
		}

		if lakeq.IsTruthy(left) {
			return true, nil
		}

		right, err := Evaluate(ctx, node.Right)
		if err != nil {
			return nil, err
		}

		return lakeq.IsTruthy(right), nil

	case parser.OpPair:
		// Pairs only carry meaning inside select()
		return nil, nil
	}

	left, err := Evaluate(ctx, node.Left)
	if err != nil {
		return nil, err
	}

	right, err := Evaluate(ctx, node.Right)
	if err != nil {
		return nil, err
	}

	switch node.Operator {
	case parser.OpEqual:
		return lakeq.Equal(left, right), nil

	case parser.OpNotEqual:
		return !lakeq.Equal(left, right), nil

	case parser.OpLess, parser.OpLessEqual, parser.OpGreater, parser.OpGreaterEqual:
		return evalComparison(node.Operator, left, right), nil

	case parser.OpIn:
		items, ok := right.([]any)
		if !ok {
			return nil, nil
		}

		for _, item := range items {
			if lakeq.Equal(left, item) {
				return true, nil
			}
		}

		return false, nil

	case parser.OpMatch:
		return evalMatch(left, right), nil

	case parser.OpPlus:
		return evalAdd(left, right), nil

	case parser.OpMinus, parser.OpMultiply, parser.OpDivide, parser.OpModulo:
		return evalArithmetic(node.Operator, left, right), nil

	default:
		return nil, nil
	}
}

// evalComparison orders two values of the same kind. Cross-kind
// comparison and comparison of kinds with no intra-kind order degrade
// to null.
func evalComparison(operator string, left, right any) any {
	kindLeft, kindRight := lakeq.KindOf(left), lakeq.KindOf(right)
	if kindLeft != kindRight {
		return nil
	}

	switch kindLeft {
	case lakeq.KindBool, lakeq.KindNumber, lakeq.KindString:
	default:
		return nil
	}

	c := lakeq.Compare(left, right)

	switch operator {
	case parser.OpLess:
		return c < 0
	case parser.OpLessEqual:
		return c <= 0
	case parser.OpGreater:
		return c > 0
	default:
		return c >= 0
	}
}

func evalAdd(left, right any) any {
	switch l := left.(type) {
	case float64:
		if r, ok := right.(float64); ok {
			return l + r
		}
	case string:
		if r, ok := right.(string); ok {
			return l + r
		}
	case []any:
		if r, ok := right.([]any); ok {
			joined := make([]any, 0, len(l)+len(r))
			joined = append(joined, l...)
			joined = append(joined, r...)

			return joined
		}
	}

	return nil
}

func evalArithmetic(operator string, left, right any) any {
	l, ok := left.(float64)
	if !ok {
		return nil
	}

	r, ok := right.(float64)
	if !ok {
		return nil
	}

	switch operator {
	case parser.OpMinus:
		return l - r
	case parser.OpMultiply:
		return l * r
	case parser.OpDivide:
		if r == 0 {
			return nil
		}

		return l / r
	default:
		if r == 0 {
			return nil
		}

		return math.Mod(l, r)
	}
}

func evalUnaryOp(ctx *EvalContext, node *parser.UnaryOp) (any, error) {
	operand, err := Evaluate(ctx, node.Operand)
	if err != nil {
		return nil, err
	}

	if node.Operator == parser.OpNot {
		return !lakeq.IsTruthy(operand), nil
	}

	if number, ok := operand.(float64); ok {
		return -number, nil
	}

	return nil, nil
}

// evalMatch implements the match operator: every pattern token must
// match at least one word of the text, case-insensitively, with *
// matching any run of characters. The left side may be an array of
// strings, in which case one matching element is enough.
func evalMatch(left, right any) any {
	pattern, ok := right.(string)
	if !ok {
		return nil
	}

	switch text := left.(type) {
	case string:
		return matchText(text, pattern)

	case []any:
		for _, item := range text {
			s, ok := item.(string)
			if !ok {
				continue
			}

			if matchText(s, pattern) {
				return true
			}
		}

		return false

	default:
		return nil
	}
}

func matchText(text, pattern string) bool {
	words := splitWords(strings.ToLower(text), false)
	tokens := splitWords(strings.ToLower(pattern), true)

	if len(tokens) == 0 {
		return false
	}

	for _, token := range tokens {
		matched := false

		for _, word := range words {
			if wildcardMatch(word, token) {
				matched = true
				break
			}
		}

		if !matched {
			return false
		}
	}

	return true
}

func splitWords(s string, keepWildcard bool) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		if keepWildcard && r == '*' {
			return false
		}

		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// wildcardMatch is a rune-wise glob where * matches any run, with the
// usual single-star backtracking.
func wildcardMatch(s, pattern string) bool {
	text := []rune(s)
	glob := []rune(pattern)

	si, pi := 0, 0
	starP, starS := -1, 0

	for si < len(text) {
		switch {
		case pi < len(glob) && glob[pi] == text[si]:
			si++
			pi++
		case pi < len(glob) && glob[pi] == '*':
			starP = pi
			starS = si
			pi++
		case starP >= 0:
			starS++
			si = starS
			pi = starP + 1
		default:
			return false
		}
	}

	for pi < len(glob) && glob[pi] == '*' {
		pi++
	}

	return pi == len(glob)
}
