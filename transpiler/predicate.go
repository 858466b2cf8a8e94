package transpiler

import (
	"fmt"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/parser"
)

// pushClass grades one filter conjunct.
type pushClass int

const (
	// pushNo stays in the residual filter.
	pushNo pushClass = iota
	// pushExact keeps exactly the documents the evaluator would keep.
	pushExact
	// pushApprox may keep extra documents but never drops a match, so
	// the full filter re-runs over the candidates.
	pushApprox
)

// pathKind says where a field path resolves in the documents table.
type pathKind int

const (
	pathContent pathKind = iota
	pathIDColumn
	pathTypeColumn
	pathBlocked
)

// classifyPath maps a field path onto the storage schema. _id and
// _type live in dedicated columns; the remaining system fields are
// merged into the document at read time and have no stored
// representation the transpiler could compare against.
func classifyPath(path []string) pathKind {
	if len(path) == 1 {
		switch path[0] {
		case lakeq.FieldID:
			return pathIDColumn
		case lakeq.FieldType:
			return pathTypeColumn
		}
	}

	switch path[0] {
	case lakeq.FieldID, lakeq.FieldType, lakeq.FieldCreatedAt, lakeq.FieldUpdatedAt, lakeq.FieldRev:
		return pathBlocked
	}

	return pathContent
}

// attrPath flattens a chain of plain field accesses rooted at the
// current document. Dereferences or any other base break the chain.
func attrPath(node parser.AstNode) ([]string, bool) {
	var reversed []string

	current := node

	for {
		attr, ok := current.(*parser.Attribute)
		if !ok {
			return nil, false
		}

		reversed = append(reversed, attr.Name)

		if attr.Base == nil {
			break
		}

		current = attr.Base
	}

	path := make([]string, len(reversed))
	for i, name := range reversed {
		path[len(reversed)-1-i] = name
	}

	return path, true
}

// classifyPredicate grades one conjunct of a filter condition.
func classifyPredicate(node parser.AstNode) (pushClass, string) {
	switch n := node.(type) {
	case *parser.Literal:
		// Constant truthiness folds to TRUE or FALSE.
		return pushExact, ""
	case *parser.ParameterRef:
		// Truthiness is computed at bind time and pushed as a boolean
		// argument.
		return pushExact, ""
	case *parser.Attribute:
		return pushNo, "bare field tests check truthiness in memory"
	case *parser.UnaryOp:
		return classifyNegation(n)
	case *parser.BinaryOp:
		return classifyBinary(n)
	case *parser.FunctionCall:
		return classifyCall(n)
	default:
		return pushNo, "expression runs in memory"
	}
}

func classifyNegation(n *parser.UnaryOp) (pushClass, string) {
	if n.Operator != parser.OpNot {
		return pushNo, "numeric expressions run in memory"
	}

	class, reason := classifyPredicate(n.Operand)
	switch class {
	case pushExact:
		return pushExact, ""
	case pushApprox:
		// Negating an over-selecting condition would under-select.
		return pushNo, "negated parameter comparisons run in memory"
	default:
		return pushNo, reason
	}
}

func classifyBinary(b *parser.BinaryOp) (pushClass, string) {
	switch b.Operator {
	case parser.OpAnd, parser.OpOr:
		leftClass, leftReason := classifyPredicate(b.Left)
		if leftClass == pushNo {
			return pushNo, leftReason
		}

		rightClass, rightReason := classifyPredicate(b.Right)
		if rightClass == pushNo {
			return pushNo, rightReason
		}

		if leftClass == pushApprox || rightClass == pushApprox {
			return pushApprox, ""
		}

		return pushExact, ""
	case parser.OpEqual, parser.OpNotEqual, parser.OpLess, parser.OpLessEqual, parser.OpGreater, parser.OpGreaterEqual:
		return classifyComparison(b)
	case parser.OpIn:
		return classifyMembership(b)
	case parser.OpMatch:
		return pushNo, "match comparisons run in memory"
	default:
		return pushNo, "computed expressions run in memory"
	}
}

// fieldComparison normalizes a comparison so the field path sits on
// the left. Flipping sides mirrors the operator.
func fieldComparison(b *parser.BinaryOp) (path []string, value parser.AstNode, op string, ok bool) {
	if p, found := attrPath(b.Left); found {
		return p, b.Right, b.Operator, true
	}

	if p, found := attrPath(b.Right); found {
		return p, b.Left, flipOperator(b.Operator), true
	}

	return nil, nil, "", false
}

func flipOperator(op string) string {
	switch op {
	case parser.OpLess:
		return parser.OpGreater
	case parser.OpLessEqual:
		return parser.OpGreaterEqual
	case parser.OpGreater:
		return parser.OpLess
	case parser.OpGreaterEqual:
		return parser.OpLessEqual
	default:
		return op
	}
}

func classifyComparison(b *parser.BinaryOp) (pushClass, string) {
	path, value, op, ok := fieldComparison(b)
	if !ok {
		return pushNo, "comparison does not test a stored field against a constant"
	}

	if classifyPath(path) == pathBlocked {
		return pushNo, fmt.Sprintf("system field %s is resolved in memory", path[0])
	}

	switch value.(type) {
	case *parser.Literal:
		return pushExact, ""
	case *parser.ArrayLiteral, *parser.ObjectLiteral:
		return pushNo, "array and object comparisons run in memory"
	case *parser.ParameterRef:
		switch op {
		case parser.OpEqual:
			return pushApprox, ""
		case parser.OpNotEqual:
			return pushNo, "negated parameter comparisons run in memory"
		default:
			return pushNo, "range comparisons against parameters run in memory"
		}
	default:
		return pushNo, "computed comparison values run in memory"
	}
}

func classifyMembership(b *parser.BinaryOp) (pushClass, string) {
	// value in arrayField
	if path, ok := attrPath(b.Right); ok {
		if classifyPath(path) == pathBlocked {
			return pushNo, fmt.Sprintf("system field %s is resolved in memory", path[0])
		}

		switch b.Left.(type) {
		case *parser.Literal:
			return pushExact, ""
		case *parser.ParameterRef:
			return pushApprox, ""
		default:
			return pushNo, "computed membership values run in memory"
		}
	}

	// field in [list]
	path, ok := attrPath(b.Left)
	if !ok {
		return pushNo, "membership tests only push for stored fields"
	}

	if classifyPath(path) == pathBlocked {
		return pushNo, fmt.Sprintf("system field %s is resolved in memory", path[0])
	}

	list, isList := b.Right.(*parser.ArrayLiteral)
	if !isList {
		if _, isParam := b.Right.(*parser.ParameterRef); isParam {
			return pushNo, "parameter lists bind with unknown length"
		}

		return pushNo, "membership lists must be written in the query"
	}

	class := pushExact

	for _, element := range list.Elements {
		switch element.(type) {
		case *parser.Literal:
		case *parser.ParameterRef:
			class = pushApprox
		default:
			return pushNo, "computed list members run in memory"
		}
	}

	return class, ""
}

func classifyCall(call *parser.FunctionCall) (pushClass, string) {
	if call.Namespace != "" && call.Namespace != "global" {
		return pushNo, fmt.Sprintf("%s::%s() runs in memory", call.Namespace, call.Name)
	}

	switch call.Name {
	case "defined":
		path, ok := attrPath(call.Args[0])
		if !ok {
			return pushNo, "defined() pushes only for stored field paths"
		}

		if classifyPath(path) == pathBlocked {
			return pushNo, fmt.Sprintf("system field %s is resolved in memory", path[0])
		}

		return pushExact, ""
	case "references":
		switch arg := call.Args[0].(type) {
		case *parser.Literal:
			// Non-string ids never match and fold to FALSE.
			return pushExact, ""
		case *parser.ParameterRef:
			return pushApprox, ""
		case *parser.ArrayLiteral:
			class := pushExact

			for _, element := range arg.Elements {
				switch element.(type) {
				case *parser.Literal:
				case *parser.ParameterRef:
					class = pushApprox
				default:
					return pushNo, "computed reference ids run in memory"
				}
			}

			return class, ""
		default:
			return pushNo, "computed reference ids run in memory"
		}
	default:
		return pushNo, fmt.Sprintf("%s() runs in memory", call.Name)
	}
}

// orderKeysReason reports why an order() pipe cannot push, or "" when
// every key is a stored field path.
func orderKeysReason(keys []parser.OrderKey) string {
	for _, key := range keys {
		path, ok := attrPath(key.Expr)
		if !ok {
			return fmt.Sprintf("order key %s is not a stored field path", key.Expr)
		}

		if classifyPath(path) == pathBlocked {
			return fmt.Sprintf("order key %s is resolved in memory", key.Expr)
		}
	}

	return ""
}
