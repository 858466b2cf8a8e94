package parser

import (
	"github.com/contentlake/lakeq/tokenizer"
)

// Constructors for rebuilding pipelines outside this package. The
// planner splits a parsed query into a pushed prefix and a residual
// suffix, and the residual needs a fresh dataset source where the
// pushed stages used to be. Positions carry over from the nodes the
// rebuilt tree replaces so error messages still point at query text.

// NewEverything returns a dataset source node at the given position.
func NewEverything(pos tokenizer.Position) AstNode {
	return &Everything{BaseAstNode{nodeType: EVERYTHING, position: pos}}
}

// NewFilter applies condition to base.
func NewFilter(base, condition AstNode) AstNode {
	return &Filter{
		BaseAstNode: BaseAstNode{nodeType: FILTER, position: condition.Position()},
		Base:        base,
		Condition:   condition,
	}
}

// NewSlice applies a range subscript to base.
func NewSlice(base AstNode, start, end int, endInclusive bool) AstNode {
	return &Slice{
		BaseAstNode:  BaseAstNode{nodeType: SLICE, position: base.Position()},
		Base:         base,
		Start:        start,
		End:          end,
		EndInclusive: endInclusive,
	}
}

// NewElement applies an index subscript to base.
func NewElement(base AstNode, index int) AstNode {
	return &Element{
		BaseAstNode: BaseAstNode{nodeType: ELEMENT, position: base.Position()},
		Base:        base,
		Index:       index,
	}
}

// NewAttribute reads a field from base.
func NewAttribute(base AstNode, name string) AstNode {
	pos := tokenizer.Position{Line: 1, Column: 1}
	if base != nil {
		pos = base.Position()
	}

	return &Attribute{
		BaseAstNode: BaseAstNode{nodeType: ATTRIBUTE, position: pos},
		Base:        base,
		Name:        name,
	}
}

// NewDereference follows the reference held by base.
func NewDereference(base AstNode) AstNode {
	return &Dereference{
		BaseAstNode: BaseAstNode{nodeType: DEREFERENCE, position: base.Position()},
		Base:        base,
	}
}

// NewProjection reshapes base with the given fields.
func NewProjection(base AstNode, fields []ObjectField) AstNode {
	return &Projection{
		BaseAstNode: BaseAstNode{nodeType: PROJECTION, position: base.Position()},
		Base:        base,
		Fields:      fields,
	}
}

// NewPipe applies a pipe function to base. order() takes keys,
// score() takes args.
func NewPipe(base AstNode, name string, keys []OrderKey, args []AstNode) AstNode {
	return &Pipe{
		BaseAstNode: BaseAstNode{nodeType: PIPE, position: base.Position()},
		Base:        base,
		Name:        name,
		Keys:        keys,
		Args:        args,
	}
}

// NewBinaryOp joins two expressions with an infix operator.
func NewBinaryOp(operator string, left, right AstNode) AstNode {
	return &BinaryOp{
		BaseAstNode: BaseAstNode{nodeType: BINARY_OP, position: left.Position()},
		Operator:    operator,
		Left:        left,
		Right:       right,
	}
}

// NewFunctionCall builds a call node. The name is not checked against
// the function table here; rebuilt calls reuse names that already
// passed parsing.
func NewFunctionCall(namespace, name string, args []AstNode) AstNode {
	pos := tokenizer.Position{Line: 1, Column: 1}
	if len(args) > 0 {
		pos = args[0].Position()
	}

	return &FunctionCall{
		BaseAstNode: BaseAstNode{nodeType: FUNCTION_CALL, position: pos},
		Namespace:   namespace,
		Name:        name,
		Args:        args,
	}
}
