package parser

import (
	"fmt"

	"github.com/contentlake/lakeq"
)

// ComplexityError reports a query whose structure exceeds a limit
type ComplexityError struct {
	Limit  string
	Actual int
	Max    int
}

func (e *ComplexityError) Error() string {
	return fmt.Sprintf("query too complex: %s is %d, limit is %d", e.Limit, e.Actual, e.Max)
}

func (e *ComplexityError) Unwrap() error {
	return lakeq.ErrQueryTooComplex
}

// CheckComplexity walks the AST and rejects structures over the given
// limits: expression nesting depth, field count of a single projection
// or object literal, and statically known slice lengths. It runs after
// parsing and before any evaluation or store access.
func CheckComplexity(node AstNode, limits lakeq.Limits) error {
	return checkNode(node, 1, limits)
}

func checkNode(node AstNode, depth int, limits lakeq.Limits) error {
	if node == nil {
		return nil
	}

	if depth > limits.MaxDepth {
		return &ComplexityError{Limit: "nesting depth", Actual: depth, Max: limits.MaxDepth}
	}

	switch n := node.(type) {
	case *Everything, *CurrentRef, *ParentRef, *Literal, *ParameterRef:
		return nil

	case *Filter:
		if err := checkNode(n.Base, depth+1, limits); err != nil {
			return err
		}

		return checkNode(n.Condition, depth+1, limits)

	case *Slice:
		if length := staticSliceLength(n); length > limits.MaxSliceLength {
			return &ComplexityError{Limit: "slice length", Actual: length, Max: limits.MaxSliceLength}
		}

		return checkNode(n.Base, depth+1, limits)

	case *Element:
		return checkNode(n.Base, depth+1, limits)

	case *Attribute:
		return checkNode(n.Base, depth+1, limits)

	case *Dereference:
		return checkNode(n.Base, depth+1, limits)

	case *Projection:
		if err := checkNode(n.Base, depth+1, limits); err != nil {
			return err
		}

		return checkFields(n.Fields, depth, limits)

	case *ObjectLiteral:
		return checkFields(n.Fields, depth, limits)

	case *Pipe:
		if err := checkNode(n.Base, depth+1, limits); err != nil {
			return err
		}

		for _, key := range n.Keys {
			if err := checkNode(key.Expr, depth+1, limits); err != nil {
				return err
			}
		}

		for _, arg := range n.Args {
			if err := checkNode(arg, depth+1, limits); err != nil {
				return err
			}
		}

		return nil

	case *FunctionCall:
		for _, arg := range n.Args {
			if err := checkNode(arg, depth+1, limits); err != nil {
				return err
			}
		}

		return nil

	case *BinaryOp:
		if err := checkNode(n.Left, depth+1, limits); err != nil {
			return err
		}

		return checkNode(n.Right, depth+1, limits)

	case *UnaryOp:
		return checkNode(n.Operand, depth+1, limits)

	case *ArrayLiteral:
		for _, element := range n.Elements {
			if err := checkNode(element, depth+1, limits); err != nil {
				return err
			}
		}

		return nil

	default:
		return nil
	}
}

func checkFields(fields []ObjectField, depth int, limits lakeq.Limits) error {
	if len(fields) > limits.MaxProjectionFields {
		return &ComplexityError{Limit: "projection fields", Actual: len(fields), Max: limits.MaxProjectionFields}
	}

	for _, field := range fields {
		if err := checkNode(field.Value, depth+1, limits); err != nil {
			return err
		}
	}

	return nil
}

// staticSliceLength returns the number of elements a slice selects when
// both bounds are non-negative, or 0 when the length depends on the
// result size at runtime.
func staticSliceLength(s *Slice) int {
	if s.Start < 0 || s.End < s.Start {
		return 0
	}

	length := s.End - s.Start
	if s.EndInclusive {
		length++
	}

	return length
}
