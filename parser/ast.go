package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/contentlake/lakeq/tokenizer"
)

// AstNode represents AST (Abstract Syntax Tree) node interface.
// Nodes are built once by Parse and never mutated afterwards, so a
// parsed query can be cached and shared between goroutines.
type AstNode interface {
	Type() NodeType
	Position() tokenizer.Position
	String() string
}

// NodeType represents the type of AST node
type NodeType int

const (
	// Dataset traversal
	EVERYTHING NodeType = iota
	FILTER
	SLICE
	ELEMENT

	// Shaping
	PROJECTION
	PIPE

	// Field access
	ATTRIBUTE
	DEREFERENCE
	CURRENT_REF
	PARENT_REF

	// Expressions and literals
	FUNCTION_CALL
	BINARY_OP
	UNARY_OP
	LITERAL
	PARAMETER_REF
	ARRAY_LITERAL
	OBJECT_LITERAL
)

// String returns string representation of NodeType
func (n NodeType) String() string {
	switch n {
	case EVERYTHING:
		return "EVERYTHING"
	case FILTER:
		return "FILTER"
	case SLICE:
		return "SLICE"
	case ELEMENT:
		return "ELEMENT"
	case PROJECTION:
		return "PROJECTION"
	case PIPE:
		return "PIPE"
	case ATTRIBUTE:
		return "ATTRIBUTE"
	case DEREFERENCE:
		return "DEREFERENCE"
	case CURRENT_REF:
		return "CURRENT_REF"
	case PARENT_REF:
		return "PARENT_REF"
	case FUNCTION_CALL:
		return "FUNCTION_CALL"
	case BINARY_OP:
		return "BINARY_OP"
	case UNARY_OP:
		return "UNARY_OP"
	case LITERAL:
		return "LITERAL"
	case PARAMETER_REF:
		return "PARAMETER_REF"
	case ARRAY_LITERAL:
		return "ARRAY_LITERAL"
	case OBJECT_LITERAL:
		return "OBJECT_LITERAL"
	default:
		return "UNKNOWN"
	}
}

// Binary and unary operator spellings as they appear in query text.
const (
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpAnd          = "&&"
	OpOr           = "||"
	OpIn           = "in"
	OpMatch        = "match"
	OpPlus         = "+"
	OpMinus        = "-"
	OpMultiply     = "*"
	OpDivide       = "/"
	OpModulo       = "%"
	OpNot          = "!"
	OpNegate       = "-"
	OpPair         = "=>"
)

// Pipe function names accepted on the right side of "|".
const (
	PipeOrder = "order"
	PipeScore = "score"
)

// BaseAstNode is the base implementation of AST nodes
type BaseAstNode struct {
	nodeType NodeType
	position tokenizer.Position
}

func (n *BaseAstNode) Type() NodeType {
	return n.nodeType
}

func (n *BaseAstNode) Position() tokenizer.Position {
	return n.position
}

func joinNodes(nodes []AstNode) string {
	parts := make([]string, len(nodes))
	for i, node := range nodes {
		parts[i] = node.String()
	}

	return strings.Join(parts, ", ")
}

// Everything represents the whole-dataset source "*"
type Everything struct {
	BaseAstNode
}

func (e *Everything) String() string {
	return "*"
}

// Filter represents a predicate applied to a base expression: base[condition]
type Filter struct {
	BaseAstNode
	Base      AstNode
	Condition AstNode
}

func (f *Filter) String() string {
	return f.Base.String() + "[" + f.Condition.String() + "]"
}

// Slice represents a range subscript: base[start..end] or base[start...end].
// EndInclusive distinguishes the two-dot form (end excluded) from the
// three-dot form (end included). Bounds are integer literals resolved at
// parse time; negative values count from the end of the result.
type Slice struct {
	BaseAstNode
	Base         AstNode
	Start        int
	End          int
	EndInclusive bool
}

func (s *Slice) String() string {
	dots := ".."
	if s.EndInclusive {
		dots = "..."
	}

	return fmt.Sprintf("%s[%d%s%d]", s.Base.String(), s.Start, dots, s.End)
}

// Element represents a single index subscript: base[index]
type Element struct {
	BaseAstNode
	Base  AstNode
	Index int
}

func (e *Element) String() string {
	return fmt.Sprintf("%s[%d]", e.Base.String(), e.Index)
}

// Attribute represents field access. A nil Base means the field is read
// from the current document, as in a bare identifier inside a filter.
type Attribute struct {
	BaseAstNode
	Base AstNode
	Name string
}

func (a *Attribute) String() string {
	if a.Base == nil {
		return a.Name
	}

	if !identLike(a.Name) {
		return a.Base.String() + "[" + strconv.Quote(a.Name) + "]"
	}

	if d, ok := a.Base.(*Dereference); ok {
		return d.String() + a.Name
	}

	return a.Base.String() + "." + a.Name
}

// identLike reports whether a name can be written without quoting
func identLike(name string) bool {
	for i, r := range name {
		switch {
		case r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z'):
		case i > 0 && '0' <= r && r <= '9':
		default:
			return false
		}
	}

	return name != ""
}

// Dereference follows a reference value to the document it points at: base->
type Dereference struct {
	BaseAstNode
	Base AstNode
}

func (d *Dereference) String() string {
	return d.Base.String() + "->"
}

// CurrentRef represents "@", the value currently in scope
type CurrentRef struct {
	BaseAstNode
}

func (c *CurrentRef) String() string {
	return "@"
}

// ParentRef represents "^", the enclosing scope's value
type ParentRef struct {
	BaseAstNode
}

func (p *ParentRef) String() string {
	return "^"
}

// ObjectField is one entry of a projection or object literal body.
// Three shapes exist:
//   - spread:    Spread is true, Value holds the spread source (nil for a bare "...")
//   - shorthand: Name matches a field read from the current value
//   - explicit:  "alias": expression
type ObjectField struct {
	Name     string
	Value    AstNode
	Spread   bool
	Position tokenizer.Position
}

func (f ObjectField) String() string {
	if f.Spread {
		if f.Value == nil {
			return "..."
		}

		return "..." + f.Value.String()
	}

	if attr, ok := f.Value.(*Attribute); ok && attr.Base == nil && attr.Name == f.Name {
		return f.Name
	}

	return strconv.Quote(f.Name) + ": " + f.Value.String()
}

func joinFields(fields []ObjectField) string {
	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field.String()
	}

	return strings.Join(parts, ", ")
}

// Projection reshapes each element of the base into a new object: base {...}
type Projection struct {
	BaseAstNode
	Base   AstNode
	Fields []ObjectField
}

func (p *Projection) String() string {
	return p.Base.String() + " {" + joinFields(p.Fields) + "}"
}

// ObjectLiteral constructs an object from the current value: {...}
type ObjectLiteral struct {
	BaseAstNode
	Fields []ObjectField
}

func (o *ObjectLiteral) String() string {
	return "{" + joinFields(o.Fields) + "}"
}

// OrderKey is one sort key of an order() pipe
type OrderKey struct {
	Expr AstNode
	Desc bool
}

func (k OrderKey) String() string {
	if k.Desc {
		return k.Expr.String() + " desc"
	}

	return k.Expr.String() + " asc"
}

// Pipe applies a pipe function to the base result set: base | name(...).
// order() fills Keys, score() fills Args.
type Pipe struct {
	BaseAstNode
	Base AstNode
	Name string
	Keys []OrderKey
	Args []AstNode
}

func (p *Pipe) String() string {
	if p.Name == PipeOrder {
		parts := make([]string, len(p.Keys))
		for i, key := range p.Keys {
			parts[i] = key.String()
		}

		return p.Base.String() + " | order(" + strings.Join(parts, ", ") + ")"
	}

	return p.Base.String() + " | " + p.Name + "(" + joinNodes(p.Args) + ")"
}

// FunctionCall represents a call such as count(...) or string::upper(...).
// Namespace is empty for global functions.
type FunctionCall struct {
	BaseAstNode
	Namespace string
	Name      string
	Args      []AstNode
}

func (f *FunctionCall) String() string {
	name := f.Name
	if f.Namespace != "" {
		name = f.Namespace + "::" + f.Name
	}

	return name + "(" + joinNodes(f.Args) + ")"
}

// BinaryOp represents an infix operation, including "=>" pairs used by select()
type BinaryOp struct {
	BaseAstNode
	Operator string
	Left     AstNode
	Right    AstNode
}

func (b *BinaryOp) String() string {
	return "(" + b.Left.String() + " " + b.Operator + " " + b.Right.String() + ")"
}

// UnaryOp represents a prefix operation: !operand or -operand
type UnaryOp struct {
	BaseAstNode
	Operator string
	Operand  AstNode
}

func (u *UnaryOp) String() string {
	return u.Operator + u.Operand.String()
}

// Literal holds a constant value: nil, bool, float64 or string
type Literal struct {
	BaseAstNode
	Value any
}

func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParameterRef represents an external parameter: $name
type ParameterRef struct {
	BaseAstNode
	Name string
}

func (p *ParameterRef) String() string {
	return "$" + p.Name
}

// ArrayLiteral constructs an array value: [e1, e2, ...]
type ArrayLiteral struct {
	BaseAstNode
	Elements []AstNode
}

func (a *ArrayLiteral) String() string {
	return "[" + joinNodes(a.Elements) + "]"
}
