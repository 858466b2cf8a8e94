package parser

import (
	"fmt"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/tokenizer"
)

// ParseError represents a syntax error with source position context
type ParseError struct {
	Position tokenizer.Position
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid syntax at line %d, column %d: expected %s, found %s",
		e.Position.Line, e.Position.Column, e.Expected, e.Found)
}

func (e *ParseError) Unwrap() error {
	return lakeq.ErrInvalidSyntax
}

// Hard cap on expression nesting during parsing. The configurable depth
// limit is enforced after parsing; this one only protects the parser's
// own recursion from pathological inputs like a run of open parens.
const maxNesting = 1000

// Operator precedence levels, loosest first. Postfix subscripts and
// pipes bind tighter than any operator, so *[x] | order(y) pipes the
// filtered set and a == b + 1 compares against the sum.
const (
	precPair           = 5
	precOr             = 10
	precAnd            = 20
	precComparison     = 30
	precAdditive       = 40
	precMultiplicative = 50
	precUnary          = 60
	precPipe           = 70
	precPostfix        = 80
)

type binaryOp struct {
	operator   string
	precedence int
}

var binaryOps = map[tokenizer.TokenType]binaryOp{
	tokenizer.FAT_ARROW:     {OpPair, precPair},
	tokenizer.OR:            {OpOr, precOr},
	tokenizer.AND:           {OpAnd, precAnd},
	tokenizer.EQUAL:         {OpEqual, precComparison},
	tokenizer.NOT_EQUAL:     {OpNotEqual, precComparison},
	tokenizer.LESS_THAN:     {OpLess, precComparison},
	tokenizer.LESS_EQUAL:    {OpLessEqual, precComparison},
	tokenizer.GREATER_THAN:  {OpGreater, precComparison},
	tokenizer.GREATER_EQUAL: {OpGreaterEqual, precComparison},
	tokenizer.IN:            {OpIn, precComparison},
	tokenizer.MATCH:         {OpMatch, precComparison},
	tokenizer.PLUS:          {OpPlus, precAdditive},
	tokenizer.MINUS:         {OpMinus, precAdditive},
	tokenizer.MULTIPLY:      {OpMultiply, precMultiplicative},
	tokenizer.DIVIDE:        {OpDivide, precMultiplicative},
	tokenizer.MODULO:        {OpModulo, precMultiplicative},
}

// QueryParser turns a token stream into an AST
type QueryParser struct {
	tokens  []tokenizer.Token
	current int
	nesting int
}

// NewQueryParser creates a parser over an EOF-terminated token slice
func NewQueryParser(tokens []tokenizer.Token) *QueryParser {
	return &QueryParser{tokens: tokens}
}

// Parse tokenizes and parses a complete query expression. Trailing
// input after the expression is a syntax error.
func Parse(input string) (AstNode, error) {
	tokens, err := tokenizer.Tokenize(input)
	if err != nil {
		return nil, err
	}

	parser := NewQueryParser(tokens)

	node, err := parser.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if token := parser.peek(); token.Type != tokenizer.EOF {
		return nil, &ParseError{Position: token.Position, Expected: "end of query", Found: describeToken(token)}
	}

	return node, nil
}

// ParseWithLimits parses and then rejects queries whose structure
// exceeds the given limits.
func ParseWithLimits(input string, limits lakeq.Limits) (AstNode, error) {
	node, err := Parse(input)
	if err != nil {
		return nil, err
	}

	if err := CheckComplexity(node, limits); err != nil {
		return nil, err
	}

	return node, nil
}

func (p *QueryParser) peek() tokenizer.Token {
	if p.current >= len(p.tokens) {
		return tokenizer.Token{Type: tokenizer.EOF}
	}

	return p.tokens[p.current]
}

func (p *QueryParser) advance() tokenizer.Token {
	token := p.peek()
	if p.current < len(p.tokens) {
		p.current++
	}

	return token
}

func (p *QueryParser) check(tokenType tokenizer.TokenType) bool {
	return p.peek().Type == tokenType
}

func (p *QueryParser) expect(tokenType tokenizer.TokenType, expected string) (tokenizer.Token, error) {
	token := p.peek()
	if token.Type != tokenType {
		return tokenizer.Token{}, &ParseError{Position: token.Position, Expected: expected, Found: describeToken(token)}
	}

	return p.advance(), nil
}

func describeToken(token tokenizer.Token) string {
	if token.Type == tokenizer.EOF {
		return "end of query"
	}

	return "'" + token.Value + "'"
}

func (p *QueryParser) parseExpression(minPrecedence int) (AstNode, error) {
	p.nesting++
	defer func() { p.nesting-- }()

	if p.nesting > maxNesting {
		return nil, fmt.Errorf("%w: expression nesting exceeds %d levels", lakeq.ErrQueryTooComplex, maxNesting)
	}

	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for {
		token := p.peek()

		switch token.Type {
		case tokenizer.DOT, tokenizer.ARROW, tokenizer.OPENED_BRACKET, tokenizer.OPENED_BRACE:
			if precPostfix <= minPrecedence {
				return left, nil
			}

			left, err = p.parsePostfix(left)
			if err != nil {
				return nil, err
			}

		case tokenizer.PIPE:
			if precPipe <= minPrecedence {
				return left, nil
			}

			left, err = p.parsePipe(left)
			if err != nil {
				return nil, err
			}

		default:
			op, ok := binaryOps[token.Type]
			if !ok || op.precedence <= minPrecedence {
				return left, nil
			}

			p.advance()

			right, err := p.parseExpression(op.precedence)
			if err != nil {
				return nil, err
			}

			left = &BinaryOp{
				BaseAstNode: BaseAstNode{nodeType: BINARY_OP, position: left.Position()},
				Operator:    op.operator,
				Left:        left,
				Right:       right,
			}

			// Comparisons do not chain: a < b < c has no meaning
			if op.precedence == precComparison {
				if next, ok := binaryOps[p.peek().Type]; ok && next.precedence == precComparison {
					return nil, &ParseError{
						Position: p.peek().Position,
						Expected: "'&&', '||' or end of expression",
						Found:    describeToken(p.peek()),
					}
				}
			}
		}
	}
}

func (p *QueryParser) parsePrefix() (AstNode, error) {
	token := p.peek()

	switch token.Type {
	case tokenizer.MULTIPLY:
		p.advance()
		return &Everything{BaseAstNode{nodeType: EVERYTHING, position: token.Position}}, nil

	case tokenizer.AT:
		p.advance()
		return &CurrentRef{BaseAstNode{nodeType: CURRENT_REF, position: token.Position}}, nil

	case tokenizer.CARET:
		p.advance()
		return &ParentRef{BaseAstNode{nodeType: PARENT_REF, position: token.Position}}, nil

	case tokenizer.IDENT:
		return p.parseIdentifier()

	case tokenizer.STRING:
		p.advance()
		return &Literal{BaseAstNode{nodeType: LITERAL, position: token.Position}, token.Str}, nil

	case tokenizer.NUMBER:
		p.advance()
		return &Literal{BaseAstNode{nodeType: LITERAL, position: token.Position}, token.Num}, nil

	case tokenizer.TRUE:
		p.advance()
		return &Literal{BaseAstNode{nodeType: LITERAL, position: token.Position}, true}, nil

	case tokenizer.FALSE:
		p.advance()
		return &Literal{BaseAstNode{nodeType: LITERAL, position: token.Position}, false}, nil

	case tokenizer.NULL:
		p.advance()
		return &Literal{BaseAstNode{nodeType: LITERAL, position: token.Position}, nil}, nil

	case tokenizer.PARAM:
		p.advance()
		return &ParameterRef{BaseAstNode{nodeType: PARAMETER_REF, position: token.Position}, token.Str}, nil

	case tokenizer.NOT:
		p.advance()

		operand, err := p.parseExpression(precUnary)
		if err != nil {
			return nil, err
		}

		return &UnaryOp{BaseAstNode{nodeType: UNARY_OP, position: token.Position}, OpNot, operand}, nil

	case tokenizer.MINUS:
		p.advance()

		operand, err := p.parseExpression(precUnary)
		if err != nil {
			return nil, err
		}

		return &UnaryOp{BaseAstNode{nodeType: UNARY_OP, position: token.Position}, OpNegate, operand}, nil

	case tokenizer.OPENED_PARENS:
		p.advance()

		inner, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(tokenizer.CLOSED_PARENS, "')'"); err != nil {
			return nil, err
		}

		return inner, nil

	case tokenizer.OPENED_BRACKET:
		return p.parseArrayLiteral()

	case tokenizer.OPENED_BRACE:
		p.advance()

		fields, err := p.parseObjectBody()
		if err != nil {
			return nil, err
		}

		return &ObjectLiteral{BaseAstNode{nodeType: OBJECT_LITERAL, position: token.Position}, fields}, nil

	default:
		return nil, &ParseError{Position: token.Position, Expected: "expression", Found: describeToken(token)}
	}
}

// parseIdentifier handles bare field references, global function calls
// and namespaced function calls.
func (p *QueryParser) parseIdentifier() (AstNode, error) {
	token := p.advance()
	name := token.Value

	if p.check(tokenizer.DOUBLE_COLON) {
		p.advance()

		funcToken, err := p.expect(tokenizer.IDENT, "function name after '::'")
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(tokenizer.OPENED_PARENS, "'(' after function name"); err != nil {
			return nil, err
		}

		return p.parseFunctionCall(name, funcToken.Value, token.Position)
	}

	if p.check(tokenizer.OPENED_PARENS) {
		p.advance()
		return p.parseFunctionCall("", name, token.Position)
	}

	return &Attribute{BaseAstNode: BaseAstNode{nodeType: ATTRIBUTE, position: token.Position}, Name: name}, nil
}

// parseFunctionCall parses arguments after the opening paren has been
// consumed, then validates the name and arity against the function table.
func (p *QueryParser) parseFunctionCall(namespace, name string, pos tokenizer.Position) (AstNode, error) {
	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}

	sig, ok := lakeq.LookupFunction(namespace, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s (line %d, column %d)",
			lakeq.ErrUnknownFunction, qualifiedName(namespace, name), pos.Line, pos.Column)
	}

	if !sig.CheckArity(len(args)) {
		return nil, fmt.Errorf("%w: %s takes %s, got %d (line %d, column %d)",
			lakeq.ErrWrongArgumentCount, qualifiedName(namespace, name), describeArity(sig), len(args), pos.Line, pos.Column)
	}

	return &FunctionCall{
		BaseAstNode: BaseAstNode{nodeType: FUNCTION_CALL, position: pos},
		Namespace:   namespace,
		Name:        name,
		Args:        args,
	}, nil
}

func qualifiedName(namespace, name string) string {
	if namespace == "" {
		return name
	}

	return namespace + "::" + name
}

func describeArity(sig lakeq.FunctionSignature) string {
	switch {
	case sig.MinArgs == sig.MaxArgs && sig.MinArgs == 1:
		return "exactly 1 argument"
	case sig.MinArgs == sig.MaxArgs:
		return fmt.Sprintf("exactly %d arguments", sig.MinArgs)
	case sig.MaxArgs == lakeq.Variadic:
		return fmt.Sprintf("at least %d arguments", sig.MinArgs)
	default:
		return fmt.Sprintf("%d to %d arguments", sig.MinArgs, sig.MaxArgs)
	}
}

func (p *QueryParser) parseArguments() ([]AstNode, error) {
	args := []AstNode{}

	if p.check(tokenizer.CLOSED_PARENS) {
		p.advance()
		return args, nil
	}

	for {
		arg, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		if p.check(tokenizer.COMMA) {
			p.advance()

			if p.check(tokenizer.CLOSED_PARENS) {
				p.advance()
				return args, nil
			}

			continue
		}

		if _, err := p.expect(tokenizer.CLOSED_PARENS, "',' or ')'"); err != nil {
			return nil, err
		}

		return args, nil
	}
}

func (p *QueryParser) parsePostfix(left AstNode) (AstNode, error) {
	token := p.peek()

	switch token.Type {
	case tokenizer.DOT:
		p.advance()

		nameToken, err := p.expect(tokenizer.IDENT, "field name after '.'")
		if err != nil {
			return nil, err
		}

		return &Attribute{
			BaseAstNode: BaseAstNode{nodeType: ATTRIBUTE, position: token.Position},
			Base:        left,
			Name:        nameToken.Value,
		}, nil

	case tokenizer.ARROW:
		p.advance()

		deref := &Dereference{BaseAstNode{nodeType: DEREFERENCE, position: token.Position}, left}

		// author->name reads a field of the referenced document
		if p.check(tokenizer.IDENT) {
			nameToken := p.advance()

			return &Attribute{
				BaseAstNode: BaseAstNode{nodeType: ATTRIBUTE, position: nameToken.Position},
				Base:        deref,
				Name:        nameToken.Value,
			}, nil
		}

		return deref, nil

	case tokenizer.OPENED_BRACKET:
		return p.parseSubscript(left)

	case tokenizer.OPENED_BRACE:
		p.advance()

		fields, err := p.parseObjectBody()
		if err != nil {
			return nil, err
		}

		return &Projection{
			BaseAstNode: BaseAstNode{nodeType: PROJECTION, position: token.Position},
			Base:        left,
			Fields:      fields,
		}, nil

	default:
		return nil, &ParseError{Position: token.Position, Expected: "postfix operator", Found: describeToken(token)}
	}
}

// parseSubscript disambiguates the three bracket forms once the inner
// expression is known: a range makes a slice, an integer literal makes
// an element access, a string literal makes an attribute access, and
// anything else is a filter predicate.
func (p *QueryParser) parseSubscript(base AstNode) (AstNode, error) {
	open := p.advance()

	first, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.check(tokenizer.DOTDOT) || p.check(tokenizer.ELLIPSIS) {
		endInclusive := p.check(tokenizer.ELLIPSIS)
		rangeToken := p.advance()

		second, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(tokenizer.CLOSED_BRACKET, "']'"); err != nil {
			return nil, err
		}

		start, ok := intLiteral(first)
		if !ok {
			return nil, &ParseError{Position: first.Position(), Expected: "integer slice bound", Found: "'" + first.String() + "'"}
		}

		end, ok := intLiteral(second)
		if !ok {
			return nil, &ParseError{Position: rangeToken.Position, Expected: "integer slice bound", Found: "'" + second.String() + "'"}
		}

		return &Slice{
			BaseAstNode:  BaseAstNode{nodeType: SLICE, position: open.Position},
			Base:         base,
			Start:        start,
			End:          end,
			EndInclusive: endInclusive,
		}, nil
	}

	if _, err := p.expect(tokenizer.CLOSED_BRACKET, "']'"); err != nil {
		return nil, err
	}

	if index, ok := intLiteral(first); ok {
		return &Element{
			BaseAstNode: BaseAstNode{nodeType: ELEMENT, position: open.Position},
			Base:        base,
			Index:       index,
		}, nil
	}

	if literal, ok := first.(*Literal); ok {
		if name, ok := literal.Value.(string); ok {
			return &Attribute{
				BaseAstNode: BaseAstNode{nodeType: ATTRIBUTE, position: open.Position},
				Base:        base,
				Name:        name,
			}, nil
		}
	}

	return &Filter{
		BaseAstNode: BaseAstNode{nodeType: FILTER, position: open.Position},
		Base:        base,
		Condition:   first,
	}, nil
}

// intLiteral extracts an integral constant from a literal or a negated
// literal. Used for subscript indexes and slice bounds.
func intLiteral(node AstNode) (int, bool) {
	if unary, ok := node.(*UnaryOp); ok && unary.Operator == OpNegate {
		value, ok := intLiteral(unary.Operand)
		if !ok {
			return 0, false
		}

		return -value, true
	}

	literal, ok := node.(*Literal)
	if !ok {
		return 0, false
	}

	number, ok := literal.Value.(float64)
	if !ok {
		return 0, false
	}

	if number != float64(int(number)) {
		return 0, false
	}

	return int(number), true
}

func (p *QueryParser) parsePipe(left AstNode) (AstNode, error) {
	pipeToken := p.advance()

	nameToken, err := p.expect(tokenizer.IDENT, "pipe function name")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(tokenizer.OPENED_PARENS, "'('"); err != nil {
		return nil, err
	}

	switch nameToken.Value {
	case PipeOrder:
		keys, err := p.parseOrderKeys()
		if err != nil {
			return nil, err
		}

		return &Pipe{
			BaseAstNode: BaseAstNode{nodeType: PIPE, position: pipeToken.Position},
			Base:        left,
			Name:        PipeOrder,
			Keys:        keys,
		}, nil

	case PipeScore:
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}

		if len(args) == 0 {
			return nil, fmt.Errorf("%w: score() takes at least 1 argument, got 0 (line %d, column %d)",
				lakeq.ErrWrongArgumentCount, nameToken.Position.Line, nameToken.Position.Column)
		}

		return &Pipe{
			BaseAstNode: BaseAstNode{nodeType: PIPE, position: pipeToken.Position},
			Base:        left,
			Name:        PipeScore,
			Args:        args,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s is not a pipe function (line %d, column %d)",
			lakeq.ErrUnknownFunction, nameToken.Value, nameToken.Position.Line, nameToken.Position.Column)
	}
}

func (p *QueryParser) parseOrderKeys() ([]OrderKey, error) {
	if p.check(tokenizer.CLOSED_PARENS) {
		token := p.peek()
		return nil, fmt.Errorf("%w: order() requires at least one key (line %d, column %d)",
			lakeq.ErrInvalidOrderKey, token.Position.Line, token.Position.Column)
	}

	var keys []OrderKey

	for {
		expr, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		key := OrderKey{Expr: expr}

		if p.check(tokenizer.ASC) {
			p.advance()
		} else if p.check(tokenizer.DESC) {
			p.advance()
			key.Desc = true
		}

		keys = append(keys, key)

		if p.check(tokenizer.COMMA) {
			p.advance()

			if p.check(tokenizer.CLOSED_PARENS) {
				p.advance()
				return keys, nil
			}

			continue
		}

		if _, err := p.expect(tokenizer.CLOSED_PARENS, "',' or ')'"); err != nil {
			return nil, err
		}

		return keys, nil
	}
}

func (p *QueryParser) parseArrayLiteral() (AstNode, error) {
	open := p.advance()

	elements := []AstNode{}

	if p.check(tokenizer.CLOSED_BRACKET) {
		p.advance()
		return &ArrayLiteral{BaseAstNode{nodeType: ARRAY_LITERAL, position: open.Position}, elements}, nil
	}

	for {
		element, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		elements = append(elements, element)

		if p.check(tokenizer.COMMA) {
			p.advance()

			if p.check(tokenizer.CLOSED_BRACKET) {
				break
			}

			continue
		}

		if _, err := p.expect(tokenizer.CLOSED_BRACKET, "',' or ']'"); err != nil {
			return nil, err
		}

		return &ArrayLiteral{BaseAstNode{nodeType: ARRAY_LITERAL, position: open.Position}, elements}, nil
	}

	p.advance()

	return &ArrayLiteral{BaseAstNode{nodeType: ARRAY_LITERAL, position: open.Position}, elements}, nil
}

// parseObjectBody parses projection and object literal entries after
// the opening brace has been consumed. Entry order is preserved so that
// later entries can override earlier ones, including spread output.
func (p *QueryParser) parseObjectBody() ([]ObjectField, error) {
	var fields []ObjectField

	if p.check(tokenizer.CLOSED_BRACE) {
		p.advance()
		return fields, nil
	}

	for {
		field, err := p.parseObjectField()
		if err != nil {
			return nil, err
		}

		fields = append(fields, field)

		if p.check(tokenizer.COMMA) {
			p.advance()

			if p.check(tokenizer.CLOSED_BRACE) {
				p.advance()
				return fields, nil
			}

			continue
		}

		if _, err := p.expect(tokenizer.CLOSED_BRACE, "',' or '}'"); err != nil {
			return nil, err
		}

		return fields, nil
	}
}

func (p *QueryParser) parseObjectField() (ObjectField, error) {
	token := p.peek()

	if token.Type == tokenizer.ELLIPSIS {
		p.advance()

		if p.check(tokenizer.COMMA) || p.check(tokenizer.CLOSED_BRACE) {
			return ObjectField{Spread: true, Position: token.Position}, nil
		}

		source, err := p.parseExpression(0)
		if err != nil {
			return ObjectField{}, err
		}

		return ObjectField{Spread: true, Value: source, Position: token.Position}, nil
	}

	if token.Type == tokenizer.STRING {
		p.advance()

		if _, err := p.expect(tokenizer.COLON, "':' after field alias"); err != nil {
			return ObjectField{}, err
		}

		value, err := p.parseExpression(0)
		if err != nil {
			return ObjectField{}, err
		}

		return ObjectField{Name: token.Str, Value: value, Position: token.Position}, nil
	}

	value, err := p.parseExpression(0)
	if err != nil {
		return ObjectField{}, err
	}

	if p.check(tokenizer.COLON) {
		return ObjectField{}, &ParseError{Position: p.peek().Position, Expected: "quoted field alias", Found: "':'"}
	}

	name, ok := shorthandName(value)
	if !ok {
		return ObjectField{}, &ParseError{Position: token.Position, Expected: "field name, quoted alias or '...'", Found: "'" + value.String() + "'"}
	}

	return ObjectField{Name: name, Value: value, Position: token.Position}, nil
}

// shorthandName derives the output key for a projection entry written
// without an alias. Only expressions ending in a named field have one.
func shorthandName(node AstNode) (string, bool) {
	switch n := node.(type) {
	case *Attribute:
		return n.Name, true
	default:
		return "", false
	}
}
