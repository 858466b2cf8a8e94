package tokenizer

import "errors"

// Sentinel errors
var (
	ErrUnexpectedCharacter = errors.New("unexpected character")
	ErrUnterminatedString  = errors.New("unterminated string literal")
	ErrInvalidNumber       = errors.New("invalid number format")
	ErrInvalidEscape       = errors.New("invalid escape sequence")
	ErrInvalidParameter    = errors.New("invalid parameter name")
)

// TokenType represents the type of a token
type TokenType int

const (
	// Basic tokens
	EOF TokenType = iota
	IDENT  // field names, function names
	STRING // string literals ('text', "text")
	NUMBER // numeric literals, stored as doubles
	PARAM  // $name

	// Keywords
	TRUE  // true
	FALSE // false
	NULL  // null
	ASC   // asc
	DESC  // desc
	IN    // in
	MATCH // match

	// Comparison operators
	EQUAL         // ==
	NOT_EQUAL     // !=
	LESS_THAN     // <
	GREATER_THAN  // >
	LESS_EQUAL    // <=
	GREATER_EQUAL // >=

	// Logical operators
	AND // &&
	OR  // ||
	NOT // !

	// Arithmetic operators
	PLUS     // +
	MINUS    // -
	MULTIPLY // * (also the everything primary)
	DIVIDE   // /
	MODULO   // %

	// Structure operators
	DOT          // .
	DOTDOT       // .. (exclusive range)
	ELLIPSIS     // ... (inclusive range, projection spread)
	ARROW        // -> (dereference)
	FAT_ARROW    // => (select condition pair)
	PIPE         // |
	AT           // @ (current document)
	CARET        // ^ (parent document)
	COLON        // :
	DOUBLE_COLON // :: (function namespace)
	COMMA        // ,

	// Grouping
	OPENED_PARENS  // (
	CLOSED_PARENS  // )
	OPENED_BRACKET // [
	CLOSED_BRACKET // ]
	OPENED_BRACE   // {
	CLOSED_BRACE   // }
)

// String returns the string representation of TokenType
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case IDENT:
		return "IDENT"
	case STRING:
		return "STRING"
	case NUMBER:
		return "NUMBER"
	case PARAM:
		return "PARAM"
	case TRUE:
		return "TRUE"
	case FALSE:
		return "FALSE"
	case NULL:
		return "NULL"
	case ASC:
		return "ASC"
	case DESC:
		return "DESC"
	case IN:
		return "IN"
	case MATCH:
		return "MATCH"
	case EQUAL:
		return "EQUAL"
	case NOT_EQUAL:
		return "NOT_EQUAL"
	case LESS_THAN:
		return "LESS_THAN"
	case GREATER_THAN:
		return "GREATER_THAN"
	case LESS_EQUAL:
		return "LESS_EQUAL"
	case GREATER_EQUAL:
		return "GREATER_EQUAL"
	case AND:
		return "AND"
	case OR:
		return "OR"
	case NOT:
		return "NOT"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	case MULTIPLY:
		return "MULTIPLY"
	case DIVIDE:
		return "DIVIDE"
	case MODULO:
		return "MODULO"
	case DOT:
		return "DOT"
	case DOTDOT:
		return "DOTDOT"
	case ELLIPSIS:
		return "ELLIPSIS"
	case ARROW:
		return "ARROW"
	case FAT_ARROW:
		return "FAT_ARROW"
	case PIPE:
		return "PIPE"
	case AT:
		return "AT"
	case CARET:
		return "CARET"
	case COLON:
		return "COLON"
	case DOUBLE_COLON:
		return "DOUBLE_COLON"
	case COMMA:
		return "COMMA"
	case OPENED_PARENS:
		return "OPENED_PARENS"
	case CLOSED_PARENS:
		return "CLOSED_PARENS"
	case OPENED_BRACKET:
		return "OPENED_BRACKET"
	case CLOSED_BRACKET:
		return "CLOSED_BRACKET"
	case OPENED_BRACE:
		return "OPENED_BRACE"
	case CLOSED_BRACE:
		return "CLOSED_BRACE"
	default:
		return "UNKNOWN"
	}
}

// keywords maps identifier spellings to their keyword token types.
var keywords = map[string]TokenType{
	"true":  TRUE,
	"false": FALSE,
	"null":  NULL,
	"asc":   ASC,
	"desc":  DESC,
	"in":    IN,
	"match": MATCH,
}

// Position represents a position in the source code
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token represents a token
type Token struct {
	Type     TokenType
	Value    string
	Position Position

	// Decoded payloads, valid for STRING and NUMBER tokens
	Str string
	Num float64
}

// String returns the string representation of Token
func (t Token) String() string {
	return t.Type.String() + ": " + t.Value
}

// IsKeyword reports whether the token is one of the reserved words.
func (t Token) IsKeyword() bool {
	switch t.Type {
	case TRUE, FALSE, NULL, ASC, DESC, IN, MATCH:
		return true
	}

	return false
}
