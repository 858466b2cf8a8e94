package tokenizer

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenIterator uses Go 1.24 iterator pattern
type TokenIterator iter.Seq2[Token, error]

// QueryTokenizer turns query text into tokens. Whitespace and line
// comments are consumed silently; lexing stops at the first error.
type QueryTokenizer struct {
	input string
}

// NewQueryTokenizer creates a new QueryTokenizer
func NewQueryTokenizer(input string) *QueryTokenizer {
	return &QueryTokenizer{input: input}
}

// Tokens returns an iterator of tokens
func (t *QueryTokenizer) Tokens() TokenIterator {
	return func(yield func(Token, error) bool) {
		tokenizer := &tokenizer{
			input:    t.input,
			position: 0,
			line:     1,
			column:   1,
		}

		tokenizer.readChar()

		for {
			token, err := tokenizer.nextToken()
			if err != nil {
				yield(Token{}, err)
				return
			}

			if !yield(token, nil) {
				return
			}

			if token.Type == EOF {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice, including the trailing EOF.
func (t *QueryTokenizer) AllTokens() ([]Token, error) {
	tokens := make([]Token, 0, 32)

	for token, err := range t.Tokens() {
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, token)

		if token.Type == EOF {
			break
		}
	}

	return tokens, nil
}

// Tokenize is a convenience wrapper over NewQueryTokenizer().AllTokens().
func Tokenize(input string) ([]Token, error) {
	return NewQueryTokenizer(input).AllTokens()
}

// Internal tokenizer implementation
type tokenizer struct {
	input    string
	position int // byte offset just past the current rune
	line     int
	column   int
	current  rune
	width    int // byte width of the current rune
}

// nextToken gets the next token
func (t *tokenizer) nextToken() (Token, error) {
	for {
		// Skip whitespace and line comments
		for t.current == ' ' || t.current == '\t' || t.current == '\r' || t.current == '\n' {
			t.readChar()
		}

		if t.current == '/' && t.peekChar() == '/' {
			for t.current != 0 && t.current != '\n' {
				t.readChar()
			}

			continue
		}

		pos := t.pos()

		switch t.current {
		case 0:
			return t.newToken(EOF, "", pos), nil
		case '(':
			t.readChar()
			return t.newToken(OPENED_PARENS, "(", pos), nil
		case ')':
			t.readChar()
			return t.newToken(CLOSED_PARENS, ")", pos), nil
		case '[':
			t.readChar()
			return t.newToken(OPENED_BRACKET, "[", pos), nil
		case ']':
			t.readChar()
			return t.newToken(CLOSED_BRACKET, "]", pos), nil
		case '{':
			t.readChar()
			return t.newToken(OPENED_BRACE, "{", pos), nil
		case '}':
			t.readChar()
			return t.newToken(CLOSED_BRACE, "}", pos), nil
		case ',':
			t.readChar()
			return t.newToken(COMMA, ",", pos), nil
		case '@':
			t.readChar()
			return t.newToken(AT, "@", pos), nil
		case '^':
			t.readChar()
			return t.newToken(CARET, "^", pos), nil
		case '*':
			t.readChar()
			return t.newToken(MULTIPLY, "*", pos), nil
		case '+':
			t.readChar()
			return t.newToken(PLUS, "+", pos), nil
		case '%':
			t.readChar()
			return t.newToken(MODULO, "%", pos), nil
		case '/':
			// '//' was consumed as a comment above
			t.readChar()
			return t.newToken(DIVIDE, "/", pos), nil
		case '\'', '"':
			return t.readString(t.current)
		case '.':
			return t.readDots(pos), nil
		case '-':
			if t.peekChar() == '>' {
				t.readChar()
				t.readChar()

				return t.newToken(ARROW, "->", pos), nil
			}

			t.readChar()

			return t.newToken(MINUS, "-", pos), nil
		case '=':
			if t.peekChar() == '=' {
				t.readChar()
				t.readChar()

				return t.newToken(EQUAL, "==", pos), nil
			}

			if t.peekChar() == '>' {
				t.readChar()
				t.readChar()

				return t.newToken(FAT_ARROW, "=>", pos), nil
			}

			return Token{}, fmt.Errorf("%w: '=' at line %d, column %d (did you mean '=='?)", ErrUnexpectedCharacter, pos.Line, pos.Column)
		case '!':
			if t.peekChar() == '=' {
				t.readChar()
				t.readChar()

				return t.newToken(NOT_EQUAL, "!=", pos), nil
			}

			t.readChar()

			return t.newToken(NOT, "!", pos), nil
		case '<':
			if t.peekChar() == '=' {
				t.readChar()
				t.readChar()

				return t.newToken(LESS_EQUAL, "<=", pos), nil
			}

			t.readChar()

			return t.newToken(LESS_THAN, "<", pos), nil
		case '>':
			if t.peekChar() == '=' {
				t.readChar()
				t.readChar()

				return t.newToken(GREATER_EQUAL, ">=", pos), nil
			}

			t.readChar()

			return t.newToken(GREATER_THAN, ">", pos), nil
		case '&':
			if t.peekChar() == '&' {
				t.readChar()
				t.readChar()

				return t.newToken(AND, "&&", pos), nil
			}

			return Token{}, fmt.Errorf("%w: '&' at line %d, column %d (did you mean '&&'?)", ErrUnexpectedCharacter, pos.Line, pos.Column)
		case '|':
			if t.peekChar() == '|' {
				t.readChar()
				t.readChar()

				return t.newToken(OR, "||", pos), nil
			}

			t.readChar()

			return t.newToken(PIPE, "|", pos), nil
		case ':':
			if t.peekChar() == ':' {
				t.readChar()
				t.readChar()

				return t.newToken(DOUBLE_COLON, "::", pos), nil
			}

			t.readChar()

			return t.newToken(COLON, ":", pos), nil
		case '$':
			return t.readParameter(pos)
		default:
			if unicode.IsLetter(t.current) || t.current == '_' {
				return t.readWord(pos), nil
			}

			if unicode.IsDigit(t.current) {
				return t.readNumber(pos)
			}

			return Token{}, fmt.Errorf("%w: %q at line %d, column %d", ErrUnexpectedCharacter, string(t.current), pos.Line, pos.Column)
		}
	}
}

// readChar reads the next character
func (t *tokenizer) readChar() {
	if t.position >= len(t.input) {
		t.current = 0
		t.width = 0
		t.position = len(t.input) + 1

		return
	}

	r, w := utf8.DecodeRuneInString(t.input[t.position:])
	t.current = r
	t.width = w
	t.position += w

	if r == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}
}

// peekChar looks ahead at the next character
func (t *tokenizer) peekChar() rune {
	if t.position >= len(t.input) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(t.input[t.position:])

	return r
}

// pos captures the source position of the current character.
func (t *tokenizer) pos() Position {
	return Position{
		Line:   t.line,
		Column: t.column - 1,
		Offset: t.position - t.width,
	}
}

// newToken creates a new token
func (t *tokenizer) newToken(tokenType TokenType, value string, pos Position) Token {
	return Token{
		Type:     tokenType,
		Value:    value,
		Position: pos,
	}
}

// readDots distinguishes '.', '..' and '...'.
func (t *tokenizer) readDots(pos Position) Token {
	t.readChar()

	if t.current != '.' {
		return t.newToken(DOT, ".", pos)
	}

	t.readChar()

	if t.current != '.' {
		return t.newToken(DOTDOT, "..", pos)
	}

	t.readChar()

	return t.newToken(ELLIPSIS, "...", pos)
}

// readWord reads words (identifiers and keywords)
func (t *tokenizer) readWord(pos Position) Token {
	var builder strings.Builder

	for unicode.IsLetter(t.current) || unicode.IsDigit(t.current) || t.current == '_' {
		builder.WriteRune(t.current)
		t.readChar()
	}

	word := builder.String()

	// Keywords are case sensitive; True is a plain identifier
	if tokenType, ok := keywords[word]; ok {
		return t.newToken(tokenType, word, pos)
	}

	token := t.newToken(IDENT, word, pos)
	token.Str = word

	return token
}

// readParameter reads a $name parameter reference
func (t *tokenizer) readParameter(pos Position) (Token, error) {
	t.readChar() // consume '$'

	var builder strings.Builder

	for unicode.IsLetter(t.current) || unicode.IsDigit(t.current) || t.current == '_' {
		builder.WriteRune(t.current)
		t.readChar()
	}

	name := builder.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return Token{}, fmt.Errorf("%w at line %d, column %d", ErrInvalidParameter, pos.Line, pos.Column)
	}

	token := t.newToken(PARAM, "$"+name, pos)
	token.Str = name

	return token, nil
}

// readString reads string literals with escape decoding
func (t *tokenizer) readString(delimiter rune) (Token, error) {
	pos := t.pos()

	var (
		raw     strings.Builder
		decoded strings.Builder
	)

	raw.WriteRune(delimiter)
	t.readChar()

	for t.current != 0 && t.current != delimiter {
		if t.current != '\\' {
			raw.WriteRune(t.current)
			decoded.WriteRune(t.current)
			t.readChar()

			continue
		}

		raw.WriteRune(t.current)
		t.readChar()

		if t.current == 0 {
			break
		}

		raw.WriteRune(t.current)

		switch t.current {
		case 'n':
			decoded.WriteRune('\n')
			t.readChar()
		case 't':
			decoded.WriteRune('\t')
			t.readChar()
		case 'r':
			decoded.WriteRune('\r')
			t.readChar()
		case 'b':
			decoded.WriteRune('\b')
			t.readChar()
		case 'f':
			decoded.WriteRune('\f')
			t.readChar()
		case '\\', '/', '\'', '"':
			decoded.WriteRune(t.current)
			t.readChar()
		case 'u':
			t.readChar()

			r, err := t.readUnicodeEscape(&raw, pos)
			if err != nil {
				return Token{}, err
			}

			decoded.WriteRune(r)
		default:
			return Token{}, fmt.Errorf("%w: \\%c at line %d, column %d", ErrInvalidEscape, t.current, t.line, t.column-1)
		}
	}

	if t.current == 0 {
		return Token{}, fmt.Errorf("%w: %c at line %d, column %d", ErrUnterminatedString, delimiter, pos.Line, pos.Column)
	}

	raw.WriteRune(delimiter)
	t.readChar()

	token := t.newToken(STRING, raw.String(), pos)
	token.Str = decoded.String()

	return token, nil
}

// readUnicodeEscape reads the four hex digits after \u, combining
// UTF-16 surrogate pairs into one rune.
func (t *tokenizer) readUnicodeEscape(raw *strings.Builder, pos Position) (rune, error) {
	first, err := t.readHex4(raw, pos)
	if err != nil {
		return 0, err
	}

	// High surrogate must be followed by \uXXXX low surrogate
	if first >= 0xD800 && first <= 0xDBFF {
		if t.current == '\\' && t.peekChar() == 'u' {
			raw.WriteRune(t.current)
			t.readChar()
			raw.WriteRune(t.current)
			t.readChar()

			second, err := t.readHex4(raw, pos)
			if err != nil {
				return 0, err
			}

			if second >= 0xDC00 && second <= 0xDFFF {
				return rune(0x10000 + (first-0xD800)<<10 + (second - 0xDC00)), nil
			}
		}

		return utf8.RuneError, nil
	}

	return rune(first), nil
}

func (t *tokenizer) readHex4(raw *strings.Builder, pos Position) (int, error) {
	value := 0

	for range 4 {
		digit, ok := hexDigit(t.current)
		if !ok {
			return 0, fmt.Errorf("%w: \\u needs four hex digits at line %d, column %d", ErrInvalidEscape, pos.Line, pos.Column)
		}

		raw.WriteRune(t.current)
		value = value*16 + digit
		t.readChar()
	}

	return value, nil
}

func hexDigit(r rune) (int, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10, true
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10, true
	default:
		return 0, false
	}
}

// readNumber reads numeric literals
func (t *tokenizer) readNumber(pos Position) (Token, error) {
	var builder strings.Builder

	// Integer part
	for unicode.IsDigit(t.current) {
		builder.WriteRune(t.current)
		t.readChar()
	}

	// Decimal point; '0..2' is a number followed by a range operator
	if t.current == '.' && unicode.IsDigit(t.peekChar()) {
		builder.WriteRune(t.current)
		t.readChar()

		// Decimal part
		for unicode.IsDigit(t.current) {
			builder.WriteRune(t.current)
			t.readChar()
		}
	}

	// Exponential part
	if t.current == 'e' || t.current == 'E' {
		builder.WriteRune(t.current)
		t.readChar()

		if t.current == '+' || t.current == '-' {
			builder.WriteRune(t.current)
			t.readChar()
		}

		if !unicode.IsDigit(t.current) {
			return Token{}, fmt.Errorf("%w: invalid exponent at line %d, column %d", ErrInvalidNumber, pos.Line, pos.Column)
		}

		for unicode.IsDigit(t.current) {
			builder.WriteRune(t.current)
			t.readChar()
		}
	}

	value := builder.String()

	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %q at line %d, column %d", ErrInvalidNumber, value, pos.Line, pos.Column)
	}

	token := t.newToken(NUMBER, value, pos)
	token.Num = num

	return token, nil
}
