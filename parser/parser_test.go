package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/tokenizer"
)

func TestParseEverything(t *testing.T) {
	node, err := Parse("*")
	assert.NoError(t, err)
	assert.Equal(t, EVERYTHING, node.Type())
}

func TestParseFilterStructure(t *testing.T) {
	node, err := Parse(`*[_type == "post"]`)
	assert.NoError(t, err)

	filter, ok := node.(*Filter)
	assert.True(t, ok)
	assert.Equal(t, EVERYTHING, filter.Base.Type())

	condition, ok := filter.Condition.(*BinaryOp)
	assert.True(t, ok)
	assert.Equal(t, OpEqual, condition.Operator)

	attr, ok := condition.Left.(*Attribute)
	assert.True(t, ok)
	assert.True(t, attr.Base == nil)
	assert.Equal(t, "_type", attr.Name)

	literal, ok := condition.Right.(*Literal)
	assert.True(t, ok)
	assert.Equal(t, "post", literal.Value.(string))
}

func TestParseRendering(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"and binds tighter than or", `a || b && c`, `(a || (b && c))`},
		{"comparison binds tighter than and", `a == 1 && b == 2`, `((a == 1) && (b == 2))`},
		{"multiplication binds tighter than addition", `1 + 2 * 3`, `(1 + (2 * 3))`},
		{"unary not", `!done && ready`, `(!done && ready)`},
		{"unary minus", `-price + tax`, `(-price + tax)`},
		{"comparison against sum", `total == base + 1`, `(total == (base + 1))`},
		{"modulo", `n % 2 == 0`, `((n % 2) == 0)`},
		{"attribute chain", `a.b.c`, `a.b.c`},
		{"dereference attribute", `author->name`, `author->name`},
		{"bare dereference", `author->`, `author->`},
		{"parent and current", `^._id == @.ref`, `(^._id == @.ref)`},
		{"in array", `status in ["a", "b"]`, `(status in ["a", "b"])`},
		{"match", `title match "go*"`, `(title match "go*")`},
		{"parens keep grouping", `(a || b) && c`, `((a || b) && c)`},
		{"filter then slice", `*[published][0..9]`, `*[published][0..9]`},
		{"inclusive slice", `*[0...9]`, `*[0...9]`},
		{"element", `*[0]`, `*[0]`},
		{"negative element", `items[-1]`, `items[-1]`},
		{"quoted field access", `a["field name"]`, `a["field name"]`},
		{"quoted field collapses to dot", `a["title"]`, `a.title`},
		{"pipe order", `*[ready] | order(name asc, age desc)`, `*[ready] | order(name asc, age desc)`},
		{"order default direction", `* | order(name)`, `* | order(name asc)`},
		{"pipe score", `* | score(views > 100)`, `* | score((views > 100))`},
		{"projection shorthand", `*{title, body}`, `* {title, body}`},
		{"projection alias", `*{"t": title}`, `* {"t": title}`},
		{"projection spread", `*{..., "n": 1}`, `* {..., "n": 1}`},
		{"spread with source", `*{...meta}`, `* {...meta}`},
		{"empty projection", `*{}`, `* {}`},
		{"object literal", `{"a": 1, "b": b}`, `{"a": 1, b}`},
		{"function call", `count(*)`, `count(*)`},
		{"namespaced call", `string::upper(name)`, `string::upper(name)`},
		{"select pairs", `select(a => 1, b => 2, 3)`, `select((a => 1), (b => 2), 3)`},
		{"coalesce", `coalesce(nick, name, "anon")`, `coalesce(nick, name, "anon")`},
		{"null literal", `value == null`, `(value == null)`},
		{"booleans", `a == true && b == false`, `((a == true) && (b == false))`},
		{"parameter", `*[_type == $type]`, `*[(_type == $type)]`},
		{"comment skipped", "*[done] // trailing note", `*[done]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Parse(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, node.String())
		})
	}
}

// Rendering a parsed query and parsing the render again must reach a
// fixed point, so cached plans can be keyed by either form.
func TestParseRenderFixedPoint(t *testing.T) {
	queries := []string{
		`*[_type == "post" && !(hidden || draft)]{title, "who": author->name, ...} | order(_createdAt desc)[0...9]`,
		`*[references("person.tove")] | score(featured, views > 1000) | order(_score desc, _id asc)`,
		`{"total": count(*[_type == "post"]), "latest": *[defined(publishedAt)] | order(publishedAt desc)[0]}`,
		`*[status in ["active", "pending"] && ^.owner == @.ref]`,
		`coalesce(*[0].title, "untitled")`,
	}

	for _, query := range queries {
		first, err := Parse(query)
		assert.NoError(t, err)

		rendered := first.String()

		second, err := Parse(rendered)
		assert.NoError(t, err)
		assert.Equal(t, rendered, second.String())
	}
}

func TestParseSlices(t *testing.T) {
	node, err := Parse(`*[2..5]`)
	assert.NoError(t, err)

	slice, ok := node.(*Slice)
	assert.True(t, ok)
	assert.Equal(t, 2, slice.Start)
	assert.Equal(t, 5, slice.End)
	assert.False(t, slice.EndInclusive)

	node, err = Parse(`*[2...5]`)
	assert.NoError(t, err)

	slice, ok = node.(*Slice)
	assert.True(t, ok)
	assert.True(t, slice.EndInclusive)

	node, err = Parse(`*[-3..-1]`)
	assert.NoError(t, err)

	slice, ok = node.(*Slice)
	assert.True(t, ok)
	assert.Equal(t, -3, slice.Start)
	assert.Equal(t, -1, slice.End)
}

func TestParseSliceBoundsMustBeIntegers(t *testing.T) {
	_, err := Parse(`*[$from..$to]`)
	assert.IsError(t, err, lakeq.ErrInvalidSyntax)
	assert.Contains(t, err.Error(), "integer slice bound")

	_, err = Parse(`*[1.5..2]`)
	assert.IsError(t, err, lakeq.ErrInvalidSyntax)
	assert.Contains(t, err.Error(), "integer slice bound")
}

func TestParseSubscriptForms(t *testing.T) {
	node, err := Parse(`*[true]`)
	assert.NoError(t, err)
	assert.Equal(t, FILTER, node.Type())

	node, err = Parse(`*[3]`)
	assert.NoError(t, err)
	assert.Equal(t, ELEMENT, node.Type())

	node, err = Parse(`tags["featured"]`)
	assert.NoError(t, err)
	assert.Equal(t, ATTRIBUTE, node.Type())
}

func TestParseFunctionValidation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected error
	}{
		{"unknown function", `foo(1)`, lakeq.ErrUnknownFunction},
		{"wrong namespace", `string::count(x)`, lakeq.ErrUnknownFunction},
		{"count needs an argument", `count()`, lakeq.ErrWrongArgumentCount},
		{"count takes one argument", `count(*, 1)`, lakeq.ErrWrongArgumentCount},
		{"round takes at most two", `round(x, 1, 2)`, lakeq.ErrWrongArgumentCount},
		{"unknown pipe function", `* | limit(3)`, lakeq.ErrUnknownFunction},
		{"order without keys", `* | order()`, lakeq.ErrInvalidOrderKey},
		{"score without arguments", `* | score()`, lakeq.ErrWrongArgumentCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.IsError(t, err, tt.expected)
		})
	}
}

func TestParseFunctionAccepted(t *testing.T) {
	queries := []string{
		`count(*)`,
		`defined(author)`,
		`global::defined(author)`,
		`round(price, 2)`,
		`now()`,
		`upper(name)`,
		`length(tags)`,
		`select(a => 1, "fallback")`,
	}

	for _, query := range queries {
		_, err := Parse(query)
		assert.NoError(t, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"missing comparison operand", `*[_type ==]`, "expected expression"},
		{"unterminated filter", `*[done`, "expected ']'"},
		{"trailing input", `* 1`, "expected end of query"},
		{"chained comparison", `a < b < c`, "expected '&&'"},
		{"unclosed paren", `(a || b`, "expected ')'"},
		{"caret is not a field", `^.^`, "field name"},
		{"unquoted alias", `*{title: 1}`, "quoted field alias"},
		{"entry without a name", `*{a + 1}`, "field name, quoted alias or '...'"},
		{"empty input", ``, "expected expression"},
		{"operator without operand", `&& a`, "expected expression"},
		{"namespace without call", `string::upper`, "'(' after function name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.IsError(t, err, lakeq.ErrInvalidSyntax)
			assert.Contains(t, err.Error(), tt.expected)
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse(`*[_type ==]`)
	assert.Error(t, err)

	var parseErr *ParseError

	assert.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 1, parseErr.Position.Line)
	assert.Equal(t, 11, parseErr.Position.Column)
}

func TestParsePassesThroughLexErrors(t *testing.T) {
	_, err := Parse(`a = b`)
	assert.IsError(t, err, tokenizer.ErrUnexpectedCharacter)
	assert.Contains(t, err.Error(), "did you mean '=='?")
}

func TestParseNestingGuard(t *testing.T) {
	query := strings.Repeat("(", 1200) + "1" + strings.Repeat(")", 1200)

	_, err := Parse(query)
	assert.IsError(t, err, lakeq.ErrQueryTooComplex)
}
