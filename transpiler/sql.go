package transpiler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/parser"
)

// Statement is the SQL side of a plan, bound to one execution's
// parameters. The dataset value always binds as the first argument;
// Args holds the remaining bindings in placeholder order.
type Statement struct {
	SQL       string
	Args      []any
	CountOnly bool
}

const selectColumns = "doc_id, doc_type, revision, created_at, updated_at, content"

// Statement renders the pushed side of the plan for one dialect and
// one set of parameter bindings. Rows always come back in a
// deterministic order: the pushed sort keys when order() pushed down,
// document id otherwise.
func (p *Plan) Statement(dialect lakeq.Dialect, params map[string]any) (*Statement, error) {
	normalized := dialect.Normalize()
	switch normalized {
	case lakeq.DialectPostgres, lakeq.DialectMySQL, lakeq.DialectSQLite:
	default:
		return nil, fmt.Errorf("%w: %s", lakeq.ErrUnsupportedDialect, dialect)
	}

	b := &sqlBuilder{dialect: normalized, params: params, argIndex: 1}

	var sb strings.Builder

	if p.countOnly {
		sb.WriteString("SELECT COUNT(*) FROM " + lakeq.TableDocuments + " WHERE dataset = ")
	} else {
		sb.WriteString("SELECT " + selectColumns + " FROM " + lakeq.TableDocuments + " WHERE dataset = ")
	}

	sb.WriteString(b.datasetPlaceholder())
	sb.WriteString(" AND NOT deleted")

	if len(p.pushed) > 0 {
		sb.WriteString(" AND (")

		for i, conjunct := range p.pushed {
			if i > 0 {
				sb.WriteString(" AND ")
			}

			fragment, err := b.predicate(conjunct)
			if err != nil {
				return nil, err
			}

			sb.WriteString(fragment)
		}

		sb.WriteString(")")
	}

	if !p.countOnly {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.orderBy(p.orderKeys))

		if p.limit >= 0 {
			sb.WriteString(" LIMIT ")
			sb.WriteString(strconv.Itoa(p.limit))

			if p.offset > 0 {
				sb.WriteString(" OFFSET ")
				sb.WriteString(strconv.Itoa(p.offset))
			}
		}
	}

	return &Statement{SQL: sb.String(), Args: b.args, CountOnly: p.countOnly}, nil
}

type sqlBuilder struct {
	dialect  lakeq.Dialect
	params   map[string]any
	args     []any
	argIndex int
}

func (b *sqlBuilder) datasetPlaceholder() string {
	if b.dialect == lakeq.DialectPostgres {
		return "$1"
	}

	return "?"
}

// collate returns the clause forcing byte order on string keys, empty
// when the dialect already compares text bytewise by default.
func (b *sqlBuilder) collate() string {
	if !lakeq.HasFeature(b.dialect, lakeq.FeatureByteCollation) {
		return ""
	}

	if b.dialect == lakeq.DialectPostgres {
		return ` COLLATE "C"`
	}

	return " COLLATE utf8mb4_bin"
}

// bind appends one argument and returns its placeholder.
func (b *sqlBuilder) bind(v any) string {
	b.args = append(b.args, v)
	b.argIndex++

	if b.dialect == lakeq.DialectPostgres {
		return "$" + strconv.Itoa(b.argIndex)
	}

	return "?"
}

// value resolves a literal or parameter reference to its JSON value.
func (b *sqlBuilder) value(node parser.AstNode) (any, error) {
	switch n := node.(type) {
	case *parser.Literal:
		return n.Value, nil
	case *parser.ParameterRef:
		v, ok := b.params[n.Name]
		if !ok {
			return nil, fmt.Errorf("%w: $%s", lakeq.ErrUnknownParameter, n.Name)
		}

		return lakeq.NormalizeValue(v), nil
	default:
		return nil, fmt.Errorf("%w: %s", lakeq.ErrNotPushable, node)
	}
}

// predicate renders one pushed conjunct as a boolean SQL expression.
// The expression may evaluate to SQL NULL, which a WHERE clause drops
// like FALSE; negation coalesces first so the two stay equivalent.
func (b *sqlBuilder) predicate(node parser.AstNode) (string, error) {
	switch n := node.(type) {
	case *parser.Literal:
		return boolConst(lakeq.IsTruthy(n.Value)), nil
	case *parser.ParameterRef:
		v, err := b.value(n)
		if err != nil {
			return "", err
		}

		return b.boolBind(lakeq.IsTruthy(v)), nil
	case *parser.UnaryOp:
		inner, err := b.predicate(n.Operand)
		if err != nil {
			return "", err
		}

		return "NOT COALESCE(" + inner + ", FALSE)", nil
	case *parser.BinaryOp:
		return b.binaryPredicate(n)
	case *parser.FunctionCall:
		return b.callPredicate(n)
	default:
		return "", fmt.Errorf("%w: %s", lakeq.ErrNotPushable, node)
	}
}

func (b *sqlBuilder) binaryPredicate(n *parser.BinaryOp) (string, error) {
	switch n.Operator {
	case parser.OpAnd, parser.OpOr:
		left, err := b.predicate(n.Left)
		if err != nil {
			return "", err
		}

		right, err := b.predicate(n.Right)
		if err != nil {
			return "", err
		}

		word := " AND "
		if n.Operator == parser.OpOr {
			word = " OR "
		}

		return "(" + left + word + right + ")", nil
	case parser.OpEqual, parser.OpNotEqual, parser.OpLess, parser.OpLessEqual, parser.OpGreater, parser.OpGreaterEqual:
		return b.comparison(n)
	case parser.OpIn:
		return b.membership(n)
	default:
		return "", fmt.Errorf("%w: %s", lakeq.ErrNotPushable, n)
	}
}

func (b *sqlBuilder) comparison(n *parser.BinaryOp) (string, error) {
	path, valueNode, op, ok := fieldComparison(n)
	if !ok {
		return "", fmt.Errorf("%w: %s", lakeq.ErrNotPushable, n)
	}

	value, err := b.value(valueNode)
	if err != nil {
		return "", err
	}

	switch classifyPath(path) {
	case pathIDColumn:
		return b.columnComparison(lakeq.ColumnDocID, op, value, valueNode)
	case pathTypeColumn:
		return b.columnComparison(lakeq.ColumnDocType, op, value, valueNode)
	case pathContent:
	default:
		return "", fmt.Errorf("%w: %s", lakeq.ErrNotPushable, n)
	}

	switch op {
	case parser.OpEqual:
		return b.contentEquality(path, value), nil
	case parser.OpNotEqual:
		return "NOT (" + b.contentEquality(path, value) + ")", nil
	default:
		return b.contentRelational(path, op, value)
	}
}

// columnComparison compares a dedicated string column. Ids and types
// are strings, so comparisons against other kinds are decided without
// touching the row. A parameter binds its canonical text; a non-string
// binding can only over-select, which the hybrid re-check absorbs.
func (b *sqlBuilder) columnComparison(column, op string, value any, valueNode parser.AstNode) (string, error) {
	if _, isParam := valueNode.(*parser.ParameterRef); isParam {
		if op != parser.OpEqual {
			return "", fmt.Errorf("%w: %s", lakeq.ErrNotPushable, valueNode)
		}

		bound, isString := value.(string)
		if !isString {
			bound = jsonText(value)
		}

		return column + " = " + b.bind(bound), nil
	}

	s, isString := value.(string)
	if !isString {
		if op == parser.OpNotEqual {
			return "TRUE", nil
		}

		return "FALSE", nil
	}

	return column + " " + sqlOp(op) + " " + b.bind(s), nil
}

// contentEquality renders a null-safe, kind-exact equality test for a
// content path. Missing fields and explicit nulls compare equal to a
// null value and unequal to everything else, matching the evaluator.
func (b *sqlBuilder) contentEquality(path []string, value any) string {
	switch b.dialect {
	case lakeq.DialectPostgres:
		return "COALESCE(" + b.extract(path) + ", 'null'::jsonb) = " + b.bind(jsonText(value)) + "::jsonb"
	case lakeq.DialectMySQL:
		return "COALESCE(" + b.extract(path) + ", CAST('null' AS JSON)) = CAST(" + b.bind(jsonText(value)) + " AS JSON)"
	default:
		return b.sqliteEquality(b.normalizedType(path), b.extract(path), value)
	}
}

// sqliteEquality compares a kind tag and an unwrapped value. SQLite
// unwraps JSON scalars to plain column values, which erases the
// boolean/number distinction; the kind term restores it. Array and
// object bindings soften to a kind-only test, the plan is then
// approximate and re-checked in memory.
func (b *sqlBuilder) sqliteEquality(typeExpr, valueExpr string, value any) string {
	kind := b.bind(sqliteKindTag(value))
	scalar := b.bind(sqliteScalar(value))
	soften := b.bind(softenFlag(value))

	return "(COALESCE(" + typeExpr + ", 'null') IS " + kind + " AND (" + valueExpr + " IS " + scalar + " OR " + soften + "))"
}

// contentRelational renders an ordered comparison guarded by the kind
// of the stored value. Cross-kind comparisons are null in the
// evaluator, so the guard simply fails the row.
func (b *sqlBuilder) contentRelational(path []string, op string, value any) (string, error) {
	operator := sqlOp(op)

	switch v := value.(type) {
	case nil:
		return "FALSE", nil
	case bool:
		switch b.dialect {
		case lakeq.DialectPostgres:
			return "(" + b.typeOf(path) + " = 'boolean' AND (" + b.extract(path) + " = 'true'::jsonb) " + operator + " " + b.bind(v) + "::boolean)", nil
		case lakeq.DialectMySQL:
			return "(" + b.typeOf(path) + " = 'BOOLEAN' AND (" + b.extract(path) + " = CAST('true' AS JSON)) " + operator + " " + b.bind(v) + ")", nil
		default:
			return "(" + b.typeOf(path) + " IN ('true', 'false') AND (" + b.typeOf(path) + " = 'true') " + operator + " " + b.bind(v) + ")", nil
		}
	case float64:
		switch b.dialect {
		case lakeq.DialectPostgres:
			return "(" + b.typeOf(path) + " = 'number' AND (" + b.extractText(path) + ")::numeric " + operator + " " + b.bind(v) + ")", nil
		case lakeq.DialectMySQL:
			return "(" + b.typeOf(path) + " IN " + mysqlNumberTypes + " AND CAST(" + b.extract(path) + " AS DOUBLE) " + operator + " " + b.bind(v) + ")", nil
		default:
			return "(" + b.typeOf(path) + " IN ('integer', 'real') AND " + b.extract(path) + " " + operator + " " + b.bind(v) + ")", nil
		}
	case string:
		switch b.dialect {
		case lakeq.DialectPostgres:
			return "(" + b.typeOf(path) + " = 'string' AND (" + b.extractText(path) + ")" + b.collate() + " " + operator + " " + b.bind(v) + ")", nil
		case lakeq.DialectMySQL:
			return "(" + b.typeOf(path) + " = 'STRING' AND JSON_UNQUOTE(" + b.extract(path) + ")" + b.collate() + " " + operator + " " + b.bind(v) + ")", nil
		default:
			return "(" + b.typeOf(path) + " = 'text' AND " + b.extract(path) + b.collate() + " " + operator + " " + b.bind(v) + ")", nil
		}
	default:
		return "", fmt.Errorf("%w: ordered comparison against %s", lakeq.ErrNotPushable, lakeq.KindOf(value))
	}
}

func (b *sqlBuilder) membership(n *parser.BinaryOp) (string, error) {
	// value in arrayField
	if path, ok := attrPath(n.Right); ok {
		if classifyPath(path) != pathContent {
			// Column values are strings, never arrays.
			return "FALSE", nil
		}

		value, err := b.value(n.Left)
		if err != nil {
			return "", err
		}

		return b.arrayContains(path, value), nil
	}

	// field in [list]
	path, ok := attrPath(n.Left)
	if !ok {
		return "", fmt.Errorf("%w: %s", lakeq.ErrNotPushable, n)
	}

	list, isList := n.Right.(*parser.ArrayLiteral)
	if !isList {
		return "", fmt.Errorf("%w: %s", lakeq.ErrNotPushable, n)
	}

	if len(list.Elements) == 0 {
		return "FALSE", nil
	}

	parts := make([]string, 0, len(list.Elements))

	for _, element := range list.Elements {
		value, err := b.value(element)
		if err != nil {
			return "", err
		}

		var fragment string

		switch classifyPath(path) {
		case pathIDColumn:
			fragment, err = b.columnComparison(lakeq.ColumnDocID, parser.OpEqual, value, element)
		case pathTypeColumn:
			fragment, err = b.columnComparison(lakeq.ColumnDocType, parser.OpEqual, value, element)
		default:
			fragment = b.contentEquality(path, value)
		}

		if err != nil {
			return "", err
		}

		parts = append(parts, fragment)
	}

	return "(" + strings.Join(parts, " OR ") + ")", nil
}

// arrayContains tests whether a stored array field holds the value as
// an element.
func (b *sqlBuilder) arrayContains(path []string, value any) string {
	switch b.dialect {
	case lakeq.DialectPostgres:
		return "(CASE WHEN " + b.typeOf(path) + " = 'array' THEN EXISTS (SELECT 1 FROM jsonb_array_elements(" + b.extract(path) + ") AS element WHERE element.value = " + b.bind(jsonText(value)) + "::jsonb) ELSE FALSE END)"
	case lakeq.DialectMySQL:
		return "(" + b.typeOf(path) + " = 'ARRAY' AND CAST(" + b.bind(jsonText(value)) + " AS JSON) MEMBER OF (" + b.extract(path) + "))"
	default:
		return "(" + b.typeOf(path) + " = 'array' AND EXISTS (SELECT 1 FROM json_each(content, " + jsonPath(path) + ") AS element WHERE " + b.sqliteElementEquality(value) + "))"
	}
}

func (b *sqlBuilder) sqliteElementEquality(value any) string {
	typeExpr := sqliteKindCase("element.type")
	kind := b.bind(sqliteKindTag(value))
	scalar := b.bind(sqliteScalar(value))
	soften := b.bind(softenFlag(value))

	return typeExpr + " IS " + kind + " AND (element.value IS " + scalar + " OR " + soften + ")"
}

func (b *sqlBuilder) callPredicate(call *parser.FunctionCall) (string, error) {
	switch call.Name {
	case "defined":
		path, ok := attrPath(call.Args[0])
		if !ok {
			return "", fmt.Errorf("%w: %s", lakeq.ErrNotPushable, call)
		}

		return b.defined(path), nil
	case "references":
		return b.references(call.Args[0])
	default:
		return "", fmt.Errorf("%w: %s", lakeq.ErrNotPushable, call)
	}
}

// defined tests presence with an explicit null counting as absent.
func (b *sqlBuilder) defined(path []string) string {
	if classifyPath(path) != pathContent {
		// _id and _type exist on every document.
		return "TRUE"
	}

	switch b.dialect {
	case lakeq.DialectPostgres:
		return "(" + b.extract(path) + " IS NOT NULL AND " + b.extract(path) + " <> 'null'::jsonb)"
	case lakeq.DialectMySQL:
		return "(" + b.extract(path) + " IS NOT NULL AND " + b.typeOf(path) + " <> 'NULL')"
	default:
		// json_extract folds JSON null and a missing path to SQL NULL.
		return b.extract(path) + " IS NOT NULL"
	}
}

// references renders a deep scan for _ref values. Non-string literal
// ids never match; non-string parameter bindings search their text
// form, which can only over-select.
func (b *sqlBuilder) references(arg parser.AstNode) (string, error) {
	var nodes []parser.AstNode

	if list, isList := arg.(*parser.ArrayLiteral); isList {
		nodes = list.Elements
	} else {
		nodes = []parser.AstNode{arg}
	}

	var parts []string

	for _, node := range nodes {
		value, err := b.value(node)
		if err != nil {
			return "", err
		}

		id, isString := value.(string)
		if !isString {
			if _, isParam := node.(*parser.ParameterRef); !isParam {
				continue
			}

			id = jsonText(value)
		}

		parts = append(parts, b.referencesOne(id))
	}

	if len(parts) == 0 {
		return "FALSE", nil
	}

	if len(parts) == 1 {
		return parts[0], nil
	}

	return "(" + strings.Join(parts, " OR ") + ")", nil
}

func (b *sqlBuilder) referencesOne(id string) string {
	switch b.dialect {
	case lakeq.DialectPostgres:
		return "jsonb_path_exists(content, '$.** ? (@.\"_ref\" == $v)', jsonb_build_object('v', " + b.bind(id) + "::text))"
	case lakeq.DialectMySQL:
		// JSON_SEARCH treats % and _ as wildcards; escape them so ids
		// match literally.
		return "JSON_SEARCH(content, 'one', " + b.bind(escapeSearch(id)) + ", NULL, '$**.\"_ref\"') IS NOT NULL"
	default:
		return "EXISTS (SELECT 1 FROM json_tree(content) AS node WHERE node.key = '_ref' AND node.value = " + b.bind(id) + ")"
	}
}

// orderBy renders the ORDER BY terms reproducing the evaluator's total
// order: kind rank, then a per-kind key, with document id as the final
// tiebreak. The tiebreak always ascends, even under DESC keys.
func (b *sqlBuilder) orderBy(keys []parser.OrderKey) string {
	var terms []string

	for _, key := range keys {
		path, ok := attrPath(key.Expr)
		if !ok {
			continue
		}

		direction := ""
		if key.Desc {
			direction = " DESC"
		}

		switch classifyPath(path) {
		case pathIDColumn:
			terms = append(terms, lakeq.ColumnDocID+direction)
		case pathTypeColumn:
			terms = append(terms, lakeq.ColumnDocType+direction)
		default:
			rank, numeric, text := b.orderTerms(path)
			terms = append(terms, rank+direction, numeric+direction, text+direction)
		}
	}

	terms = append(terms, lakeq.ColumnDocID)

	return strings.Join(terms, ", ")
}

// orderTerms returns the kind rank, numeric key and string key for one
// content path. Within a rank group the other terms are uniformly NULL
// and never influence the order.
func (b *sqlBuilder) orderTerms(path []string) (rank, numeric, text string) {
	switch b.dialect {
	case lakeq.DialectPostgres:
		extract := b.extract(path)
		typeOf := b.typeOf(path)
		rank = "CASE WHEN " + extract + " IS NULL OR " + typeOf + " = 'null' THEN 0 WHEN " + typeOf + " = 'boolean' THEN 1 WHEN " + typeOf + " = 'number' THEN 2 WHEN " + typeOf + " = 'string' THEN 3 WHEN " + typeOf + " = 'array' THEN 4 ELSE 5 END"
		numeric = "CASE WHEN " + typeOf + " = 'boolean' THEN CASE WHEN " + extract + " = 'true'::jsonb THEN 1 ELSE 0 END WHEN " + typeOf + " = 'number' THEN (" + b.extractText(path) + ")::numeric END"
		text = "CASE WHEN " + typeOf + " = 'string' THEN " + b.extractText(path) + " END" + b.collate()
	case lakeq.DialectMySQL:
		extract := b.extract(path)
		typeOf := b.typeOf(path)
		rank = "CASE WHEN " + extract + " IS NULL OR " + typeOf + " = 'NULL' THEN 0 WHEN " + typeOf + " = 'BOOLEAN' THEN 1 WHEN " + typeOf + " IN " + mysqlNumberTypes + " THEN 2 WHEN " + typeOf + " = 'STRING' THEN 3 WHEN " + typeOf + " = 'ARRAY' THEN 4 ELSE 5 END"
		numeric = "CASE WHEN " + typeOf + " = 'BOOLEAN' THEN (" + extract + " = CAST('true' AS JSON)) WHEN " + typeOf + " IN " + mysqlNumberTypes + " THEN CAST(" + extract + " AS DOUBLE) END"
		text = "CASE WHEN " + typeOf + " = 'STRING' THEN JSON_UNQUOTE(" + extract + ") END" + b.collate()
	default:
		extract := b.extract(path)
		typeOf := b.typeOf(path)
		rank = "CASE WHEN " + typeOf + " IS NULL OR " + typeOf + " = 'null' THEN 0 WHEN " + typeOf + " IN ('true', 'false') THEN 1 WHEN " + typeOf + " IN ('integer', 'real') THEN 2 WHEN " + typeOf + " = 'text' THEN 3 WHEN " + typeOf + " = 'array' THEN 4 ELSE 5 END"
		numeric = "CASE WHEN " + typeOf + " = 'true' THEN 1 WHEN " + typeOf + " = 'false' THEN 0 WHEN " + typeOf + " IN ('integer', 'real') THEN " + extract + " END"
		text = "CASE WHEN " + typeOf + " = 'text' THEN " + extract + " END" + b.collate()
	}

	return rank, numeric, text
}

const mysqlNumberTypes = "('INTEGER', 'UNSIGNED INTEGER', 'DECIMAL', 'DOUBLE')"

// extract renders the JSON value at path.
func (b *sqlBuilder) extract(path []string) string {
	switch b.dialect {
	case lakeq.DialectPostgres:
		return "content #> " + pgPath(path)
	case lakeq.DialectMySQL:
		return "JSON_EXTRACT(content, " + jsonPath(path) + ")"
	default:
		return "json_extract(content, " + jsonPath(path) + ")"
	}
}

// extractText renders the value at path as text, without JSON quoting.
func (b *sqlBuilder) extractText(path []string) string {
	return "content #>> " + pgPath(path)
}

// typeOf renders the JSON type name of the value at path.
func (b *sqlBuilder) typeOf(path []string) string {
	switch b.dialect {
	case lakeq.DialectPostgres:
		return "jsonb_typeof(" + b.extract(path) + ")"
	case lakeq.DialectMySQL:
		return "JSON_TYPE(" + b.extract(path) + ")"
	default:
		return "json_type(content, " + jsonPath(path) + ")"
	}
}

// normalizedType folds SQLite's json_type output onto the kind names
// shared with the evaluator.
func (b *sqlBuilder) normalizedType(path []string) string {
	return sqliteKindCase("json_type(content, " + jsonPath(path) + ")")
}

func sqliteKindCase(inner string) string {
	return "CASE " + inner + " WHEN 'integer' THEN 'number' WHEN 'real' THEN 'number' WHEN 'true' THEN 'boolean' WHEN 'false' THEN 'boolean' ELSE " + inner + " END"
}

func (b *sqlBuilder) boolBind(truthy bool) string {
	placeholder := b.bind(truthy)
	if b.dialect == lakeq.DialectPostgres {
		return placeholder + "::boolean"
	}

	return placeholder
}

func boolConst(v bool) string {
	if v {
		return "TRUE"
	}

	return "FALSE"
}

func sqlOp(op string) string {
	switch op {
	case parser.OpEqual:
		return "="
	case parser.OpNotEqual:
		return "<>"
	default:
		return op
	}
}

// pgPath renders a text[] literal for the #> and #>> operators.
func pgPath(path []string) string {
	parts := make([]string, len(path))
	for i, name := range path {
		escaped := strings.ReplaceAll(name, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		parts[i] = `"` + escaped + `"`
	}

	return sqlQuote("{" + strings.Join(parts, ",") + "}")
}

// jsonPath renders a JSON path literal with every member quoted.
func jsonPath(path []string) string {
	var sb strings.Builder

	sb.WriteString("$")

	for _, name := range path {
		escaped := strings.ReplaceAll(name, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		sb.WriteString(`."` + escaped + `"`)
	}

	return sqlQuote(sb.String())
}

func sqlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// jsonText encodes a value as JSON for dialects that compare parsed
// JSON values.
func jsonText(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}

	return string(data)
}

// sqliteKindTag maps a value kind onto normalized json_type output.
func sqliteKindTag(v any) string {
	switch lakeq.KindOf(v) {
	case lakeq.KindNull:
		return "null"
	case lakeq.KindBool:
		return "boolean"
	case lakeq.KindNumber:
		return "number"
	case lakeq.KindString:
		return "text"
	case lakeq.KindArray:
		return "array"
	default:
		return "object"
	}
}

// sqliteScalar is the unwrapped binding for a scalar value; composite
// and null values bind as NULL.
func sqliteScalar(v any) any {
	switch v.(type) {
	case bool, float64, string:
		return v
	default:
		return nil
	}
}

// softenFlag is 1 when the value cannot be compared exactly after
// SQLite unwraps it, turning the value term into a pass-through.
func softenFlag(v any) int {
	switch lakeq.KindOf(v) {
	case lakeq.KindArray, lakeq.KindObject:
		return 1
	default:
		return 0
	}
}

// escapeSearch escapes JSON_SEARCH pattern metacharacters.
func escapeSearch(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)

	return strings.ReplaceAll(s, `_`, `\_`)
}
