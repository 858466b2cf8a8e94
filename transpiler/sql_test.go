package transpiler

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/contentlake/lakeq"
)

const selectPrefix = "SELECT doc_id, doc_type, revision, created_at, updated_at, content FROM documents WHERE dataset = "

func statement(t *testing.T, query string, dialect lakeq.Dialect, params map[string]any) *Statement {
	t.Helper()

	stmt, err := plan(t, query).Statement(dialect, params)
	assert.NoError(t, err)

	return stmt
}

// where extracts the pushed filter between the fixed clauses.
func where(t *testing.T, stmt *Statement) string {
	t.Helper()

	_, after, found := strings.Cut(stmt.SQL, " AND NOT deleted AND (")
	assert.True(t, found)

	clause, _, found := strings.Cut(after, ") ORDER BY")
	if !found {
		clause, _, found = strings.Cut(after, ")")
	}

	assert.True(t, found)

	return clause
}

func TestStatementShape(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		stmt := statement(t, `*[_type == "post"]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, selectPrefix+"? AND NOT deleted AND (doc_type = ?) ORDER BY doc_id", stmt.SQL)
		assert.Equal(t, []any{"post"}, stmt.Args)
		assert.False(t, stmt.CountOnly)
	})

	t.Run("postgres numbers placeholders after the dataset", func(t *testing.T) {
		stmt := statement(t, `*[_type == "post"]`, lakeq.DialectPostgres, nil)

		assert.Equal(t, selectPrefix+"$1 AND NOT deleted AND (doc_type = $2) ORDER BY doc_id", stmt.SQL)
		assert.Equal(t, []any{"post"}, stmt.Args)
	})

	t.Run("bare everything", func(t *testing.T) {
		stmt := statement(t, `*`, lakeq.DialectSQLite, nil)

		assert.Equal(t, selectPrefix+"? AND NOT deleted ORDER BY doc_id", stmt.SQL)
		assert.Equal(t, 0, len(stmt.Args))
	})

	t.Run("mariadb renders as mysql", func(t *testing.T) {
		stmt := statement(t, `*[published == true]`, lakeq.DialectMariaDB, nil)

		assert.Contains(t, stmt.SQL, "JSON_EXTRACT(content, '$.\"published\"')")
		assert.Contains(t, stmt.SQL, "dataset = ?")
	})

	t.Run("unsupported dialect", func(t *testing.T) {
		_, err := plan(t, `*`).Statement(lakeq.Dialect("oracle"), nil)
		assert.IsError(t, err, lakeq.ErrUnsupportedDialect)
	})
}

func TestStatementContentEquality(t *testing.T) {
	query := `*[published == true]`

	tests := []struct {
		name    string
		dialect lakeq.Dialect
		clause  string
		args    []any
	}{
		{
			name:    "postgres",
			dialect: lakeq.DialectPostgres,
			clause:  `COALESCE(content #> '{"published"}', 'null'::jsonb) = $2::jsonb`,
			args:    []any{"true"},
		},
		{
			name:    "mysql",
			dialect: lakeq.DialectMySQL,
			clause:  `COALESCE(JSON_EXTRACT(content, '$."published"'), CAST('null' AS JSON)) = CAST(? AS JSON)`,
			args:    []any{"true"},
		},
		{
			name:    "sqlite",
			dialect: lakeq.DialectSQLite,
			clause:  `(COALESCE(CASE json_type(content, '$."published"') WHEN 'integer' THEN 'number' WHEN 'real' THEN 'number' WHEN 'true' THEN 'boolean' WHEN 'false' THEN 'boolean' ELSE json_type(content, '$."published"') END, 'null') IS ? AND (json_extract(content, '$."published"') IS ? OR ?))`,
			args:    []any{"boolean", true, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := statement(t, query, tt.dialect, nil)

			assert.Equal(t, tt.clause, where(t, stmt))
			assert.Equal(t, tt.args, stmt.Args)
		})
	}
}

func TestStatementNullEquality(t *testing.T) {
	// Missing fields and explicit nulls both satisfy == null.
	stmt := statement(t, `*[deletedAt == null]`, lakeq.DialectPostgres, nil)

	assert.Equal(t, `COALESCE(content #> '{"deletedAt"}', 'null'::jsonb) = $2::jsonb`, where(t, stmt))
	assert.Equal(t, []any{"null"}, stmt.Args)

	sqlite := statement(t, `*[deletedAt == null]`, lakeq.DialectSQLite, nil)
	assert.Equal(t, []any{"null", nil, 0}, sqlite.Args)
}

func TestStatementInequality(t *testing.T) {
	stmt := statement(t, `*[status != "draft"]`, lakeq.DialectPostgres, nil)

	assert.Equal(t, `NOT (COALESCE(content #> '{"status"}', 'null'::jsonb) = $2::jsonb)`, where(t, stmt))
	assert.Equal(t, []any{`"draft"`}, stmt.Args)
}

func TestStatementRelational(t *testing.T) {
	query := `*[views > 10]`

	tests := []struct {
		name    string
		dialect lakeq.Dialect
		clause  string
	}{
		{
			name:    "postgres",
			dialect: lakeq.DialectPostgres,
			clause:  `(jsonb_typeof(content #> '{"views"}') = 'number' AND (content #>> '{"views"}')::numeric > $2)`,
		},
		{
			name:    "mysql",
			dialect: lakeq.DialectMySQL,
			clause:  `(JSON_TYPE(JSON_EXTRACT(content, '$."views"')) IN ('INTEGER', 'UNSIGNED INTEGER', 'DECIMAL', 'DOUBLE') AND CAST(JSON_EXTRACT(content, '$."views"') AS DOUBLE) > ?)`,
		},
		{
			name:    "sqlite",
			dialect: lakeq.DialectSQLite,
			clause:  `(json_type(content, '$."views"') IN ('integer', 'real') AND json_extract(content, '$."views"') > ?)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := statement(t, query, tt.dialect, nil)

			assert.Equal(t, tt.clause, where(t, stmt))
			assert.Equal(t, []any{10.0}, stmt.Args)
		})
	}
}

func TestStatementStringRelational(t *testing.T) {
	t.Run("postgres pins byte order", func(t *testing.T) {
		stmt := statement(t, `*[title >= "m"]`, lakeq.DialectPostgres, nil)

		assert.Equal(t, `(jsonb_typeof(content #> '{"title"}') = 'string' AND (content #>> '{"title"}') COLLATE "C" >= $2)`, where(t, stmt))
	})

	t.Run("mysql pins byte order", func(t *testing.T) {
		stmt := statement(t, `*[title >= "m"]`, lakeq.DialectMySQL, nil)

		assert.Equal(t, `(JSON_TYPE(JSON_EXTRACT(content, '$."title"')) = 'STRING' AND JSON_UNQUOTE(JSON_EXTRACT(content, '$."title"')) COLLATE utf8mb4_bin >= ?)`, where(t, stmt))
	})

	t.Run("sqlite compares bytes by default", func(t *testing.T) {
		stmt := statement(t, `*[title >= "m"]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, `(json_type(content, '$."title"') = 'text' AND json_extract(content, '$."title"') >= ?)`, where(t, stmt))
	})
}

func TestStatementFlippedComparison(t *testing.T) {
	// The constant moves to the right and the operator mirrors.
	stmt := statement(t, `*[10 < views]`, lakeq.DialectSQLite, nil)

	assert.Equal(t, `(json_type(content, '$."views"') IN ('integer', 'real') AND json_extract(content, '$."views"') > ?)`, where(t, stmt))
	assert.Equal(t, []any{10.0}, stmt.Args)
}

func TestStatementColumnComparisons(t *testing.T) {
	t.Run("id range", func(t *testing.T) {
		stmt := statement(t, `*[_id >= "post."]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, "doc_id >= ?", where(t, stmt))
		assert.Equal(t, []any{"post."}, stmt.Args)
	})

	t.Run("type inequality", func(t *testing.T) {
		stmt := statement(t, `*[_type != "draft"]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, "doc_type <> ?", where(t, stmt))
	})

	t.Run("non-string constant folds", func(t *testing.T) {
		stmt := statement(t, `*[_id == 5]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, "FALSE", where(t, stmt))
		assert.Equal(t, 0, len(stmt.Args))
	})
}

func TestStatementMembership(t *testing.T) {
	t.Run("type in list", func(t *testing.T) {
		stmt := statement(t, `*[_type in ["post", "page"]]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, "(doc_type = ? OR doc_type = ?)", where(t, stmt))
		assert.Equal(t, []any{"post", "page"}, stmt.Args)
	})

	t.Run("field in list", func(t *testing.T) {
		stmt := statement(t, `*[status in ["live", "archived"]]`, lakeq.DialectPostgres, nil)

		assert.Equal(t,
			`(COALESCE(content #> '{"status"}', 'null'::jsonb) = $2::jsonb OR COALESCE(content #> '{"status"}', 'null'::jsonb) = $3::jsonb)`,
			where(t, stmt))
		assert.Equal(t, []any{`"live"`, `"archived"`}, stmt.Args)
	})

	t.Run("empty list", func(t *testing.T) {
		stmt := statement(t, `*[status in []]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, "FALSE", where(t, stmt))
	})
}

func TestStatementArrayContains(t *testing.T) {
	query := `*["go" in tags]`

	t.Run("postgres guards the array scan", func(t *testing.T) {
		stmt := statement(t, query, lakeq.DialectPostgres, nil)

		assert.Equal(t,
			`(CASE WHEN jsonb_typeof(content #> '{"tags"}') = 'array' THEN EXISTS (SELECT 1 FROM jsonb_array_elements(content #> '{"tags"}') AS element WHERE element.value = $2::jsonb) ELSE FALSE END)`,
			where(t, stmt))
		assert.Equal(t, []any{`"go"`}, stmt.Args)
	})

	t.Run("mysql", func(t *testing.T) {
		stmt := statement(t, query, lakeq.DialectMySQL, nil)

		assert.Equal(t,
			`(JSON_TYPE(JSON_EXTRACT(content, '$."tags"')) = 'ARRAY' AND CAST(? AS JSON) MEMBER OF (JSON_EXTRACT(content, '$."tags"')))`,
			where(t, stmt))
		assert.Equal(t, []any{`"go"`}, stmt.Args)
	})

	t.Run("sqlite compares kind and value per element", func(t *testing.T) {
		stmt := statement(t, query, lakeq.DialectSQLite, nil)

		assert.Equal(t,
			`(json_type(content, '$."tags"') = 'array' AND EXISTS (SELECT 1 FROM json_each(content, '$."tags"') AS element WHERE CASE element.type WHEN 'integer' THEN 'number' WHEN 'real' THEN 'number' WHEN 'true' THEN 'boolean' WHEN 'false' THEN 'boolean' ELSE element.type END IS ? AND (element.value IS ? OR ?)))`,
			where(t, stmt))
		assert.Equal(t, []any{"text", "go", 0}, stmt.Args)
	})

	t.Run("membership in a column is never true", func(t *testing.T) {
		stmt := statement(t, `*["x" in _id]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, "FALSE", where(t, stmt))
	})
}

func TestStatementDefined(t *testing.T) {
	t.Run("postgres", func(t *testing.T) {
		stmt := statement(t, `*[defined(body)]`, lakeq.DialectPostgres, nil)

		assert.Equal(t, `(content #> '{"body"}' IS NOT NULL AND content #> '{"body"}' <> 'null'::jsonb)`, where(t, stmt))
	})

	t.Run("mysql", func(t *testing.T) {
		stmt := statement(t, `*[defined(body)]`, lakeq.DialectMySQL, nil)

		assert.Equal(t, `(JSON_EXTRACT(content, '$."body"') IS NOT NULL AND JSON_TYPE(JSON_EXTRACT(content, '$."body"')) <> 'NULL')`, where(t, stmt))
	})

	t.Run("sqlite folds null and missing", func(t *testing.T) {
		stmt := statement(t, `*[defined(body)]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, `json_extract(content, '$."body"') IS NOT NULL`, where(t, stmt))
	})

	t.Run("system columns always exist", func(t *testing.T) {
		stmt := statement(t, `*[defined(_id)]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, "TRUE", where(t, stmt))
	})
}

func TestStatementReferences(t *testing.T) {
	t.Run("postgres", func(t *testing.T) {
		stmt := statement(t, `*[references("author.ann")]`, lakeq.DialectPostgres, nil)

		assert.Equal(t, `jsonb_path_exists(content, '$.** ? (@."_ref" == $v)', jsonb_build_object('v', $2::text))`, where(t, stmt))
		assert.Equal(t, []any{"author.ann"}, stmt.Args)
	})

	t.Run("mysql escapes search wildcards", func(t *testing.T) {
		stmt := statement(t, `*[references("doc_100%")]`, lakeq.DialectMySQL, nil)

		assert.Equal(t, `JSON_SEARCH(content, 'one', ?, NULL, '$**."_ref"') IS NOT NULL`, where(t, stmt))
		assert.Equal(t, []any{`doc\_100\%`}, stmt.Args)
	})

	t.Run("sqlite walks the tree", func(t *testing.T) {
		stmt := statement(t, `*[references("author.ann")]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, `EXISTS (SELECT 1 FROM json_tree(content) AS node WHERE node.key = '_ref' AND node.value = ?)`, where(t, stmt))
	})

	t.Run("id list", func(t *testing.T) {
		stmt := statement(t, `*[references(["a", "b"])]`, lakeq.DialectSQLite, nil)

		assert.Equal(t,
			`(EXISTS (SELECT 1 FROM json_tree(content) AS node WHERE node.key = '_ref' AND node.value = ?) OR EXISTS (SELECT 1 FROM json_tree(content) AS node WHERE node.key = '_ref' AND node.value = ?))`,
			where(t, stmt))
		assert.Equal(t, []any{"a", "b"}, stmt.Args)
	})

	t.Run("non-string id never matches", func(t *testing.T) {
		stmt := statement(t, `*[references(5)]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, "FALSE", where(t, stmt))
		assert.Equal(t, 0, len(stmt.Args))
	})
}

func TestStatementNegation(t *testing.T) {
	stmt := statement(t, `*[!(status == "draft")]`, lakeq.DialectPostgres, nil)

	assert.Equal(t, `NOT COALESCE(COALESCE(content #> '{"status"}', 'null'::jsonb) = $2::jsonb, FALSE)`, where(t, stmt))
}

func TestStatementTruthyConditions(t *testing.T) {
	t.Run("constant", func(t *testing.T) {
		stmt := statement(t, `*[true]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, "TRUE", where(t, stmt))
	})

	t.Run("parameter binds its truthiness", func(t *testing.T) {
		stmt := statement(t, `*[$flag]`, lakeq.DialectPostgres, map[string]any{"flag": "yes"})

		assert.Equal(t, "$2::boolean", where(t, stmt))
		assert.Equal(t, []any{true}, stmt.Args)
	})
}

func TestStatementParameters(t *testing.T) {
	t.Run("content equality binds canonical text", func(t *testing.T) {
		stmt := statement(t, `*[slug == $slug]`, lakeq.DialectPostgres, map[string]any{"slug": "intro"})

		assert.Equal(t, `COALESCE(content #> '{"slug"}', 'null'::jsonb) = $2::jsonb`, where(t, stmt))
		assert.Equal(t, []any{`"intro"`}, stmt.Args)
	})

	t.Run("numbers normalize before binding", func(t *testing.T) {
		stmt := statement(t, `*[views == $n]`, lakeq.DialectSQLite, map[string]any{"n": 7})

		assert.Equal(t, []any{"number", 7.0, 0}, stmt.Args)
	})

	t.Run("column equality binds text", func(t *testing.T) {
		stmt := statement(t, `*[_type == $t]`, lakeq.DialectSQLite, map[string]any{"t": "post"})

		assert.Equal(t, "doc_type = ?", where(t, stmt))
		assert.Equal(t, []any{"post"}, stmt.Args)
	})

	t.Run("missing parameter fails", func(t *testing.T) {
		_, err := plan(t, `*[slug == $slug]`).Statement(lakeq.DialectSQLite, nil)
		assert.IsError(t, err, lakeq.ErrUnknownParameter)
	})
}

func TestStatementQuotedFieldNames(t *testing.T) {
	stmt := statement(t, `*[meta["odd key"] == 1]`, lakeq.DialectPostgres, nil)

	assert.Equal(t, `COALESCE(content #> '{"meta","odd key"}', 'null'::jsonb) = $2::jsonb`, where(t, stmt))

	sqlite := statement(t, `*[meta["odd key"] == 1]`, lakeq.DialectSQLite, nil)
	assert.Contains(t, sqlite.SQL, `'$."meta"."odd key"'`)
}

func TestStatementOrder(t *testing.T) {
	t.Run("content key sorts by kind then value", func(t *testing.T) {
		stmt := statement(t, `* | order(title asc)`, lakeq.DialectSQLite, nil)

		assert.Contains(t, stmt.SQL, "ORDER BY CASE WHEN json_type(content, '$.\"title\"') IS NULL OR json_type(content, '$.\"title\"') = 'null' THEN 0")
		assert.Contains(t, stmt.SQL, "WHEN json_type(content, '$.\"title\"') IN ('integer', 'real') THEN 2")
		assert.Contains(t, stmt.SQL, "CASE WHEN json_type(content, '$.\"title\"') = 'text' THEN json_extract(content, '$.\"title\"') END")
		assert.True(t, strings.HasSuffix(stmt.SQL, ", doc_id"))
	})

	t.Run("descending keys keep the tiebreak ascending", func(t *testing.T) {
		stmt := statement(t, `* | order(views desc)`, lakeq.DialectSQLite, nil)

		assert.True(t, strings.HasSuffix(stmt.SQL, "END DESC, doc_id"))
	})

	t.Run("id key uses the column", func(t *testing.T) {
		stmt := statement(t, `* | order(_id desc)`, lakeq.DialectSQLite, nil)

		assert.True(t, strings.HasSuffix(stmt.SQL, "ORDER BY doc_id DESC, doc_id"))
	})

	t.Run("postgres pins string keys to byte order", func(t *testing.T) {
		stmt := statement(t, `* | order(title asc)`, lakeq.DialectPostgres, nil)

		assert.Contains(t, stmt.SQL, `THEN content #>> '{"title"}' END COLLATE "C"`)
	})
}

func TestStatementWindow(t *testing.T) {
	t.Run("slice", func(t *testing.T) {
		stmt := statement(t, `*[_type == "post"][0..10]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, selectPrefix+"? AND NOT deleted AND (doc_type = ?) ORDER BY doc_id LIMIT 10", stmt.SQL)
	})

	t.Run("offset window", func(t *testing.T) {
		stmt := statement(t, `*[2...5]`, lakeq.DialectSQLite, nil)

		assert.Equal(t, selectPrefix+"? AND NOT deleted ORDER BY doc_id LIMIT 4 OFFSET 2", stmt.SQL)
	})

	t.Run("element", func(t *testing.T) {
		stmt := statement(t, `*[_type == "post"][1]`, lakeq.DialectSQLite, nil)

		assert.True(t, strings.HasSuffix(stmt.SQL, "ORDER BY doc_id LIMIT 1 OFFSET 1"))
	})
}

func TestStatementCount(t *testing.T) {
	stmt := statement(t, `count(*[_type == "post"])`, lakeq.DialectSQLite, nil)

	assert.Equal(t, "SELECT COUNT(*) FROM documents WHERE dataset = ? AND NOT deleted AND (doc_type = ?)", stmt.SQL)
	assert.Equal(t, []any{"post"}, stmt.Args)
	assert.True(t, stmt.CountOnly)
}

func TestStatementDisjunction(t *testing.T) {
	stmt := statement(t, `*[_type == "post" || _type == "page"]`, lakeq.DialectSQLite, nil)

	assert.Equal(t, "(doc_type = ? OR doc_type = ?)", where(t, stmt))
	assert.Equal(t, []any{"post", "page"}, stmt.Args)
}
