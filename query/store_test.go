package query

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/parser"
	"github.com/contentlake/lakeq/transpiler"
)

func sqliteStatement(t *testing.T, query string, params map[string]any) *transpiler.Statement {
	t.Helper()

	root, err := parser.Parse(query)
	assert.NoError(t, err)

	stmt, err := transpiler.Analyze(root).Statement(lakeq.DialectSQLite, params)
	assert.NoError(t, err)

	return stmt
}

func TestOpenUnsupportedDialect(t *testing.T) {
	_, err := Open(lakeq.Dialect("oracle"), "whatever")
	assert.IsError(t, err, lakeq.ErrUnsupportedDialect)
}

func TestBootstrapIsIdempotent(t *testing.T) {
	store := testStore(t)
	assert.NoError(t, store.Bootstrap(context.Background()))
}

func TestPutAndFetchByReference(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "production", &lakeq.Document{
		ID:      "post.alpha",
		Type:    "post",
		Content: map[string]any{"title": "Alpha", "views": 10.0},
	})
	assert.NoError(t, err)

	value, found, err := store.FetchByReference(ctx, "production", "post.alpha")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "post.alpha", value[lakeq.FieldID])
	assert.Equal(t, "post", value[lakeq.FieldType])
	assert.Equal(t, "Alpha", value["title"])
	assert.Equal(t, 10.0, value["views"])
	assert.NotEqual(t, "", value[lakeq.FieldRev])
	assert.NotEqual(t, nil, value[lakeq.FieldCreatedAt])

	_, found, err = store.FetchByReference(ctx, "production", "post.unknown")
	assert.NoError(t, err)
	assert.False(t, found)

	// Same id in another dataset stays invisible.
	_, found, err = store.FetchByReference(ctx, "staging", "post.alpha")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestPutReplaces(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Put(ctx, "production", &lakeq.Document{
		ID: "post.alpha", Type: "post", Content: map[string]any{"title": "Alpha"},
	}))

	before, _, err := store.FetchByReference(ctx, "production", "post.alpha")
	assert.NoError(t, err)

	assert.NoError(t, store.Put(ctx, "production", &lakeq.Document{
		ID: "post.alpha", Type: "post", Content: map[string]any{"title": "Alpha II"},
	}))

	after, _, err := store.FetchByReference(ctx, "production", "post.alpha")
	assert.NoError(t, err)

	assert.Equal(t, "Alpha II", after["title"])
	assert.NotEqual(t, before[lakeq.FieldRev], after[lakeq.FieldRev])
	assert.Equal(t, before[lakeq.FieldCreatedAt], after[lakeq.FieldCreatedAt])

	count, err := store.CountByFilter(ctx, "production", sqliteStatement(t, `count(*)`, nil))
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPutRejectsInvalidDocuments(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	err := store.Put(ctx, "production", &lakeq.Document{Type: "post"})
	assert.IsError(t, err, lakeq.ErrMissingSystemField)

	err = store.Put(ctx, "production", &lakeq.Document{ID: "has space", Type: "post"})
	assert.IsError(t, err, lakeq.ErrInvalidDocumentID)
}

func TestDeleteSoftDeletes(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Seed(ctx, "production", seedValues()))
	assert.NoError(t, store.Delete(ctx, "production", "post.alpha"))

	_, found, err := store.FetchByReference(ctx, "production", "post.alpha")
	assert.NoError(t, err)
	assert.False(t, found)

	docs, err := store.FetchByFilter(ctx, "production", sqliteStatement(t, `*`, nil))
	assert.NoError(t, err)
	assert.Equal(t, 5, len(docs))

	// Writing the same id again resurrects the document.
	assert.NoError(t, store.Put(ctx, "production", &lakeq.Document{
		ID: "post.alpha", Type: "post", Content: map[string]any{"title": "Alpha III"},
	}))

	value, found, err := store.FetchByReference(ctx, "production", "post.alpha")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Alpha III", value["title"])
}

func TestSeedValidatesUpFront(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	err := store.Seed(ctx, "production", []map[string]any{
		{"_id": "post.alpha", "_type": "post"},
		{"_id": "post.beta"},
	})
	assert.IsError(t, err, lakeq.ErrMissingSystemField)
}

func TestFetchByFilterOrder(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Seed(ctx, "production", seedValues()))

	docs, err := store.FetchByFilter(ctx, "production", sqliteStatement(t, `*[_type == "post"]`, nil))
	assert.NoError(t, err)

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc[lakeq.FieldID].(string)
	}

	assert.Equal(t, []string{"post.alpha", "post.beta", "post.delta", "post.gamma"}, ids)
}

func TestCountByFilter(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Seed(ctx, "production", seedValues()))

	count, err := store.CountByFilter(ctx, "production", sqliteStatement(t, `count(*[_type == "author"])`, nil))
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: lakeq.DialectPostgres}
	assert.Equal(t, "a = $1 AND b = $2", pg.rebind("a = ? AND b = ?"))

	sqlite := &Store{dialect: lakeq.DialectSQLite}
	assert.Equal(t, "a = ? AND b = ?", sqlite.rebind("a = ? AND b = ?"))
}
