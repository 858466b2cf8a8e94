package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/parser"
)

const testFixtureYAML = `name: posts
dataset: production
documents:
  - _id: post.alpha
    _type: post
    title: Alpha
    views: 12
    author:
      _ref: author.ann
  - _id: post.beta
    _type: post
    title: Beta
    views: 3
  - _id: author.ann
    _type: author
    name: Ann
`

// helper to write a file
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	return p
}

func TestReadQueryText(t *testing.T) {
	text, err := readQueryText("*", "")
	assert.NoError(t, err)
	assert.Equal(t, "*", text)

	dir := t.TempDir()
	path := writeFile(t, dir, "query.txt", "*[_type == \"post\"]\n")

	text, err = readQueryText("", path)
	assert.NoError(t, err)
	assert.Equal(t, `*[_type == "post"]`, text)

	_, err = readQueryText("", "")
	assert.IsError(t, err, ErrQueryMissing)

	_, err = readQueryText("*", path)
	assert.IsError(t, err, ErrQueryTextAndFile)
}

func TestEvaluateFixture(t *testing.T) {
	fixture, err := lakeq.ParseFixture([]byte(testFixtureYAML))
	assert.NoError(t, err)

	root, err := parser.Parse(`*[_type == "post" && views >= $min]{title, "author": author->name} | order(title asc)`)
	assert.NoError(t, err)

	result, err := evaluateFixture(context.Background(), root, fixture, map[string]any{"min": 10}, 0)
	assert.NoError(t, err)

	assert.Equal[any](t, []any{
		map[string]any{"title": "Alpha", "author": "Ann"},
	}, result)
}

func TestEvaluateFixtureCount(t *testing.T) {
	fixture, err := lakeq.ParseFixture([]byte(testFixtureYAML))
	assert.NoError(t, err)

	root, err := parser.Parse(`count(*[_type == "post"])`)
	assert.NoError(t, err)

	result, err := evaluateFixture(context.Background(), root, fixture, nil, 0)
	assert.NoError(t, err)
	assert.Equal(t, 2.0, result)
}

func TestEvaluateFixtureTimeout(t *testing.T) {
	fixture, err := lakeq.ParseFixture([]byte(testFixtureYAML))
	assert.NoError(t, err)

	root, err := parser.Parse(`*`)
	assert.NoError(t, err)

	_, err = evaluateFixture(context.Background(), root, fixture, nil, time.Nanosecond)
	assert.IsError(t, err, lakeq.ErrQueryTimeout)
}

func TestQueryCmdRunFixtureToFile(t *testing.T) {
	dir := t.TempDir()
	fixturePath := writeFile(t, dir, "posts.yaml", testFixtureYAML)
	outPath := filepath.Join(dir, "out.json")

	cmd := &QueryCmd{
		QueryText: `*[_type == "post"] | order(views desc) {title}`,
		Fixture:   fixturePath,
		Format:    FormatJSON,
		Output:    outPath,
	}
	ctx := &Context{Config: filepath.Join(dir, "lakeq.yaml"), Quiet: true}

	assert.NoError(t, cmd.Run(ctx))

	data, err := os.ReadFile(outPath)
	assert.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"title\": \"Alpha\"\n  },\n  {\n    \"title\": \"Beta\"\n  }\n]\n", string(data))
}

func TestQueryCmdRunRejectsMissingParams(t *testing.T) {
	dir := t.TempDir()
	fixturePath := writeFile(t, dir, "posts.yaml", testFixtureYAML)

	cmd := &QueryCmd{QueryText: `*[views >= $min]`, Fixture: fixturePath}
	ctx := &Context{Config: filepath.Join(dir, "lakeq.yaml"), Quiet: true}

	err := cmd.Run(ctx)
	assert.IsError(t, err, lakeq.ErrUnknownParameter)
}
