package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestResolveDataset(t *testing.T) {
	assert.Equal(t, "staging", resolveDataset("staging", "fixture", "config"))
	assert.Equal(t, "fixture", resolveDataset("", "fixture", "config"))
	assert.Equal(t, "config", resolveDataset("", "", "config"))
}

func TestSeedAndQueryStore(t *testing.T) {
	dir := t.TempDir()

	configPath := writeFile(t, dir, "lakeq.yaml",
		"dialect: sqlite\ndatabase:\n  connection: "+filepath.Join(dir, "lakeq.db")+"\n")
	fixturePath := writeFile(t, dir, "posts.yaml", testFixtureYAML)

	ctx := &Context{Config: configPath, Quiet: true}

	seed := &SeedCmd{Files: []string{fixturePath}}
	assert.NoError(t, seed.Run(ctx))

	outPath := filepath.Join(dir, "out.json")
	cmd := &QueryCmd{
		QueryText: `count(*[_type == "post"])`,
		Format:    FormatJSON,
		Output:    outPath,
	}
	assert.NoError(t, cmd.Run(ctx))

	data, err := os.ReadFile(outPath)
	assert.NoError(t, err)
	assert.Equal(t, "2\n", string(data))

	// Re-seeding upserts rather than duplicating.
	assert.NoError(t, seed.Run(ctx))
	assert.NoError(t, cmd.Run(ctx))

	data, err = os.ReadFile(outPath)
	assert.NoError(t, err)
	assert.Equal(t, "2\n", string(data))
}
