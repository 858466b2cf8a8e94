package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/query"
)

// SeedCmd loads document fixtures into the store.
type SeedCmd struct {
	Files []string `arg:"" help:"Fixture files (JSON/YAML)" type:"path"`
}

// Run executes the seed command
func (s *SeedCmd) Run(ctx *Context) error {
	config, err := lakeq.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := query.OpenFromConfig(config)
	if err != nil {
		return err
	}
	defer store.Close()

	runCtx := context.Background()

	if err := store.Bootstrap(runCtx); err != nil {
		return err
	}

	for _, path := range s.Files {
		fixture, err := lakeq.LoadFixture(path)
		if err != nil {
			return err
		}

		dataset := resolveDataset(ctx.Dataset, fixture.Dataset, config.Dataset)
		if dataset == "" {
			return lakeq.ErrNoDataset
		}

		if err := store.Seed(runCtx, dataset, fixture.Documents); err != nil {
			return fmt.Errorf("failed to seed %s: %w", path, err)
		}

		if !ctx.Quiet {
			color.Blue("Seeded %d documents into %s from %s", len(fixture.Documents), dataset, path)
		}
	}

	return nil
}

// resolveDataset picks the first explicit dataset: command line flag,
// then the fixture's own declaration, then the configured default.
func resolveDataset(flag, fixture, configured string) string {
	if flag != "" {
		return flag
	}

	if fixture != "" {
		return fixture
	}

	return configured
}
