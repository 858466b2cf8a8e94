package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/evaluator"
	"github.com/contentlake/lakeq/parser"
	"github.com/contentlake/lakeq/query"
)

// QueryCmd runs one query and prints its result.
type QueryCmd struct {
	QueryText string `arg:"" optional:"" help:"Query text"`
	File      string `short:"f" help:"Read the query from a file" type:"path"`
	Fixture   string `help:"Evaluate against a fixture file instead of the store" type:"path"`
	Format    string `help:"Output format (json, yaml)" default:"json" enum:"json,yaml"`
	Output    string `short:"o" help:"Output file (defaults to stdout)" type:"path"`
}

// Run executes the query command
func (q *QueryCmd) Run(ctx *Context) error {
	config, err := lakeq.LoadConfig(ctx.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	queryText, err := readQueryText(q.QueryText, q.File)
	if err != nil {
		return err
	}

	params, err := ctx.Parameters()
	if err != nil {
		return err
	}

	root, err := parser.ParseWithLimits(queryText, config.Limits)
	if err != nil {
		return err
	}

	// Fail on missing bindings here rather than mid-execution. The
	// library binds lazily; the command front door is strict.
	if err := query.ValidateParameters(root, params); err != nil {
		return err
	}

	out := os.Stdout

	if q.Output != "" {
		file, err := os.Create(q.Output)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrOutputFileCreation, err)
		}
		defer file.Close()

		out = file
	}

	if q.Fixture != "" {
		fixture, err := lakeq.LoadFixture(q.Fixture)
		if err != nil {
			return err
		}

		if ctx.Verbose {
			color.Blue("Evaluating against fixture %s (%d documents)", q.Fixture, len(fixture.Documents))
		}

		result, err := evaluateFixture(context.Background(), root, fixture, params, config.QueryTimeout())
		if err != nil {
			return err
		}

		return renderResult(out, result, q.Format)
	}

	store, err := query.OpenFromConfig(config)
	if err != nil {
		return err
	}
	defer store.Close()

	dispatcher, err := query.NewDispatcher(store, config)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	if ctx.Verbose {
		compiled, err := dispatcher.Compile(queryText)
		if err != nil {
			return err
		}

		color.Blue("Query %s: %s strategy", uuid.NewString(), compiled.Plan.Strategy)
	}

	result, err := dispatcher.Execute(context.Background(), queryText, params, ctx.Dataset)
	if err != nil {
		return err
	}

	return renderResult(out, result, q.Format)
}

// evaluateFixture runs a parsed query over the documents of a fixture,
// with references resolved inside the fixture itself.
func evaluateFixture(goCtx context.Context, root parser.AstNode, fixture *lakeq.Fixture, params map[string]any, timeout time.Duration) (any, error) {
	if timeout > 0 {
		var cancel context.CancelFunc

		goCtx, cancel = context.WithTimeout(goCtx, timeout)
		defer cancel()
	}

	dataset := make([]any, 0, len(fixture.Documents))
	byID := make(map[string]map[string]any, len(fixture.Documents))

	for _, doc := range fixture.Documents {
		value := lakeq.NormalizeValue(doc).(map[string]any)
		dataset = append(dataset, value)

		if id, ok := value[lakeq.FieldID].(string); ok {
			byID[id] = value
		}
	}

	evalCtx := evaluator.NewContext(goCtx, nil).
		WithParams(lakeq.NormalizeParams(params)).
		WithDataset(dataset).
		WithFetcher(fixtureFetcher(byID))

	result, err := evaluator.Evaluate(evalCtx, root)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", lakeq.ErrQueryTimeout, timeout)
	}

	return result, err
}

// fixtureFetcher resolves references against the fixture's own
// documents.
type fixtureFetcher map[string]map[string]any

func (f fixtureFetcher) FetchByReference(_ context.Context, id string) (map[string]any, bool) {
	value, ok := f[id]
	return value, ok
}
