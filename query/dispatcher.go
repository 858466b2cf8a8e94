package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panjf2000/ants/v2"

	"github.com/contentlake/lakeq"
	"github.com/contentlake/lakeq/evaluator"
	"github.com/contentlake/lakeq/parser"
	"github.com/contentlake/lakeq/transpiler"
)

// Compiled is one cached compilation: the parsed tree plus its plan.
// Parameters never influence compilation, so one entry serves every
// execution of the same query text.
type Compiled struct {
	Root parser.AstNode
	Plan *transpiler.Plan
}

// Dispatcher turns query text into results. Per query it compiles
// (or recalls) a plan, fetches candidates through the store, and runs
// whatever part of the plan stayed in memory.
type Dispatcher struct {
	store         *Store
	limits        lakeq.Limits
	dataset       string
	timeout       time.Duration
	maxRows       int
	recordMetrics bool
	pool          *ants.Pool
	plans         *lru.Cache[string, *Compiled]
}

// NewDispatcher wires a dispatcher to a store. The caller keeps
// ownership of the store; Close releases only the dispatcher's pool.
func NewDispatcher(store *Store, config *lakeq.Config) (*Dispatcher, error) {
	plans, err := lru.New[string, *Compiled](config.Cache.PlanEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan cache: %w", err)
	}

	pool, err := ants.NewPool(config.Workers.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Dispatcher{
		store:         store,
		limits:        config.Limits,
		dataset:       config.Dataset,
		timeout:       config.QueryTimeout(),
		maxRows:       config.Query.MaxRows,
		recordMetrics: config.Metrics.Enabled,
		pool:          pool,
		plans:         plans,
	}, nil
}

// Close stops the worker pool.
func (d *Dispatcher) Close() {
	d.pool.Release()
}

// Compile parses and plans a query, serving repeats from the cache.
func (d *Dispatcher) Compile(queryText string) (*Compiled, error) {
	if compiled, ok := d.plans.Get(queryText); ok {
		if d.recordMetrics {
			planCacheHits.Inc()
		}

		return compiled, nil
	}

	if d.recordMetrics {
		planCacheMisses.Inc()
	}

	root, err := parser.ParseWithLimits(queryText, d.limits)
	if err != nil {
		return nil, err
	}

	compiled := &Compiled{Root: root, Plan: transpiler.Analyze(root)}
	d.plans.Add(queryText, compiled)

	return compiled, nil
}

// Execute runs a query and returns its JSON result. An empty dataset
// falls back to the configured default.
func (d *Dispatcher) Execute(ctx context.Context, queryText string, params map[string]any, dataset string) (any, error) {
	compiled, err := d.Compile(queryText)
	if err != nil {
		return nil, err
	}

	if dataset == "" {
		dataset = d.dataset
	}

	if dataset == "" {
		return nil, lakeq.ErrNoDataset
	}

	if d.store == nil {
		return nil, lakeq.ErrNoStore
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()

	result, err := d.run(ctx, compiled, lakeq.NormalizeParams(params), dataset)

	if d.recordMetrics {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}

		strategy := compiled.Plan.Strategy.String()
		queriesTotal.WithLabelValues(strategy, outcome).Inc()
		queryDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	}

	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", lakeq.ErrQueryTimeout, d.timeout)
	}

	return result, err
}

func (d *Dispatcher) run(ctx context.Context, compiled *Compiled, params map[string]any, dataset string) (any, error) {
	stmt, err := compiled.Plan.Statement(d.store.Dialect(), params)
	if err != nil {
		return nil, err
	}

	if stmt.CountOnly {
		count, err := d.store.CountByFilter(ctx, dataset, stmt)
		if err != nil {
			return nil, err
		}

		return float64(count), nil
	}

	docs, err := d.store.FetchByFilter(ctx, dataset, stmt)
	if err != nil {
		return nil, err
	}

	if d.maxRows > 0 && len(docs) > d.maxRows {
		return nil, fmt.Errorf("%w: %d candidates over max_rows %d", lakeq.ErrTooManyRows, len(docs), d.maxRows)
	}

	items := make([]any, len(docs))
	for i, doc := range docs {
		items[i] = doc
	}

	if compiled.Plan.Strategy == transpiler.StrategyPushdown {
		return items, nil
	}

	return d.evaluateResidual(ctx, compiled.Plan.Residual, items, params, dataset)
}

// evaluateResidual runs the in-memory part of a plan over the fetched
// candidates. The filter sitting directly on the dataset source runs
// per document on the worker pool; the stages above it evaluate once
// over the survivors.
func (d *Dispatcher) evaluateResidual(ctx context.Context, residual parser.AstNode, items []any, params map[string]any, dataset string) (any, error) {
	fetcher := &datasetFetcher{store: d.store, dataset: dataset}

	if condition, rest, ok := peelBaseFilter(residual); ok {
		filtered, err := d.filterCandidates(ctx, condition, items, params, fetcher)
		if err != nil {
			return nil, err
		}

		items = filtered
		residual = rest
	}

	evalCtx := evaluator.NewContext(ctx, nil).
		WithDataset(items).
		WithParams(params).
		WithFetcher(fetcher)

	return evaluator.Evaluate(evalCtx, residual)
}

// filterCandidates evaluates one filter condition against every
// candidate concurrently. Results keep their fetch order; candidate
// evaluation is independent, so the order of completion never shows.
func (d *Dispatcher) filterCandidates(ctx context.Context, condition parser.AstNode, items []any, params map[string]any, fetcher evaluator.ReferenceFetcher) ([]any, error) {
	if len(items) == 0 {
		return items, nil
	}

	keep := make([]bool, len(items))

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	match := func(i int) {
		defer wg.Done()

		evalCtx := evaluator.NewContext(ctx, items[i]).
			WithDataset(items).
			WithParams(params).
			WithFetcher(fetcher)

		value, err := evaluator.Evaluate(evalCtx, condition)
		if err != nil {
			errOnce.Do(func() { firstErr = err })
			return
		}

		keep[i] = lakeq.IsTruthy(value)
	}

	for i := range items {
		wg.Add(1)

		if err := d.pool.Submit(func() { match(i) }); err != nil {
			// Pool released or overloaded, run on this goroutine.
			match(i)
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	out := make([]any, 0, len(items))

	for i, item := range items {
		if keep[i] {
			out = append(out, item)
		}
	}

	return out, nil
}

// peelBaseFilter splits the filter sitting directly on the dataset
// source from the stages above it. The returned rest is the pipeline
// with that filter removed; ok is false when no such filter exists.
func peelBaseFilter(node parser.AstNode) (condition, rest parser.AstNode, ok bool) {
	switch n := node.(type) {
	case *parser.Filter:
		if _, isSource := n.Base.(*parser.Everything); isSource {
			return n.Condition, n.Base, true
		}

		condition, base, found := peelBaseFilter(n.Base)
		if !found {
			return nil, nil, false
		}

		return condition, parser.NewFilter(base, n.Condition), true
	case *parser.Pipe:
		condition, base, found := peelBaseFilter(n.Base)
		if !found {
			return nil, nil, false
		}

		return condition, parser.NewPipe(base, n.Name, n.Keys, n.Args), true
	case *parser.Slice:
		condition, base, found := peelBaseFilter(n.Base)
		if !found {
			return nil, nil, false
		}

		return condition, parser.NewSlice(base, n.Start, n.End, n.EndInclusive), true
	case *parser.Element:
		condition, base, found := peelBaseFilter(n.Base)
		if !found {
			return nil, nil, false
		}

		return condition, parser.NewElement(base, n.Index), true
	case *parser.Projection:
		condition, base, found := peelBaseFilter(n.Base)
		if !found {
			return nil, nil, false
		}

		return condition, parser.NewProjection(base, n.Fields), true
	case *parser.Dereference:
		condition, base, found := peelBaseFilter(n.Base)
		if !found {
			return nil, nil, false
		}

		return condition, parser.NewDereference(base), true
	case *parser.Attribute:
		if n.Base == nil {
			return nil, nil, false
		}

		condition, base, found := peelBaseFilter(n.Base)
		if !found {
			return nil, nil, false
		}

		return condition, parser.NewAttribute(base, n.Name), true
	case *parser.FunctionCall:
		if len(n.Args) != 1 {
			return nil, nil, false
		}

		condition, base, found := peelBaseFilter(n.Args[0])
		if !found {
			return nil, nil, false
		}

		return condition, parser.NewFunctionCall(n.Namespace, n.Name, []parser.AstNode{base}), true
	default:
		return nil, nil, false
	}
}

// MatchDocument reports whether one document satisfies an expression,
// for grant checks and listener relevance. It runs synchronously with
// no store access: dereferences inside the expression resolve to null.
func MatchDocument(expr parser.AstNode, doc map[string]any, params map[string]any) (bool, error) {
	evalCtx := evaluator.NewContext(context.Background(), lakeq.NormalizeValue(doc)).
		WithParams(lakeq.NormalizeParams(params))

	value, err := evaluator.Evaluate(evalCtx, expr)
	if err != nil {
		return false, err
	}

	return lakeq.IsTruthy(value), nil
}

// datasetFetcher adapts the store to the evaluator's reference lookup.
// Lookup failures read as unresolvable references, not query errors.
type datasetFetcher struct {
	store   *Store
	dataset string
}

func (f *datasetFetcher) FetchByReference(ctx context.Context, id string) (map[string]any, bool) {
	doc, found, err := f.store.FetchByReference(ctx, f.dataset, id)
	if err != nil || !found {
		return nil, false
	}

	return doc, true
}
