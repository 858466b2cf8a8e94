// Package transpiler turns parsed queries into executable plans.
//
// Analyze splits a query pipeline into a prefix the document store can
// answer with SQL and a residual suffix for the in-memory evaluator.
// The split depends on the query text alone, never on parameter
// values, so a plan can be cached under the query text and reused
// across executions; Statement binds the parameters of one execution
// into dialect SQL.
//
// A pushed filter is allowed to over-select when a parameter value
// cannot be compared exactly in SQL. Such plans re-check the complete
// filter in the residual, so the store shrinks the candidate set and
// the evaluator stays the single source of truth. A pushed fragment
// never under-selects; losing a matching document would be
// unrecoverable.
package transpiler

import (
	"github.com/contentlake/lakeq/parser"
	"github.com/contentlake/lakeq/tokenizer"
)

// Strategy says who answers the query.
type Strategy int

const (
	// StrategyPushdown answers entirely from the store.
	StrategyPushdown Strategy = iota
	// StrategyHybrid pushes a candidate filter and finishes in memory.
	StrategyHybrid
	// StrategyMemory scans the whole dataset and evaluates in memory.
	StrategyMemory
)

// String returns string representation of Strategy
func (s Strategy) String() string {
	switch s {
	case StrategyPushdown:
		return "pushdown"
	case StrategyHybrid:
		return "hybrid"
	case StrategyMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// Plan is the cacheable result of analyzing one query. The pushed
// parts are private to this package; Statement renders them against a
// dialect when the query runs.
type Plan struct {
	Strategy Strategy

	// Residual is evaluated over the rows the statement returns, with
	// the fetched candidates standing in for the dataset root. A nil
	// residual means the statement result is the query result.
	Residual parser.AstNode

	// Reasons lists, in pipeline order, why parts of the query stayed
	// in memory. Empty for a full pushdown.
	Reasons []string

	pushed      []parser.AstNode
	approximate bool
	orderKeys   []parser.OrderKey
	orderPushed bool
	limit       int
	offset      int
	countOnly   bool
}

// Analyze classifies a parsed query. It never fails: anything outside
// the pushable subset lands in the residual, and a query that does not
// read the dataset at all becomes a full in-memory plan.
func Analyze(root parser.AstNode) *Plan {
	plan := &Plan{limit: -1}

	if call, ok := root.(*parser.FunctionCall); ok && isCountCall(call) {
		if hasNestedScan(call.Args[0], true) {
			plan.demoteForNestedScan(root)
			return plan
		}

		plan.analyzeCount(call)

		return plan
	}

	if hasNestedScan(root, true) {
		plan.demoteForNestedScan(root)
		return plan
	}

	residual, ok := plan.analyzePipeline(root)
	if !ok {
		plan.Strategy = StrategyMemory
		plan.Residual = root
		plan.Reasons = append(plan.Reasons, "query shape is computed in memory over the full dataset")

		return plan
	}

	if residual.Type() == parser.EVERYTHING {
		plan.Strategy = StrategyPushdown
		return plan
	}

	plan.Strategy = StrategyHybrid
	plan.Residual = residual

	return plan
}

// analyzeCount handles a top-level count(...) over a dataset pipeline.
// When the argument pushes down completely the store counts; otherwise
// the store narrows candidates and count runs over the residual.
func (p *Plan) analyzeCount(call *parser.FunctionCall) {
	residual, ok := p.analyzePipeline(call.Args[0])
	if !ok {
		p.Strategy = StrategyMemory
		p.Residual = call
		p.Reasons = append(p.Reasons, "count argument is not a dataset pipeline")

		return
	}

	if residual.Type() == parser.EVERYTHING && p.limit < 0 {
		p.Strategy = StrategyPushdown
		p.countOnly = true
		p.orderKeys = nil
		p.orderPushed = false

		return
	}

	p.Strategy = StrategyHybrid
	p.Residual = parser.NewFunctionCall(call.Namespace, call.Name, []parser.AstNode{residual})
}

func isCountCall(call *parser.FunctionCall) bool {
	if call.Namespace != "" && call.Namespace != "global" {
		return false
	}

	return call.Name == "count" && len(call.Args) == 1
}

func (p *Plan) demoteForNestedScan(root parser.AstNode) {
	p.Strategy = StrategyMemory
	p.Residual = root
	p.Reasons = append(p.Reasons, "nested dataset scans evaluate over the full dataset in memory")
}

// hasNestedScan reports whether the expression reads the dataset
// anywhere besides the pipeline spine. Pushing a restriction would
// starve such an inner scan of the rows it needs, so these queries
// only run correctly over a full fetch.
func hasNestedScan(node parser.AstNode, spine bool) bool {
	switch n := node.(type) {
	case *parser.Everything:
		return !spine
	case *parser.Filter:
		return hasNestedScan(n.Base, spine) || hasNestedScan(n.Condition, false)
	case *parser.Slice:
		return hasNestedScan(n.Base, spine)
	case *parser.Element:
		return hasNestedScan(n.Base, spine)
	case *parser.Attribute:
		return n.Base != nil && hasNestedScan(n.Base, spine)
	case *parser.Dereference:
		return hasNestedScan(n.Base, spine)
	case *parser.Projection:
		return hasNestedScan(n.Base, spine) || fieldsHaveNestedScan(n.Fields)
	case *parser.ObjectLiteral:
		return fieldsHaveNestedScan(n.Fields)
	case *parser.Pipe:
		if hasNestedScan(n.Base, spine) {
			return true
		}

		for _, key := range n.Keys {
			if hasNestedScan(key.Expr, false) {
				return true
			}
		}

		return anyNestedScan(n.Args)
	case *parser.FunctionCall:
		return anyNestedScan(n.Args)
	case *parser.BinaryOp:
		return hasNestedScan(n.Left, false) || hasNestedScan(n.Right, false)
	case *parser.UnaryOp:
		return hasNestedScan(n.Operand, false)
	case *parser.ArrayLiteral:
		return anyNestedScan(n.Elements)
	default:
		return false
	}
}

func fieldsHaveNestedScan(fields []parser.ObjectField) bool {
	for _, field := range fields {
		if field.Value != nil && hasNestedScan(field.Value, false) {
			return true
		}
	}

	return false
}

func anyNestedScan(nodes []parser.AstNode) bool {
	for _, node := range nodes {
		if hasNestedScan(node, false) {
			return true
		}
	}

	return false
}

// analyzePipeline walks a pipeline down to its dataset root and pushes
// stages from the root outward: filters first, then one order pipe,
// then one slice or element subscript. The returned node is the
// residual pipeline rebased onto a fresh dataset source; a bare
// source means everything pushed. ok is false when the expression is
// not rooted at the dataset.
func (p *Plan) analyzePipeline(root parser.AstNode) (parser.AstNode, bool) {
	stages, sourcePos, ok := pipelineStages(root)
	if !ok {
		return nil, false
	}

	var (
		original []parser.AstNode
		residual []parser.AstNode
	)

	i := 0

	// Consecutive filters conjoin, so their conjuncts classify as one
	// batch.
	for i < len(stages) {
		filter, isFilter := stages[i].(*parser.Filter)
		if !isFilter {
			break
		}

		for _, conjunct := range conjuncts(filter.Condition) {
			original = append(original, conjunct)

			class, reason := classifyPredicate(conjunct)
			switch class {
			case pushExact:
				p.pushed = append(p.pushed, conjunct)
			case pushApprox:
				p.pushed = append(p.pushed, conjunct)
				p.approximate = true
			default:
				residual = append(residual, conjunct)
				p.Reasons = append(p.Reasons, reason)
			}
		}

		i++
	}

	if p.approximate {
		// The pushed filter may keep documents the query rejects, so
		// the evaluator re-applies every conjunct.
		residual = original

		p.Reasons = append(p.Reasons, "parameter values bind at execution, candidates are re-checked in memory")
	}

	pushing := true

	if i < len(stages) {
		if pipe, isPipe := stages[i].(*parser.Pipe); isPipe && pipe.Name == parser.PipeOrder {
			if reason := orderKeysReason(pipe.Keys); reason == "" {
				// A sorted superset stays sorted after the residual
				// filter drops rows, so order pushes even when
				// conjuncts stayed behind.
				p.orderKeys = pipe.Keys
				p.orderPushed = true
				i++
			} else {
				p.Reasons = append(p.Reasons, reason)
				pushing = false
			}
		}
	}

	pushedElement := false

	if pushing && len(residual) == 0 && i < len(stages) {
		switch s := stages[i].(type) {
		case *parser.Slice:
			if s.Start >= 0 && s.End >= 0 {
				p.offset = s.Start
				p.limit = sliceWindow(s)
				i++
			} else {
				p.Reasons = append(p.Reasons, "slice bounds count from the end of the result")
			}
		case *parser.Element:
			if s.Index >= 0 {
				p.offset = s.Index
				p.limit = 1
				pushedElement = true
				i++
			} else {
				p.Reasons = append(p.Reasons, "element index counts from the end of the result")
			}
		}
	}

	if i < len(stages) {
		p.Reasons = append(p.Reasons, stageReason(stages[i]))
	}

	// Rebuild what is left on top of a fresh dataset source.
	rebuilt := parser.NewEverything(sourcePos)

	if len(residual) > 0 {
		rebuilt = parser.NewFilter(rebuilt, joinAnd(residual))
	}

	if pushedElement {
		// The statement fetches a one-row window; unwrapping it to a
		// single document still happens in memory.
		rebuilt = parser.NewElement(rebuilt, 0)
	}

	for ; i < len(stages); i++ {
		rebuilt = rebase(stages[i], rebuilt)
	}

	return rebuilt, true
}

// sliceWindow converts slice bounds to a row count.
func sliceWindow(s *parser.Slice) int {
	window := s.End - s.Start
	if s.EndInclusive {
		window++
	}

	if window < 0 {
		return 0
	}

	return window
}

// pipelineStages unwinds the Base chain of a pipeline into stages
// ordered from the dataset source outward.
func pipelineStages(root parser.AstNode) ([]parser.AstNode, tokenizer.Position, bool) {
	var reversed []parser.AstNode

	current := root

	for {
		switch s := current.(type) {
		case *parser.Everything:
			stages := make([]parser.AstNode, len(reversed))
			for j, st := range reversed {
				stages[len(reversed)-1-j] = st
			}

			return stages, s.Position(), true
		case *parser.Filter:
			reversed = append(reversed, s)
			current = s.Base
		case *parser.Pipe:
			reversed = append(reversed, s)
			current = s.Base
		case *parser.Slice:
			reversed = append(reversed, s)
			current = s.Base
		case *parser.Element:
			reversed = append(reversed, s)
			current = s.Base
		case *parser.Projection:
			reversed = append(reversed, s)
			current = s.Base
		case *parser.Attribute:
			if s.Base == nil {
				return nil, tokenizer.Position{}, false
			}

			reversed = append(reversed, s)
			current = s.Base
		case *parser.Dereference:
			reversed = append(reversed, s)
			current = s.Base
		default:
			return nil, tokenizer.Position{}, false
		}
	}
}

// rebase rebuilds one pipeline stage on top of a new base.
func rebase(stage, base parser.AstNode) parser.AstNode {
	switch s := stage.(type) {
	case *parser.Filter:
		return parser.NewFilter(base, s.Condition)
	case *parser.Pipe:
		return parser.NewPipe(base, s.Name, s.Keys, s.Args)
	case *parser.Slice:
		return parser.NewSlice(base, s.Start, s.End, s.EndInclusive)
	case *parser.Element:
		return parser.NewElement(base, s.Index)
	case *parser.Projection:
		return parser.NewProjection(base, s.Fields)
	case *parser.Attribute:
		return parser.NewAttribute(base, s.Name)
	case *parser.Dereference:
		return parser.NewDereference(base)
	default:
		return stage
	}
}

// stageReason names the first pipeline stage that stops pushdown.
func stageReason(stage parser.AstNode) string {
	switch s := stage.(type) {
	case *parser.Projection:
		return "projection runs in memory"
	case *parser.Pipe:
		if s.Name == parser.PipeScore {
			return "score() runs in memory"
		}

		return "order after an in-memory stage runs in memory"
	case *parser.Filter:
		return "chained filter after a pipe runs in memory"
	case *parser.Slice:
		return "slice after an in-memory stage runs in memory"
	case *parser.Element:
		return "element after an in-memory stage runs in memory"
	case *parser.Dereference:
		return "dereference follows references in memory"
	case *parser.Attribute:
		return "field access on the result runs in memory"
	default:
		return "stage runs in memory"
	}
}

// conjuncts splits a condition on top-level && so each conjunct can
// push or stay behind independently.
func conjuncts(node parser.AstNode) []parser.AstNode {
	if b, ok := node.(*parser.BinaryOp); ok && b.Operator == parser.OpAnd {
		return append(conjuncts(b.Left), conjuncts(b.Right)...)
	}

	return []parser.AstNode{node}
}

func joinAnd(nodes []parser.AstNode) parser.AstNode {
	joined := nodes[0]
	for _, n := range nodes[1:] {
		joined = parser.NewBinaryOp(parser.OpAnd, joined, n)
	}

	return joined
}
