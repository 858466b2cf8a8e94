package evaluator

import (
	"context"
	"time"
)

// Recursion guard for scope nesting. Parse-time limits bound the AST,
// this bounds runtime nesting through dereference chains.
const maxScopeDepth = 128

// ReferenceFetcher resolves a document id to its value during
// dereference evaluation. A nil fetcher turns every dereference into
// null, which is what grant matching wants.
type ReferenceFetcher interface {
	FetchByReference(ctx context.Context, id string) (map[string]any, bool)
}

// EvalContext carries the state of one evaluation: the value currently
// in scope (@), the chain of enclosing scopes (^), parameter bindings,
// the dataset backing *, and the dereference capability. Contexts form
// a tree; shared fields are set on the root and inherited by children.
type EvalContext struct {
	goCtx   context.Context
	current any
	parent  *EvalContext
	params  map[string]any
	dataset []any
	fetcher ReferenceFetcher
	now     time.Time
	depth   int
}

// NewContext creates a root context. current is the value @ resolves
// to before any rebinding, typically nil for dataset queries and the
// document value for grant matching.
func NewContext(goCtx context.Context, current any) *EvalContext {
	if goCtx == nil {
		goCtx = context.Background()
	}

	return &EvalContext{
		goCtx:   goCtx,
		current: current,
		now:     time.Now().UTC(),
	}
}

// WithParams sets the $name bindings. Returns the context for chaining
// during setup; bindings are read-only afterwards.
func (c *EvalContext) WithParams(params map[string]any) *EvalContext {
	c.params = params
	return c
}

// WithDataset sets the documents * evaluates to.
func (c *EvalContext) WithDataset(dataset []any) *EvalContext {
	c.dataset = dataset
	return c
}

// WithFetcher sets the dereference capability.
func (c *EvalContext) WithFetcher(fetcher ReferenceFetcher) *EvalContext {
	c.fetcher = fetcher
	return c
}

// Child creates a scope with @ rebound to current. The previous scope
// stays reachable through ^.
func (c *EvalContext) Child(current any) *EvalContext {
	return &EvalContext{
		goCtx:   c.goCtx,
		current: current,
		parent:  c,
		params:  c.params,
		dataset: c.dataset,
		fetcher: c.fetcher,
		now:     c.now,
		depth:   c.depth + 1,
	}
}

// Current returns the value @ resolves to.
func (c *EvalContext) Current() any {
	return c.current
}

// ParentValue returns the value ^ resolves to, nil at the root.
func (c *EvalContext) ParentValue() any {
	if c.parent == nil {
		return nil
	}

	return c.parent.current
}

// Param returns the binding for $name.
func (c *EvalContext) Param(name string) (any, bool) {
	value, ok := c.params[name]
	return value, ok
}

// Now returns the query's evaluation timestamp. It is fixed when the
// root context is created so now() is constant within one query.
func (c *EvalContext) Now() time.Time {
	return c.now
}
