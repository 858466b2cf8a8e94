package lakeq

import "math"

// FunctionSignature defines arity and evaluation rules for a built-in
// query function. The table is consulted by the parser (name and arity
// validation), the evaluator (dispatch) and the transpiler (pushdown
// decision), so the three stages can never disagree about a call site.
type FunctionSignature struct {
	Namespace string // canonical namespace; "" means global
	MinArgs   int
	MaxArgs   int  // math.MaxInt for variadic
	Lazy      bool // arguments evaluated by the function itself, in order
	Pushable  bool // has an equivalent SQL form for every dialect
	Aggregate bool // collapses a whole result set into a scalar
}

// Variadic marks a signature with no upper argument bound.
const Variadic = math.MaxInt

// FunctionSignatures is the process-wide function table. Built once,
// never mutated, safe for unsynchronized concurrent reads.
var FunctionSignatures = map[string]FunctionSignature{
	"count":      {MinArgs: 1, MaxArgs: 1, Pushable: true, Aggregate: true},
	"defined":    {MinArgs: 1, MaxArgs: 1, Pushable: true},
	"coalesce":   {MinArgs: 0, MaxArgs: Variadic, Lazy: true},
	"select":     {MinArgs: 0, MaxArgs: Variadic, Lazy: true},
	"references": {MinArgs: 1, MaxArgs: 1, Pushable: true},
	"upper":      {Namespace: "string", MinArgs: 1, MaxArgs: 1},
	"lower":      {Namespace: "string", MinArgs: 1, MaxArgs: 1},
	"length":     {MinArgs: 1, MaxArgs: 1},
	"round":      {MinArgs: 1, MaxArgs: 2},
	"now":        {MinArgs: 0, MaxArgs: 0},
}

// LookupFunction resolves a possibly namespaced function name against
// the table. The global:: namespace is an alias for the bare name, and
// functions with a canonical namespace are reachable both bare and
// through it (string::upper and upper are the same function).
func LookupFunction(namespace, name string) (FunctionSignature, bool) {
	sig, ok := FunctionSignatures[name]
	if !ok {
		return FunctionSignature{}, false
	}

	switch namespace {
	case "", "global":
		return sig, true
	case sig.Namespace:
		return sig, true
	default:
		return FunctionSignature{}, false
	}
}

// CheckArity reports whether n arguments satisfy the signature.
func (s FunctionSignature) CheckArity(n int) bool {
	return n >= s.MinArgs && n <= s.MaxArgs
}
