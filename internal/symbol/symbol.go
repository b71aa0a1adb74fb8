// Package symbol declares the uniform contract spec.md §3/§4 requires of
// every AST node. internal/ast exposes its Parameter through it via
// Parameter.ResolveSymbol.
package symbol

import (
	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/cwbudde/go-tmplkit/internal/variable"
	"github.com/cwbudde/go-tmplkit/internal/varstack"
)

// Symbol is the resolve/evaluate protocol every AST node implements.
type Symbol interface {
	// Resolved reports whether the node is structurally complete: all
	// overloads bound, all subtrees resolved.
	Resolved() bool
	// Invariant reports whether the node's evaluation is independent of
	// external time/state.
	Invariant() bool
	// Symbols returns the set of Variable keys that must be bound before
	// full evaluation.
	Symbols() []variable.Variable
	// Resolve returns a same-kind node, possibly folded toward a value.
	Resolve(stack *varstack.Stack) Symbol
	// Evaluate returns a concrete Data (possibly an error value).
	Evaluate(stack *varstack.Stack) value.Data
}
