// Package tmplcontext implements Context, DataValue, and ContextPublisher
// from spec.md §3/§4.7: scoped databases of named DataValues, with
// literal-flattening and lazy refresh semantics.
//
// Grounded on the teacher's internal/interp/evaluator/context*.go family
// (named-cell lookup with lazy refresh) and internal/jsonvalue (for the
// JSON/YAML literal loaders below).
package tmplcontext

import "github.com/cwbudde/go-tmplkit/internal/value"

// DataGenerator is what a ContextPublisher exposes per name: either an
// already-computed Data (immediate) or a producer invoked lazily.
type DataGenerator struct {
	immediate  *value.Data
	lazy       *value.Generator
}

// Immediate wraps a concrete Data as a generator.
func Immediate(d value.Data) DataGenerator {
	return DataGenerator{immediate: &d}
}

// LazyGen wraps a deferred producer as a generator.
func LazyGen(invariant bool, produce func() value.Data) DataGenerator {
	return DataGenerator{lazy: &value.Generator{Invariant: invariant, Produce: produce}}
}

// DataValue is a context cell: either literal(d) (fixed; never downgraded
// to variable) or variable(generator, cached?) per spec §3.
type DataValue struct {
	literal   bool
	value     value.Data // populated when literal
	generator *value.Generator
	cached    *value.Data // populated once refreshed, for variable cells
}

// NewLiteral builds a fixed DataValue.
func NewLiteral(d value.Data) DataValue {
	return DataValue{literal: true, value: d}
}

// NewVariable builds a variable DataValue from a DataGenerator.
func NewVariable(gen DataGenerator) DataValue {
	if gen.immediate != nil {
		return DataValue{generator: &value.Generator{Invariant: true, Produce: func() value.Data { return *gen.immediate }}}
	}
	return DataValue{generator: gen.lazy}
}

// Cached reports whether dv is literal-non-lazy, or variable-with-cache.
func (dv DataValue) Cached() bool {
	if dv.literal {
		return !dv.value.IsLazy()
	}
	return dv.cached != nil
}

// Flatten forces dv to a literal, discarding generator identity.
func (dv DataValue) Flatten() DataValue {
	if dv.literal {
		return dv
	}
	return NewLiteral(dv.evaluate().Evaluate())
}

// evaluate produces the current Data for dv without mutating cache state.
func (dv DataValue) evaluate() value.Data {
	if dv.literal {
		return dv.value.Evaluate()
	}
	if dv.cached != nil {
		return *dv.cached
	}
	if dv.generator == nil || dv.generator.Produce == nil {
		return value.TrueNil
	}
	return dv.generator.Produce()
}

// Value returns the current Data, using the cache when present.
func (dv DataValue) Value() value.Data { return dv.evaluate() }

// Refresh re-invokes the generator (a no-op for literal cells) and returns
// the updated DataValue with its cache populated.
func (dv DataValue) Refresh() DataValue {
	if dv.literal {
		return dv
	}
	if dv.generator == nil || dv.generator.Produce == nil {
		v := value.TrueNil
		dv.cached = &v
		return dv
	}
	v := dv.generator.Produce()
	dv.cached = &v
	return dv
}

// Uncache drops the memoized Data, retaining the generator.
func (dv DataValue) Uncache() DataValue {
	if dv.literal {
		return dv
	}
	dv.cached = nil
	return dv
}
