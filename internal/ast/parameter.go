// Package ast implements Parameter, Expression, and Tuple — the AST
// substrate of spec.md §3/§4.2–§4.5. The three types live in one package
// because they are mutually recursive (an Expression's operands and a
// Tuple's members are Parameters, and a Parameter's expression/tuple
// variants hold an Expression/Tuple), exactly mirroring how the teacher's
// own internal/ast package keeps its node kinds together.
package ast

import (
	"github.com/cwbudde/go-tmplkit/internal/symbol"
	"github.com/cwbudde/go-tmplkit/internal/tmplerr"
	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/cwbudde/go-tmplkit/internal/variable"
	"github.com/cwbudde/go-tmplkit/internal/varstack"
)

// Variant identifies which of Parameter's container payloads is active.
type Variant uint8

const (
	VariantValue Variant = iota
	VariantKeyword
	VariantOperator
	VariantVariable
	VariantExpression
	VariantTuple
	VariantFunction
)

// Parameter is the discriminated container stored inside the AST, per
// spec §3's table. It is immutable after construction: every factory
// below rematerializes the cached structural fields
// (resolved/invariant/symbols/isLiteral) exactly once at construction
// time, mirroring the teacher's method_registry.go discipline of
// computing derived state once at registration rather than on every read.
type Parameter struct {
	variant Variant

	val value.Data
	kw  Keyword
	op  Operator
	v   variable.Variable
	exp *Expression
	tup *Tuple
	fn  *FunctionCall

	resolved  bool
	invariant bool
	syms      []variable.Variable
	isLiteral bool
}

// Variant reports which payload is active.
func (p Parameter) Variant() Variant { return p.variant }

func (p *Parameter) recompute() {
	switch p.variant {
	case VariantValue:
		p.resolved = true
		if p.val.IsLazy() {
			p.invariant = p.val.Invariant()
		} else {
			p.invariant = true
		}
		p.syms = nil
		p.isLiteral = p.invariant && !p.val.Errored()
	case VariantKeyword:
		p.resolved = p.kw.Evaluable // an evaluable keyword is complete and folds on Resolve; a control token never resolves
		p.invariant = true
		p.syms = nil
		p.isLiteral = false
	case VariantOperator:
		p.resolved = false
		p.invariant = true
		p.syms = nil
		p.isLiteral = false
	case VariantVariable:
		p.resolved = false
		p.invariant = true
		p.syms = p.v.Symbols()
		p.isLiteral = false
	case VariantExpression:
		p.resolved = p.exp.Resolved()
		p.invariant = p.exp.Invariant()
		p.syms = p.exp.Symbols()
		p.isLiteral = false
	case VariantTuple:
		p.resolved = p.tup.resolved()
		p.invariant = p.tup.invariant()
		p.syms = p.tup.symbols()
		p.isLiteral = false
	case VariantFunction:
		p.resolved = p.fn.resolved()
		p.invariant = p.fn.invariant()
		p.syms = p.fn.symbols()
		p.isLiteral = false
	}
}

// NewValue builds a value(d) parameter.
func NewValue(d value.Data) Parameter {
	p := Parameter{variant: VariantValue, val: d}
	p.recompute()
	return p
}

func newKeywordParam(k Keyword) Parameter {
	p := Parameter{variant: VariantKeyword, kw: k}
	p.recompute()
	return p
}

// NewKeywordParam builds a keyword(k) parameter without attempting decay.
func NewKeywordParam(k Keyword) Parameter { return newKeywordParam(k) }

// NewOperatorParam builds an operator(op) parameter. Per spec §3, the
// only use for a standalone operator parameter is the invalid SubOpen
// sentinel; any other operator belongs inside an Expression.
func NewOperatorParam(op Operator) Parameter {
	p := Parameter{variant: VariantOperator, op: op}
	p.recompute()
	return p
}

// NewVariable builds a variable(v) parameter.
func NewVariable(v variable.Variable) Parameter {
	p := Parameter{variant: VariantVariable, v: v}
	p.recompute()
	return p
}

// NewExpressionParam builds an expression(e) parameter.
func NewExpressionParam(e *Expression) Parameter {
	p := Parameter{variant: VariantExpression, exp: e}
	p.recompute()
	return p
}

// NewTupleParam builds a tuple(t) parameter, applying the single-member
// collapse rule of spec §3/§4.2.
func NewTupleParam(members []Parameter, labels []string) Parameter {
	return collapseTuple(members, labels)
}

// NewFunctionParam builds a function(...) parameter.
func NewFunctionParam(fn *FunctionCall) Parameter {
	p := Parameter{variant: VariantFunction, fn: fn}
	p.recompute()
	return p
}

// Resolved reports whether p is structurally complete.
func (p Parameter) Resolved() bool { return p.resolved }

// Invariant reports whether p's evaluation is independent of external
// state.
func (p Parameter) Invariant() bool { return p.invariant }

// Symbols returns the Variable keys p transitively depends on.
func (p Parameter) Symbols() []variable.Variable { return p.syms }

// IsLiteral reports whether p is a non-errored, invariant value(d)
// parameter (spec §8 invariant 1: IsLiteral implies Resolved, Invariant,
// and not errored).
func (p Parameter) IsLiteral() bool { return p.isLiteral }

// Value returns the wrapped Data for a value-variant parameter.
func (p Parameter) Value() value.Data { return p.val }

// Keyword returns the wrapped Keyword for a keyword-variant parameter.
func (p Parameter) Keyword() Keyword { return p.kw }

// Operator returns the wrapped Operator for an operator-variant parameter.
func (p Parameter) Operator() Operator { return p.op }

// VariableRef returns the wrapped Variable for a variable-variant
// parameter.
func (p Parameter) VariableRef() variable.Variable { return p.v }

// Expr returns the wrapped Expression for an expression-variant
// parameter.
func (p Parameter) Expr() *Expression { return p.exp }

// TupleVal returns the wrapped Tuple for a tuple-variant parameter.
func (p Parameter) TupleVal() *Tuple { return p.tup }

// Func returns the wrapped FunctionCall for a function-variant parameter.
func (p Parameter) Func() *FunctionCall { return p.fn }

// isValued reports whether p may produce a value at evaluation time, per
// spec §4.2.
func (p Parameter) isValued() bool {
	switch p.variant {
	case VariantValue, VariantVariable, VariantFunction:
		return true
	case VariantOperator:
		return false
	case VariantTuple:
		return p.tup.isEvaluable()
	case VariantKeyword:
		return p.kw.Evaluable
	case VariantExpression:
		return !p.exp.Op.isCustom()
	default:
		return false
	}
}

// baseType returns a statically-known stored type when provable from
// structure, or nil otherwise, per spec §4.2.
func (p Parameter) baseType() *value.Kind {
	switch p.variant {
	case VariantValue:
		k := p.val.Kind()
		return &k
	case VariantExpression:
		return p.exp.baseType()
	case VariantTuple:
		return p.tup.baseType()
	case VariantFunction:
		if p.fn.Bound != nil {
			return p.fn.Bound.Signature.ReturnType
		}
		return nil
	default:
		return nil
	}
}

// TriState is the tri-valued result spec §4.2's isCollection needs.
type TriState uint8

const (
	TriUnknown TriState = iota
	TriTrue
	TriFalse
)

// isCollection reports, tri-valued, whether p statically produces an
// array or dictionary.
func (p Parameter) isCollection() TriState {
	switch p.variant {
	case VariantValue:
		if p.val.IsCollection() {
			return TriTrue
		}
		return TriFalse
	case VariantExpression:
		bt := p.exp.baseType()
		if bt == nil {
			return TriUnknown
		}
		return boolTri(*bt == value.KindArray || *bt == value.KindDict)
	case VariantFunction:
		if p.fn.Bound == nil || p.fn.Bound.Signature.ReturnType == nil {
			return TriUnknown
		}
		rt := *p.fn.Bound.Signature.ReturnType
		return boolTri(rt == value.KindArray || rt == value.KindDict)
	case VariantTuple:
		if p.tup.isEvaluable() {
			return TriTrue
		}
		return TriFalse
	case VariantVariable:
		if p.v.IsCollection() {
			return TriTrue
		}
		return TriUnknown
	default:
		return TriFalse
	}
}

func boolTri(b bool) TriState {
	if b {
		return TriTrue
	}
	return TriFalse
}

// underestimatedSize is the cheap upper-bound hint of spec §4.2, used by
// the renderer for output preallocation.
func (p Parameter) underestimatedSize() int {
	switch p.variant {
	case VariantValue, VariantFunction:
		return 16
	case VariantOperator, VariantTuple:
		return 0
	case VariantKeyword:
		if p.kw.Evaluable {
			switch p.kw.Name {
			case KeywordTrue:
				return len(KeywordTrue)
			case KeywordFalse:
				return len(KeywordFalse)
			}
		}
		return 0
	default:
		return 0
	}
}

// EstimateSize exposes underestimatedSize to the renderer (spec §6: "to
// the renderer (exposed) ... underestimatedSize for buffer hints").
func (p Parameter) EstimateSize() int { return p.underestimatedSize() }

// Resolve implements spec §4.3: it returns a new parameter of the same
// kind, never weaker, then eagerly folds to a value when the result is
// both resolved and invariant.
func (p Parameter) Resolve(stack *varstack.Stack) Parameter {
	var next Parameter
	switch p.variant {
	case VariantValue, VariantKeyword, VariantOperator:
		next = p
	case VariantVariable:
		d := stack.Match(p.v)
		if !d.Errored() {
			next = NewValue(d)
		} else {
			next = p // kept; it may succeed later
		}
	case VariantExpression:
		next = NewExpressionParam(p.exp.resolve(stack))
	case VariantTuple:
		next = NewTupleParam(p.tup.resolveMembers(stack), p.tup.Labels)
	case VariantFunction:
		next = NewFunctionParam(p.fn.resolve(stack))
	default:
		next = p
	}

	if next.Resolved() && next.Invariant() && next.variant != VariantValue {
		return NewValue(next.Evaluate(stack))
	}
	return next
}

// ResolveSymbol adapts Resolve to the symbol.Symbol interface.
func (p Parameter) ResolveSymbol(stack *varstack.Stack) symbol.Symbol {
	return parameterSymbol{p.Resolve(stack)}
}

// parameterSymbol wraps a Parameter so that Resolve returns a symbol.Symbol.
type parameterSymbol struct{ Parameter }

func (s parameterSymbol) Resolve(stack *varstack.Stack) symbol.Symbol {
	return parameterSymbol{s.Parameter.Resolve(stack)}
}

// Evaluate implements spec §4.4's terminal reduction.
func (p Parameter) Evaluate(stack *varstack.Stack) value.Data {
	switch p.variant {
	case VariantValue:
		return p.val.Evaluate()
	case VariantVariable:
		d := stack.Match(p.v)
		return stack.Decay(d, false)
	case VariantExpression:
		return p.exp.Evaluate(stack)
	case VariantTuple:
		if !p.tup.isEvaluable() {
			return value.Errorf(tmplerr.KindInternalInvariant, "non-evaluable tuple reached evaluation")
		}
		return p.tup.evaluate(stack)
	case VariantFunction:
		return p.fn.evaluate(stack)
	case VariantKeyword:
		if p.kw.Evaluable {
			return p.kw.decay(true).Evaluate(stack)
		}
		return value.Errorf(tmplerr.KindInternalInvariant, "non-evaluable keyword %q reached evaluation", p.kw.Name)
	case VariantOperator:
		return value.Errorf(tmplerr.KindInternalInvariant, "bare operator parameter reached evaluation")
	default:
		return value.TrueNil
	}
}
