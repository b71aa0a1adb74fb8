package ast

import (
	"strconv"

	"github.com/cwbudde/go-tmplkit/internal/tmplerr"
	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/cwbudde/go-tmplkit/internal/variable"
	"github.com/cwbudde/go-tmplkit/internal/varstack"
)

// Expression is the constrained 1-3 operand tree of spec §3/§4.5. It
// caches baseType, resolved, invariant, and symbols derived from its
// operands, recomputed once at construction (NewExpression) and again at
// each Resolve, matching Parameter's state-cache discipline.
type Expression struct {
	Op       Operator
	Operands []Parameter

	resolvedCache  bool
	invariantCache bool
	symbolsCache   []variable.Variable
}

// NewExpression builds an Expression, enforcing the operator's arity:
// ternary is the only 3-operand form, logical not the only 1-operand
// form, and every other operator takes 2 operands.
func NewExpression(op Operator, operands []Parameter) *Expression {
	want := op.arity()
	if len(operands) != want {
		panic("ast: expression operator requires exactly " + strconv.Itoa(want) + " operands")
	}
	if op.isSubOpen() {
		panic("ast: subOpen can never appear in a finished expression")
	}
	e := &Expression{Op: op, Operands: operands}
	e.recompute()
	return e
}

func (e *Expression) recompute() {
	resolved := true
	invariant := true
	var syms []variable.Variable
	for _, operand := range e.Operands {
		if !operand.Resolved() {
			resolved = false
		}
		if !operand.Invariant() {
			invariant = false
		}
		syms = append(syms, operand.Symbols()...)
	}
	e.resolvedCache = resolved
	e.invariantCache = invariant
	e.symbolsCache = syms
}

// Resolved reports whether every operand is resolved.
func (e *Expression) Resolved() bool { return e.resolvedCache }

// Invariant reports whether every operand is invariant.
func (e *Expression) Invariant() bool { return e.invariantCache }

// Symbols returns the union of every operand's symbols.
func (e *Expression) Symbols() []variable.Variable { return e.symbolsCache }

// baseType returns a statically-known result type forced by the operator,
// when provable.
func (e *Expression) baseType() *value.Kind {
	switch e.Op.Symbol {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpAnd, OpOr, OpNot:
		k := value.KindBool
		return &k
	case OpConcat:
		k := value.KindString
		return &k
	case OpDiv:
		if numericBaseType(e.Operands) == nil {
			return nil
		}
		k := value.KindDouble
		return &k
	case OpAdd, OpSub, OpMul, OpMod:
		return numericBaseType(e.Operands)
	default:
		return nil
	}
}

func numericBaseType(operands []Parameter) *value.Kind {
	var allInt = true
	for _, o := range operands {
		bt := o.baseType()
		if bt == nil {
			return nil
		}
		if *bt != value.KindInt {
			allInt = false
		}
		if *bt != value.KindInt && *bt != value.KindDouble {
			return nil
		}
	}
	k := value.KindDouble
	if allInt {
		k = value.KindInt
	}
	return &k
}

// resolve resolves every operand and rebuilds the Expression, per spec
// §4.3.
func (e *Expression) resolve(stack *varstack.Stack) *Expression {
	resolved := make([]Parameter, len(e.Operands))
	for i, operand := range e.Operands {
		resolved[i] = operand.Resolve(stack)
	}
	return NewExpression(e.Op, resolved)
}

// Evaluate delegates operator semantics, applying the soft-error policy of
// spec §4.4 to each operand before combining them.
func (e *Expression) Evaluate(stack *varstack.Stack) value.Data {
	operands := make([]value.Data, len(e.Operands))
	for i, p := range e.Operands {
		d := p.Evaluate(stack)
		if d.Errored() {
			if stack.Context.Policy.MissingVariableThrows {
				return d
			}
			d = value.TrueNil
		}
		operands[i] = d
	}

	switch e.Op.Symbol {
	case OpAdd:
		return arith(operands[0], operands[1], func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }, true)
	case OpSub:
		return arith(operands[0], operands[1], func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }, false)
	case OpMul:
		return arith(operands[0], operands[1], func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }, false)
	case OpDiv:
		return divide(operands[0], operands[1])
	case OpMod:
		return modulo(operands[0], operands[1])
	case OpConcat:
		return value.String(operands[0].String() + operands[1].String())
	case OpEq:
		return value.Bool(operands[0].Equal(operands[1]))
	case OpNe:
		return value.Bool(!operands[0].Equal(operands[1]))
	case OpLt:
		return value.Bool(value.Compare(operands[0], operands[1]) < 0)
	case OpLe:
		return value.Bool(value.Compare(operands[0], operands[1]) <= 0)
	case OpGt:
		return value.Bool(value.Compare(operands[0], operands[1]) > 0)
	case OpGe:
		return value.Bool(value.Compare(operands[0], operands[1]) >= 0)
	case OpAnd:
		return value.Bool(truthy(operands[0]) && truthy(operands[1]))
	case OpOr:
		return value.Bool(truthy(operands[0]) || truthy(operands[1]))
	case OpNot:
		return value.Bool(!truthy(operands[0]))
	case OpTernary:
		if truthy(operands[0]) {
			return operands[1]
		}
		return operands[2]
	case OpSubscript:
		return subscript(operands[0], operands[1])
	default:
		return value.Errorf(tmplerr.KindInternalInvariant, "unrecognized operator %q reached evaluation", e.Op.Symbol)
	}
}

func truthy(d value.Data) bool {
	switch d.Kind() {
	case value.KindBool:
		return d.BoolValue()
	case value.KindVoid:
		return false
	case value.KindInt:
		return d.IntValue() != 0
	case value.KindString:
		return d.StringValue() != ""
	default:
		return true
	}
}

func arith(a, b value.Data, intOp func(int64, int64) int64, floatOp func(float64, float64) float64, allowConcat bool) value.Data {
	if allowConcat && (a.Kind() == value.KindString || b.Kind() == value.KindString) {
		return value.String(a.String() + b.String())
	}
	if a.Kind() == value.KindInt && b.Kind() == value.KindInt {
		return value.Int(intOp(a.IntValue(), b.IntValue()))
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return value.Errorf(tmplerr.KindTypeMismatch, "arithmetic operator requires numeric operands")
	}
	return value.Double(floatOp(af, bf))
}

func divide(a, b value.Data) value.Data {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return value.Errorf(tmplerr.KindTypeMismatch, "division requires numeric operands")
	}
	if bf == 0 {
		return value.Errorf(tmplerr.KindTypeMismatch, "division by zero")
	}
	return value.Double(af / bf)
}

func modulo(a, b value.Data) value.Data {
	if a.Kind() == value.KindInt && b.Kind() == value.KindInt {
		if b.IntValue() == 0 {
			return value.Errorf(tmplerr.KindTypeMismatch, "modulo by zero")
		}
		return value.Int(a.IntValue() % b.IntValue())
	}
	return value.Errorf(tmplerr.KindTypeMismatch, "modulo requires integer operands")
}

func asFloat(d value.Data) (float64, bool) {
	switch d.Kind() {
	case value.KindInt:
		return float64(d.IntValue()), true
	case value.KindDouble:
		return d.DoubleValue(), true
	default:
		return 0, false
	}
}

func subscript(collection, index value.Data) value.Data {
	switch collection.Kind() {
	case value.KindArray:
		arr := collection.ArrayValue()
		if index.Kind() != value.KindInt {
			return value.Errorf(tmplerr.KindTypeMismatch, "array subscript requires an integer index")
		}
		i := index.IntValue()
		if i < 0 || i >= int64(len(arr)) {
			return value.Errorf(tmplerr.KindTypeMismatch, "array subscript out of range")
		}
		return arr[i]
	case value.KindDict:
		dct, _ := collection.DictValue()
		if index.Kind() != value.KindString {
			return value.Errorf(tmplerr.KindTypeMismatch, "dictionary subscript requires a string key")
		}
		v, ok := dct[index.StringValue()]
		if !ok {
			return value.TrueNil
		}
		return v
	default:
		return value.Errorf(tmplerr.KindTypeMismatch, "subscript requires a collection")
	}
}
