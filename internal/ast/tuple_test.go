package ast

import (
	"testing"

	"github.com/cwbudde/go-tmplkit/internal/tmplcontext"
	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/cwbudde/go-tmplkit/internal/variable"
	"github.com/cwbudde/go-tmplkit/internal/varstack"
)

func TestTupleCollapseNestedSingleMember(t *testing.T) {
	innermost := NewValue(value.Int(9))
	middle := NewTupleParam([]Parameter{innermost}, nil)
	p := NewTupleParam([]Parameter{middle}, nil)
	if p.Variant() != VariantValue || p.Value().IntValue() != 9 {
		t.Fatalf("nested single-member tuples must collapse through to the innermost value, got %+v", p)
	}
}

func TestTupleLabeledIsDict(t *testing.T) {
	members := []Parameter{NewValue(value.Int(1)), NewValue(value.Int(2))}
	p := NewTupleParam(members, []string{"a", "b"})
	if p.Variant() != VariantTuple {
		t.Fatalf("a two-member labeled tuple must not collapse, got variant %d", p.Variant())
	}
	if !p.TupleVal().isDict() {
		t.Fatalf("a fully labeled tuple must report isDict")
	}
}

func TestTupleUnlabeledIsArray(t *testing.T) {
	members := []Parameter{NewValue(value.Int(1)), NewValue(value.Int(2))}
	p := NewTupleParam(members, nil)
	if p.TupleVal().isDict() {
		t.Fatalf("an unlabeled multi-member tuple must not be a dict")
	}
	bt := p.TupleVal().baseType()
	if bt == nil || *bt != value.KindArray {
		t.Fatalf("expected array base type, got %v", bt)
	}
}

func TestTupleEvaluateBuildsArray(t *testing.T) {
	ctx := tmplcontext.New(tmplcontext.Policy{})
	stack := varstack.New(ctx)
	members := []Parameter{NewValue(value.Int(1)), NewValue(value.Int(2))}
	p := NewTupleParam(members, nil)
	got := p.Evaluate(stack)
	if got.Kind() != value.KindArray || len(got.ArrayValue()) != 2 {
		t.Fatalf("expected a 2-element array, got %v", got)
	}
}

func TestTupleEvaluateBuildsDict(t *testing.T) {
	ctx := tmplcontext.New(tmplcontext.Policy{})
	stack := varstack.New(ctx)
	members := []Parameter{NewValue(value.String("x")), NewValue(value.Int(2))}
	p := NewTupleParam(members, []string{"a", "b"})
	got := p.Evaluate(stack)
	if got.Kind() != value.KindDict {
		t.Fatalf("expected a dict, got %v", got)
	}
	dct, order := got.DictValue()
	if dct["a"].StringValue() != "x" || dct["b"].IntValue() != 2 {
		t.Fatalf("unexpected dict contents: %v", dct)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("expected preserved key order [a b], got %v", order)
	}
}

func TestTupleEvaluateSoftDecaysErroredMember(t *testing.T) {
	ctx := tmplcontext.New(tmplcontext.Policy{}) // soft policy
	stack := varstack.New(ctx)

	badVar := NewVariable(variable.New("", "missing"))
	members := []Parameter{NewValue(value.Int(1)), badVar}
	p := NewTupleParam(members, nil)

	got := p.Evaluate(stack)
	if got.Errored() {
		t.Fatalf("soft policy must not propagate an errored member through a collection")
	}
	arr := got.ArrayValue()
	if len(arr) != 2 || arr[1].Kind() != value.KindVoid {
		t.Fatalf("errored member should decay to void under soft policy, got %v", arr)
	}
}

func TestTupleEvaluateStrictPropagatesErroredMember(t *testing.T) {
	ctx := tmplcontext.New(tmplcontext.Policy{MissingVariableThrows: true})
	stack := varstack.New(ctx)

	badVar := NewVariable(variable.New("", "missing"))
	members := []Parameter{NewValue(value.Int(1)), badVar}
	p := NewTupleParam(members, nil)

	got := p.Evaluate(stack)
	if !got.Errored() {
		t.Fatalf("strict policy must propagate an errored member as the tuple's own result")
	}
}

func TestTupleIsEvaluableRejectsBareOperator(t *testing.T) {
	members := []Parameter{NewOperatorParam(NewOperator(OpAdd))}
	tup := &Tuple{Members: members}
	if tup.isEvaluable() {
		t.Fatalf("a tuple containing a bare operator parameter must not be evaluable")
	}
}
