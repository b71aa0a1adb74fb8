package ast

import (
	"testing"

	"github.com/cwbudde/go-tmplkit/internal/entities"
	"github.com/cwbudde/go-tmplkit/internal/tmplcontext"
	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/cwbudde/go-tmplkit/internal/variable"
	"github.com/cwbudde/go-tmplkit/internal/varstack"
)

func newUpperEntity(reg *entities.Registry) {
	intKind := value.KindString
	reg.Register(entities.Entity{
		Kind: entities.KindFunction,
		Name: "Upper",
		Signature: entities.Signature{
			ParamTypes: []*value.Kind{&intKind},
			Invariant:  true,
			ReturnType: ptrKind(value.KindString),
		},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			return value.String(upper(call.Positional[0].StringValue())), nil
		},
	})
}

func ptrKind(k value.Kind) *value.Kind { return &k }

func upper(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = c - ('a' - 'A')
		}
	}
	return string(out)
}

func TestFunctionCallBindsSingleOverload(t *testing.T) {
	reg := entities.NewRegistry()
	newUpperEntity(reg)

	fc := &FunctionCall{
		Name:     "Upper",
		Registry: reg,
		Args:     &Tuple{Members: []Parameter{NewValue(value.String("abc"))}},
	}

	ctx := tmplcontext.New(tmplcontext.Policy{})
	stack := varstack.New(ctx)

	resolved := fc.resolve(stack)
	if resolved.Bound == nil {
		t.Fatalf("a single matching overload must bind immediately on resolve")
	}

	got := resolved.evaluate(stack)
	if got.StringValue() != "ABC" {
		t.Fatalf("expected ABC, got %v", got)
	}
}

func TestFunctionCallNoMatchErrorsAtEvaluation(t *testing.T) {
	reg := entities.NewRegistry()
	newUpperEntity(reg)

	fc := &FunctionCall{
		Name:     "Upper",
		Registry: reg,
		Args:     &Tuple{Members: []Parameter{NewValue(value.Int(1))}},
	}

	ctx := tmplcontext.New(tmplcontext.Policy{})
	stack := varstack.New(ctx)

	got := fc.evaluate(stack)
	if !got.Errored() {
		t.Fatalf("calling Upper with a mismatched argument type must fail to bind")
	}
}

func TestFunctionCallAmbiguousStaysDynamic(t *testing.T) {
	reg := entities.NewRegistry()
	anyKind := (*value.Kind)(nil)
	reg.Register(entities.Entity{
		Kind: entities.KindFunction, Name: "Echo",
		Signature: entities.Signature{ParamTypes: []*value.Kind{anyKind}, Invariant: true},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			return call.Positional[0], nil
		},
	})
	reg.Register(entities.Entity{
		Kind: entities.KindFunction, Name: "Echo",
		Signature: entities.Signature{ParamTypes: []*value.Kind{anyKind}, Invariant: true},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			return call.Positional[0], nil
		},
	})

	fc := &FunctionCall{
		Name:     "Echo",
		Registry: reg,
		Args:     &Tuple{Members: []Parameter{NewValue(value.Int(1))}},
	}

	ctx := tmplcontext.New(tmplcontext.Policy{})
	stack := varstack.New(ctx)

	resolved := fc.resolve(stack)
	if resolved.Bound != nil {
		t.Fatalf("two equally matching overloads must stay dynamic, not bind")
	}
	if len(resolved.Dynamic) != 2 {
		t.Fatalf("expected 2 dynamic candidates, got %d", len(resolved.Dynamic))
	}
}

func TestFunctionCallMutatingMethodUpdatesReceiver(t *testing.T) {
	reg := entities.NewRegistry()
	stringKind := value.KindString
	reg.Register(entities.Entity{
		Kind: entities.KindMethod, Name: "Append",
		Signature: entities.Signature{
			ParamTypes: []*value.Kind{&stringKind},
			Mutating:   true,
		},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			updated := value.String("base" + call.Positional[0].StringValue())
			return value.TrueNil, &updated
		},
	})

	ctx := tmplcontext.New(tmplcontext.Policy{})
	ctx.SetLiteral("", "x", value.String("base"))
	stack := varstack.New(ctx)

	recv := variable.New("", "x")
	fc := &FunctionCall{
		Name:     "Append",
		Method:   MethodSlotMutating,
		Receiver: &recv,
		Registry: reg,
		Args:     &Tuple{Members: []Parameter{NewValue(value.String("!"))}},
	}

	fc.evaluate(stack)

	got, ok := ctx.Lookup(recv)
	if !ok {
		t.Fatalf("expected receiver variable to still be defined")
	}
	if got.StringValue() != "base!" {
		t.Fatalf("expected mutating method to write back \"base!\", got %v", got)
	}
}

func TestFunctionCallNilUpdateMeansNoMutation(t *testing.T) {
	reg := entities.NewRegistry()
	reg.Register(entities.Entity{
		Kind: entities.KindMethod, Name: "Peek",
		Signature: entities.Signature{Mutating: true},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			return value.Int(1), nil
		},
	})

	ctx := tmplcontext.New(tmplcontext.Policy{})
	ctx.SetLiteral("", "x", value.String("unchanged"))
	stack := varstack.New(ctx)

	recv := variable.New("", "x")
	fc := &FunctionCall{
		Name: "Peek", Method: MethodSlotMutating, Receiver: &recv,
		Registry: reg,
	}

	result := fc.evaluate(stack)
	if result.IntValue() != 1 {
		t.Fatalf("expected the method's own return value, got %v", result)
	}
	got, _ := ctx.Lookup(recv)
	if got.StringValue() != "unchanged" {
		t.Fatalf("a nil update must leave the receiver untouched, got %v", got)
	}
}

func TestFunctionCallEvaluateBuiltinUsesDefinition(t *testing.T) {
	ctx := tmplcontext.New(tmplcontext.Policy{})
	stack := varstack.New(ctx)
	stack.DefineBlock("Greeting", value.String("hello"))

	fc := &FunctionCall{
		Name:       "Evaluate",
		DefineName: "Greeting",
	}

	got := fc.evaluate(stack)
	if got.StringValue() != "hello" {
		t.Fatalf("expected the bound definition's value, got %v", got)
	}
}

func TestFunctionCallEvaluateBuiltinFallsBackToDefault(t *testing.T) {
	ctx := tmplcontext.New(tmplcontext.Policy{})
	stack := varstack.New(ctx)

	def := NewValue(value.String("fallback"))
	fc := &FunctionCall{
		Name:       "Evaluate",
		DefineName: "Missing",
		Default:    &def,
	}

	got := fc.evaluate(stack)
	if got.StringValue() != "fallback" {
		t.Fatalf("expected the default value when no definition is bound, got %v", got)
	}
}

func TestFunctionCallEvaluateBuiltinErrorsWithNoDefault(t *testing.T) {
	ctx := tmplcontext.New(tmplcontext.Policy{})
	stack := varstack.New(ctx)

	fc := &FunctionCall{Name: "Evaluate", DefineName: "Missing"}
	got := fc.evaluate(stack)
	if !got.Errored() {
		t.Fatalf("an undefined Evaluate with no default must error")
	}
}

func TestFunctionCallVoidNonOptionalArgumentSoftDecays(t *testing.T) {
	reg := entities.NewRegistry()
	intKind := value.KindInt
	reg.Register(entities.Entity{
		Kind: entities.KindFunction, Name: "Needs",
		Signature: entities.Signature{
			ParamTypes: []*value.Kind{&intKind},
			Optional:   []bool{false},
		},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			if call.Positional[0].Kind() == value.KindVoid {
				return value.String("got-void"), nil
			}
			return value.String("got-int"), nil
		},
	})

	ctx := tmplcontext.New(tmplcontext.Policy{})
	stack := varstack.New(ctx)

	voidArg := NewValue(value.TrueNil)
	fc := &FunctionCall{
		Name: "Needs", Registry: reg,
		Args: &Tuple{Members: []Parameter{voidArg}},
	}

	got := fc.evaluate(stack)
	if got.StringValue() != "got-void" {
		t.Fatalf("expected a type-check to accept void here, got %v", got)
	}
}
