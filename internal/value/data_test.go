package value

import (
	"testing"

	"github.com/cwbudde/go-tmplkit/internal/tmplerr"
)

func TestTrueNilIsVoid(t *testing.T) {
	if TrueNil.Kind() != KindVoid {
		t.Fatalf("TrueNil.Kind() = %v, want Void", TrueNil.Kind())
	}
	if TrueNil.Errored() {
		t.Fatal("TrueNil should not be errored")
	}
}

func TestLazyInvariantMirrorsGenerator(t *testing.T) {
	tests := []struct {
		name      string
		invariant bool
	}{
		{"invariant", true},
		{"volatile", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Lazy(&Generator{Invariant: tt.invariant, Produce: func() Data { return Int(1) }})
			if !d.IsLazy() {
				t.Fatal("expected IsLazy")
			}
			if d.Invariant() != tt.invariant {
				t.Fatalf("Invariant() = %v, want %v", d.Invariant(), tt.invariant)
			}
		})
	}
}

func TestEvaluateForcesLazy(t *testing.T) {
	calls := 0
	d := Lazy(&Generator{Invariant: true, Produce: func() Data {
		calls++
		return Int(42)
	}})

	got := d.Evaluate()
	if got.Kind() != KindInt || got.IntValue() != 42 {
		t.Fatalf("Evaluate() = %+v, want Int(42)", got)
	}
	if calls != 1 {
		t.Fatalf("producer called %d times, want 1", calls)
	}

	// Evaluate on an already-concrete value is a no-op.
	again := got.Evaluate()
	if !again.Equal(got) {
		t.Fatalf("Evaluate() on concrete value changed it: %+v", again)
	}
}

func TestEvaluateNilProducerDoesNotPanic(t *testing.T) {
	d := Lazy(&Generator{Invariant: true, Produce: nil})
	got := d.Evaluate()
	if !got.Errored() {
		t.Fatal("expected errored Data for nil producer")
	}
	if got.Diagnostic().Kind != tmplerr.KindInternalInvariant {
		t.Fatalf("Diagnostic().Kind = %v, want KindInternalInvariant", got.Diagnostic().Kind)
	}
}

func TestErroredNeverEqualsConcrete(t *testing.T) {
	e := Errorf(tmplerr.KindMissingVariable, "boom")
	if e.Equal(TrueNil) || TrueNil.Equal(e) {
		t.Fatal("errored Data must never compare equal to a concrete value")
	}
	if e.Equal(e) {
		t.Fatal("errored Data must never compare equal, even to itself")
	}
}

func TestIsCollection(t *testing.T) {
	tests := []struct {
		name string
		d    Data
		want bool
	}{
		{"array", Array([]Data{Int(1)}), true},
		{"dict", Dict([]string{"a"}, map[string]Data{"a": Int(1)}), true},
		{"string", String("x"), false},
		{"void", TrueNil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.IsCollection(); got != tt.want {
				t.Errorf("IsCollection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArrayEquality(t *testing.T) {
	a := Array([]Data{Int(1), String("x")})
	b := Array([]Data{Int(1), String("x")})
	c := Array([]Data{Int(1), String("y")})

	if !a.Equal(b) {
		t.Fatal("expected equal arrays to compare equal")
	}
	if a.Equal(c) {
		t.Fatal("expected differing arrays to compare unequal")
	}
}

func TestDictStringSortsKeys(t *testing.T) {
	d := Dict([]string{"b", "a"}, map[string]Data{"a": Int(1), "b": Int(2)})
	// String() sorts keys for determinism regardless of insertion order.
	got := d.String()
	want := "{a: 1, b: 2}"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestCompareStrings(t *testing.T) {
	if Compare(String("a"), String("b")) >= 0 {
		t.Fatal("expected \"a\" < \"b\"")
	}
	if Compare(String("b"), String("a")) <= 0 {
		t.Fatal("expected \"b\" > \"a\"")
	}
	if Compare(String("a"), String("a")) != 0 {
		t.Fatal("expected \"a\" == \"a\"")
	}
}

func TestCompareNumeric(t *testing.T) {
	if Compare(Int(1), Double(2.5)) >= 0 {
		t.Fatal("expected 1 < 2.5")
	}
	if Compare(Double(3.5), Int(2)) <= 0 {
		t.Fatal("expected 3.5 > 2")
	}
}
