package stdlib

import (
	"testing"

	"github.com/cwbudde/go-tmplkit/internal/entities"
	"github.com/cwbudde/go-tmplkit/internal/value"
)

func call(t *testing.T, reg *entities.Registry, kind entities.Kind, name string, args ...value.Data) value.Data {
	t.Helper()
	shapes := make([]entities.ArgShape, len(args))
	for i, a := range args {
		k := a.Kind()
		shapes[i] = entities.ArgShape{BaseType: &k}
	}
	var matches []*entities.Entity
	var err error
	if kind == entities.KindFunction {
		matches, err = reg.ValidateFunction(name, shapes)
	} else {
		matches, err = reg.ValidateMethod(name, shapes, false)
	}
	if err != nil {
		t.Fatalf("no overload of %q matched: %v", name, err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected exactly one match for %q, got %d", name, len(matches))
	}
	result, _ := matches[0].Invoke(entities.CallValues{Positional: args}, nil)
	return result
}

func TestOrdBoolIntString(t *testing.T) {
	reg := entities.NewRegistry()
	RegisterDefaults(reg)

	if got := call(t, reg, entities.KindFunction, "Ord", value.Bool(true)); got.IntValue() != 1 {
		t.Fatalf("expected Ord(true) == 1, got %v", got)
	}
	if got := call(t, reg, entities.KindFunction, "Ord", value.String("A")); got.IntValue() != 65 {
		t.Fatalf("expected Ord('A') == 65, got %v", got)
	}
	if got := call(t, reg, entities.KindFunction, "Ord", value.Int(7)); got.IntValue() != 7 {
		t.Fatalf("expected Ord(7) == 7, got %v", got)
	}
}

func TestChrRoundTripsWithOrd(t *testing.T) {
	reg := entities.NewRegistry()
	RegisterDefaults(reg)

	got := call(t, reg, entities.KindFunction, "Chr", value.Int(65))
	if got.StringValue() != "A" {
		t.Fatalf("expected Chr(65) == \"A\", got %v", got)
	}
}

func TestParseJSONAndToJSONRoundTrip(t *testing.T) {
	reg := entities.NewRegistry()
	RegisterDefaults(reg)

	parsed := call(t, reg, entities.KindFunction, "ParseJSON", value.String(`{"a":1,"b":[2,3]}`))
	if parsed.Kind() != value.KindDict {
		t.Fatalf("expected a dict, got %v", parsed)
	}

	serialized := call(t, reg, entities.KindFunction, "ToJSON", parsed)
	if serialized.Kind() != value.KindString {
		t.Fatalf("expected a string, got %v", serialized)
	}

	reparsed := call(t, reg, entities.KindFunction, "ParseJSON", serialized)
	if !reparsed.Equal(parsed) {
		t.Fatalf("round-tripped JSON should be equal, got %v vs %v", reparsed, parsed)
	}
}

func TestJSONHasFieldKeysValuesLength(t *testing.T) {
	reg := entities.NewRegistry()
	RegisterDefaults(reg)

	obj := value.Dict([]string{"x", "y"}, map[string]value.Data{
		"x": value.Int(1),
		"y": value.Int(2),
	})

	if got := call(t, reg, entities.KindFunction, "JSONHasField", obj, value.String("x")); !got.BoolValue() {
		t.Fatalf("expected JSONHasField(obj, \"x\") to be true")
	}
	if got := call(t, reg, entities.KindFunction, "JSONHasField", obj, value.String("z")); got.BoolValue() {
		t.Fatalf("expected JSONHasField(obj, \"z\") to be false")
	}

	keys := call(t, reg, entities.KindFunction, "JSONKeys", obj)
	if len(keys.ArrayValue()) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}

	values := call(t, reg, entities.KindFunction, "JSONValues", obj)
	if len(values.ArrayValue()) != 2 {
		t.Fatalf("expected 2 values, got %v", values)
	}

	length := call(t, reg, entities.KindFunction, "JSONLength", obj)
	if length.IntValue() != 2 {
		t.Fatalf("expected length 2, got %v", length)
	}
}

func TestJSONLengthOnArray(t *testing.T) {
	reg := entities.NewRegistry()
	RegisterDefaults(reg)

	arr := value.Array([]value.Data{value.Int(1), value.Int(2), value.Int(3)})
	length := call(t, reg, entities.KindFunction, "JSONLength", arr)
	if length.IntValue() != 3 {
		t.Fatalf("expected length 3, got %v", length)
	}
}
