// Package stdlib registers the small set of builtin functions every
// Engine carries by default: ordinal conversions and JSON
// marshal/query helpers. Grounded on the teacher's internal/builtins
// package, whose Context-interface-based functions (Ord, ParseJSON,
// ToJSON, JSONHasField, JSONKeys, JSONValues, JSONLength) this package
// re-expresses directly over value.Data instead of runtime.Value, since
// this module has no separate runtime value representation to bridge.
package stdlib

import (
	"encoding/json"
	"sort"

	"github.com/cwbudde/go-tmplkit/internal/entities"
	"github.com/cwbudde/go-tmplkit/internal/tmplerr"
	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/tidwall/gjson"
)

// RegisterDefaults registers every builtin function onto reg. Safe to
// call on an empty registry. The entities registry resolves by matching
// signature, not by insertion order, so a second function registered
// under a builtin's name with an overlapping signature does not shadow
// the builtin: both match, and calls to that name become ambiguous.
func RegisterDefaults(reg *entities.Registry) {
	registerOrdinals(reg)
	registerJSON(reg)
}

func ptrKind(k value.Kind) *value.Kind { return &k }

// registerOrdinals adapts the teacher's Ord builtin, plus the natural
// Chr counterpart it implies (internal/builtins/ordinal.go documents
// both as migrated from the interpreter's ordinal-value family; only
// Ord survived the retrieval, so Chr is written in the same style).
func registerOrdinals(reg *entities.Registry) {
	anyKind := (*value.Kind)(nil)
	reg.Register(entities.Entity{
		Kind: entities.KindFunction,
		Name: "Ord",
		Signature: entities.Signature{
			ParamTypes: []*value.Kind{anyKind},
			Invariant:  true,
			ReturnType: ptrKind(value.KindInt),
		},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			arg := call.Positional[0]
			switch arg.Kind() {
			case value.KindBool:
				if arg.BoolValue() {
					return value.Int(1), nil
				}
				return value.Int(0), nil
			case value.KindInt:
				return value.Int(arg.IntValue()), nil
			case value.KindString:
				s := arg.StringValue()
				if s == "" {
					return value.Int(0), nil
				}
				runes := []rune(s)
				return value.Int(int64(runes[0])), nil
			default:
				return value.Errorf(tmplerr.KindTypeMismatch, "Ord() expects a boolean, integer, or string, got %s", arg.Kind()), nil
			}
		},
	})

	stringKind := value.KindString
	intKind := value.KindInt
	reg.Register(entities.Entity{
		Kind: entities.KindFunction,
		Name: "Chr",
		Signature: entities.Signature{
			ParamTypes: []*value.Kind{&intKind},
			Invariant:  true,
			ReturnType: &stringKind,
		},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			return value.String(string(rune(call.Positional[0].IntValue()))), nil
		},
	})
}

// registerJSON adapts the teacher's JSON builtins: ParseJSON, ToJSON,
// JSONHasField, JSONKeys, JSONValues, JSONLength, built over
// tidwall/gjson instead of a DWScript-specific JSON value tree (spec's
// context loading already uses gjson for the same reason, see
// internal/tmplcontext/loaders.go).
func registerJSON(reg *entities.Registry) {
	stringKind := value.KindString
	anyKind := (*value.Kind)(nil)

	reg.Register(entities.Entity{
		Kind: entities.KindFunction,
		Name: "ParseJSON",
		Signature: entities.Signature{
			ParamTypes: []*value.Kind{&stringKind},
		},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			s := call.Positional[0].StringValue()
			if !gjson.Valid(s) {
				return value.Errorf(tmplerr.KindTypeMismatch, "ParseJSON() received invalid JSON"), nil
			}
			return gjsonToData(gjson.Parse(s)), nil
		},
	})

	reg.Register(entities.Entity{
		Kind: entities.KindFunction,
		Name: "ToJSON",
		Signature: entities.Signature{
			ParamTypes: []*value.Kind{anyKind},
			ReturnType: &stringKind,
		},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			out, err := json.Marshal(dataToAny(call.Positional[0]))
			if err != nil {
				return value.Errorf(tmplerr.KindInternalInvariant, "ToJSON() failed to serialize: %s", err), nil
			}
			return value.String(string(out)), nil
		},
	})

	reg.Register(entities.Entity{
		Kind: entities.KindFunction,
		Name: "JSONHasField",
		Signature: entities.Signature{
			ParamTypes: []*value.Kind{anyKind, &stringKind},
			ReturnType: ptrKind(value.KindBool),
			Invariant:  true,
		},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			obj := call.Positional[0]
			field := call.Positional[1].StringValue()
			if obj.Kind() != value.KindDict {
				return value.Bool(false), nil
			}
			dict, _ := obj.DictValue()
			_, ok := dict[field]
			return value.Bool(ok), nil
		},
	})

	reg.Register(entities.Entity{
		Kind: entities.KindFunction,
		Name: "JSONKeys",
		Signature: entities.Signature{
			ParamTypes: []*value.Kind{anyKind},
			ReturnType: ptrKind(value.KindArray),
			Invariant:  true,
		},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			obj := call.Positional[0]
			if obj.Kind() != value.KindDict {
				return value.Array(nil), nil
			}
			_, order := obj.DictValue()
			keys := make([]value.Data, len(order))
			for i, k := range order {
				keys[i] = value.String(k)
			}
			return value.Array(keys), nil
		},
	})

	reg.Register(entities.Entity{
		Kind: entities.KindFunction,
		Name: "JSONValues",
		Signature: entities.Signature{
			ParamTypes: []*value.Kind{anyKind},
			ReturnType: ptrKind(value.KindArray),
			Invariant:  true,
		},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			obj := call.Positional[0]
			switch obj.Kind() {
			case value.KindArray:
				return obj, nil
			case value.KindDict:
				dict, order := obj.DictValue()
				values := make([]value.Data, len(order))
				for i, k := range order {
					values[i] = dict[k]
				}
				return value.Array(values), nil
			default:
				return value.Array(nil), nil
			}
		},
	})

	reg.Register(entities.Entity{
		Kind: entities.KindFunction,
		Name: "JSONLength",
		Signature: entities.Signature{
			ParamTypes: []*value.Kind{anyKind},
			ReturnType: ptrKind(value.KindInt),
			Invariant:  true,
		},
		Invoke: func(call entities.CallValues, _ map[string]value.Data) (value.Data, *value.Data) {
			obj := call.Positional[0]
			switch obj.Kind() {
			case value.KindArray:
				return value.Int(int64(len(obj.ArrayValue()))), nil
			case value.KindDict:
				_, order := obj.DictValue()
				return value.Int(int64(len(order))), nil
			default:
				return value.Int(0), nil
			}
		},
	})
}

func gjsonToData(r gjson.Result) value.Data {
	switch r.Type {
	case gjson.Null:
		return value.TrueNil
	case gjson.False:
		return value.Bool(false)
	case gjson.True:
		return value.Bool(true)
	case gjson.Number:
		if r.Num == float64(int64(r.Num)) {
			return value.Int(int64(r.Num))
		}
		return value.Double(r.Num)
	case gjson.String:
		return value.String(r.String())
	case gjson.JSON:
		if r.IsArray() {
			var elems []value.Data
			r.ForEach(func(_, v gjson.Result) bool {
				elems = append(elems, gjsonToData(v))
				return true
			})
			return value.Array(elems)
		}
		var keys []string
		values := make(map[string]value.Data)
		r.ForEach(func(k, v gjson.Result) bool {
			keys = append(keys, k.String())
			values[k.String()] = gjsonToData(v)
			return true
		})
		return value.Dict(keys, values)
	default:
		return value.TrueNil
	}
}

func dataToAny(d value.Data) any {
	switch d.Kind() {
	case value.KindVoid:
		return nil
	case value.KindBool:
		return d.BoolValue()
	case value.KindInt:
		return d.IntValue()
	case value.KindDouble:
		return d.DoubleValue()
	case value.KindString:
		return d.StringValue()
	case value.KindArray:
		elems := d.ArrayValue()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = dataToAny(e)
		}
		return out
	case value.KindDict:
		dict, order := d.DictValue()
		keys := append([]string(nil), order...)
		sort.Strings(keys)
		out := make(map[string]any, len(dict))
		for _, k := range keys {
			out[k] = dataToAny(dict[k])
		}
		return out
	default:
		return nil
	}
}
