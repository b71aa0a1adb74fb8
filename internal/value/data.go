// Package value implements Data, the tagged union of concrete template
// values described in spec.md §3/§4.1: booleans, numbers, strings,
// collections, void/nil, errored values, and lazily-deferred generators.
//
// Data deliberately avoids interface{} payloads (following the teacher's
// internal/jsonvalue.Value and internal/interp/runtime.VariantValue shapes):
// every Data carries exactly one populated field for its Kind, so storage
// and copying stay cheap and exhaustiveness is a switch away.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/go-tmplkit/internal/tmplerr"
)

// Kind identifies which variant a Data holds.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindDouble
	KindString
	KindArray
	KindDict
	KindError
	KindLazy
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "Void"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindDouble:
		return "Double"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindDict:
		return "Dict"
	case KindError:
		return "Error"
	case KindLazy:
		return "Lazy"
	default:
		return "Unknown"
	}
}

// Generator produces a Data value on demand. invariant declares whether
// repeated calls are guaranteed to produce an equal result; the lazy
// Data's Invariant() reports exactly this flag, per spec §4.1.
type Generator struct {
	Invariant bool
	Produce   func() Data
}

// Data is the tagged union described by spec §3. The zero value is the
// void/nil literal.
type Data struct {
	kind Kind

	b   bool
	i   int64
	f   float64
	s   string
	arr []Data
	dct map[string]Data

	// dictOrder preserves insertion order for Dict, mirroring the
	// teacher's jsonvalue.Value objKeys discipline.
	dictOrder []string

	err *tmplerr.Diagnostic

	lazy *Generator
}

// TrueNil is the canonical void/nil value, spec's Data.trueNil.
var TrueNil = Data{kind: KindVoid}

func Bool(b bool) Data     { return Data{kind: KindBool, b: b} }
func Int(i int64) Data     { return Data{kind: KindInt, i: i} }
func Double(f float64) Data { return Data{kind: KindDouble, f: f} }
func String(s string) Data { return Data{kind: KindString, s: s} }

// Array builds an array Data from already-evaluated elements.
func Array(elems []Data) Data {
	cp := make([]Data, len(elems))
	copy(cp, elems)
	return Data{kind: KindArray, arr: cp}
}

// Dict builds a dictionary Data, preserving the given key order.
func Dict(keys []string, values map[string]Data) Data {
	order := make([]string, len(keys))
	copy(order, keys)
	dct := make(map[string]Data, len(values))
	for k, v := range values {
		dct[k] = v
	}
	return Data{kind: KindDict, dct: dct, dictOrder: order}
}

// Error builds an errored Data wrapping a diagnostic.
func Error(d *tmplerr.Diagnostic) Data {
	return Data{kind: KindError, err: d}
}

// Errorf is a convenience constructor for an errored Data with no location.
func Errorf(kind tmplerr.Kind, format string, args ...any) Data {
	return Error(tmplerr.Newf(kind, format, args...))
}

// Lazy wraps a Generator as a deferred Data.
func Lazy(gen *Generator) Data {
	return Data{kind: KindLazy, lazy: gen}
}

// Kind reports the stored type, per spec's "stored type" facet.
func (d Data) Kind() Kind { return d.kind }

// Errored reports whether d is the error variant.
func (d Data) Errored() bool { return d.kind == KindError }

// Diagnostic returns the wrapped diagnostic, or nil if d is not errored.
func (d Data) Diagnostic() *tmplerr.Diagnostic {
	if d.kind != KindError {
		return nil
	}
	return d.err
}

// IsLazy reports whether d wraps a deferred generator.
func (d Data) IsLazy() bool { return d.kind == KindLazy }

// IsCollection reports whether d is an array or dictionary.
func (d Data) IsCollection() bool { return d.kind == KindArray || d.kind == KindDict }

// Invariant reports whether repeated evaluation of d yields an equal value.
// For a lazy value this is the producer's declared invariance; every other
// kind is always invariant, per spec §4.1.
func (d Data) Invariant() bool {
	if d.kind == KindLazy {
		if d.lazy == nil {
			return true
		}
		return d.lazy.Invariant
	}
	return true
}

// Evaluate forces a lazy Data, returning a concrete (non-lazy) variant. It
// is idempotent on non-lazy Data. A lazy producer that is nil, or whose
// Produce re-enters another lazy value, resolves to an internal-invariant
// error rather than panicking — soft errors, never unwinds.
func (d Data) Evaluate() Data {
	if d.kind != KindLazy {
		return d
	}
	if d.lazy == nil || d.lazy.Produce == nil {
		return Errorf(tmplerr.KindInternalInvariant, "lazy value has no producer")
	}
	produced := d.lazy.Produce()
	if produced.kind == KindLazy {
		return Errorf(tmplerr.KindInternalInvariant, "lazy producer returned another lazy value")
	}
	return produced
}

// Bool, Int, Double, String extraction. Each returns the zero value for
// the wrong kind; callers that need strict typing should check Kind first
// (mirrors the teacher's VariantValue.UnwrapVariant contract: callers are
// expected to have already validated shape via the entities registry).
func (d Data) BoolValue() bool     { return d.b }
func (d Data) IntValue() int64     { return d.i }
func (d Data) DoubleValue() float64 { return d.f }
func (d Data) StringValue() string { return d.s }

// ArrayValue returns the array elements (nil for non-array Data).
func (d Data) ArrayValue() []Data { return d.arr }

// DictValue returns the dictionary's values and its insertion-ordered keys.
func (d Data) DictValue() (map[string]Data, []string) { return d.dct, d.dictOrder }

// String renders a human-readable form, used for template output and for
// diagnostic messages.
func (d Data) String() string {
	switch d.kind {
	case KindVoid:
		return ""
	case KindBool:
		return strconv.FormatBool(d.b)
	case KindInt:
		return strconv.FormatInt(d.i, 10)
	case KindDouble:
		return strconv.FormatFloat(d.f, 'g', -1, 64)
	case KindString:
		return d.s
	case KindArray:
		parts := make([]string, len(d.arr))
		for i, e := range d.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindDict:
		keys := append([]string(nil), d.dictOrder...)
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, d.dct[k].String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindError:
		if d.err != nil {
			return d.err.Message
		}
		return "<error>"
	case KindLazy:
		return "<lazy>"
	default:
		return "<unknown>"
	}
}

// Equal reports value equality. Per spec §4.1, an errored Data never
// compares equal to a non-errored Data of the same apparent shape.
func (d Data) Equal(other Data) bool {
	if d.kind == KindError || other.kind == KindError {
		return false
	}
	if d.kind != other.kind {
		return false
	}
	switch d.kind {
	case KindVoid:
		return true
	case KindBool:
		return d.b == other.b
	case KindInt:
		return d.i == other.i
	case KindDouble:
		return d.f == other.f
	case KindString:
		return d.s == other.s
	case KindArray:
		if len(d.arr) != len(other.arr) {
			return false
		}
		for i := range d.arr {
			if !d.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(d.dct) != len(other.dct) {
			return false
		}
		for k, v := range d.dct {
			ov, ok := other.dct[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	case KindLazy:
		return false // two deferred generators are never statically equal
	default:
		return false
	}
}
