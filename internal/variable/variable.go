// Package variable implements Variable, the path-structured key spec.md §3
// uses to locate values inside a scoped context: a scope name, a base
// identifier, and an ordered chain of member/subscript segments.
package variable

import (
	"fmt"
	"strings"
)

// SegmentKind distinguishes a member access (".field") from a subscript
// access ("[index]") in a Variable's path.
type SegmentKind uint8

const (
	SegmentMember SegmentKind = iota
	SegmentSubscript
)

// Segment is one step of a Variable's path.
type Segment struct {
	Kind SegmentKind
	Name string // populated for SegmentMember
	// IndexSymbols, when non-nil, is the subscript expression's Variable
	// dependency set contributor; the subscript's own symbols are folded
	// into the owning Variable's Symbols via IndexSymbols.
	IndexSymbols []Variable
}

// Variable is a scoped identifier with an optional path, per spec §3.
type Variable struct {
	Scope string
	Base  string
	Path  []Segment

	// selfRef marks the reserved implicit current-iteration-target form.
	selfRef bool
	// defineRef marks a define(name) reference resolved against scoped
	// block definitions; Base holds the referenced name.
	defineRef bool
}

// Self is the reserved "current iteration target" Variable.
func Self() Variable { return Variable{selfRef: true} }

// IsSelf reports whether v is the reserved self form.
func (v Variable) IsSelf() bool { return v.selfRef }

// Define builds the reserved define(name) reference form.
func Define(name string) Variable { return Variable{Base: name, defineRef: true} }

// IsDefine reports whether v is a define(name) reference, and if so
// returns the referenced name.
func (v Variable) IsDefine() (string, bool) { return v.Base, v.defineRef }

// New builds a plain scope.base Variable with no path.
func New(scope, base string) Variable { return Variable{Scope: scope, Base: base} }

// WithMember appends a member-access segment.
func (v Variable) WithMember(name string) Variable {
	v.Path = append(append([]Segment(nil), v.Path...), Segment{Kind: SegmentMember, Name: name})
	return v
}

// WithSubscript appends a subscript-access segment, recording the
// variables the subscript expression itself depends on.
func (v Variable) WithSubscript(indexSymbols []Variable) Variable {
	v.Path = append(append([]Segment(nil), v.Path...), Segment{Kind: SegmentSubscript, IndexSymbols: indexSymbols})
	return v
}

// Symbols returns the set of Variable keys v transitively depends on: v
// itself (the base lookup) plus every symbol referenced by a subscript
// segment's index expression.
func (v Variable) Symbols() []Variable {
	out := []Variable{v.baseOnly()}
	for _, seg := range v.Path {
		if seg.Kind == SegmentSubscript {
			out = append(out, seg.IndexSymbols...)
		}
	}
	return out
}

// baseOnly returns a copy of v with its path stripped — the root lookup
// key a subscript's own symbol set should never recurse into.
func (v Variable) baseOnly() Variable {
	return Variable{Scope: v.Scope, Base: v.Base, selfRef: v.selfRef, defineRef: v.defineRef}
}

// IsCollection reports whether v's static shape forces a collection
// result: true when the last path segment is a subscript (indexing always
// yields the subscripted element) — approximate, since true shape is a
// context-time fact; conservative false otherwise.
func (v Variable) IsCollection() bool {
	return len(v.Path) > 0 && v.Path[len(v.Path)-1].Kind == SegmentSubscript
}

// Short renders a compact, parser-facing form: "scope.base.member[...]".
func (v Variable) Short() string {
	if v.selfRef {
		return "self"
	}
	if v.defineRef {
		return fmt.Sprintf("define(%s)", v.Base)
	}
	var sb strings.Builder
	if v.Scope != "" {
		sb.WriteString(v.Scope)
		sb.WriteString(".")
	}
	sb.WriteString(v.Base)
	for _, seg := range v.Path {
		switch seg.Kind {
		case SegmentMember:
			sb.WriteString(".")
			sb.WriteString(seg.Name)
		case SegmentSubscript:
			sb.WriteString("[]")
		}
	}
	return sb.String()
}

// Description renders a human-readable diagnostic form.
func (v Variable) Description() string {
	return fmt.Sprintf("variable %q", v.Short())
}

// Key is a comparable form of Variable suitable for use as a map key.
// It intentionally ignores subscript IndexSymbols (not comparable) and
// collapses a subscript segment to a fixed marker.
type Key string

// Key returns a comparable identity for v.
func (v Variable) Key() Key {
	var sb strings.Builder
	if v.selfRef {
		return Key("self")
	}
	if v.defineRef {
		return Key("define(" + v.Base + ")")
	}
	sb.WriteString(v.Scope)
	sb.WriteString("\x00")
	sb.WriteString(v.Base)
	for _, seg := range v.Path {
		sb.WriteString("\x00")
		if seg.Kind == SegmentMember {
			sb.WriteString(".")
			sb.WriteString(seg.Name)
		} else {
			sb.WriteString("[]")
		}
	}
	return Key(sb.String())
}
