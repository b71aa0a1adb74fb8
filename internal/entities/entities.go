// Package entities implements the global registry of functions, methods,
// blocks, and operators described in spec.md §4.6. It is deliberately
// agnostic of the AST package: signatures are matched against the cheap,
// statically-known ArgShape rather than full Parameter nodes, so
// internal/ast can depend on internal/entities without a cycle.
//
// Grounded on the teacher's internal/interp/runtime/method_registry.go:
// an ID-keyed store plus a name index, guarded by one sync.RWMutex,
// supporting overloads under a shared name.
package entities

import (
	"fmt"
	"sync"

	"github.com/cwbudde/go-tmplkit/internal/value"
)

// Kind distinguishes the five entity categories spec §4.6 recognizes.
type Kind uint8

const (
	KindFunction Kind = iota
	KindMethod
	KindBlock
	KindRawBlock
	KindTypeConstructor
)

// ArgShape is the statically-known shape of one call argument, computed by
// the ast package from a Parameter before calling into the registry.
// BaseType is nil when the argument's static type cannot be proven.
type ArgShape struct {
	Label    string // empty for positional arguments
	BaseType *value.Kind
	Literal  *value.Data // non-nil when the argument already folded to a literal
}

// Signature describes one overload's accepted arguments and behavior.
type Signature struct {
	// ParamTypes, when non-nil, must have len == number of accepted
	// positional parameters; a nil entry means "any type accepted".
	ParamTypes []*value.Kind
	// Optional marks, by position, whether that argument may be void.
	Optional []bool
	// Variadic accepts any number of trailing arguments of the last
	// ParamTypes entry's type (or any type, if that entry is nil).
	Variadic bool
	// ReturnType is the statically-known return type, or nil when the
	// callee can return more than one Kind.
	ReturnType *value.Kind
	// Invariant declares whether the callee's evaluation is independent
	// of external state, given invariant arguments.
	Invariant bool
	// Unsafe entities receive a snapshot of the context's unsafe object
	// map before invocation (spec §4.4 step 5, §4.7).
	Unsafe bool
	// Mutating is only meaningful for KindMethod: true for the
	// present-mutating method slot.
	Mutating bool
}

// CallValues is the type-checked, positionally-ordered argument record
// built by the ast package once a callee is bound (spec §4.4 step 4).
type CallValues struct {
	Positional []value.Data
	Labeled    map[string]value.Data
}

// Invoker is the callee's entry point. unsafeObjects is nil unless the
// entity's Signature.Unsafe is set. For a mutating method, updated is the
// (possibly nil) new value to write back to the receiving variable.
type Invoker func(call CallValues, unsafeObjects map[string]value.Data) (result value.Data, updated *value.Data)

// Entity is one registered overload: its kind, name, signature, and
// invocation body.
type Entity struct {
	ID        int
	Kind      Kind
	Name      string
	Signature Signature
	Invoke    Invoker
}

// Registry is the process-wide (or render-scoped, see runtimeconfig) store
// of entities, keyed by normalized name with overloads tracked per name.
type Registry struct {
	mu      sync.RWMutex
	byID    map[int]*Entity
	byName  map[string][]*Entity // key: kind:name
	nextID  int
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nextID: 1,
		byID:   make(map[int]*Entity),
		byName: make(map[string][]*Entity),
	}
}

func nameKey(kind Kind, name string) string {
	return fmt.Sprintf("%d:%s", kind, normalize(name))
}

func normalize(name string) string {
	// Template entity names are case-insensitive, matching the teacher's
	// normalizeIdentifier convention for builtin lookups.
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// Register adds an entity to the registry and returns its assigned ID.
func (r *Registry) Register(e Entity) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	e.ID = id

	stored := e
	r.byID[id] = &stored
	key := nameKey(e.Kind, e.Name)
	r.byName[key] = append(r.byName[key], &stored)
	return id
}

// Get returns the entity registered under id, or nil.
func (r *Registry) Get(id int) *Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Count returns the number of registered entities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// MatchError is returned when overload resolution fails outright (no
// candidate signature accepts the given arguments).
type MatchError struct {
	Name string
	Args []ArgShape
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("no overload of %q matches the given arguments", e.Name)
}

// ValidateFunction implements spec §4.6's validateFunction: it returns every
// candidate overload whose signature could accept args, or an error when
// none do. A single match means the call can bind immediately; more than
// one leaves the call dynamic (spec §4.3).
func (r *Registry) ValidateFunction(name string, args []ArgShape) ([]*Entity, error) {
	return r.validate(KindFunction, name, args, false)
}

// ValidateMethod implements spec §4.6's validateMethod, additionally
// filtering candidates by the mutating/non-mutating method slot.
func (r *Registry) ValidateMethod(name string, args []ArgShape, mutating bool) ([]*Entity, error) {
	return r.validate(KindMethod, name, args, true, mutating)
}

func (r *Registry) validate(kind Kind, name string, args []ArgShape, filterMutating bool, mutating ...bool) ([]*Entity, error) {
	r.mu.RLock()
	candidates := append([]*Entity(nil), r.byName[nameKey(kind, name)]...)
	r.mu.RUnlock()

	var matches []*Entity
	for _, c := range candidates {
		if filterMutating && c.Signature.Mutating != mutating[0] {
			continue
		}
		if signatureAccepts(c.Signature, args) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil, &MatchError{Name: name, Args: args}
	}
	return matches, nil
}

// signatureAccepts reports whether sig could plausibly accept args given
// only statically-known shapes: a nil BaseType argument is compatible with
// anything (it may yet resolve to the right type at evaluation time,
// matching spec's "dynamic call" deferral), a known BaseType must match a
// non-nil ParamTypes entry exactly.
func signatureAccepts(sig Signature, args []ArgShape) bool {
	maxFixed := len(sig.ParamTypes)
	if !sig.Variadic && len(args) > maxFixed {
		return false
	}
	minRequired := 0
	for i, opt := range sig.Optional {
		if i >= maxFixed {
			break
		}
		if !opt {
			minRequired = i + 1
		}
	}
	if len(args) < minRequired {
		return false
	}

	for i, arg := range args {
		var want *value.Kind
		switch {
		case i < maxFixed:
			want = sig.ParamTypes[i]
		case sig.Variadic && maxFixed > 0:
			want = sig.ParamTypes[maxFixed-1]
		default:
			want = nil
		}
		if want == nil || arg.BaseType == nil {
			continue
		}
		if *want != *arg.BaseType {
			return false
		}
	}
	return true
}
