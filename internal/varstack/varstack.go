// Package varstack implements VarStack, the lookup surface threaded through
// resolve/evaluate per spec.md §3/§4.8. It wraps a Context and carries the
// context's policy record, plus the "self" binding active for the current
// iteration (block bodies push/pop a self frame).
//
// Grounded on the teacher's internal/interp/runtime/execution_context.go
// scoped variable lookup chain.
package varstack

import (
	"github.com/cwbudde/go-tmplkit/internal/tmplcontext"
	"github.com/cwbudde/go-tmplkit/internal/tmplerr"
	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/cwbudde/go-tmplkit/internal/variable"
)

// Stack is the symbol stack passed through resolve and evaluate.
type Stack struct {
	Context *tmplcontext.Context

	// selfStack is a small LIFO of "self" bindings, pushed by block bodies
	// that iterate a collection.
	selfStack []value.Data

	// definitions resolves define(name) references against scoped block
	// definitions (spec §3's reserved define(name) form).
	definitions map[string]value.Data
}

// New builds a Stack over ctx.
func New(ctx *tmplcontext.Context) *Stack {
	return &Stack{Context: ctx, definitions: make(map[string]value.Data)}
}

// PushSelf binds "self" to d for the duration of a block body evaluation.
func (s *Stack) PushSelf(d value.Data) {
	s.selfStack = append(s.selfStack, d)
}

// PopSelf unwinds the most recent PushSelf.
func (s *Stack) PopSelf() {
	if len(s.selfStack) > 0 {
		s.selfStack = s.selfStack[:len(s.selfStack)-1]
	}
}

// CurrentSelf returns the innermost "self" binding, or void if none is
// active.
func (s *Stack) CurrentSelf() value.Data {
	if len(s.selfStack) == 0 {
		return value.TrueNil
	}
	return s.selfStack[len(s.selfStack)-1]
}

// DefineBlock registers a block definition reachable by define(name).
func (s *Stack) DefineBlock(name string, d value.Data) {
	s.definitions[name] = d
}

// LookupDefine resolves a define(name) reference.
func (s *Stack) LookupDefine(name string) (value.Data, bool) {
	d, ok := s.definitions[name]
	return d, ok
}

// Match implements spec §4.8's match(variable) -> Data: dot-path
// resolution with scope fallback, with "self" and "define(name)" handled
// as their reserved forms.
func (s *Stack) Match(v variable.Variable) value.Data {
	if v.IsSelf() {
		return s.CurrentSelf()
	}
	if name, ok := v.IsDefine(); ok {
		if d, found := s.LookupDefine(name); found {
			return d
		}
		return value.Error(tmplerr.Newf(tmplerr.KindMissingVariable, "%s is not a known definition", name).WithName(name))
	}

	d, ok := s.Context.Lookup(v)
	if !ok {
		return value.Error(tmplerr.Newf(tmplerr.KindMissingVariable, "%s is not defined", v.Short()).WithName(v.Short()))
	}
	return d
}

// Update implements spec §4.8's update(variable, Data), used by mutating
// methods (spec §4.4 step 6).
func (s *Stack) Update(v variable.Variable, d value.Data) bool {
	return s.Context.Update(v, d)
}

// Decay applies the soft-error policy of spec §4.4: if d is errored and
// the policy does not throw, it decays to void/nil unless originatedHere
// is true (the error was produced at the current node, which always
// propagates as the node's own result).
func (s *Stack) Decay(d value.Data, originatedHere bool) value.Data {
	if !d.Errored() {
		return d
	}
	if s.Context.Policy.MissingVariableThrows || originatedHere {
		return d
	}
	return value.TrueNil
}
