package ast

import (
	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/cwbudde/go-tmplkit/internal/variable"
	"github.com/cwbudde/go-tmplkit/internal/varstack"
)

// Tuple is an ordered, optionally labeled sequence of parameters (spec
// §3/§4.5). An all-labeled, equal-length form represents a dictionary
// literal; otherwise it is an array literal or an argument list.
type Tuple struct {
	Members []Parameter
	Labels  []string // nil, or len(Labels) == len(Members)
}

// collapseTuple applies spec §3's single-member collapse: a tuple with
// exactly one unlabeled member collapses through any chain of
// single-member nested tuples; an empty collapse yields the void-nil
// literal.
func collapseTuple(members []Parameter, labels []string) Parameter {
	if len(labels) == 0 && len(members) == 1 {
		m := members[0]
		if m.variant == VariantTuple {
			return collapseTuple(m.tup.Members, m.tup.Labels)
		}
		return m
	}
	if len(labels) == 0 && len(members) == 0 {
		return NewValue(value.TrueNil)
	}
	t := &Tuple{Members: members, Labels: labels}
	p := Parameter{variant: VariantTuple, tup: t}
	p.recompute()
	return p
}

func (t *Tuple) resolved() bool {
	for _, m := range t.Members {
		if !m.Resolved() {
			return false
		}
	}
	return true
}

func (t *Tuple) invariant() bool {
	for _, m := range t.Members {
		if !m.Invariant() {
			return false
		}
	}
	return true
}

func (t *Tuple) symbols() []variable.Variable {
	var out []variable.Variable
	for _, m := range t.Members {
		out = append(out, m.Symbols()...)
	}
	return out
}

// isEvaluable reports whether every member is an evaluable parameter, per
// spec §4.5.
func (t *Tuple) isEvaluable() bool {
	for _, m := range t.Members {
		if !m.isValued() {
			return false
		}
	}
	return true
}

// isDict reports whether this tuple's labels form a dictionary literal.
func (t *Tuple) isDict() bool {
	return len(t.Labels) > 0 && len(t.Labels) == len(t.Members)
}

// baseType returns the kind the tuple evaluates to: Dict for a fully
// labeled tuple, Array for any other evaluable tuple, nil when not
// evaluable. Member types are not inspected.
func (t *Tuple) baseType() *value.Kind {
	if t.isDict() {
		k := value.KindDict
		return &k
	}
	if !t.isEvaluable() {
		return nil
	}
	if len(t.Members) == 0 {
		k := value.KindArray
		return &k
	}
	k := value.KindArray
	return &k
}

func (t *Tuple) resolveMembers(stack *varstack.Stack) []Parameter {
	out := make([]Parameter, len(t.Members))
	for i, m := range t.Members {
		out[i] = m.Resolve(stack)
	}
	return out
}

// evaluate evaluates every member and produces an array or dictionary
// Data, per spec §4.4.
func (t *Tuple) evaluate(stack *varstack.Stack) value.Data {
	if t.isDict() {
		values := make(map[string]value.Data, len(t.Members))
		for i, m := range t.Members {
			d := m.Evaluate(stack)
			if d.Errored() {
				if stack.Context.Policy.MissingVariableThrows {
					return d
				}
				d = value.TrueNil
			}
			values[t.Labels[i]] = d
		}
		return value.Dict(t.Labels, values)
	}
	elems := make([]value.Data, len(t.Members))
	for i, m := range t.Members {
		d := m.Evaluate(stack)
		if d.Errored() {
			if stack.Context.Policy.MissingVariableThrows {
				return d
			}
			d = value.TrueNil
		}
		elems[i] = d
	}
	return value.Array(elems)
}
