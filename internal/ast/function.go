package ast

import (
	"github.com/cwbudde/go-tmplkit/internal/entities"
	"github.com/cwbudde/go-tmplkit/internal/tmplerr"
	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/cwbudde/go-tmplkit/internal/variable"
	"github.com/cwbudde/go-tmplkit/internal/varstack"
)

// MethodSlot distinguishes a plain function call from the two method
// call shapes spec §3 describes: the method slot is absent (function
// call), present-nonmutating, or present-mutating.
type MethodSlot uint8

const (
	MethodSlotNone MethodSlot = iota
	MethodSlotNonMutating
	MethodSlotMutating
)

// evaluateBuiltinName is the reserved call name recognized as the
// block-definition lookback of spec §4.4.
const evaluateBuiltinName = "Evaluate"

// FunctionCall is a call site: possibly bound (single resolved callee),
// dynamic (multiple candidates pending evaluation-time disambiguation),
// or nullary. Grounded on the teacher's
// internal/interp/runtime/method_registry.go ID+metadata shape: Bound
// holds the resolved *entities.Entity exactly the way a MethodID resolves
// to *MethodMetadata there.
type FunctionCall struct {
	Name     string
	Method   MethodSlot
	Receiver *variable.Variable // set when Method != MethodSlotNone
	Args     *Tuple             // nil for a nullary call
	Registry *entities.Registry

	Bound   *entities.Entity
	Dynamic []*entities.Entity

	Location tmplerr.Location
	Source   string

	// Evaluate-builtin shape (spec §4.4): a call to the reserved
	// "Evaluate" name looks up a block definition by name instead of
	// invoking an entity.
	DefineName string
	Default    *Parameter
}

// IsEvaluateBuiltin reports whether fc is the reserved Evaluate(...) call
// shape.
func (fc *FunctionCall) IsEvaluateBuiltin() bool {
	return fc.Name == evaluateBuiltinName && fc.DefineName != ""
}

func (fc *FunctionCall) argMembers() []Parameter {
	if fc.Args == nil {
		return nil
	}
	return fc.Args.Members
}

func (fc *FunctionCall) resolved() bool {
	if fc.IsEvaluateBuiltin() {
		return fc.Default == nil || fc.Default.Resolved()
	}
	if fc.Bound == nil {
		return false
	}
	if fc.Args != nil {
		return fc.Args.resolved()
	}
	return true
}

func (fc *FunctionCall) invariant() bool {
	if fc.IsEvaluateBuiltin() {
		return false // a definition lookback always depends on render-time state
	}
	if fc.Bound == nil {
		return false
	}
	if !fc.Bound.Signature.Invariant {
		return false
	}
	if fc.Args != nil {
		return fc.Args.invariant()
	}
	return true
}

func (fc *FunctionCall) symbols() []variable.Variable {
	var out []variable.Variable
	if fc.Args != nil {
		out = append(out, fc.Args.symbols()...)
	}
	if fc.Receiver != nil {
		out = append(out, fc.Receiver.Symbols()...)
	}
	return out
}

// resolve implements spec §4.3's function-call resolution.
func (fc *FunctionCall) resolve(stack *varstack.Stack) *FunctionCall {
	next := *fc
	if fc.Args != nil {
		resolvedMembers := fc.Args.resolveMembers(stack)
		next.Args = &Tuple{Members: resolvedMembers, Labels: fc.Args.Labels}
	}

	if next.IsEvaluateBuiltin() {
		if next.Default != nil {
			resolved := next.Default.Resolve(stack)
			next.Default = &resolved
		}
		return &next
	}

	if next.Bound != nil {
		return &next // already bound; keep the binding
	}

	shapes := argShapes(next.Args)
	var matches []*entities.Entity
	var err error
	if next.Method == MethodSlotNone {
		matches, err = next.Registry.ValidateFunction(next.Name, shapes)
	} else {
		matches, err = next.Registry.ValidateMethod(next.Name, shapes, next.Method == MethodSlotMutating)
	}

	switch {
	case err != nil:
		// The caller (Parameter.Resolve) treats a non-function return as
		// impossible; signal failure by folding to an errored value
		// through Bound staying nil and Dynamic staying empty, which
		// evaluate() below turns into an overload-none error. Resolve
		// itself cannot swap its own Variant, so the failure surfaces at
		// evaluation time (§4.4 step 3 covers the zero-match case too).
		next.Dynamic = nil
	case len(matches) == 1:
		next.Bound = matches[0]
		next.Dynamic = nil
	default:
		next.Dynamic = matches
	}
	return &next
}

func argShapes(args *Tuple) []entities.ArgShape {
	if args == nil {
		return nil
	}
	shapes := make([]entities.ArgShape, len(args.Members))
	for i, m := range args.Members {
		label := ""
		if len(args.Labels) == len(args.Members) {
			label = args.Labels[i]
		}
		shapes[i] = entities.ArgShape{Label: label, BaseType: m.baseType()}
	}
	return shapes
}

func valueShapes(values []value.Data, labels []string) []entities.ArgShape {
	shapes := make([]entities.ArgShape, len(values))
	for i, v := range values {
		k := v.Kind()
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		shapes[i] = entities.ArgShape{Label: label, BaseType: &k}
		if k == value.KindVoid {
			// void-argument handling happens after binding, in evaluate
			shapes[i].BaseType = nil
		}
	}
	return shapes
}

// evaluate implements spec §4.4's general function evaluation and the
// Evaluate-builtin special case.
func (fc *FunctionCall) evaluate(stack *varstack.Stack) value.Data {
	if fc.IsEvaluateBuiltin() {
		return fc.evaluateBuiltin(stack)
	}

	values, labels, abort := fc.evaluateArgs(stack)
	if abort != nil {
		return *abort
	}

	callee := fc.Bound
	if callee == nil {
		shapes := valueShapes(values, labels)
		var matches []*entities.Entity
		var err error
		if fc.Method == MethodSlotNone {
			matches, err = fc.Registry.ValidateFunction(fc.Name, shapes)
		} else {
			matches, err = fc.Registry.ValidateMethod(fc.Name, shapes, fc.Method == MethodSlotMutating)
		}
		switch {
		case err != nil:
			return value.Errorf(tmplerr.KindOverloadNone, "no overload of %q matches the given arguments", fc.Name)
		case len(matches) > 1:
			return value.Errorf(tmplerr.KindOverloadAmbiguous, "Dynamic call had too many matches at evaluation")
		default:
			callee = matches[0]
		}
	}

	callValues, ok := buildCallValues(callee.Signature, values, labels)
	if !ok {
		return value.Errorf(tmplerr.KindTypeMismatch, "Couldn't validate parameter types for %s(...)", fc.Name)
	}

	for i, v := range callValues.Positional {
		optional := i < len(callee.Signature.Optional) && callee.Signature.Optional[i]
		if v.Kind() == value.KindVoid && !optional {
			errored := value.Errorf(tmplerr.KindVoidArgument, "argument %d to %q returned void", i, fc.Name)
			if stack.Context.Policy.MissingVariableThrows {
				return errored
			}
			callValues.Positional[i] = value.TrueNil
		}
	}

	var unsafeObjects map[string]value.Data
	if callee.Signature.Unsafe {
		unsafeObjects = snapshotUnsafe(stack)
	}

	if callee.Invoke == nil {
		return value.TrueNil
	}
	result, updated := callee.Invoke(callValues, unsafeObjects)

	if fc.Method == MethodSlotMutating && fc.Receiver != nil && updated != nil {
		stack.Update(*fc.Receiver, *updated)
	}
	return result
}

func snapshotUnsafe(stack *varstack.Stack) map[string]value.Data {
	src := stack.Context.Policy.UnsafeObjects
	cp := make(map[string]value.Data, len(src))
	for k, v := range src {
		cp[k] = v
	}
	return cp
}

// evaluateArgs evaluates every argument left-to-right, applying spec
// §4.4 step 1's ordering and soft-error policy. abort is non-nil when
// strict policy requires the whole call to short-circuit on the first
// errored argument.
func (fc *FunctionCall) evaluateArgs(stack *varstack.Stack) (values []value.Data, labels []string, abort *value.Data) {
	members := fc.argMembers()
	values = make([]value.Data, len(members))
	if fc.Args != nil && len(fc.Args.Labels) == len(members) {
		labels = fc.Args.Labels
	}
	for i, m := range members {
		var d value.Data
		if m.IsLiteral() {
			d = m.Value()
		} else {
			d = m.Evaluate(stack)
		}
		if d.Errored() {
			if stack.Context.Policy.MissingVariableThrows {
				return nil, nil, &d
			}
			d = value.TrueNil
		}
		values[i] = d
	}
	return values, labels, nil
}

// buildCallValues type-checks each positional/labeled argument against
// sig, per spec §4.4 step 4.
func buildCallValues(sig entities.Signature, values []value.Data, labels []string) (entities.CallValues, bool) {
	cv := entities.CallValues{Positional: append([]value.Data(nil), values...)}
	if len(labels) == len(values) {
		cv.Labeled = make(map[string]value.Data, len(values))
		for i, l := range labels {
			if l != "" {
				cv.Labeled[l] = values[i]
			}
		}
	}
	for i, v := range values {
		if i >= len(sig.ParamTypes) {
			if sig.Variadic {
				continue
			}
			return entities.CallValues{}, false
		}
		want := sig.ParamTypes[i]
		if want == nil {
			continue
		}
		if v.Kind() == value.KindVoid {
			continue // void-argument handling happens one level up
		}
		if v.Kind() != *want {
			return entities.CallValues{}, false
		}
	}
	return cv, true
}

// evaluateBuiltin implements the reserved Evaluate(...) lookback of
// spec §4.4.
func (fc *FunctionCall) evaluateBuiltin(stack *varstack.Stack) value.Data {
	if d, ok := stack.LookupDefine(fc.DefineName); ok {
		if d.IsLazy() {
			return d.Evaluate()
		}
		return d
	}
	if fc.Default != nil {
		return fc.Default.Evaluate(stack)
	}
	return value.Error(tmplerr.Newf(tmplerr.KindUndefinedEvaluate, "%q is undefined and has no default value", fc.DefineName).
		WithName(fc.Name).
		WithLocation(fc.Location, fc.Source))
}
