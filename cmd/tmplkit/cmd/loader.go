package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/cwbudde/go-tmplkit/internal/ast"
	"github.com/cwbudde/go-tmplkit/internal/entities"
	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/cwbudde/go-tmplkit/internal/variable"
)

// astNode is the tiny JSON shape render loads instead of template source:
// since the lexer and parser that would turn template text into an AST are
// out of scope here, a caller supplies the tree directly as nodes of this
// shape, one per ast.Variant except the bare operator variant.
//
//	{"kind": "value", "type": "string", "value": "hi"}
//	{"kind": "variable", "scope": "", "base": "name", "path": [{"member": "first"}]}
//	{"kind": "keyword", "name": "true"}
//	{"kind": "expression", "op": "+", "operands": [...]}
//	{"kind": "tuple", "labels": ["a"], "members": [...]}
//	{"kind": "function", "name": "Upper", "method": false, "receiver": {...variable...}, "args": [...]}
type astNode struct {
	Kind string `json:"kind"`

	// value
	Type  string          `json:"type,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`

	// variable
	Scope string         `json:"scope,omitempty"`
	Base  string         `json:"base,omitempty"`
	Path  []astPathSegment `json:"path,omitempty"`

	// keyword
	Name string `json:"name,omitempty"`

	// expression
	Op       string    `json:"op,omitempty"`
	Operands []astNode `json:"operands,omitempty"`

	// tuple
	Labels  []string  `json:"labels,omitempty"`
	Members []astNode `json:"members,omitempty"`

	// function
	Method     bool      `json:"method,omitempty"`
	Mutating   bool      `json:"mutating,omitempty"`
	Receiver   *astNode  `json:"receiver,omitempty"`
	Args       []astNode `json:"args,omitempty"`
	DefineName string    `json:"defineName,omitempty"`
	Default    *astNode  `json:"default,omitempty"`
}

type astPathSegment struct {
	Member    string   `json:"member,omitempty"`
	Subscript *astNode `json:"subscript,omitempty"`
}

// buildParameter turns a decoded astNode tree into an ast.Parameter,
// wiring any function node against reg so overload resolution has
// candidates to find at resolve/evaluate time.
func buildParameter(n astNode, reg *entities.Registry) (ast.Parameter, error) {
	switch n.Kind {
	case "value":
		d, err := buildValue(n)
		if err != nil {
			return ast.Parameter{}, err
		}
		return ast.NewValue(d), nil

	case "keyword":
		if n.Name == "" {
			return ast.Parameter{}, fmt.Errorf("keyword node requires name")
		}
		return ast.NewKeywordParam(ast.NewKeyword(n.Name)), nil

	case "variable":
		v, err := buildVariable(n, reg)
		if err != nil {
			return ast.Parameter{}, err
		}
		return ast.NewVariable(v), nil

	case "expression":
		if n.Op == "" {
			return ast.Parameter{}, fmt.Errorf("expression node requires op")
		}
		operands := make([]ast.Parameter, len(n.Operands))
		for i, on := range n.Operands {
			p, err := buildParameter(on, reg)
			if err != nil {
				return ast.Parameter{}, err
			}
			operands[i] = p
		}
		return ast.NewExpressionParam(ast.NewExpression(ast.NewOperator(n.Op), operands)), nil

	case "tuple":
		members := make([]ast.Parameter, len(n.Members))
		for i, mn := range n.Members {
			p, err := buildParameter(mn, reg)
			if err != nil {
				return ast.Parameter{}, err
			}
			members[i] = p
		}
		return ast.NewTupleParam(members, n.Labels), nil

	case "function":
		return buildFunction(n, reg)

	default:
		return ast.Parameter{}, fmt.Errorf("unrecognized node kind %q", n.Kind)
	}
}

func buildValue(n astNode) (value.Data, error) {
	switch n.Type {
	case "", "void":
		return value.TrueNil, nil
	case "bool":
		var b bool
		if err := json.Unmarshal(n.Value, &b); err != nil {
			return value.Data{}, err
		}
		return value.Bool(b), nil
	case "int":
		var i int64
		if err := json.Unmarshal(n.Value, &i); err != nil {
			return value.Data{}, err
		}
		return value.Int(i), nil
	case "double":
		var f float64
		if err := json.Unmarshal(n.Value, &f); err != nil {
			return value.Data{}, err
		}
		return value.Double(f), nil
	case "string":
		var s string
		if err := json.Unmarshal(n.Value, &s); err != nil {
			return value.Data{}, err
		}
		return value.String(s), nil
	default:
		return value.Data{}, fmt.Errorf("unrecognized value type %q", n.Type)
	}
}

// buildVariable builds a path-structured Variable from a "variable" node.
// The reserved self form is reached through a "keyword" node instead
// (NewKeyword("self").decay collapses it to variable.Self()), so no
// special case is needed here.
func buildVariable(n astNode, reg *entities.Registry) (variable.Variable, error) {
	v := variable.New(n.Scope, n.Base)
	for _, seg := range n.Path {
		if seg.Subscript != nil {
			sub, err := buildParameter(*seg.Subscript, reg)
			if err != nil {
				return variable.Variable{}, err
			}
			v = v.WithSubscript(sub.Symbols())
			continue
		}
		if seg.Member == "" {
			return variable.Variable{}, fmt.Errorf("path segment requires member or subscript")
		}
		v = v.WithMember(seg.Member)
	}
	return v, nil
}

func buildFunction(n astNode, reg *entities.Registry) (ast.Parameter, error) {
	if n.Name == "" {
		return ast.Parameter{}, fmt.Errorf("function node requires name")
	}

	fc := &ast.FunctionCall{
		Name:       n.Name,
		Registry:   reg,
		DefineName: n.DefineName,
	}

	if n.Receiver != nil {
		v, err := buildVariable(*n.Receiver, reg)
		if err != nil {
			return ast.Parameter{}, err
		}
		fc.Receiver = &v
	}

	if len(n.Args) > 0 {
		members := make([]ast.Parameter, len(n.Args))
		for i, an := range n.Args {
			p, err := buildParameter(an, reg)
			if err != nil {
				return ast.Parameter{}, err
			}
			members[i] = p
		}
		fc.Args = &ast.Tuple{Members: members}
	} else {
		fc.Args = &ast.Tuple{}
	}

	if n.Default != nil {
		d, err := buildParameter(*n.Default, reg)
		if err != nil {
			return ast.Parameter{}, err
		}
		fc.Default = &d
	}

	if n.Method {
		fc.Method = ast.MethodSlotNonMutating
		if n.Mutating {
			fc.Method = ast.MethodSlotMutating
		}
	}

	return ast.NewFunctionParam(fc), nil
}
