// Package ast defines the expression/parameter tree evaluated at render
// time: Parameter wraps one of seven Variant kinds (Value, Keyword,
// Operator, Variable, Expression, Tuple, FunctionCall), each resolved against a
// varstack.Stack and then evaluated down to a value.Data.
//
// This is not a parse tree for template source — there is no lexer or
// parser in this module. A caller builds a Parameter tree directly
// (see cmd/tmplkit/cmd/loader.go for a JSON-driven example) and passes
// it to pkg/tmplkit.Engine.Compile/Render.
package ast
