package ast

import (
	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/cwbudde/go-tmplkit/internal/variable"
)

// Keyword is an unvalued control token (spec §3's keyword variant), which
// may decay to a value or variable parameter when reducible (§4.2).
type Keyword struct {
	Name string

	// Evaluable marks a keyword that carries a value at evaluation time
	// (booleans, nil, self); non-evaluable keywords are pure control tokens
	// (e.g. "else", "end") that must never survive to evaluation time.
	Evaluable bool
}

const (
	KeywordTrue  = "true"
	KeywordFalse = "false"
	KeywordNil   = "nil"
	KeywordSelf  = "self"
)

// NewKeyword builds a keyword token, inferring Evaluable for the four
// reducible names.
func NewKeyword(name string) Keyword {
	switch name {
	case KeywordTrue, KeywordFalse, KeywordNil, KeywordSelf:
		return Keyword{Name: name, Evaluable: true}
	default:
		return Keyword{Name: name, Evaluable: false}
	}
}

// decay performs the eager decay spec §4.2 describes: evaluable boolean
// keywords collapse to value literals, "self" collapses to the self
// variable, "nil" collapses to the void-nil literal. A keyword that
// cannot decay (reduce is false, or the keyword isn't one of the three
// reducible forms) is returned unchanged.
func (k Keyword) decay(reduce bool) Parameter {
	if !reduce {
		return newKeywordParam(k)
	}
	switch k.Name {
	case KeywordTrue:
		return NewValue(value.Bool(true))
	case KeywordFalse:
		return NewValue(value.Bool(false))
	case KeywordNil:
		return NewValue(value.TrueNil)
	case KeywordSelf:
		return NewVariable(variable.Self())
	default:
		return newKeywordParam(k)
	}
}
