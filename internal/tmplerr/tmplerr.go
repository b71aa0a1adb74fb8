// Package tmplerr implements the error taxonomy of spec §7: a closed set of
// failure kinds surfaced as diagnostics embedded inside Data values, never as
// unwound Go errors.
package tmplerr

import (
	"fmt"
	"strings"
)

// Kind is one of the non-fatal failure kinds spec §7 enumerates.
type Kind uint8

const (
	// KindMissingVariable is produced when the symbol stack misses a lookup.
	KindMissingVariable Kind = iota
	// KindUndefinedEvaluate is produced when an Evaluate call finds no bound
	// definition and no default.
	KindUndefinedEvaluate
	// KindVoidArgument is produced when a non-optional argument evaluates
	// to void.
	KindVoidArgument
	// KindOverloadAmbiguous is produced when dynamic resolution still has
	// more than one match at evaluation time.
	KindOverloadAmbiguous
	// KindOverloadNone is produced when dynamic resolution has zero matches.
	KindOverloadNone
	// KindTypeMismatch is produced when a signature's type check fails.
	KindTypeMismatch
	// KindInternalInvariant marks an "impossible" branch: a parser or
	// caller defect, not a value-level failure.
	KindInternalInvariant
)

func (k Kind) String() string {
	switch k {
	case KindMissingVariable:
		return "missing-variable"
	case KindUndefinedEvaluate:
		return "undefined-evaluate"
	case KindVoidArgument:
		return "void-argument"
	case KindOverloadAmbiguous:
		return "overload-ambiguous"
	case KindOverloadNone:
		return "overload-none"
	case KindTypeMismatch:
		return "type-mismatch"
	case KindInternalInvariant:
		return "internal-invariant"
	default:
		return "unknown"
	}
}

// Location is the source position of a call site, when known.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) known() bool { return l.Line > 0 }

// Diagnostic is a structured, non-fatal error. Diagnostics are embedded in
// Data's error variant; they are never thrown as Go errors.
type Diagnostic struct {
	Kind     Kind
	Message  string
	Name     string // call-site / function name, when applicable
	Location Location
	Source   string // the template source, for Format's caret rendering
}

// New builds a Diagnostic with no location information.
func New(kind Kind, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: message}
}

// Newf builds a Diagnostic with a formatted message.
func Newf(kind Kind, format string, args ...any) *Diagnostic {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithName returns a copy of d carrying the call-site name.
func (d *Diagnostic) WithName(name string) *Diagnostic {
	c := *d
	c.Name = name
	return &c
}

// WithLocation returns a copy of d carrying a source location.
func (d *Diagnostic) WithLocation(loc Location, source string) *Diagnostic {
	c := *d
	c.Location = loc
	c.Source = source
	return &c
}

// Error implements the error interface, rendering the diagnostic with
// Format(false). Cache.Insert's keyExists failure does not use
// Diagnostic; it returns the separate KeyExists type below.
func (d *Diagnostic) Error() string { return d.Format(false) }

// Format renders the diagnostic the way the teacher's CompilerError does:
// a header line, an optional source-line-with-caret, then the message.
func (d *Diagnostic) Format(color bool) string {
	var sb strings.Builder

	if d.Location.known() {
		if d.Location.File != "" {
			fmt.Fprintf(&sb, "Error in %s:%d:%d\n", d.Location.File, d.Location.Line, d.Location.Column)
		} else {
			fmt.Fprintf(&sb, "Error at line %d:%d\n", d.Location.Line, d.Location.Column)
		}
		if line := sourceLine(d.Source, d.Location.Line); line != "" {
			prefix := fmt.Sprintf("%4d | ", d.Location.Line)
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat(" ", len(prefix)+d.Location.Column-1))
			if color {
				sb.WriteString("\033[1;31m")
			}
			sb.WriteString("^")
			if color {
				sb.WriteString("\033[0m")
			}
			sb.WriteString("\n")
		}
	}

	if color {
		sb.WriteString("\033[1m")
	}
	if d.Name != "" {
		sb.WriteString(d.Name)
		sb.WriteString(": ")
	}
	sb.WriteString(d.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// KeyExists is the one structured error returned by Cache.Insert rather
// than embedded as a Data value (spec §4.9, §7).
type KeyExists struct {
	Name string
}

func (e *KeyExists) Error() string {
	return fmt.Sprintf("key already exists: %s", e.Name)
}
