package tmplcontext

import (
	"sync"

	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/cwbudde/go-tmplkit/internal/variable"
)

// Policy is the context policy record spec §3 describes: how missing
// lookups behave and how unsafe/host objects are exposed.
type Policy struct {
	MissingVariableThrows bool

	// ObjectMode flags.
	Unsafe         bool
	Contextualized bool

	// UnsafeObjects is the host-provided object map only unsafe entities
	// may see (spec §4.4 step 5, §4.7, §9 design notes).
	UnsafeObjects map[string]value.Data
}

// ContextPublisher is any host-supplied object exposing a named set of
// DataGenerators, registered under a caller-chosen scope (spec §4.7).
type ContextPublisher interface {
	PublishedVariables() map[string]DataGenerator
}

// Context is the scoped database of named DataValues plus policy record,
// per spec §3/§4.7.
type Context struct {
	mu     sync.RWMutex
	scopes map[string]map[string]DataValue
	locked map[string]bool
	Policy Policy
}

// New builds an empty Context.
func New(policy Policy) *Context {
	return &Context{
		scopes: make(map[string]map[string]DataValue),
		locked: make(map[string]bool),
		Policy: policy,
	}
}

func (c *Context) scope(name string) map[string]DataValue {
	s, ok := c.scopes[name]
	if !ok {
		s = make(map[string]DataValue)
		c.scopes[name] = s
	}
	return s
}

// Register registers a ContextPublisher's generators under scope.
func (c *Context) Register(scope string, publisher ContextPublisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked[scope] {
		return // locked scopes are immutable
	}
	s := c.scope(scope)
	for name, gen := range publisher.PublishedVariables() {
		s[name] = NewVariable(gen)
	}
}

// RegisterGenerators is the direct "by generator map" registration form
// spec §6 lists alongside by-object registration.
func (c *Context) RegisterGenerators(scope string, generators map[string]DataGenerator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked[scope] {
		return
	}
	s := c.scope(scope)
	for name, gen := range generators {
		s[name] = NewVariable(gen)
	}
}

// ExtendVariables adds additional generators to an already-registered
// scope (spec §4.7's extendedVariables).
func (c *Context) ExtendVariables(scope string, generators map[string]DataGenerator) {
	c.RegisterGenerators(scope, generators)
}

// SetLiteral stores a fixed literal(d) cell directly (used by tests and
// the JSON/YAML loaders).
func (c *Context) SetLiteral(scope, name string, d value.Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locked[scope] {
		return
	}
	c.scope(scope)[name] = NewLiteral(d)
}

// Lock flattens every DataValue in scope to literal and marks the scope
// immutable, per spec §4.7: after locking, the scope's names behave as
// parse-time constants.
func (c *Context) Lock(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.scopes[scope]
	if !ok {
		c.locked[scope] = true
		return
	}
	for name, dv := range s {
		s[name] = dv.Flatten()
	}
	c.locked[scope] = true
}

// Locked reports whether scope has been locked.
func (c *Context) Locked(scope string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.locked[scope]
}

// Lookup resolves v against the context's scopes: the variable's own
// scope first (if set), then the default "" scope as fallback, mirroring
// the teacher's execution-context lookup chain. Member/subscript path
// segments are applied after the base lookup.
func (c *Context) Lookup(v variable.Variable) (value.Data, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	base, ok := c.lookupBase(v)
	if !ok {
		return value.Data{}, false
	}
	d := base.Value()
	for _, seg := range v.Path {
		d = applySegment(d, seg)
		if d.Errored() {
			return d, true
		}
	}
	return d, true
}

func (c *Context) lookupBase(v variable.Variable) (DataValue, bool) {
	if v.Scope != "" {
		if s, ok := c.scopes[v.Scope]; ok {
			if dv, ok := s[v.Base]; ok {
				return dv, true
			}
		}
	}
	if s, ok := c.scopes[""]; ok {
		if dv, ok := s[v.Base]; ok {
			return dv, true
		}
	}
	return DataValue{}, false
}

func applySegment(d value.Data, seg variable.Segment) value.Data {
	switch seg.Kind {
	case variable.SegmentMember:
		if d.Kind() != value.KindDict {
			return value.TrueNil
		}
		dct, _ := d.DictValue()
		if v, ok := dct[seg.Name]; ok {
			return v
		}
		return value.TrueNil
	default:
		// Subscript resolution needs the evaluated index value, which is
		// supplied by the caller (varstack) rather than the static
		// Segment; Context.Lookup only handles member paths directly.
		return d
	}
}

// Update writes d back into the named cell (used by mutating methods,
// spec §4.4 step 6). Writes into a locked scope are rejected silently.
func (c *Context) Update(v variable.Variable, d value.Data) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	scope := v.Scope
	if _, ok := c.scopes[scope]; !ok {
		scope = ""
	}
	if c.locked[scope] {
		return false
	}
	s, ok := c.scopes[scope]
	if !ok {
		return false
	}
	if _, ok := s[v.Base]; !ok {
		return false
	}
	s[v.Base] = NewLiteral(d)
	return true
}

// RefreshAll re-invokes every variable cell's generator across all scopes.
// Used by hosts that want to force a lazy refresh between renders.
func (c *Context) RefreshAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for scope, s := range c.scopes {
		if c.locked[scope] {
			continue
		}
		for name, dv := range s {
			s[name] = dv.Refresh()
		}
	}
}
