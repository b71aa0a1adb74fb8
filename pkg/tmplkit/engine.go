// Package tmplkit is the host-facing entry point: construct an Engine,
// register functions/methods/publishers, then render pre-built expression
// trees against a context. Mirrors the teacher's pkg/dwscript.Engine shape
// (functional-options constructor, Compile-then-Run split, a Result
// carrying rendered output) adapted to this module's scope: the
// lexer/parser is out of scope (spec.md's CORE is the evaluation
// substrate, not parsing), so Engine operates on caller-supplied
// ast.Parameter trees rather than raw template source.
package tmplkit

import (
	"fmt"
	"time"

	"github.com/cwbudde/go-tmplkit/internal/ast"
	"github.com/cwbudde/go-tmplkit/internal/cache"
	"github.com/cwbudde/go-tmplkit/internal/entities"
	"github.com/cwbudde/go-tmplkit/internal/runtimeconfig"
	"github.com/cwbudde/go-tmplkit/internal/stdlib"
	"github.com/cwbudde/go-tmplkit/internal/tmplcontext"
	"github.com/cwbudde/go-tmplkit/internal/value"
	"github.com/cwbudde/go-tmplkit/internal/varstack"
)

// Engine is the host-facing façade over the context, entities registry,
// symbol stack, and compiled-tree cache.
type Engine struct {
	registry *entities.Registry
	config   *runtimeconfig.Config
	context  *tmplcontext.Context
	cache    *cache.Cache[ast.Parameter]
	caching  bool

	skipStdlib bool
}

// Option configures an Engine at construction time.
type Option func(*Engine) error

// WithSigil sets the tag-sigil character (spec §4.10), validated before
// the config seals.
func WithSigil(sigil rune) Option {
	return func(e *Engine) error {
		return e.config.SetSigil(sigil, nil)
	}
}

// WithMissingVariableThrows sets whether a missing-variable lookup
// propagates as an errored Data (true) or decays to nil (false, the
// default), per spec §4.8.
func WithMissingVariableThrows(throws bool) Option {
	return func(e *Engine) error {
		e.context.Policy.MissingVariableThrows = throws
		return nil
	}
}

// WithUnsafeObjects registers the host object map only unsafe entities
// may see (spec §4.4 step 5, §4.7).
func WithUnsafeObjects(objects map[string]value.Data) Option {
	return func(e *Engine) error {
		e.context.Policy.Unsafe = true
		e.context.Policy.UnsafeObjects = objects
		return nil
	}
}

// WithCaching enables the compiled-tree cache (spec §4.9). Disabled by
// default: Render resolves its argument tree fresh on every call.
func WithCaching(enabled bool) Option {
	return func(e *Engine) error {
		e.caching = enabled
		return nil
	}
}

// WithoutStandardLibrary skips registering the builtin ordinal/JSON
// functions stdlib.RegisterDefaults would otherwise seed the engine
// with, for a host that wants a bare registry to populate itself.
func WithoutStandardLibrary() Option {
	return func(e *Engine) error {
		e.skipStdlib = true
		return nil
	}
}

// New builds an Engine, applying opts in order.
func New(opts ...Option) (*Engine, error) {
	registry := entities.NewRegistry()
	config := runtimeconfig.New()
	if err := config.SetRegistry(registry, nil); err != nil {
		return nil, err
	}

	e := &Engine{
		registry: registry,
		config:   config,
		context:  tmplcontext.New(tmplcontext.Policy{}),
		cache:    cache.New[ast.Parameter](),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if !e.skipStdlib {
		stdlib.RegisterDefaults(registry)
	}
	return e, nil
}

// Context exposes the engine's context, so a host can register
// ContextPublishers, load JSON/YAML snapshots, or lock scopes before
// rendering.
func (e *Engine) Context() *tmplcontext.Context { return e.context }

// Registry exposes the engine's entities registry for function/method
// registration beyond the RegisterFunction/RegisterMethod convenience
// wrappers below.
func (e *Engine) Registry() *entities.Registry { return e.registry }

// RegisterFunction registers a KindFunction entity, sealing-aware: it
// fails once the engine's config has sealed (spec §4.10's "globals sealed
// at first render" extends to registry membership once rendering has
// begun).
func (e *Engine) RegisterFunction(name string, sig entities.Signature, invoke entities.Invoker) error {
	if e.config.Sealed() {
		return fmt.Errorf("tmplkit: cannot register function %q after the engine has rendered", name)
	}
	e.registry.Register(entities.Entity{Kind: entities.KindFunction, Name: name, Signature: sig, Invoke: invoke})
	return nil
}

// RegisterMethod registers a KindMethod entity (mutating or not, per
// sig.Mutating).
func (e *Engine) RegisterMethod(name string, sig entities.Signature, invoke entities.Invoker) error {
	if e.config.Sealed() {
		return fmt.Errorf("tmplkit: cannot register method %q after the engine has rendered", name)
	}
	e.registry.Register(entities.Entity{Kind: entities.KindMethod, Name: name, Signature: sig, Invoke: invoke})
	return nil
}

// Result is the outcome of a render: the reduced Data value and its
// string rendering.
type Result struct {
	Value  value.Data
	Output string
}

// Compile resolves root against the engine's current context, caching the
// resolved tree under name when caching is enabled. A cache hit returns
// the previously resolved tree without re-resolving.
func (e *Engine) Compile(name string, root ast.Parameter) (ast.Parameter, error) {
	e.seal()

	if !e.caching {
		return root.Resolve(e.stack()), nil
	}

	key := e.key(name)
	if entry, ok := e.cache.Retrieve(key); ok {
		return entry.Payload, nil
	}

	resolved := root.Resolve(e.stack())
	info := cache.Info{Symbols: resolved.Symbols()}
	if err := e.cache.Insert(key, resolved, info, true); err != nil {
		return ast.Parameter{}, err
	}
	return resolved, nil
}

// Render resolves and evaluates root, returning its Result. When caching
// is enabled, render usage (count, duration, output size) is reported to
// the cache via Touch, per spec §4.9.
func (e *Engine) Render(name string, root ast.Parameter) (Result, error) {
	start := time.Now()

	resolved, err := e.Compile(name, root)
	if err != nil {
		return Result{}, err
	}

	d := resolved.Evaluate(e.stack())
	result := Result{Value: d, Output: d.String()}

	if e.caching {
		key := e.key(name)
		e.cache.TouchKey(key, cache.Touch{
			RenderCount:    1,
			ExecutionTime:  time.Since(start),
			SerializedSize: int64(len(result.Output)),
		})
	}
	return result, nil
}

// Cache exposes the engine's compiled-tree cache for host-level
// introspection (count/isEmpty/keys, spec §6).
func (e *Engine) Cache() *cache.Cache[ast.Parameter] { return e.cache }

func (e *Engine) stack() *varstack.Stack { return varstack.New(e.context) }

// key derives a cache key from name alone: a pre-built ast.Parameter tree
// has no stable text form to fingerprint (the lexer/parser producing one
// from source is out of scope), so the caller-supplied name is this
// engine's entire cache identity. Callers that recompile a different tree
// under the same name must pass WithCaching(false) or expect the cache's
// stale entry.
func (e *Engine) key(name string) cache.ASTKey {
	return cache.NewASTKey(name, name)
}

// seal freezes the runtime configuration on first render/compile, per
// spec §4.10.
func (e *Engine) seal() {
	if !e.config.Sealed() {
		e.config.Seal()
	}
}
