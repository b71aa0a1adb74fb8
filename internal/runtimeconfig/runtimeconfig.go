// Package runtimeconfig implements the write-once process configuration of
// spec.md §4.10: the tag-sigil character and the entities registry, both
// sealed at first render.
//
// Grounded on the teacher's cmd/dwscript/cmd flag wiring in spirit
// (validated setters guarding a frozen runtime state), reduced to a plain
// package since this is process-wide global state, not a CLI surface.
package runtimeconfig

import (
	"fmt"
	"sync"

	"github.com/cwbudde/go-tmplkit/internal/entities"
)

// DefaultSigil is the tag-sigil used when no host has set one.
const DefaultSigil = '#'

// Config holds the two write-once globals. The zero Config is usable: it
// starts with DefaultSigil and no registry, unsealed.
type Config struct {
	mu     sync.RWMutex
	sigil  rune
	reg    *entities.Registry
	sealed bool
	debug  bool
}

// New builds an unsealed Config with the default sigil.
func New() *Config {
	return &Config{sigil: DefaultSigil}
}

// SetDebug toggles whether a post-seal set attempt reports a diagnostic
// (true) or silently no-ops (false, the default).
func (c *Config) SetDebug(debug bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.debug = debug
}

// SetSigil validates and stores the tag-sigil character, before sealing.
// validate may be nil to accept any rune. Predicate failure at initial
// bind is reported as an error; the caller is expected to treat it as a
// fatal configuration mistake, not a soft per-render failure. Calling
// SetSigil after Seal reports a diagnostic in debug mode and is otherwise
// a silent no-op, per spec §4.10.
func (c *Config) SetSigil(sigil rune, validate func(rune) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		if c.debug {
			return fmt.Errorf("runtimeconfig: sigil set attempted after sealing (ignored)")
		}
		return nil
	}
	if validate != nil && !validate(sigil) {
		return fmt.Errorf("runtimeconfig: sigil %q rejected by validation predicate", sigil)
	}
	c.sigil = sigil
	return nil
}

// SetRegistry validates and stores the entities registry, before sealing.
// Same pre/post-seal contract as SetSigil.
func (c *Config) SetRegistry(reg *entities.Registry, validate func(*entities.Registry) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sealed {
		if c.debug {
			return fmt.Errorf("runtimeconfig: registry set attempted after sealing (ignored)")
		}
		return nil
	}
	if validate != nil && !validate(reg) {
		return fmt.Errorf("runtimeconfig: registry rejected by validation predicate")
	}
	c.reg = reg
	return nil
}

// Seal freezes the configuration. Idempotent: sealing an already-sealed
// Config is a no-op, matching "sealed at first render" rather than
// "sealed exactly once".
func (c *Config) Seal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sealed = true
}

// Sealed reports whether Seal has been called.
func (c *Config) Sealed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sealed
}

// Sigil returns the current tag-sigil character.
func (c *Config) Sigil() rune {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sigil == 0 {
		return DefaultSigil
	}
	return c.sigil
}

// Registry returns the current entities registry, or nil if none was set.
func (c *Config) Registry() *entities.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg
}
