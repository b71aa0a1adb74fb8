package runtimeconfig

import (
	"testing"

	"github.com/cwbudde/go-tmplkit/internal/entities"
)

func TestNewConfigDefaults(t *testing.T) {
	c := New()
	if c.Sigil() != DefaultSigil {
		t.Fatalf("expected default sigil %q, got %q", DefaultSigil, c.Sigil())
	}
	if c.Sealed() {
		t.Fatalf("a fresh config must not be sealed")
	}
}

func TestSetSigilBeforeSeal(t *testing.T) {
	c := New()
	if err := c.SetSigil('@', nil); err != nil {
		t.Fatalf("unexpected error setting sigil: %v", err)
	}
	if c.Sigil() != '@' {
		t.Fatalf("expected sigil '@', got %q", c.Sigil())
	}
}

func TestSetSigilPredicateRejection(t *testing.T) {
	c := New()
	err := c.SetSigil(' ', func(r rune) bool { return r != ' ' })
	if err == nil {
		t.Fatalf("expected an error when the predicate rejects the sigil")
	}
	if c.Sigil() != DefaultSigil {
		t.Fatalf("a rejected sigil must not be stored")
	}
}

func TestSetSigilAfterSealIsNoOp(t *testing.T) {
	c := New()
	c.Seal()
	if err := c.SetSigil('@', nil); err != nil {
		t.Fatalf("a post-seal set should silently no-op by default, got error: %v", err)
	}
	if c.Sigil() != DefaultSigil {
		t.Fatalf("a post-seal set must not change the sigil")
	}
}

func TestSetSigilAfterSealReportsInDebugMode(t *testing.T) {
	c := New()
	c.SetDebug(true)
	c.Seal()
	if err := c.SetSigil('@', nil); err == nil {
		t.Fatalf("expected a diagnostic error for a post-seal set in debug mode")
	}
}

func TestSetRegistryBeforeSeal(t *testing.T) {
	c := New()
	reg := entities.NewRegistry()
	if err := c.SetRegistry(reg, nil); err != nil {
		t.Fatalf("unexpected error setting registry: %v", err)
	}
	if c.Registry() != reg {
		t.Fatalf("expected the stored registry to be the one set")
	}
}

func TestSealIsIdempotent(t *testing.T) {
	c := New()
	c.Seal()
	c.Seal()
	if !c.Sealed() {
		t.Fatalf("expected config to remain sealed")
	}
}
