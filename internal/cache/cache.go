// Package cache implements the compiled-template cache of spec.md §4.9: a
// concurrent map from AST key to compiled AST, paired with a parallel map
// from key to usage Touch, each guarded by its own sync.RWMutex under a
// fixed cache-before-touch lock order.
//
// Grounded on the teacher's internal/interp/runtime/method_registry.go
// single-purpose-mutex-per-map discipline; the teacher's own
// internal/units cache (put/get/invalidate/clear over a *Unit) is the
// nearest shape, with file-mtime invalidation swapped for a content
// fingerprint since this cache has no file I/O of its own.
package cache

import (
	"crypto/sha256"
	"sync"
	"time"

	"github.com/cwbudde/go-tmplkit/internal/tmplerr"
	"github.com/cwbudde/go-tmplkit/internal/variable"
)

// DrainThreshold is the accumulated Touch count spec §4.9 names: once
// reached, the next retrieve (or any info read) atomically swaps the
// Touch for empty and folds the drained values into the AST's Info.
const DrainThreshold = 128

// ASTKey is a content-and-name fingerprint identifying one compiled
// template.
type ASTKey struct {
	Name        string
	fingerprint [32]byte
}

// NewASTKey fingerprints source under name.
func NewASTKey(name, source string) ASTKey {
	return ASTKey{Name: name, fingerprint: sha256.Sum256([]byte(source))}
}

// Touch aggregates per-retrieval usage counters. The zero Touch is the
// distinguished empty value spec §4.9 requires.
type Touch struct {
	RenderCount    int64
	ExecutionTime  time.Duration
	SerializedSize int64
}

// IsEmpty reports whether t carries no accumulated usage.
func (t Touch) IsEmpty() bool {
	return t.RenderCount == 0 && t.ExecutionTime == 0 && t.SerializedSize == 0
}

// Merge aggregates t with other, summing every counter.
func (t Touch) Merge(other Touch) Touch {
	return Touch{
		RenderCount:    t.RenderCount + other.RenderCount,
		ExecutionTime:  t.ExecutionTime + other.ExecutionTime,
		SerializedSize: t.SerializedSize + other.SerializedSize,
	}
}

// Info records an AST's symbol dependencies and its drained usage
// statistics.
type Info struct {
	Symbols []variable.Variable
	Usage   Touch
}

// Entry is one cached compiled AST: its payload of type T plus the
// rematerializing Info record.
type Entry[T any] struct {
	Key     ASTKey
	Payload T
	Info    Info
}

// Cache is the concurrent AST store. Lock ordering is invariant: cache
// before touch, never the reverse, so a caller holding only one lock
// can never deadlock against a caller holding both.
type Cache[T any] struct {
	cacheMu sync.RWMutex
	entries map[ASTKey]*Entry[T]

	touchMu sync.RWMutex
	touches map[ASTKey]Touch
}

// New builds an empty Cache.
func New[T any]() *Cache[T] {
	return &Cache[T]{
		entries: make(map[ASTKey]*Entry[T]),
		touches: make(map[ASTKey]Touch),
	}
}

// Insert stores payload under key. If key is already present and replace
// is false, Insert fails with a *tmplerr.KeyExists rather than
// overwriting; otherwise it stores the entry and initializes an empty
// Touch.
func (c *Cache[T]) Insert(key ASTKey, payload T, info Info, replace bool) error {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	if _, exists := c.entries[key]; exists && !replace {
		return &tmplerr.KeyExists{Name: key.Name}
	}
	c.entries[key] = &Entry[T]{Key: key, Payload: payload, Info: info}

	c.touchMu.Lock()
	c.touches[key] = Touch{}
	c.touchMu.Unlock()
	return nil
}

// Retrieve returns the entry stored under key. When the key's
// accumulated Touch has reached DrainThreshold, the Touch is atomically
// swapped for empty and folded into the entry's Info before it is
// returned.
func (c *Cache[T]) Retrieve(key ASTKey) (Entry[T], bool) {
	c.cacheMu.RLock()
	entry, ok := c.entries[key]
	if !ok {
		c.cacheMu.RUnlock()
		return Entry[T]{}, false
	}
	// Copy out from under the read lock; draining below mutates the
	// stored entry separately via its own synchronization.
	snapshot := *entry
	c.cacheMu.RUnlock()

	c.drainIfDue(key, &snapshot)
	return snapshot, true
}

func (c *Cache[T]) drainIfDue(key ASTKey, snapshot *Entry[T]) {
	c.touchMu.Lock()
	t := c.touches[key]
	if t.RenderCount < DrainThreshold {
		c.touchMu.Unlock()
		return
	}
	c.touches[key] = Touch{}
	c.touchMu.Unlock()

	snapshot.Info.Usage = snapshot.Info.Usage.Merge(t)

	c.cacheMu.Lock()
	if stored, ok := c.entries[key]; ok {
		stored.Info.Usage = stored.Info.Usage.Merge(t)
	}
	c.cacheMu.Unlock()
}

// Remove deletes key's Touch entry, then its AST, returning whether the
// key was present. A key with no Touch entry was never inserted; Remove
// reports that as not-present without touching the cache map.
func (c *Cache[T]) Remove(key ASTKey) bool {
	c.touchMu.Lock()
	_, existed := c.touches[key]
	delete(c.touches, key)
	c.touchMu.Unlock()

	if !existed {
		return false
	}

	c.cacheMu.Lock()
	delete(c.entries, key)
	c.cacheMu.Unlock()
	return true
}

// TouchKey merges values into key's accumulated Touch. A key absent from
// the cache is silently ignored.
func (c *Cache[T]) TouchKey(key ASTKey, values Touch) {
	c.touchMu.Lock()
	defer c.touchMu.Unlock()
	if t, ok := c.touches[key]; ok {
		c.touches[key] = t.Merge(values)
	}
}

// Info returns key's current Info, applying the same drain discipline as
// Retrieve but without requiring DrainThreshold to be reached: any
// nonempty Touch is folded in on an info read.
func (c *Cache[T]) Info(key ASTKey) (Info, bool) {
	c.cacheMu.RLock()
	entry, ok := c.entries[key]
	if !ok {
		c.cacheMu.RUnlock()
		return Info{}, false
	}
	info := entry.Info
	c.cacheMu.RUnlock()

	c.touchMu.Lock()
	t := c.touches[key]
	if !t.IsEmpty() {
		c.touches[key] = Touch{}
	}
	c.touchMu.Unlock()

	if !t.IsEmpty() {
		info.Usage = info.Usage.Merge(t)
		c.cacheMu.Lock()
		if stored, ok := c.entries[key]; ok {
			stored.Info.Usage = stored.Info.Usage.Merge(t)
		}
		c.cacheMu.Unlock()
	}
	return info, true
}

// DropAll clears both maps, taking the cache lock before the touch lock.
func (c *Cache[T]) DropAll() {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.touchMu.Lock()
	defer c.touchMu.Unlock()

	c.entries = make(map[ASTKey]*Entry[T])
	c.touches = make(map[ASTKey]Touch)
}

// Count returns the number of cached entries.
func (c *Cache[T]) Count() int {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	return len(c.entries)
}

// IsEmpty reports whether the cache holds no entries.
func (c *Cache[T]) IsEmpty() bool {
	return c.Count() == 0
}

// Keys returns every currently cached key, in no particular order.
func (c *Cache[T]) Keys() []ASTKey {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	keys := make([]ASTKey, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}
