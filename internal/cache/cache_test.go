package cache

import (
	"sync"
	"testing"
)

func TestNewCacheIsEmpty(t *testing.T) {
	c := New[string]()
	if !c.IsEmpty() || c.Count() != 0 {
		t.Fatalf("expected a new cache to be empty")
	}
}

func TestCacheInsertAndRetrieve(t *testing.T) {
	c := New[string]()
	key := NewASTKey("greeting", "Hello, {{name}}!")

	if err := c.Insert(key, "compiled-ast", Info{}, false); err != nil {
		t.Fatalf("unexpected error inserting: %v", err)
	}

	entry, ok := c.Retrieve(key)
	if !ok {
		t.Fatalf("expected to retrieve the inserted entry")
	}
	if entry.Payload != "compiled-ast" {
		t.Fatalf("expected payload %q, got %q", "compiled-ast", entry.Payload)
	}
}

func TestCacheInsertWithoutReplaceFails(t *testing.T) {
	c := New[string]()
	key := NewASTKey("greeting", "A")

	if err := c.Insert(key, "first", Info{}, false); err != nil {
		t.Fatalf("unexpected error on first insert: %v", err)
	}
	err := c.Insert(key, "second", Info{}, false)
	if err == nil {
		t.Fatalf("expected keyExists error on duplicate insert without replace")
	}

	entry, _ := c.Retrieve(key)
	if entry.Payload != "first" {
		t.Fatalf("a failed insert must not overwrite the existing entry, got %q", entry.Payload)
	}
}

func TestCacheInsertWithReplaceOverwrites(t *testing.T) {
	c := New[string]()
	key := NewASTKey("greeting", "A")

	_ = c.Insert(key, "first", Info{}, false)
	if err := c.Insert(key, "second", Info{}, true); err != nil {
		t.Fatalf("unexpected error replacing: %v", err)
	}

	entry, _ := c.Retrieve(key)
	if entry.Payload != "second" {
		t.Fatalf("expected replaced payload %q, got %q", "second", entry.Payload)
	}
}

func TestCacheRemoveDistinguishesAbsence(t *testing.T) {
	c := New[string]()
	key := NewASTKey("x", "body")

	if c.Remove(key) {
		t.Fatalf("removing a key that was never inserted must report false")
	}

	_ = c.Insert(key, "v", Info{}, false)
	if !c.Remove(key) {
		t.Fatalf("removing a present key must report true")
	}
	if _, ok := c.Retrieve(key); ok {
		t.Fatalf("the key must no longer be retrievable after removal")
	}
}

func TestCacheTouchDrainsAtThreshold(t *testing.T) {
	c := New[string]()
	key := NewASTKey("x", "body")
	_ = c.Insert(key, "v", Info{}, false)

	for i := 0; i < DrainThreshold; i++ {
		c.TouchKey(key, Touch{RenderCount: 1})
	}

	entry, _ := c.Retrieve(key)
	if entry.Info.Usage.RenderCount != DrainThreshold {
		t.Fatalf("expected drained usage of %d renders, got %d", DrainThreshold, entry.Info.Usage.RenderCount)
	}

	// A subsequent TouchKey before reaching the threshold again must not
	// yet be visible in Info's drained usage.
	c.TouchKey(key, Touch{RenderCount: 1})
	entry, _ = c.Retrieve(key)
	if entry.Info.Usage.RenderCount != DrainThreshold {
		t.Fatalf("expected usage to remain at %d until the next drain, got %d", DrainThreshold, entry.Info.Usage.RenderCount)
	}
}

func TestCacheTouchIgnoresMissingKey(t *testing.T) {
	c := New[string]()
	c.TouchKey(NewASTKey("ghost", ""), Touch{RenderCount: 1}) // must not panic
}

func TestCacheInfoDrainsAnyNonemptyTouchRegardlessOfThreshold(t *testing.T) {
	c := New[string]()
	key := NewASTKey("x", "body")
	_ = c.Insert(key, "v", Info{}, false)
	c.TouchKey(key, Touch{RenderCount: 3})

	info, ok := c.Info(key)
	if !ok {
		t.Fatalf("expected info for a present key")
	}
	if info.Usage.RenderCount != 3 {
		t.Fatalf("expected info to fold in a nonempty touch below threshold, got %d", info.Usage.RenderCount)
	}
}

func TestCacheDropAllClearsBothMaps(t *testing.T) {
	c := New[string]()
	_ = c.Insert(NewASTKey("a", "1"), "a", Info{}, false)
	_ = c.Insert(NewASTKey("b", "2"), "b", Info{}, false)

	c.DropAll()

	if !c.IsEmpty() {
		t.Fatalf("expected an empty cache after DropAll")
	}
	if len(c.Keys()) != 0 {
		t.Fatalf("expected no keys after DropAll")
	}
}

func TestCacheKeysReflectsCount(t *testing.T) {
	c := New[int]()
	_ = c.Insert(NewASTKey("a", "1"), 1, Info{}, false)
	_ = c.Insert(NewASTKey("b", "2"), 2, Info{}, false)

	keys := c.Keys()
	if len(keys) != 2 || c.Count() != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New[int]()
	key := NewASTKey("hot", "body")
	_ = c.Insert(key, 1, Info{}, false)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			c.TouchKey(key, Touch{RenderCount: 1})
		}()
		go func() {
			defer wg.Done()
			_, _ = c.Retrieve(key)
		}()
		go func() {
			defer wg.Done()
			_, _ = c.Info(key)
		}()
	}
	wg.Wait()
}
