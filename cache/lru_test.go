package cache

import "testing"

func TestLRU_PutLoad(t *testing.T) {
	c := New(2)

	k := Key{A: 1, B: 2}
	c.Put(k, "hello")

	val, ok := c.Load(k)
	if !ok {
		t.Fatalf("expected key to be present")
	}

	if val.(string) != "hello" {
		t.Fatalf("expected %q, got %q", "hello", val)
	}
}

func TestLRU_LoadMissing(t *testing.T) {
	c := New(2)

	if _, ok := c.Load(Key{A: 1, B: 2}); ok {
		t.Fatalf("expected missing key to report false")
	}
}

func TestLRU_EvictsOldestOnOverflow(t *testing.T) {
	c := New(2)

	k1, k2, k3 := Key{A: 1, B: 1}, Key{A: 2, B: 2}, Key{A: 3, B: 3}

	c.Put(k1, 1)
	c.Put(k2, 2)
	c.Put(k3, 3)

	if _, ok := c.Load(k1); ok {
		t.Fatalf("expected k1 to have been evicted")
	}

	if _, ok := c.Load(k2); !ok {
		t.Fatalf("expected k2 to survive eviction")
	}

	if _, ok := c.Load(k3); !ok {
		t.Fatalf("expected k3 to survive eviction")
	}

	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
}

func TestLRU_LoadRefreshesRecency(t *testing.T) {
	c := New(2)

	k1, k2, k3 := Key{A: 1, B: 1}, Key{A: 2, B: 2}, Key{A: 3, B: 3}

	c.Put(k1, 1)
	c.Put(k2, 2)

	c.Load(k1)

	c.Put(k3, 3)

	if _, ok := c.Load(k2); ok {
		t.Fatalf("expected k2 to have been evicted as least-recently-used")
	}

	if _, ok := c.Load(k1); !ok {
		t.Fatalf("expected k1 to survive, having been refreshed by Load")
	}
}

func TestLRU_Remove(t *testing.T) {
	c := New(2)

	k := Key{A: 1, B: 2}
	c.Put(k, "x")
	c.Remove(k)

	if _, ok := c.Load(k); ok {
		t.Fatalf("expected key to be removed")
	}
}

func TestLRU_EvictMatching(t *testing.T) {
	c := New(4)

	c.Put(Key{A: 1, B: 2}, "a")
	c.Put(Key{A: 3, B: 4}, "b")
	c.Put(Key{A: 5, B: 1}, "c")
	c.Put(Key{A: 6, B: 7}, "d")

	c.EvictMatching(map[uint64]struct{}{1: {}})

	if _, ok := c.Load(Key{A: 1, B: 2}); ok {
		t.Fatalf("expected entry mentioning hash 1 on side A to be evicted")
	}

	if _, ok := c.Load(Key{A: 5, B: 1}); ok {
		t.Fatalf("expected entry mentioning hash 1 on side B to be evicted")
	}

	if _, ok := c.Load(Key{A: 3, B: 4}); !ok {
		t.Fatalf("expected unrelated entry to survive")
	}

	if _, ok := c.Load(Key{A: 6, B: 7}); !ok {
		t.Fatalf("expected unrelated entry to survive")
	}

	if c.Len() != 2 {
		t.Fatalf("expected len 2 after eviction, got %d", c.Len())
	}
}
