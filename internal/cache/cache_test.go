package cache

import (
	"testing"
	"time"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string, int](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() returned a value for a missing key")
	}

	c.Set("a", 1)
	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Errorf("Get() = %v, %v, want 1, true", v, ok)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[string, int](time.Minute)

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	current := base
	c.now = func() time.Time { return current }

	c.Set("a", 1)

	current = base.Add(59 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Error("entry expired before its TTL")
	}

	current = base.Add(61 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("entry survived past its TTL")
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := New[int64, string](time.Minute)

	c.Set(1, "one")
	c.Set(2, "two")

	c.Invalidate(1)
	if _, ok := c.Get(1); ok {
		t.Error("invalidated entry still present")
	}
	if _, ok := c.Get(2); !ok {
		t.Error("unrelated entry was removed")
	}

	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after InvalidateAll, want 0", c.Len())
	}
}
