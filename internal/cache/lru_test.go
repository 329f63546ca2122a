package cache

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/log"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	clk.t = clk.t.Add(30 * time.Second)
	c.Set("b", "refreshed")

	clk.t = clk.t.Add(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if v, ok := c.Get("b"); !ok || v != "refreshed" {
		t.Errorf("Get(b) = %q, %v", v, ok)
	}

	clk.t = clk.t.Add(time.Minute)
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after cleanup", c.Size())
	}
}

func TestLRUZeroTTLNeverExpires(t *testing.T) {
	c, clk := newTestCache(10, 0)
	c.Set("a", "1")
	clk.t = clk.t.Add(24 * time.Hour)
	if _, ok := c.Get("a"); !ok {
		t.Error("zero ttl entries must not expire")
	}
}

func TestGetOrCompute(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	calls := 0
	compute := func() string {
		calls++
		return "value"
	}

	for i := 0; i < 3; i++ {
		if got := c.GetOrCompute("k", compute); got != "value" {
			t.Fatalf("GetOrCompute = %q", got)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("Stats() = %d hits, %d misses", hits, misses)
	}

	c.Purge()
	c.GetOrCompute("k", compute)
	if calls != 2 {
		t.Errorf("compute should run again after Purge, calls = %d", calls)
	}
}

func TestKey(t *testing.T) {
	if got := Key("dashboard", uint64(3), "2025-03", 6); got != "dashboard:3:2025-03:6" {
		t.Errorf("Key() = %q", got)
	}
}

func TestManagerSweep(t *testing.T) {
	a, clkA := newTestCache(10, time.Second)
	b, clkB := newTestCache(10, time.Second)
	a.Set("x", "1")
	b.Set("y", "2")
	b.Set("z", "3")
	clkA.t = clkA.t.Add(2 * time.Second)
	clkB.t = clkB.t.Add(2 * time.Second)

	m := NewManager(log.Discard())
	m.Register(a)
	m.Register(b)
	if n := m.Sweep(); n != 3 {
		t.Errorf("Sweep() = %d, want 3", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Run(ctx, time.Hour); err != nil {
		t.Errorf("Run() = %v after cancel", err)
	}
}
