package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

func report(id string) *model.Report {
	return &model.Report{ID: id, Verdict: model.VerdictLow}
}

func TestPutGet(t *testing.T) {
	c := NewReportCache(10, time.Minute)

	c.Put(42, "7707083893", report("r1"))
	got := c.Get(42, "7707083893")
	if got == nil || got.ID != "r1" {
		t.Fatalf("Get = %+v, want r1", got)
	}

	if c.Get(43, "7707083893") != nil {
		t.Error("another user's slot must be empty")
	}
	if c.Get(42, "1111111111") != nil {
		t.Error("another tax ID must be empty")
	}
}

func TestPutReplaces(t *testing.T) {
	c := NewReportCache(10, time.Minute)

	c.Put(42, "7707083893", report("old"))
	c.Put(42, "7707083893", report("new"))

	if got := c.Get(42, "7707083893"); got == nil || got.ID != "new" {
		t.Fatalf("Get = %+v, want the replacement", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestExpiry(t *testing.T) {
	c := NewReportCache(10, 20*time.Millisecond)

	c.Put(42, "7707083893", report("r1"))
	time.Sleep(40 * time.Millisecond)

	if c.Get(42, "7707083893") != nil {
		t.Error("expired report must not be returned")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after expired Get, want 0", c.Len())
	}
}

func TestEviction(t *testing.T) {
	c := NewReportCache(3, time.Minute)

	for i := 0; i < 4; i++ {
		c.Put(int64(i), "7707083893", report(fmt.Sprintf("r%d", i)))
	}

	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if c.Get(0, "7707083893") != nil {
		t.Error("oldest entry must have been evicted")
	}
	if c.Get(3, "7707083893") == nil {
		t.Error("newest entry must survive")
	}
}

func TestEvictionPrefersLeastRecentlyUsed(t *testing.T) {
	c := NewReportCache(3, time.Minute)

	c.Put(1, "1", report("r1"))
	c.Put(2, "2", report("r2"))
	c.Put(3, "3", report("r3"))

	// Touch the oldest so the middle one becomes the eviction victim.
	if c.Get(1, "1") == nil {
		t.Fatal("warm-up Get failed")
	}
	c.Put(4, "4", report("r4"))

	if c.Get(2, "2") != nil {
		t.Error("least recently used entry must be evicted")
	}
	if c.Get(1, "1") == nil {
		t.Error("recently touched entry must survive")
	}
}

func TestSweep(t *testing.T) {
	c := NewReportCache(10, 20*time.Millisecond)

	c.Put(1, "1", report("r1"))
	c.Put(2, "2", report("r2"))
	time.Sleep(40 * time.Millisecond)
	c.Put(3, "3", report("r3"))

	removed := c.Sweep()
	if removed != 2 {
		t.Errorf("Sweep removed %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d after sweep, want 1", c.Len())
	}
	if c.Get(3, "3") == nil {
		t.Error("fresh entry must survive the sweep")
	}
}
