// Package cache keeps recently generated reports so a follow-up
// action (the PDF export) can reuse them without re-querying the
// external registries.
package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/nik997414-ui/Contragent-bot/internal/model"
)

// ReportCache is a thread-safe LRU cache with TTL, keyed by the user
// and the evaluated tax ID.
type ReportCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	items   map[string]*list.Element
	order   *list.List
}

type entry struct {
	key       string
	report    *model.Report
	expiresAt time.Time
}

// NewReportCache creates a cache holding up to maxSize reports, each
// for at most ttl.
func NewReportCache(maxSize int, ttl time.Duration) *ReportCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &ReportCache{
		ttl:     ttl,
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Put stores a report, replacing any previous one for the same pair.
func (c *ReportCache) Put(userID int64, inn string, report *model.Report) {
	k := key(userID, inn)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[k]; ok {
		c.order.MoveToFront(elem)
		e := elem.Value.(*entry)
		e.report = report
		e.expiresAt = time.Now().Add(c.ttl)
		return
	}

	elem := c.order.PushFront(&entry{
		key:       k,
		report:    report,
		expiresAt: time.Now().Add(c.ttl),
	})
	c.items[k] = elem

	for c.order.Len() > c.maxSize {
		c.removeOldest()
	}
}

// Get returns the cached report or nil when absent or expired.
func (c *ReportCache) Get(userID int64, inn string) *model.Report {
	k := key(userID, inn)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[k]
	if !ok {
		return nil
	}
	e := elem.Value.(*entry)
	if time.Now().After(e.expiresAt) {
		c.removeElement(elem)
		return nil
	}
	c.order.MoveToFront(elem)
	return e.report
}

// Sweep drops all expired entries and returns how many were removed.
func (c *ReportCache) Sweep() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*entry).expiresAt) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// Len returns the number of cached reports, expired ones included.
func (c *ReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func key(userID int64, inn string) string {
	return fmt.Sprintf("%d:%s", userID, inn)
}

func (c *ReportCache) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry).key)
}

func (c *ReportCache) removeOldest() {
	if elem := c.order.Back(); elem != nil {
		c.removeElement(elem)
	}
}
